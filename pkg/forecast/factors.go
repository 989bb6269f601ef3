package forecast

import "github.com/venturelab/fundsim-go/pkg/fund"

// Neutral anchors. Inputs at these values contribute no adjustment.
const (
	NeutralInterestRate   = 3.0
	NeutralInflation      = 2.0
	NeutralGDPGrowth      = 2.0
	NeutralMarketMultiple = 18.0
	NeutralScore          = 50.0
	NeutralCAGR           = 10.0
)

// Per-unit slopes for the numeric inputs: the factor moves this much
// per point of distance from the neutral anchor, in the direction the
// field name states.
const (
	slopeRateValuation      = 0.02  // each point of interest rate discounts exits
	slopeInflationValuation = 0.015 // inflation above target compresses real exits
	slopeGDPProgression     = 0.02  // growth above trend lifts round completion
	slopeGDPLoss            = 0.015 // contraction raises write-off odds
	slopeCAGRValuation      = 0.005 // sector growth above trend re-rates exits
	slopeScoreValuation     = 0.004 // per point of growth outlook
	slopeScoreProgression   = 0.003 // per point of growth outlook or funding
	slopeScoreLoss          = 0.004 // per point of disruption or regulatory risk
	slopeCompetitionVal     = 0.002 // crowded sectors price exits down
	slopeFundingLoss        = 0.002 // scarce funding starves companies
)

// Factor bounds keep extreme scenario inputs from producing negative or
// absurd multipliers.
const (
	minFactor = 0.25
	maxFactor = 4.0
)

// Probability caps after adjustment.
const (
	maxProgressionProb = 95
	maxLossProb        = 90
)

// Factors are the multiplicative adjustments one scenario applies to a
// single investment's parameters. The neutral scenario derives all
// three to exactly 1.0.
type Factors struct {
	// Valuation scales both bounds of every exit valuation range.
	Valuation float64 `json:"valuation"`

	// Progression scales stage progression probabilities, capped at 95.
	Progression float64 `json:"progression"`

	// Loss scales loss probabilities, capped at 90.
	Loss float64 `json:"loss"`
}

// qualitative effect tables; the neutral row of each is the identity.
var rateCycleEffects = [...]Factors{
	RateCutting: {Valuation: 1.10, Progression: 1.05, Loss: 0.95},
	RateHolding: {Valuation: 1, Progression: 1, Loss: 1},
	RateHiking:  {Valuation: 0.88, Progression: 0.93, Loss: 1.10},
}

var sentimentEffects = [...]Factors{
	SentimentBearish: {Valuation: 0.85, Progression: 0.90, Loss: 1.15},
	SentimentNeutral: {Valuation: 1, Progression: 1, Loss: 1},
	SentimentBullish: {Valuation: 1.12, Progression: 1.08, Loss: 0.92},
}

var liquidityEffects = [...]Factors{
	LiquidityTight:    {Valuation: 0.85, Progression: 0.88, Loss: 1.18},
	LiquidityNormal:   {Valuation: 1, Progression: 1, Loss: 1},
	LiquidityAbundant: {Valuation: 1.10, Progression: 1.10, Loss: 0.90},
}

func (f *Factors) apply(e Factors) {
	f.Valuation *= e.Valuation
	f.Progression *= e.Progression
	f.Loss *= e.Loss
}

// DeriveFactors maps a scenario's macro backdrop and one sector's
// outlook to adjustment factors. Each mapping is monotonic: easier
// money, better sentiment, a stronger economy, richer public comps and
// a healthier sector all push valuations and progression up and losses
// down; their opposites reverse every arrow.
func DeriveFactors(macro MacroFactors, trend SectorTrend) Factors {
	f := Factors{Valuation: 1, Progression: 1, Loss: 1}

	if int(macro.RateCycle) >= 0 && int(macro.RateCycle) < len(rateCycleEffects) {
		f.apply(rateCycleEffects[macro.RateCycle])
	}
	if int(macro.Sentiment) >= 0 && int(macro.Sentiment) < len(sentimentEffects) {
		f.apply(sentimentEffects[macro.Sentiment])
	}
	if int(macro.Liquidity) >= 0 && int(macro.Liquidity) < len(liquidityEffects) {
		f.apply(liquidityEffects[macro.Liquidity])
	}

	f.Valuation *= 1 - slopeRateValuation*(macro.InterestRate-NeutralInterestRate)
	f.Valuation *= 1 - slopeInflationValuation*(macro.Inflation-NeutralInflation)
	f.Progression *= 1 + slopeGDPProgression*(macro.GDPGrowth-NeutralGDPGrowth)
	f.Loss *= 1 - slopeGDPLoss*(macro.GDPGrowth-NeutralGDPGrowth)
	if macro.MarketMultiple > 0 {
		f.Valuation *= macro.MarketMultiple / NeutralMarketMultiple
	}

	f.Valuation *= 1 + slopeScoreValuation*(trend.GrowthOutlook-NeutralScore)
	f.Valuation *= 1 - slopeCompetitionVal*(trend.Competition-NeutralScore)
	f.Valuation *= 1 + slopeCAGRValuation*(trend.ExpectedCAGR-NeutralCAGR)
	f.Progression *= 1 + slopeScoreProgression*(trend.GrowthOutlook-NeutralScore)
	f.Progression *= 1 + slopeScoreProgression*(trend.FundingAvailability-NeutralScore)
	f.Loss *= 1 + slopeScoreLoss*(trend.DisruptionRisk-NeutralScore)
	f.Loss *= 1 + slopeScoreLoss*(trend.RegulatoryRisk-NeutralScore)
	f.Loss *= 1 - slopeFundingLoss*(trend.FundingAvailability-NeutralScore)

	f.Valuation = clampFactor(f.Valuation)
	f.Progression = clampFactor(f.Progression)
	f.Loss = clampFactor(f.Loss)
	return f
}

func clampFactor(v float64) float64 {
	if v < minFactor {
		return minFactor
	}
	if v > maxFactor {
		return maxFactor
	}
	return v
}

// clampProb caps an adjusted probability. A value already above the
// cap before adjustment keeps its own ceiling, so the neutral scenario
// never alters it.
func clampProb(v, orig, cap float64) float64 {
	if orig > cap {
		cap = orig
	}
	if v < 0 {
		return 0
	}
	if v > cap {
		return cap
	}
	return v
}

// ApplyScenario returns a copy of the portfolio with every investment's
// exit valuations, progression probabilities and loss probabilities
// adjusted by the factors derived for its sector. The neutral scenario
// returns an identical copy.
func ApplyScenario(p *fund.Portfolio, sc *Scenario) *fund.Portfolio {
	out := p.Clone()
	for i := range out.Investments {
		inv := &out.Investments[i]
		f := DeriveFactors(sc.Macro, sc.Trend(inv.Sector))
		for _, s := range fund.Stages() {
			sp := inv.Params[s]
			sp.ExitValuation = sp.ExitValuation.Scale(f.Valuation)
			sp.Progression = clampProb(sp.Progression*f.Progression, sp.Progression, maxProgressionProb)
			sp.LossProb = clampProb(sp.LossProb*f.Loss, sp.LossProb, maxLossProb)
			inv.Params[s] = sp
		}
	}
	return out
}
