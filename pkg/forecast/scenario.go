// Package forecast projects multi-year portfolio trajectories under
// named macroeconomic scenarios. A scenario's macro and sector factors
// are mapped to multiplicative adjustments of the portfolio's exit
// valuations, progression probabilities and loss probabilities, and a
// simplified per-year Monte Carlo projection (not the full stage
// walker) estimates value, exits and fees year by year.
package forecast

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RateCycle describes the central-bank policy direction.
type RateCycle int

const (
	RateCutting RateCycle = iota
	RateHolding
	RateHiking
)

var rateCycleKeys = [...]string{
	RateCutting: "cutting",
	RateHolding: "holding",
	RateHiking:  "hiking",
}

// Sentiment describes overall venture-market mood.
type Sentiment int

const (
	SentimentBearish Sentiment = iota
	SentimentNeutral
	SentimentBullish
)

var sentimentKeys = [...]string{
	SentimentBearish: "bearish",
	SentimentNeutral: "neutral",
	SentimentBullish: "bullish",
}

// Liquidity describes how freely late-stage and exit capital flows.
type Liquidity int

const (
	LiquidityTight Liquidity = iota
	LiquidityNormal
	LiquidityAbundant
)

var liquidityKeys = [...]string{
	LiquidityTight:    "tight",
	LiquidityNormal:   "normal",
	LiquidityAbundant: "abundant",
}

func enumString(keys []string, v int) string {
	if v < 0 || v >= len(keys) {
		return fmt.Sprintf("unknown(%d)", v)
	}
	return keys[v]
}

func parseEnum(keys []string, raw string) (int, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	for i, k := range keys {
		if norm == k {
			return i, nil
		}
	}
	return 0, fmt.Errorf("forecast: unknown value %q", raw)
}

func (r RateCycle) String() string { return enumString(rateCycleKeys[:], int(r)) }
func (s Sentiment) String() string { return enumString(sentimentKeys[:], int(s)) }
func (l Liquidity) String() string { return enumString(liquidityKeys[:], int(l)) }

func (r RateCycle) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }
func (s Sentiment) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }
func (l Liquidity) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func unmarshalEnum(data []byte, keys []string) (int, error) {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("forecast: expected a string: %w", err)
	}
	return parseEnum(keys, raw)
}

func (r *RateCycle) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, rateCycleKeys[:])
	if err != nil {
		return err
	}
	*r = RateCycle(v)
	return nil
}

func (s *Sentiment) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, sentimentKeys[:])
	if err != nil {
		return err
	}
	*s = Sentiment(v)
	return nil
}

func (l *Liquidity) UnmarshalJSON(data []byte) error {
	v, err := unmarshalEnum(data, liquidityKeys[:])
	if err != nil {
		return err
	}
	*l = Liquidity(v)
	return nil
}

// MacroFactors describes the macroeconomic backdrop of a scenario.
// Numeric fields are annual percentages except MarketMultiple, which is
// a public-market forward earnings multiple.
type MacroFactors struct {
	RateCycle      RateCycle `json:"rate_cycle"`
	Sentiment      Sentiment `json:"sentiment"`
	InterestRate   float64   `json:"interest_rate"`
	Inflation      float64   `json:"inflation"`
	GDPGrowth      float64   `json:"gdp_growth"`
	MarketMultiple float64   `json:"market_multiple"`
	Liquidity      Liquidity `json:"liquidity"`
}

// SectorTrend describes one sector's outlook. Score fields run 0-100
// with 50 neutral; ExpectedCAGR is the sector's expected compound
// annual growth in percent.
type SectorTrend struct {
	GrowthOutlook       float64 `json:"growth_outlook"`
	DisruptionRisk      float64 `json:"disruption_risk"`
	RegulatoryRisk      float64 `json:"regulatory_risk"`
	Competition         float64 `json:"competition"`
	FundingAvailability float64 `json:"funding_availability"`
	ExpectedCAGR        float64 `json:"expected_cagr"`
}

// NeutralMacro returns the macro backdrop that derives every adjustment
// factor to exactly 1.0.
func NeutralMacro() MacroFactors {
	return MacroFactors{
		RateCycle:      RateHolding,
		Sentiment:      SentimentNeutral,
		InterestRate:   NeutralInterestRate,
		Inflation:      NeutralInflation,
		GDPGrowth:      NeutralGDPGrowth,
		MarketMultiple: NeutralMarketMultiple,
		Liquidity:      LiquidityNormal,
	}
}

// NeutralTrend returns the sector outlook that derives every adjustment
// factor to exactly 1.0.
func NeutralTrend() SectorTrend {
	return SectorTrend{
		GrowthOutlook:       NeutralScore,
		DisruptionRisk:      NeutralScore,
		RegulatoryRisk:      NeutralScore,
		Competition:         NeutralScore,
		FundingAvailability: NeutralScore,
		ExpectedCAGR:        NeutralCAGR,
	}
}

// Scenario pairs a macro backdrop and per-sector outlooks with a
// probability weight and a forecast horizon.
type Scenario struct {
	Name string `json:"name"`

	// Probability is the scenario's weight (0-100) when aggregating
	// across scenarios. Weights need not sum to 100; they are
	// normalized.
	Probability float64 `json:"probability"`

	HorizonYears int `json:"horizon_years"`

	Macro MacroFactors `json:"macro"`

	// Sectors holds per-sector outlooks keyed by sector tag. Sectors
	// absent from the map use the neutral trend.
	Sectors map[string]SectorTrend `json:"sectors,omitempty"`
}

// Trend returns the outlook for a sector, neutral when the scenario
// does not single the sector out.
func (sc *Scenario) Trend(sector string) SectorTrend {
	if t, ok := sc.Sectors[sector]; ok {
		return t
	}
	return NeutralTrend()
}

// DefaultScenarios returns the built-in scenario set: a bull case, a
// base case and a bear case over a ten-year horizon, weighted toward
// the base case.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:         "expansion",
			Probability:  25,
			HorizonYears: 10,
			Macro: MacroFactors{
				RateCycle:      RateCutting,
				Sentiment:      SentimentBullish,
				InterestRate:   2,
				Inflation:      2.5,
				GDPGrowth:      3.5,
				MarketMultiple: 22,
				Liquidity:      LiquidityAbundant,
			},
		},
		{
			Name:         "baseline",
			Probability:  50,
			HorizonYears: 10,
			Macro:        NeutralMacro(),
		},
		{
			Name:         "contraction",
			Probability:  25,
			HorizonYears: 10,
			Macro: MacroFactors{
				RateCycle:      RateHiking,
				Sentiment:      SentimentBearish,
				InterestRate:   5.5,
				Inflation:      4,
				GDPGrowth:      -0.5,
				MarketMultiple: 14,
				Liquidity:      LiquidityTight,
			},
		},
	}
}
