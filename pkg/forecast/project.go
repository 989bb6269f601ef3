package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/venturelab/fundsim-go/pkg/fund"
	"github.com/venturelab/fundsim-go/pkg/sim"
)

// ErrNoHorizon is returned when a scenario has no forecast years.
var ErrNoHorizon = errors.New("forecast: scenario horizon must be at least one year")

// stageGrowth is the annual gross value growth range of a position
// sitting at each stage. Early stages compound faster, listed companies
// barely outgrow the market.
var stageGrowth = [fund.NumStages]fund.Range{
	fund.PreSeed: {Min: 1.10, Max: 1.80},
	fund.Seed:    {Min: 1.10, Max: 1.70},
	fund.SeriesA: {Min: 1.05, Max: 1.60},
	fund.SeriesB: {Min: 1.05, Max: 1.50},
	fund.SeriesC: {Min: 1.00, Max: 1.40},
	fund.IPO:     {Min: 0.95, Max: 1.25},
}

// yearlyExitProb is the chance (fraction per year) that a position at
// each stage liquidates that year, before the age ramp.
var yearlyExitProb = [fund.NumStages]float64{
	fund.PreSeed: 0.04,
	fund.Seed:    0.06,
	fund.SeriesA: 0.10,
	fund.SeriesB: 0.16,
	fund.SeriesC: 0.24,
	fund.IPO:     0.45,
}

const (
	// timeDecayRate erodes the growth premium as a cohort ages.
	timeDecayRate = 0.08

	// exitAgeRamp adds to the yearly exit chance per elapsed year;
	// funds push for liquidity as they mature.
	exitAgeRamp = 0.02

	maxYearlyExitProb = 0.6

	// scenarioSeedStride spaces per-scenario seed streams apart.
	scenarioSeedStride = 4_000_037
)

// YearProjection is one year of a scenario's forecast, averaged across
// trials. Money fields are $M.
type YearProjection struct {
	Year int `json:"year"`

	// PortfolioValue is the estimated value of still-held positions at
	// year end.
	PortfolioValue float64 `json:"portfolio_value"`

	// ExitValue is the proceeds realized during the year.
	ExitValue float64 `json:"exit_value"`

	// FeesPaid is the management fee charged for the year.
	FeesPaid float64 `json:"fees_paid"`

	// NetCashFlow is ExitValue minus FeesPaid.
	NetCashFlow float64 `json:"net_cash_flow"`

	// Multiple is the running (distributed + held) over committed
	// capital through this year.
	Multiple float64 `json:"multiple"`

	// IRR is the annualized rate implied by the running multiple,
	// multiple^(1/year) - 1.
	IRR float64 `json:"irr"`
}

// ScenarioForecast is one scenario's full projection.
type ScenarioForecast struct {
	Scenario    string  `json:"scenario"`
	Probability float64 `json:"probability"`

	// Seed is the base seed the projection sampled from.
	Seed int64 `json:"seed"`

	// Factors are the adjustments derived per sector present in the
	// portfolio. The empty key holds the factors for untagged
	// investments.
	Factors map[string]Factors `json:"factors"`

	Years []YearProjection `json:"years"`

	// FinalMultiple and FinalIRR are the last year's running values.
	FinalMultiple float64 `json:"final_multiple"`
	FinalIRR      float64 `json:"final_irr"`

	// TotalDistributed is the sum of yearly exit proceeds ($M).
	TotalDistributed float64 `json:"total_distributed"`
}

type options struct {
	seed   int64
	seeded bool
}

// Option configures a projection or comparison.
type Option func(*options)

// WithSeed pins the base random seed so a forecast can be replayed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		seed, err := sim.NewSeed()
		if err != nil {
			seed = time.Now().UnixNano()
		}
		o.seed = seed
	}
	return o
}

// Project forecasts the portfolio year by year under one scenario. It
// first adjusts the portfolio by the scenario's derived factors, then
// averages cfg.NumSimulations lightweight yearly walks: each position
// grows by a stage-dependent multiplier damped by age, may advance a
// stage, and may liquidate at the stage's yearly exit chance, with the
// stage's loss probability deciding between proceeds and a write-off.
func Project(p *fund.Portfolio, cfg fund.SimulationConfig, sc *Scenario, opts ...Option) (*ScenarioForecast, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sc.HorizonYears <= 0 {
		return nil, ErrNoHorizon
	}
	if sc.Probability < 0 {
		return nil, fmt.Errorf("forecast: scenario %q: probability must not be negative, got %g", sc.Name, sc.Probability)
	}
	o := buildOptions(opts)

	adjusted := ApplyScenario(p, sc)
	committed := p.CommittedCapital()
	horizon := sc.HorizonYears

	fc := &ScenarioForecast{
		Scenario:    sc.Name,
		Probability: sc.Probability,
		Seed:        o.seed,
		Factors:     map[string]Factors{},
		Years:       make([]YearProjection, horizon),
	}
	for _, sector := range append([]string{""}, p.Sectors()...) {
		fc.Factors[sector] = DeriveFactors(sc.Macro, sc.Trend(sector))
	}

	trials := cfg.NumSimulations
	held := make([]float64, horizon)
	exited := make([]float64, horizon)
	smp := sim.NewSampler(o.seed)
	for t := 0; t < trials; t++ {
		projectOnce(adjusted, horizon, smp, held, exited)
	}

	cum := 0.0
	for y := 0; y < horizon; y++ {
		yp := &fc.Years[y]
		yp.Year = y + 1
		yp.PortfolioValue = held[y] / float64(trials)
		yp.ExitValue = exited[y] / float64(trials)
		if y+1 <= cfg.ManagementFeeYears {
			yp.FeesPaid = committed * cfg.ManagementFee / 100
		}
		yp.NetCashFlow = yp.ExitValue - yp.FeesPaid
		cum += yp.ExitValue
		if committed > 0 {
			yp.Multiple = (cum + yp.PortfolioValue) / committed
		}
		yp.IRR = yearlyIRR(yp.Multiple, yp.Year)
	}

	last := fc.Years[horizon-1]
	fc.FinalMultiple = last.Multiple
	fc.FinalIRR = last.IRR
	fc.TotalDistributed = cum
	return fc, nil
}

// projectOnce runs one trial of the yearly walk, accumulating held
// value and exit proceeds into the per-year sums.
func projectOnce(p *fund.Portfolio, horizon int, smp *sim.Sampler, held, exited []float64) {
	type position struct {
		stage  fund.Stage
		value  float64
		active bool
	}
	positions := make([]position, len(p.Investments))
	for i := range p.Investments {
		positions[i] = position{
			stage:  p.Investments[i].EntryStage,
			value:  p.Investments[i].CheckSize,
			active: true,
		}
	}

	for y := 1; y <= horizon; y++ {
		decay := 1 / (1 + timeDecayRate*float64(y-1))
		for i := range positions {
			pos := &positions[i]
			if !pos.active {
				continue
			}
			inv := &p.Investments[i]

			g := smp.FromRange(stageGrowth[pos.stage])
			pos.value *= 1 + (g-1)*decay

			// Yearly advancement hazard: the stage's progression
			// probability spread over its typical duration.
			if next, ok := pos.stage.Next(); ok {
				params := inv.Params.At(next)
				years := params.YearsToNext.Mid()
				if years < 1 {
					years = 1
				}
				if smp.Percent() <= params.Progression/years {
					pos.stage = next
				}
			}

			pe := yearlyExitProb[pos.stage] + exitAgeRamp*float64(y-1)
			if pe > maxYearlyExitProb {
				pe = maxYearlyExitProb
			}
			if smp.Percent() < pe*100 {
				if smp.Percent() >= inv.Params.At(pos.stage).LossProb {
					exited[y-1] += pos.value
				}
				pos.active = false
				pos.value = 0
			}
		}
		for i := range positions {
			held[y-1] += positions[i].value
		}
	}
}

// yearlyIRR annualizes a running multiple over the given year count.
// A zero multiple means total loss, -100%.
func yearlyIRR(multiple float64, year int) float64 {
	if year <= 0 || multiple < 0 {
		return 0
	}
	return math.Pow(multiple, 1/float64(year)) - 1
}
