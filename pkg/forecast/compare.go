package forecast

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/venturelab/fundsim-go/pkg/fund"
)

// ErrNoScenarios is returned when a comparison has nothing to compare.
var ErrNoScenarios = errors.New("forecast: no scenarios")

// TornadoEntry measures one macro factor's swing on the final multiple:
// the portfolio is projected twice with only that factor moved to the
// lowest and highest value it takes across the scenario set (enum
// factors use their ordinal order). Impact is signed; a factor whose
// increase hurts returns carries a negative impact.
type TornadoEntry struct {
	Factor    string  `json:"factor"`
	LowInput  float64 `json:"low_input"`
	HighInput float64 `json:"high_input"`
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Impact    float64 `json:"impact"`
}

// HeatMap holds the running multiple per scenario per forecast year.
// Rows follow the scenario order and may be ragged when horizons
// differ.
type HeatMap struct {
	Scenarios []string    `json:"scenarios"`
	Years     []int       `json:"years"`
	Multiples [][]float64 `json:"multiples"`
}

// WaterfallStep is one bar of the baseline-to-expected decomposition.
// The first and last steps carry absolute multiples in Delta; the
// steps between carry each scenario's probability-weighted
// contribution.
type WaterfallStep struct {
	Label   string  `json:"label"`
	Delta   float64 `json:"delta"`
	Running float64 `json:"running"`
}

// Comparison aggregates scenario forecasts by probability weight.
type Comparison struct {
	Seed int64 `json:"seed"`

	Scenarios []ScenarioForecast `json:"scenarios"`

	// BaselineMultiple is the final multiple of a neutral projection
	// over the longest horizon, the reference for the waterfall and
	// tornado series.
	BaselineMultiple float64 `json:"baseline_multiple"`

	// Probability-weighted aggregates across scenarios.
	ExpectedMultiple    float64 `json:"expected_multiple"`
	ExpectedIRR         float64 `json:"expected_irr"`
	ExpectedDistributed float64 `json:"expected_distributed"`

	Tornado   []TornadoEntry  `json:"tornado"`
	HeatMap   HeatMap         `json:"heat_map"`
	Waterfall []WaterfallStep `json:"waterfall"`
}

// macroProbe exposes one macro field for the tornado sweep.
type macroProbe struct {
	name string
	get  func(MacroFactors) float64
	set  func(*MacroFactors, float64)
}

var macroProbes = []macroProbe{
	{"rate_cycle",
		func(m MacroFactors) float64 { return float64(m.RateCycle) },
		func(m *MacroFactors, v float64) { m.RateCycle = RateCycle(v) }},
	{"sentiment",
		func(m MacroFactors) float64 { return float64(m.Sentiment) },
		func(m *MacroFactors, v float64) { m.Sentiment = Sentiment(v) }},
	{"interest_rate",
		func(m MacroFactors) float64 { return m.InterestRate },
		func(m *MacroFactors, v float64) { m.InterestRate = v }},
	{"inflation",
		func(m MacroFactors) float64 { return m.Inflation },
		func(m *MacroFactors, v float64) { m.Inflation = v }},
	{"gdp_growth",
		func(m MacroFactors) float64 { return m.GDPGrowth },
		func(m *MacroFactors, v float64) { m.GDPGrowth = v }},
	{"market_multiple",
		func(m MacroFactors) float64 { return m.MarketMultiple },
		func(m *MacroFactors, v float64) { m.MarketMultiple = v }},
	{"liquidity",
		func(m MacroFactors) float64 { return float64(m.Liquidity) },
		func(m *MacroFactors, v float64) { m.Liquidity = Liquidity(v) }},
}

// Compare projects the portfolio under every scenario and reduces the
// outcomes to probability-weighted expectations, plus the tornado,
// heat-map and waterfall series. Scenarios project concurrently, each
// on its own seed stream derived from the base seed.
func Compare(p *fund.Portfolio, cfg fund.SimulationConfig, scenarios []Scenario, opts ...Option) (*Comparison, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	totalWeight := 0.0
	maxHorizon := 0
	for i := range scenarios {
		sc := &scenarios[i]
		if sc.HorizonYears <= 0 {
			return nil, fmt.Errorf("forecast: scenario %q: %w", sc.Name, ErrNoHorizon)
		}
		if sc.Probability < 0 {
			return nil, fmt.Errorf("forecast: scenario %q: probability must not be negative, got %g", sc.Name, sc.Probability)
		}
		totalWeight += sc.Probability
		if sc.HorizonYears > maxHorizon {
			maxHorizon = sc.HorizonYears
		}
	}
	if totalWeight <= 0 {
		return nil, errors.New("forecast: scenario probabilities sum to zero")
	}
	o := buildOptions(opts)
	seedAt := func(n int) int64 { return o.seed + int64(n)*scenarioSeedStride }

	cmp := &Comparison{
		Seed:      o.seed,
		Scenarios: make([]ScenarioForecast, len(scenarios)),
	}

	baseline := Scenario{
		Name:         "baseline",
		HorizonYears: maxHorizon,
		Macro:        NeutralMacro(),
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(scenarios)+1)
		base *ScenarioForecast
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		base, errs[0] = Project(p, cfg, &baseline, WithSeed(seedAt(0)))
	}()
	for i := range scenarios {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fc, err := Project(p, cfg, &scenarios[i], WithSeed(seedAt(i+1)))
			if err != nil {
				errs[i+1] = err
				return
			}
			cmp.Scenarios[i] = *fc
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	cmp.BaselineMultiple = base.FinalMultiple

	for i := range cmp.Scenarios {
		w := cmp.Scenarios[i].Probability / totalWeight
		cmp.ExpectedMultiple += w * cmp.Scenarios[i].FinalMultiple
		cmp.ExpectedIRR += w * cmp.Scenarios[i].FinalIRR
		cmp.ExpectedDistributed += w * cmp.Scenarios[i].TotalDistributed
	}

	cmp.HeatMap = buildHeatMap(cmp.Scenarios, maxHorizon)
	cmp.Waterfall = buildWaterfall(cmp.Scenarios, totalWeight, cmp.BaselineMultiple, cmp.ExpectedMultiple)

	tornado, err := buildTornado(p, cfg, scenarios, maxHorizon, seedAt)
	if err != nil {
		return nil, err
	}
	cmp.Tornado = tornado
	return cmp, nil
}

func buildHeatMap(forecasts []ScenarioForecast, maxHorizon int) HeatMap {
	hm := HeatMap{
		Scenarios: make([]string, len(forecasts)),
		Years:     make([]int, maxHorizon),
		Multiples: make([][]float64, len(forecasts)),
	}
	for y := 0; y < maxHorizon; y++ {
		hm.Years[y] = y + 1
	}
	for i := range forecasts {
		hm.Scenarios[i] = forecasts[i].Scenario
		row := make([]float64, len(forecasts[i].Years))
		for y := range forecasts[i].Years {
			row[y] = forecasts[i].Years[y].Multiple
		}
		hm.Multiples[i] = row
	}
	return hm
}

func buildWaterfall(forecasts []ScenarioForecast, totalWeight, baseline, expected float64) []WaterfallStep {
	steps := make([]WaterfallStep, 0, len(forecasts)+2)
	steps = append(steps, WaterfallStep{Label: "baseline", Delta: baseline, Running: baseline})
	running := baseline
	for i := range forecasts {
		w := forecasts[i].Probability / totalWeight
		delta := w * (forecasts[i].FinalMultiple - baseline)
		running += delta
		steps = append(steps, WaterfallStep{Label: forecasts[i].Scenario, Delta: delta, Running: running})
	}
	steps = append(steps, WaterfallStep{Label: "expected", Delta: expected, Running: expected})
	return steps
}

// buildTornado sweeps each macro factor, alone, across the extremes it
// takes in the scenario set. Factors that never vary are omitted.
func buildTornado(p *fund.Portfolio, cfg fund.SimulationConfig, scenarios []Scenario, horizon int, seedAt func(int) int64) ([]TornadoEntry, error) {
	type sweep struct {
		probe     macroProbe
		low, high float64
	}
	var sweeps []sweep
	for _, probe := range macroProbes {
		low, high := probe.get(scenarios[0].Macro), probe.get(scenarios[0].Macro)
		for i := 1; i < len(scenarios); i++ {
			v := probe.get(scenarios[i].Macro)
			if v < low {
				low = v
			}
			if v > high {
				high = v
			}
		}
		if low == high {
			continue
		}
		sweeps = append(sweeps, sweep{probe: probe, low: low, high: high})
	}

	entries := make([]TornadoEntry, len(sweeps))
	errs := make([]error, len(sweeps))
	var wg sync.WaitGroup
	for i, sw := range sweeps {
		wg.Add(1)
		go func(i int, sw sweep) {
			defer wg.Done()
			project := func(value float64, seed int64) (float64, error) {
				sc := Scenario{
					Name:         sw.probe.name,
					HorizonYears: horizon,
					Macro:        NeutralMacro(),
				}
				sw.probe.set(&sc.Macro, value)
				fc, err := Project(p, cfg, &sc, WithSeed(seed))
				if err != nil {
					return 0, err
				}
				return fc.FinalMultiple, nil
			}
			base := len(scenarios) + 1 + 2*i
			low, err := project(sw.low, seedAt(base))
			if err != nil {
				errs[i] = err
				return
			}
			high, err := project(sw.high, seedAt(base+1))
			if err != nil {
				errs[i] = err
				return
			}
			entries[i] = TornadoEntry{
				Factor:    sw.probe.name,
				LowInput:  sw.low,
				HighInput: sw.high,
				Low:       low,
				High:      high,
				Impact:    high - low,
			}
		}(i, sw)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ai, aj := entries[i].Impact, entries[j].Impact
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})
	return entries, nil
}
