package sensitivity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/venturelab/fundsim-go/pkg/fund"
	"github.com/venturelab/fundsim-go/pkg/sim"
)

const (
	// DefaultStep is the search increment in percent.
	DefaultStep = 5

	// DefaultMaxAdjustment bounds the search in percent.
	DefaultMaxAdjustment = 50

	// RealisticLimit is the largest single-lever adjustment still
	// considered realistic.
	RealisticLimit = 20

	// seedStride spaces the per-target seed streams apart.
	seedStride = 1_000_003
)

// ErrNoTargets is returned when no target multiples are supplied.
var ErrNoTargets = errors.New("sensitivity: no target multiples")

type options struct {
	step       float64
	maxAdj     float64
	seed       int64
	seeded     bool
	approaches []Approach
}

// Option configures an analysis.
type Option func(*options)

// WithStep sets the search increment in percent.
func WithStep(pct float64) Option {
	return func(o *options) { o.step = pct }
}

// WithMaxAdjustment sets the search bound in percent.
func WithMaxAdjustment(pct float64) Option {
	return func(o *options) { o.maxAdj = pct }
}

// WithSeed pins the base random seed so an analysis can be replayed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithApproaches replaces the built-in combined recipes.
func WithApproaches(list []Approach) Option {
	return func(o *options) { o.approaches = list }
}

// ParameterResult is the outcome of a single-lever search toward one
// target multiple.
type ParameterResult struct {
	Parameter  Parameter `json:"parameter"`
	Achievable bool      `json:"achievable"`

	// Required is the smallest adjustment (%) whose simulated multiple
	// crossed the target. Zero when the baseline already qualifies.
	Required float64 `json:"required"`

	// AchievedMultiple is the simulated multiple at the crossing.
	AchievedMultiple float64 `json:"achieved_multiple"`
}

// ApproachResult is the outcome of one combined recipe.
type ApproachResult struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Achievable  bool   `json:"achievable"`

	// Level is the common step multiplier the recipe crossed at.
	Level float64 `json:"level"`

	Adjustments      Adjustments `json:"adjustments"`
	TotalAdjustment  float64     `json:"total_adjustment"`
	AchievedMultiple float64     `json:"achieved_multiple"`
}

// BestPath is the cheapest achievable route to a target: the lowest
// total adjustment among single levers and combined approaches.
type BestPath struct {
	// Kind is "single", "approach" or "baseline".
	Kind string `json:"kind"`
	Name string `json:"name"`

	Adjustments      Adjustments `json:"adjustments"`
	Total            float64     `json:"total"`
	AchievedMultiple float64     `json:"achieved_multiple"`
}

// TargetScenario collects everything learned about one target multiple.
type TargetScenario struct {
	TargetMultiple float64 `json:"target_multiple"`
	Achievable     bool    `json:"achievable"`

	// Realistic is true when some single lever reaches the target
	// within RealisticLimit.
	Realistic bool `json:"realistic"`

	Score        float64       `json:"score"`
	ScoreFactors []ScoreFactor `json:"score_factors"`

	Parameters []ParameterResult `json:"parameters"`

	// Approaches are ranked achievable-first by total adjustment.
	Approaches []ApproachResult `json:"approaches"`

	// Best is nil when nothing within the search bound reaches the
	// target.
	Best *BestPath `json:"best,omitempty"`
}

// Report is a full sensitivity analysis across target multiples.
type Report struct {
	BaselineMultiple float64          `json:"baseline_multiple"`
	BaselineIRR      float64          `json:"baseline_irr"`
	Targets          []TargetScenario `json:"targets"`
}

// Analyze measures how far portfolio parameters must move for the
// simulated average multiple to reach each target. Every probe is a
// full aggregator re-run and a single sample decides each crossing;
// crossings are not re-verified, so repeated analyses with different
// seeds can disagree near the boundary.
func Analyze(p *fund.Portfolio, cfg fund.SimulationConfig, targets []float64, opts ...Option) (*Report, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	for _, tgt := range targets {
		if tgt <= 0 {
			return nil, fmt.Errorf("sensitivity: target multiple must be positive, got %g", tgt)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		step:       DefaultStep,
		maxAdj:     DefaultMaxAdjustment,
		approaches: DefaultApproaches(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.step <= 0 || o.maxAdj < o.step {
		return nil, fmt.Errorf("sensitivity: invalid search grid: step %g, max %g", o.step, o.maxAdj)
	}
	if !o.seeded {
		seed, err := sim.NewSeed()
		if err != nil {
			seed = time.Now().UnixNano()
		}
		o.seed = seed
	}

	baseline, err := sim.Run(p, cfg, sim.WithSeed(o.seed))
	if err != nil {
		return nil, err
	}

	report := &Report{
		BaselineMultiple: baseline.AvgMultiple,
		BaselineIRR:      baseline.AvgIRR,
		Targets:          make([]TargetScenario, len(targets)),
	}

	// Targets search independently; one goroutine per target, each on
	// its own seed stream so the fan-out does not change any result.
	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt float64) {
			defer wg.Done()
			seed := o.seed + int64(i+1)*seedStride
			report.Targets[i] = searchTarget(p, cfg, tgt, baseline.AvgMultiple, o, seed)
		}(i, tgt)
	}
	wg.Wait()

	return report, nil
}

// prober runs aggregator evaluations with a per-call derived seed, so
// a whole analysis replays exactly from one base seed.
type prober struct {
	p    *fund.Portfolio
	cfg  fund.SimulationConfig
	seed int64
	n    int64
}

func (pr *prober) multiple(a Adjustments) float64 {
	pr.n++
	res, err := sim.Run(a.Apply(pr.p), pr.cfg, sim.WithSeed(pr.seed+pr.n))
	if err != nil {
		return 0
	}
	return res.AvgMultiple
}

func searchTarget(p *fund.Portfolio, cfg fund.SimulationConfig, target, baseline float64, o options, seed int64) TargetScenario {
	sc := TargetScenario{TargetMultiple: target}

	if baseline >= target {
		for _, param := range Parameters() {
			sc.Parameters = append(sc.Parameters, ParameterResult{
				Parameter:        param,
				Achievable:       true,
				AchievedMultiple: baseline,
			})
		}
		sc.Achievable = true
		sc.Best = &BestPath{Kind: "baseline", Name: "baseline", AchievedMultiple: baseline}
		score(&sc, o)
		return sc
	}

	pr := &prober{p: p, cfg: cfg, seed: seed}
	for _, param := range Parameters() {
		sc.Parameters = append(sc.Parameters, pr.searchParameter(param, target, o))
	}
	for _, ap := range o.approaches {
		sc.Approaches = append(sc.Approaches, pr.searchApproach(ap, target, o))
	}
	rankApproaches(sc.Approaches)

	sc.Best = pickBest(&sc)
	sc.Achievable = sc.Best != nil
	score(&sc, o)
	return sc
}

// searchParameter steps one lever from step to the bound, accepting
// the first level whose simulated multiple crosses the target.
func (pr *prober) searchParameter(param Parameter, target float64, o options) ParameterResult {
	res := ParameterResult{Parameter: param}
	for level := o.step; level <= o.maxAdj+1e-9; level += o.step {
		m := pr.multiple(single(param, level))
		if m >= target {
			res.Achievable = true
			res.Required = level
			res.AchievedMultiple = m
			break
		}
	}
	return res
}

// searchApproach steps a recipe's common level the same way.
func (pr *prober) searchApproach(ap Approach, target float64, o options) ApproachResult {
	res := ApproachResult{Name: ap.Name, Description: ap.Description}
	for level := o.step; level <= o.maxAdj+1e-9; level += o.step {
		adj := scaled(ap.Weights, level)
		m := pr.multiple(adj)
		if m >= target {
			res.Achievable = true
			res.Level = level
			res.Adjustments = adj
			res.TotalAdjustment = adj.Total()
			res.AchievedMultiple = m
			break
		}
	}
	return res
}

// rankApproaches orders achievable approaches by total adjustment,
// cheapest first; unachievable ones keep their relative order at the
// end.
func rankApproaches(list []ApproachResult) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Achievable != b.Achievable {
			return a.Achievable
		}
		if !a.Achievable {
			return false
		}
		return a.TotalAdjustment < b.TotalAdjustment
	})
}

func pickBest(sc *TargetScenario) *BestPath {
	var best *BestPath
	for _, pr := range sc.Parameters {
		if !pr.Achievable {
			continue
		}
		adj := single(pr.Parameter, pr.Required)
		cand := &BestPath{
			Kind:             "single",
			Name:             string(pr.Parameter),
			Adjustments:      adj,
			Total:            adj.Total(),
			AchievedMultiple: pr.AchievedMultiple,
		}
		if best == nil || cand.Total < best.Total {
			best = cand
		}
	}
	for i := range sc.Approaches {
		ar := sc.Approaches[i]
		if !ar.Achievable {
			continue
		}
		cand := &BestPath{
			Kind:             "approach",
			Name:             ar.Name,
			Adjustments:      ar.Adjustments,
			Total:            ar.TotalAdjustment,
			AchievedMultiple: ar.AchievedMultiple,
		}
		if best == nil || cand.Total < best.Total {
			best = cand
		}
	}
	return best
}

// singleLeverMin returns the smallest achievable single-lever
// adjustment, if any.
func singleLeverMin(sc *TargetScenario) (float64, bool) {
	min, ok := math.Inf(1), false
	for _, pr := range sc.Parameters {
		if pr.Achievable && pr.Required < min {
			min = pr.Required
			ok = true
		}
	}
	return min, ok
}
