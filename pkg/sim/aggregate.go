package sim

import (
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/venturelab/fundsim-go/pkg/fund"
)

// runOptions holds run-level knobs set through Option values.
type runOptions struct {
	seed     int64
	seeded   bool
	workers  int
	progress func(completed, total int)
}

// Option configures a simulation run.
type Option func(*runOptions)

// WithSeed pins the base random seed so a run can be reproduced.
func WithSeed(seed int64) Option {
	return func(o *runOptions) {
		o.seed = seed
		o.seeded = true
	}
}

// WithWorkers fans trials out across n goroutines. Each worker samples
// from its own stream derived from the base seed, so reproducing a
// parallel run requires the same seed and worker count.
func WithWorkers(n int) Option {
	return func(o *runOptions) {
		o.workers = n
	}
}

// WithProgress registers a callback invoked after every completed
// trial. With multiple workers the callback runs concurrently and
// completed counts arrive out of order.
func WithProgress(fn func(completed, total int)) Option {
	return func(o *runOptions) {
		o.progress = fn
	}
}

// Run simulates every investment in the portfolio across
// cfg.NumSimulations independent trials and reduces the outcomes to
// portfolio-level statistics. Inputs are validated before any sampling;
// a validation error means nothing was simulated.
func Run(p *fund.Portfolio, cfg fund.SimulationConfig, opts ...Option) (*PortfolioResults, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := runOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		seed, err := NewSeed()
		if err != nil {
			seed = time.Now().UnixNano()
		}
		o.seed = seed
	}

	trials := cfg.NumSimulations
	sims := make([][]Result, trials)

	if o.workers <= 1 {
		smp := NewSampler(o.seed)
		for i := 0; i < trials; i++ {
			sims[i] = runTrial(p, cfg.FollowOn, smp)
			if o.progress != nil {
				o.progress(i+1, trials)
			}
		}
	} else {
		runParallel(p, cfg.FollowOn, sims, o)
	}

	res := reduce(p, cfg, sims)
	res.Seed = o.seed
	return res, nil
}

// runTrial walks every investment once with a shared sampler.
func runTrial(p *fund.Portfolio, policy fund.FollowOnStrategy, smp *Sampler) []Result {
	out := make([]Result, len(p.Investments))
	for i := range p.Investments {
		out[i] = Walk(&p.Investments[i], policy, smp)
	}
	return out
}

// runParallel splits the trial range into contiguous chunks, one
// worker per chunk. Workers write disjoint rows of the matrix, so no
// locking is needed on the results.
func runParallel(p *fund.Portfolio, policy fund.FollowOnStrategy, sims [][]Result, o runOptions) {
	trials := len(sims)
	workers := o.workers
	if workers > trials {
		workers = trials
	}
	chunk := (trials + workers - 1) / workers

	var wg sync.WaitGroup
	var done atomic.Int64
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > trials {
			end = trials
		}
		if start >= end {
			break
		}
		wg.Add(1)
		go func(start, end int, seed int64) {
			defer wg.Done()
			smp := NewSampler(seed)
			for i := start; i < end; i++ {
				sims[i] = runTrial(p, policy, smp)
				if o.progress != nil {
					o.progress(int(done.Add(1)), trials)
				}
			}
		}(start, end, o.seed+int64(w+1))
	}
	wg.Wait()
}

// reduce collapses the trial matrix into portfolio statistics.
func reduce(p *fund.Portfolio, cfg fund.SimulationConfig, sims [][]Result) *PortfolioResults {
	trials := len(sims)
	invested := make([]float64, trials)
	distributed := make([]float64, trials)
	successes := 0

	for i, trial := range sims {
		hit := false
		for _, r := range trial {
			invested[i] += r.Invested
			distributed[i] += r.Exited
			if r.Multiple > 1 {
				hit = true
			}
		}
		if hit {
			successes++
		}
	}

	res := &PortfolioResults{
		Simulations:    sims,
		AvgInvested:    stat.Mean(invested, nil),
		AvgDistributed: stat.Mean(distributed, nil),
		SuccessRate:    float64(successes) / float64(trials),
		PaidIn:         cfg.TotalPaidIn(p.CommittedCapital()),
	}
	if res.AvgInvested > 0 {
		res.AvgMultiple = res.AvgDistributed / res.AvgInvested
	}
	res.AvgIRR = IRR([]float64{-res.AvgInvested, res.AvgDistributed})
	return res
}
