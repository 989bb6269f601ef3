package sim

import "github.com/venturelab/fundsim-go/pkg/fund"

// FollowOnInjection records one reserve deployment made during a walk.
type FollowOnInjection struct {
	// Stage is the round the follow-on participated in.
	Stage fund.Stage `json:"stage"`

	// Amount is the capital injected ($M).
	Amount float64 `json:"amount"`

	// Equity is the ownership fraction acquired by the injection.
	Equity float64 `json:"equity"`
}

// Result is the outcome of one simulated lifetime of one investment.
type Result struct {
	InvestmentID string `json:"investment_id,omitempty"`

	// Invested is the total capital deployed: the initial check plus
	// any follow-ons ($M).
	Invested float64 `json:"invested"`

	// Exited is the capital returned at exit ($M), zero on write-off.
	Exited float64 `json:"exited"`

	// ExitStage is the stage the walk ended at.
	ExitStage fund.Stage `json:"exit_stage"`

	// Multiple is Exited / Invested.
	Multiple float64 `json:"multiple"`

	// HoldingYears is the total time from entry to exit.
	HoldingYears float64 `json:"holding_years"`

	// InitialOwnership and FinalOwnership are equity percentages at
	// entry and at exit.
	InitialOwnership float64 `json:"initial_ownership"`
	FinalOwnership   float64 `json:"final_ownership"`

	// FollowOns lists reserve deployments, oldest first. Nil when the
	// follow-on policy is disabled or never triggered.
	FollowOns []FollowOnInjection `json:"follow_ons,omitempty"`
}

// PortfolioResults aggregates every trial of a portfolio simulation.
type PortfolioResults struct {
	// Simulations holds the full outcome matrix: one row per trial,
	// one entry per investment.
	Simulations [][]Result `json:"simulations,omitempty"`

	// Seed is the base seed the run was sampled from; replaying with
	// the same seed and worker count reproduces the matrix.
	Seed int64 `json:"seed"`

	// AvgInvested and AvgDistributed are per-trial totals averaged
	// across all trials ($M).
	AvgInvested    float64 `json:"avg_invested"`
	AvgDistributed float64 `json:"avg_distributed"`

	// AvgMultiple is AvgDistributed / AvgInvested, zero when nothing
	// was invested.
	AvgMultiple float64 `json:"avg_multiple"`

	// AvgIRR is the internal rate of return of the two-point cash flow
	// [-AvgInvested, AvgDistributed].
	AvgIRR float64 `json:"avg_irr"`

	// SuccessRate is the fraction of trials where at least one
	// investment returned more than 1x.
	SuccessRate float64 `json:"success_rate"`

	// PaidIn is committed capital plus fees plus follow-on reserve
	// ($M); the investor-side denominator.
	PaidIn float64 `json:"paid_in"`
}

// TrialMultiples returns each trial's distributed-to-invested multiple,
// for distribution analysis.
func (r *PortfolioResults) TrialMultiples() []float64 {
	out := make([]float64, len(r.Simulations))
	for i, trial := range r.Simulations {
		var invested, distributed float64
		for _, res := range trial {
			invested += res.Invested
			distributed += res.Exited
		}
		if invested > 0 {
			out[i] = distributed / invested
		}
	}
	return out
}

// ExitStageCounts returns how many walks ended at each stage, summed
// across all trials.
func (r *PortfolioResults) ExitStageCounts() map[fund.Stage]int {
	counts := make(map[fund.Stage]int)
	for _, trial := range r.Simulations {
		for _, res := range trial {
			counts[res.ExitStage]++
		}
	}
	return counts
}

// LossRate returns the fraction of walks that ended in a write-off.
func (r *PortfolioResults) LossRate() float64 {
	total, losses := 0, 0
	for _, trial := range r.Simulations {
		for _, res := range trial {
			total++
			if res.Exited == 0 {
				losses++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(losses) / float64(total)
}
