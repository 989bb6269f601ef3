package sim

import "github.com/venturelab/fundsim-go/pkg/fund"

// fallbackHoldYears assigns a minimum holding period when a company
// never advances past its entry stage: even an immediate write-off
// takes time to resolve. Later stages resolve over wider windows.
var fallbackHoldYears = [fund.NumStages]fund.Range{
	fund.PreSeed: {Min: 0.5, Max: 1.5},
	fund.Seed:    {Min: 0.5, Max: 2},
	fund.SeriesA: {Min: 1, Max: 2.5},
	fund.SeriesB: {Min: 1, Max: 3},
	fund.SeriesC: {Min: 1.5, Max: 4},
	fund.IPO:     {Min: 2, Max: 5},
}

// stepUpMultiple estimates a new round's valuation as a multiple of the
// entry valuation, keyed by the stage being entered. Kept separate from
// exit valuations: a priced round values the company below its eventual
// exit. Pre-Seed and IPO rows are never consulted (no walk advances
// into the first stage, and no follow-on funds the terminal one).
var stepUpMultiple = [fund.NumStages]fund.Range{
	fund.Seed:    {Min: 1.5, Max: 3},
	fund.SeriesA: {Min: 2, Max: 6},
	fund.SeriesB: {Min: 4, Max: 12},
	fund.SeriesC: {Min: 8, Max: 24},
}

// Walk simulates one lifetime of a single investment: stage advances
// with dilution, an optional follow-on on each advance, then write-off
// or exit at the final stage. The follow-on policy takes effect only
// when enabled; the zero value disables it.
//
// All parameter lookups key off the stage being entered. The advance
// gate accepts draws less than or equal to the progression probability,
// so a 100% stage always advances; the loss gate accepts only draws
// strictly below the loss probability, so a 0% stage never writes off.
func Walk(inv *fund.Investment, policy fund.FollowOnStrategy, smp *Sampler) Result {
	equity := inv.InitialEquity()
	invested := inv.CheckSize
	holding := 0.0
	stage := inv.EntryStage

	res := Result{
		InvestmentID:     inv.ID,
		InitialOwnership: equity * 100,
	}

	for {
		next, ok := stage.Next()
		if !ok {
			break
		}
		params := inv.Params.At(next)
		if smp.Percent() > params.Progression {
			break
		}

		// The new round dilutes existing holders first; a follow-on
		// then buys back in at the round's stepped-up valuation.
		equity *= 1 - params.Dilution/100
		if policy.Enabled && !next.Terminal() && smp.Percent() < policy.Rate {
			amount := inv.CheckSize * policy.Multiple
			valuation := inv.EntryValuation * smp.FromRange(stepUpMultiple[next])
			bought := 0.0
			if valuation > 0 {
				bought = amount / valuation
			}
			equity += bought
			invested += amount
			res.FollowOns = append(res.FollowOns, FollowOnInjection{
				Stage:  next,
				Amount: amount,
				Equity: bought,
			})
		}
		holding += smp.FromRange(params.YearsToNext)
		stage = next
	}

	if holding == 0 {
		holding = smp.FromRange(fallbackHoldYears[stage])
	}

	final := inv.Params.At(stage)
	exited := 0.0
	if smp.Percent() >= final.LossProb {
		exited = equity * smp.FromRange(final.ExitValuation)
	}

	res.Invested = invested
	res.Exited = exited
	res.ExitStage = stage
	res.HoldingYears = holding
	res.FinalOwnership = equity * 100
	if invested > 0 {
		res.Multiple = exited / invested
	}
	return res
}
