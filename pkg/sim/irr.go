package sim

import "math"

const (
	irrGuess     = 0.1
	irrMaxIter   = 100
	irrTolerance = 0.001
)

// IRR computes the internal rate of return of a series of annual cash
// flows (index = year offset) by Newton-Raphson iteration: start at
// 10%, stop when |NPV| falls below 0.001 or after 100 rounds.
// Degenerate cases (zero derivative, a rate that leaves the real
// line, no convergence within the cap) report 0 rather than an error.
func IRR(cashFlows []float64) float64 {
	// A meaningful root needs at least one outflow and one inflow;
	// anything else would "converge" at the starting guess.
	hasOut, hasIn := false, false
	for _, cf := range cashFlows {
		if cf < 0 {
			hasOut = true
		}
		if cf > 0 {
			hasIn = true
		}
	}
	if !hasOut || !hasIn {
		return 0
	}

	rate := irrGuess
	for i := 0; i < irrMaxIter; i++ {
		npv := 0.0
		deriv := 0.0
		for t, cf := range cashFlows {
			ft := float64(t)
			npv += cf / math.Pow(1+rate, ft)
			if t > 0 {
				deriv -= ft * cf / math.Pow(1+rate, ft+1)
			}
		}
		if math.Abs(npv) < irrTolerance {
			return rate
		}
		if deriv == 0 {
			return 0
		}
		rate -= npv / deriv
		if math.IsNaN(rate) || math.IsInf(rate, 0) {
			return 0
		}
	}
	return 0
}
