package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func npv(cashFlows []float64, rate float64) float64 {
	total := 0.0
	for t, cf := range cashFlows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

func TestIRR_BreakEven(t *testing.T) {
	// Getting back exactly what was paid in is a zero return.
	rate := IRR([]float64{-100, 100})
	assert.InDelta(t, 0.0, rate, 0.01)
}

func TestIRR_KnownRoots(t *testing.T) {
	tests := []struct {
		name      string
		cashFlows []float64
		want      float64
	}{
		{"fifty percent", []float64{-100, 150}, 0.5},
		{"triple", []float64{-100, 300}, 2.0},
		{"ten x", []float64{-1, 10}, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := IRR(tt.cashFlows)
			assert.InDelta(t, tt.want, rate, 0.05)
			assert.Less(t, math.Abs(npv(tt.cashFlows, rate)), 0.001,
				"returned rate must satisfy the convergence threshold")
		})
	}
}

func TestIRR_MultiYear(t *testing.T) {
	// -100 now, +60 in each of two years: roughly a 13.1% return.
	cashFlows := []float64{-100, 60, 60}
	rate := IRR(cashFlows)
	assert.Less(t, math.Abs(npv(cashFlows, rate)), 0.001)
	assert.InDelta(t, 0.131, rate, 0.01)
}

func TestIRR_Degenerate(t *testing.T) {
	tests := []struct {
		name      string
		cashFlows []float64
	}{
		{"empty", nil},
		{"single flow", []float64{-100}},
		{"all zero", []float64{0, 0, 0}},
		{"no inflow", []float64{-100, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, IRR(tt.cashFlows), "degenerate series fall back to 0")
		})
	}
}
