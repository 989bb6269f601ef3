// Package sensitivity searches for the smallest parameter adjustments
// that lift a portfolio's simulated average multiple to target levels,
// and scores how achievable each target is.
package sensitivity

import "github.com/venturelab/fundsim-go/pkg/fund"

// Parameter names one of the four adjustable parameter groups.
type Parameter string

const (
	ParamProgression   Parameter = "progression"
	ParamDilution      Parameter = "dilution"
	ParamLoss          Parameter = "loss"
	ParamExitValuation Parameter = "exit_valuation"
)

// Parameters lists the adjustable groups in search order.
func Parameters() []Parameter {
	return []Parameter{ParamProgression, ParamDilution, ParamLoss, ParamExitValuation}
}

// Adjustments describes relative parameter changes, each as a
// percentage of the current value. Increases push probabilities and
// valuations up; decreases pull dilution and loss down. All values are
// non-negative.
type Adjustments struct {
	ProgressionIncrease   float64 `json:"progression_increase"`
	DilutionDecrease      float64 `json:"dilution_decrease"`
	LossDecrease          float64 `json:"loss_decrease"`
	ExitValuationIncrease float64 `json:"exit_valuation_increase"`
}

// single returns adjustments moving only one parameter group.
func single(p Parameter, level float64) Adjustments {
	var a Adjustments
	switch p {
	case ParamProgression:
		a.ProgressionIncrease = level
	case ParamDilution:
		a.DilutionDecrease = level
	case ParamLoss:
		a.LossDecrease = level
	case ParamExitValuation:
		a.ExitValuationIncrease = level
	}
	return a
}

// scaled multiplies every component of w by level.
func scaled(w Adjustments, level float64) Adjustments {
	return Adjustments{
		ProgressionIncrease:   w.ProgressionIncrease * level,
		DilutionDecrease:      w.DilutionDecrease * level,
		LossDecrease:          w.LossDecrease * level,
		ExitValuationIncrease: w.ExitValuationIncrease * level,
	}
}

// Total returns the combined adjustment magnitude, the ranking key for
// competing approaches.
func (a Adjustments) Total() float64 {
	return a.ProgressionIncrease + a.DilutionDecrease + a.LossDecrease + a.ExitValuationIncrease
}

// Touched counts how many parameter groups the adjustments move.
func (a Adjustments) Touched() int {
	n := 0
	for _, v := range [4]float64{a.ProgressionIncrease, a.DilutionDecrease, a.LossDecrease, a.ExitValuationIncrease} {
		if v > 0 {
			n++
		}
	}
	return n
}

// IsZero reports whether no parameter moves at all.
func (a Adjustments) IsZero() bool {
	return a.Total() == 0
}

// Apply returns a copy of the portfolio with the adjustments applied
// to every stage of every investment. Probabilities are clamped to
// [0, 100] so an adjusted portfolio is always valid to simulate.
func (a Adjustments) Apply(p *fund.Portfolio) *fund.Portfolio {
	out := p.Clone()
	for i := range out.Investments {
		params := &out.Investments[i].Params
		for _, s := range fund.Stages() {
			sp := params[s]
			sp.Progression = scaleUpProb(sp.Progression, a.ProgressionIncrease)
			sp.Dilution = scaleDown(sp.Dilution, a.DilutionDecrease)
			sp.LossProb = scaleDown(sp.LossProb, a.LossDecrease)
			sp.ExitValuation = sp.ExitValuation.Scale(1 + a.ExitValuationIncrease/100)
			params[s] = sp
		}
	}
	return out
}

func scaleUpProb(v, pct float64) float64 {
	v *= 1 + pct/100
	if v > 100 {
		return 100
	}
	return v
}

func scaleDown(v, pct float64) float64 {
	v *= 1 - pct/100
	if v < 0 {
		return 0
	}
	return v
}
