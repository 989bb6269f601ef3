package sensitivity

// Approach is a named recipe for combining parameter adjustments. The
// weights are per-unit multipliers applied to a common search level:
// an approach with an exit weight of 2 moves exit valuations twice as
// far as the level being probed.
type Approach struct {
	Name        string
	Description string
	Weights     Adjustments
}

// DefaultApproaches returns the built-in adjustment recipes, from
// evenly spread to concentrated bets on a single lever.
func DefaultApproaches() []Approach {
	return []Approach{
		{
			Name:        "balanced",
			Description: "Move every lever evenly",
			Weights: Adjustments{
				ProgressionIncrease:   1,
				DilutionDecrease:      1,
				LossDecrease:          1,
				ExitValuationIncrease: 1,
			},
		},
		{
			Name:        "exit-focused",
			Description: "Push exit valuations hard, nudge progression",
			Weights: Adjustments{
				ProgressionIncrease:   0.5,
				ExitValuationIncrease: 2,
			},
		},
		{
			Name:        "success-focused",
			Description: "Raise progression and cut losses, leave pricing alone",
			Weights: Adjustments{
				ProgressionIncrease: 2,
				DilutionDecrease:    0.5,
				LossDecrease:        1.5,
			},
		},
		{
			Name:        "conservative",
			Description: "Small improvements across the board",
			Weights: Adjustments{
				ProgressionIncrease:   0.5,
				DilutionDecrease:      0.5,
				LossDecrease:          0.5,
				ExitValuationIncrease: 0.5,
			},
		},
		{
			Name:        "aggressive",
			Description: "Lean on progression and exits at full strength",
			Weights: Adjustments{
				ProgressionIncrease:   2,
				DilutionDecrease:      1,
				LossDecrease:          1,
				ExitValuationIncrease: 2,
			},
		},
	}
}
