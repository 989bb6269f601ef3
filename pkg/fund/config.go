package fund

// FollowOnStrategy controls reserve deployment into later rounds.
// When disabled the walker never injects additional capital.
type FollowOnStrategy struct {
	Enabled bool `json:"enabled"`

	// Rate is the chance (0-100) that an advancing company receives a
	// follow-on check at that round.
	Rate float64 `json:"rate"`

	// Multiple sizes the follow-on as a multiple of the original check.
	Multiple float64 `json:"multiple"`

	// ReserveRatio is the share (0-100) of committed capital held back
	// for follow-ons. Informational for paid-in accounting.
	ReserveRatio float64 `json:"reserve_ratio"`

	// Recycling recycles a share of early exit proceeds into reserves.
	Recycling     bool    `json:"recycling"`
	RecyclingRate float64 `json:"recycling_rate"`
}

// SimulationConfig holds fund-level simulation settings.
type SimulationConfig struct {
	// NumSimulations is the number of independent portfolio trials.
	NumSimulations int `json:"num_simulations"`

	// SetupFee is the one-time fund formation cost ($M).
	SetupFee float64 `json:"setup_fee"`

	// ManagementFee is the annual management fee as a percentage of
	// committed capital.
	ManagementFee float64 `json:"management_fee"`

	// ManagementFeeYears is how many years the management fee accrues.
	ManagementFeeYears int `json:"management_fee_years"`

	FollowOn FollowOnStrategy `json:"follow_on"`
}

// DefaultConfig returns a conventional fund setup: 1000 trials, 2%
// management fee over 10 years, follow-ons off.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		NumSimulations:     1000,
		SetupFee:           0.5,
		ManagementFee:      2,
		ManagementFeeYears: 10,
		FollowOn: FollowOnStrategy{
			Enabled:      false,
			Rate:         50,
			Multiple:     1,
			ReserveRatio: 30,
		},
	}
}

// TotalFees returns setup plus accrued management fees ($M) for a fund
// with the given committed capital.
func (c SimulationConfig) TotalFees(committed float64) float64 {
	return c.SetupFee + committed*(c.ManagementFee/100)*float64(c.ManagementFeeYears)
}

// Reserve returns the follow-on reserve ($M) for the given committed
// capital, zero when follow-ons are disabled.
func (c SimulationConfig) Reserve(committed float64) float64 {
	if !c.FollowOn.Enabled {
		return 0
	}
	return committed * c.FollowOn.ReserveRatio / 100
}

// TotalPaidIn returns committed capital plus fees plus reserve ($M),
// the denominator investors actually fund.
func (c SimulationConfig) TotalPaidIn(committed float64) float64 {
	return committed + c.TotalFees(committed) + c.Reserve(committed)
}
