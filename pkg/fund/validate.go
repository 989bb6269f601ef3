package fund

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPortfolio is returned when a portfolio has no investments.
	ErrEmptyPortfolio = errors.New("fund: portfolio has no investments")

	// ErrNoTrials is returned when the simulation count is not positive.
	ErrNoTrials = errors.New("fund: number of simulations must be positive")
)

// ValidationError describes a malformed field on a specific investment.
type ValidationError struct {
	Investment string // investment name, or "" for config-level errors
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Investment == "" {
		return fmt.Sprintf("fund: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("fund: investment %q: %s: %s", e.Investment, e.Field, e.Reason)
}

func fieldErr(inv, field, format string, args ...any) error {
	return &ValidationError{Investment: inv, Field: field, Reason: fmt.Sprintf(format, args...)}
}

func checkPercent(inv, field string, v float64) error {
	if v < 0 || v > 100 {
		return fieldErr(inv, field, "must be between 0 and 100, got %g", v)
	}
	return nil
}

func checkRange(inv, field string, r Range) error {
	if r.Min < 0 {
		return fieldErr(inv, field, "minimum must not be negative, got %g", r.Min)
	}
	if !r.Valid() {
		return fieldErr(inv, field, "minimum %g exceeds maximum %g", r.Min, r.Max)
	}
	return nil
}

// Validate checks every investment and its stage parameters, returning
// the first problem found. A valid portfolio is guaranteed safe to
// sample: every percentage is within [0,100] and every range ordered.
func (p *Portfolio) Validate() error {
	if len(p.Investments) == 0 {
		return ErrEmptyPortfolio
	}
	for i := range p.Investments {
		if err := p.Investments[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single investment's entry terms and parameter table.
func (inv *Investment) Validate() error {
	name := inv.Name
	if name == "" {
		name = inv.ID
	}
	if !inv.EntryStage.Valid() {
		return fieldErr(name, "entry_stage", "unknown stage %d", int(inv.EntryStage))
	}
	if inv.CheckSize <= 0 {
		return fieldErr(name, "check_size", "must be positive, got %g", inv.CheckSize)
	}
	if inv.EntryValuation <= 0 {
		return fieldErr(name, "entry_valuation", "must be positive, got %g", inv.EntryValuation)
	}
	if inv.CheckSize > inv.EntryValuation {
		return fieldErr(name, "check_size", "check %g exceeds entry valuation %g", inv.CheckSize, inv.EntryValuation)
	}
	for _, s := range Stages() {
		sp := inv.Params[s]
		prefix := s.Key()
		if err := checkPercent(name, prefix+".progression", sp.Progression); err != nil {
			return err
		}
		if err := checkPercent(name, prefix+".dilution", sp.Dilution); err != nil {
			return err
		}
		if err := checkPercent(name, prefix+".loss_prob", sp.LossProb); err != nil {
			return err
		}
		if err := checkRange(name, prefix+".exit_valuation", sp.ExitValuation); err != nil {
			return err
		}
		if err := checkRange(name, prefix+".years_to_next", sp.YearsToNext); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks fund-level settings.
func (c SimulationConfig) Validate() error {
	if c.NumSimulations <= 0 {
		return ErrNoTrials
	}
	if c.SetupFee < 0 {
		return fieldErr("", "setup_fee", "must not be negative, got %g", c.SetupFee)
	}
	if c.ManagementFee < 0 {
		return fieldErr("", "management_fee", "must not be negative, got %g", c.ManagementFee)
	}
	if c.ManagementFeeYears < 0 {
		return fieldErr("", "management_fee_years", "must not be negative, got %d", c.ManagementFeeYears)
	}
	f := c.FollowOn
	if err := checkPercent("", "follow_on.rate", f.Rate); err != nil {
		return err
	}
	if f.Multiple < 0 {
		return fieldErr("", "follow_on.multiple", "must not be negative, got %g", f.Multiple)
	}
	if err := checkPercent("", "follow_on.reserve_ratio", f.ReserveRatio); err != nil {
		return err
	}
	if err := checkPercent("", "follow_on.recycling_rate", f.RecyclingRate); err != nil {
		return err
	}
	return nil
}
