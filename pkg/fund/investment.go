package fund

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Range is an inclusive [Min, Max] interval used for uniform draws.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Valid reports whether the range is ordered.
func (r Range) Valid() bool {
	return r.Min <= r.Max
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Scale returns the range with both bounds multiplied by f.
func (r Range) Scale(f float64) Range {
	return Range{Min: r.Min * f, Max: r.Max * f}
}

// StageParams holds the stochastic parameters for one stage, keyed by
// the stage being entered.
type StageParams struct {
	// Progression is the chance (0-100) of reaching this stage from
	// the prior one.
	Progression float64 `json:"progression"`

	// Dilution is the ownership dilution (0-100) applied on entering
	// this stage.
	Dilution float64 `json:"dilution"`

	// LossProb is the chance (0-100) that a company whose walk ends at
	// this stage is written off entirely.
	LossProb float64 `json:"loss_prob"`

	// ExitValuation is the company valuation range ($M) when exiting
	// at this stage.
	ExitValuation Range `json:"exit_valuation"`

	// YearsToNext is the range of years spent progressing from this
	// stage toward the next.
	YearsToNext Range `json:"years_to_next"`
}

// ParamTable holds one StageParams entry per stage, indexed by Stage.
// A zero entry means a stage the company can never reach (zero
// progression) and would exit worthless at (zero exit range).
type ParamTable [NumStages]StageParams

// At returns the parameters for a stage. Out-of-sequence stages return
// the zero value.
func (t ParamTable) At(s Stage) StageParams {
	if !s.Valid() {
		return StageParams{}
	}
	return t[s]
}

// MarshalJSON encodes the table as an object keyed by stage wire keys.
func (t ParamTable) MarshalJSON() ([]byte, error) {
	m := make(map[string]StageParams, NumStages)
	for _, s := range Stages() {
		m[s.Key()] = t[s]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes a table from an object keyed by stage names or
// wire keys. Stages absent from the object keep zero parameters.
func (t *ParamTable) UnmarshalJSON(data []byte) error {
	var m map[string]StageParams
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("fund: stage parameter table: %w", err)
	}
	var out ParamTable
	for k, v := range m {
		s, err := ParseStage(k)
		if err != nil {
			return err
		}
		out[s] = v
	}
	*t = out
	return nil
}

// DefaultParams returns a baseline parameter table with typical venture
// progression, dilution and outcome figures. Used by the demo
// portfolios and as a starting point for custom investments.
func DefaultParams() ParamTable {
	return ParamTable{
		// Progression and dilution for Pre-Seed are never consulted:
		// no walk advances into the first stage.
		PreSeed: {
			LossProb:      70,
			ExitValuation: Range{Min: 1, Max: 5},
			YearsToNext:   Range{Min: 1, Max: 2},
		},
		Seed: {
			Progression:   60,
			Dilution:      18,
			LossProb:      55,
			ExitValuation: Range{Min: 5, Max: 15},
			YearsToNext:   Range{Min: 1, Max: 2.5},
		},
		SeriesA: {
			Progression:   40,
			Dilution:      20,
			LossProb:      40,
			ExitValuation: Range{Min: 20, Max: 80},
			YearsToNext:   Range{Min: 1.5, Max: 3},
		},
		SeriesB: {
			Progression:   45,
			Dilution:      15,
			LossProb:      25,
			ExitValuation: Range{Min: 80, Max: 250},
			YearsToNext:   Range{Min: 1.5, Max: 3},
		},
		SeriesC: {
			Progression:   50,
			Dilution:      12,
			LossProb:      15,
			ExitValuation: Range{Min: 250, Max: 800},
			YearsToNext:   Range{Min: 2, Max: 4},
		},
		IPO: {
			Progression:   35,
			Dilution:      10,
			LossProb:      5,
			ExitValuation: Range{Min: 800, Max: 5000},
			YearsToNext:   Range{},
		},
	}
}

// Investment represents a single portfolio company position.
type Investment struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
	Region string `json:"region,omitempty"`

	// EntryStage is the stage at which the fund invests.
	EntryStage Stage `json:"entry_stage"`

	// EntryValuation is the post-money valuation at entry ($M).
	EntryValuation float64 `json:"entry_valuation"`

	// CheckSize is the initial check written at entry ($M).
	CheckSize float64 `json:"check_size"`

	// Params holds the per-stage stochastic parameters.
	Params ParamTable `json:"params"`
}

// InitialEquity returns the ownership fraction acquired at entry.
func (inv *Investment) InitialEquity() float64 {
	if inv.EntryValuation <= 0 {
		return 0
	}
	return inv.CheckSize / inv.EntryValuation
}

// Portfolio is a named collection of investments simulated together.
type Portfolio struct {
	Name        string       `json:"name,omitempty"`
	Investments []Investment `json:"investments"`
}

// CommittedCapital returns the sum of all initial check sizes ($M).
func (p *Portfolio) CommittedCapital() float64 {
	total := 0.0
	for i := range p.Investments {
		total += p.Investments[i].CheckSize
	}
	return total
}

// Sectors returns the distinct sectors present, in first-seen order.
func (p *Portfolio) Sectors() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range p.Investments {
		s := p.Investments[i].Sector
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// EnsureIDs assigns a UUID to every investment that was loaded without
// one, so results can be traced back to their source position.
func (p *Portfolio) EnsureIDs() {
	for i := range p.Investments {
		if p.Investments[i].ID == "" {
			p.Investments[i].ID = uuid.NewString()
		}
	}
}

// Clone returns a deep copy of the portfolio. Parameter tables are
// value types, so copying the investment slice is sufficient.
func (p *Portfolio) Clone() *Portfolio {
	out := &Portfolio{Name: p.Name}
	out.Investments = make([]Investment, len(p.Investments))
	copy(out.Investments, p.Investments)
	return out
}
