// Package fund provides the venture portfolio domain model for fund simulation
package fund

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Stage represents a funding stage in a company's lifecycle.
// Stages form an ordered sequence and are used to index per-stage
// parameter tables.
type Stage int

const (
	PreSeed Stage = iota
	Seed
	SeriesA
	SeriesB
	SeriesC
	IPO

	// NumStages is the number of stages in the sequence.
	NumStages = int(IPO) + 1
)

// stageNames maps stages to display names.
var stageNames = [NumStages]string{
	PreSeed: "Pre-Seed",
	Seed:    "Seed",
	SeriesA: "Series A",
	SeriesB: "Series B",
	SeriesC: "Series C",
	IPO:     "IPO",
}

// stageKeys maps stages to wire/config keys.
var stageKeys = [NumStages]string{
	PreSeed: "pre_seed",
	Seed:    "seed",
	SeriesA: "series_a",
	SeriesB: "series_b",
	SeriesC: "series_c",
	IPO:     "ipo",
}

// Stages returns all stages in lifecycle order.
func Stages() []Stage {
	out := make([]Stage, NumStages)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}

// String returns the display name (e.g., "Series A").
func (s Stage) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Key returns the wire key (e.g., "series_a").
func (s Stage) Key() string {
	if !s.Valid() {
		return fmt.Sprintf("stage_%d", int(s))
	}
	return stageKeys[s]
}

// Valid reports whether the stage is within the known sequence.
func (s Stage) Valid() bool {
	return s >= PreSeed && s <= IPO
}

// Next returns the following stage in the sequence.
// The second return value is false at IPO, the terminal stage.
func (s Stage) Next() (Stage, bool) {
	if !s.Valid() || s == IPO {
		return s, false
	}
	return s + 1, true
}

// Terminal reports whether the stage has no successor.
func (s Stage) Terminal() bool {
	return s == IPO
}

// ParseStage parses a stage from a display name or wire key.
// Matching is case-insensitive and tolerant of spaces vs. hyphens
// vs. underscores ("Series A", "series_a" and "series-a" all parse).
func ParseStage(s string) (Stage, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for i := 0; i < NumStages; i++ {
		st := Stage(i)
		if norm == stageKeys[st] {
			return st, nil
		}
		name := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(stageNames[st]))
		if norm == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("fund: unknown stage %q", s)
}

// MarshalJSON encodes the stage as its wire key.
func (s Stage) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("fund: cannot marshal invalid stage %d", int(s))
	}
	return json.Marshal(s.Key())
}

// UnmarshalJSON decodes a stage from a display name or wire key.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("fund: stage must be a string: %w", err)
	}
	parsed, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
