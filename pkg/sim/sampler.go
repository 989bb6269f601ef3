// Package sim implements Monte Carlo simulation of venture portfolios:
// per-investment stage walks, optional follow-on deployment, and
// portfolio-level aggregation with IRR.
//
// Every stochastic draw flows through a Sampler seeded explicitly, so
// the same seed always reproduces the same trial sequence.
package sim

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/venturelab/fundsim-go/pkg/fund"
)

// Sampler wraps a seeded random source with the uniform draws the
// simulation needs. It is not safe for concurrent use; each worker
// owns its own sampler.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with the given value.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// NewSeed generates a high-entropy seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Percent draws a uniform variate in [0, 100).
func (s *Sampler) Percent() float64 {
	return s.rng.Float64() * 100
}

// Between draws a uniform variate in [min, max]. A degenerate range
// returns min.
func (s *Sampler) Between(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + s.rng.Float64()*(max-min)
}

// FromRange draws a uniform variate from r.
func (s *Sampler) FromRange(r fund.Range) float64 {
	return s.Between(r.Min, r.Max)
}
