package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelab/fundsim-go/pkg/fund"
)

// pinnedInvestment has every stochastic gate pinned: Seed entry with a
// guaranteed advance to Series A, no dilution, no loss, and a
// degenerate [50, 50] exit range. Equity 1/5 = 0.2 exits at exactly
// 0.2 * 50 = 10 regardless of the draw sequence.
func pinnedInvestment() fund.Investment {
	inv := fund.Investment{
		Name:           "pinned",
		EntryStage:     fund.Seed,
		EntryValuation: 5,
		CheckSize:      1,
	}
	inv.Params[fund.SeriesA] = fund.StageParams{
		Progression:   100,
		Dilution:      0,
		LossProb:      0,
		ExitValuation: fund.Range{Min: 50, Max: 50},
		YearsToNext:   fund.Range{Min: 1, Max: 2},
	}
	return inv
}

func TestWalk_PinnedGates(t *testing.T) {
	inv := pinnedInvestment()

	// Every seed must produce the identical outcome.
	for seed := int64(0); seed < 50; seed++ {
		res := Walk(&inv, fund.FollowOnStrategy{}, NewSampler(seed))

		require.Equal(t, fund.SeriesA, res.ExitStage, "seed %d", seed)
		assert.InDelta(t, 10.0, res.Exited, 1e-12, "seed %d", seed)
		assert.InDelta(t, 10.0, res.Multiple, 1e-12, "seed %d", seed)
		assert.InDelta(t, 1.0, res.Invested, 1e-12)
		assert.InDelta(t, 20.0, res.InitialOwnership, 1e-12)
		assert.InDelta(t, 20.0, res.FinalOwnership, 1e-12)
		assert.GreaterOrEqual(t, res.HoldingYears, 1.0)
		assert.LessOrEqual(t, res.HoldingYears, 2.0)
		assert.Empty(t, res.FollowOns)
	}
}

func TestWalk_NeverRegresses(t *testing.T) {
	inv := fund.Investment{
		Name:           "demo",
		EntryStage:     fund.Seed,
		EntryValuation: 8,
		CheckSize:      1,
		Params:         fund.DefaultParams(),
	}

	smp := NewSampler(7)
	for i := 0; i < 2000; i++ {
		res := Walk(&inv, fund.FollowOnStrategy{}, smp)

		assert.GreaterOrEqual(t, res.ExitStage, inv.EntryStage, "walk must never move backward")
		assert.LessOrEqual(t, res.ExitStage, fund.IPO)
		assert.Greater(t, res.HoldingYears, 0.0, "every outcome takes time")
		assert.GreaterOrEqual(t, res.Exited, 0.0)
		assert.LessOrEqual(t, res.FinalOwnership, res.InitialOwnership,
			"without follow-ons dilution can only shrink ownership")
	}
}

func TestWalk_CertainLoss(t *testing.T) {
	inv := pinnedInvestment()
	inv.Params[fund.SeriesA].LossProb = 100

	smp := NewSampler(11)
	for i := 0; i < 200; i++ {
		res := Walk(&inv, fund.FollowOnStrategy{}, smp)
		assert.Zero(t, res.Exited)
		assert.Zero(t, res.Multiple)
	}
}

func TestWalk_ExitWithinRange(t *testing.T) {
	inv := pinnedInvestment()
	inv.Params[fund.SeriesA].ExitValuation = fund.Range{Min: 40, Max: 60}

	smp := NewSampler(13)
	for i := 0; i < 500; i++ {
		res := Walk(&inv, fund.FollowOnStrategy{}, smp)
		// equity stays 0.2, so proceeds must land in [8, 12]
		require.GreaterOrEqual(t, res.Exited, 8.0)
		require.LessOrEqual(t, res.Exited, 12.0)
	}
}

func TestWalk_FallbackHolding(t *testing.T) {
	// No stage parameters at all: the walk halts at entry immediately
	// and the holding period comes from the per-stage fallback table.
	inv := fund.Investment{
		Name:           "stuck",
		EntryStage:     fund.Seed,
		EntryValuation: 5,
		CheckSize:      1,
	}

	smp := NewSampler(17)
	for i := 0; i < 500; i++ {
		res := Walk(&inv, fund.FollowOnStrategy{}, smp)
		require.Equal(t, fund.Seed, res.ExitStage)
		require.GreaterOrEqual(t, res.HoldingYears, fallbackHoldYears[fund.Seed].Min)
		require.LessOrEqual(t, res.HoldingYears, fallbackHoldYears[fund.Seed].Max)
	}
}

func TestWalk_Dilution(t *testing.T) {
	inv := pinnedInvestment()
	inv.Params[fund.SeriesA].Dilution = 25

	res := Walk(&inv, fund.FollowOnStrategy{}, NewSampler(19))

	// 0.2 diluted by 25% leaves 0.15, exiting at 0.15 * 50 = 7.5.
	assert.InDelta(t, 15.0, res.FinalOwnership, 1e-12)
	assert.InDelta(t, 7.5, res.Exited, 1e-12)
}

func TestWalk_FollowOnDisabled(t *testing.T) {
	inv := fund.Investment{
		Name:           "demo",
		EntryStage:     fund.PreSeed,
		EntryValuation: 4,
		CheckSize:      0.5,
		Params:         fund.DefaultParams(),
	}

	smp := NewSampler(23)
	for i := 0; i < 1000; i++ {
		res := Walk(&inv, fund.FollowOnStrategy{}, smp)
		require.Empty(t, res.FollowOns)
		require.InDelta(t, 0.5, res.Invested, 1e-12, "invested stays at the initial check")
	}
}

func TestWalk_FollowOnEveryAdvance(t *testing.T) {
	inv := pinnedInvestment()
	policy := fund.FollowOnStrategy{Enabled: true, Rate: 100, Multiple: 1}

	res := Walk(&inv, policy, NewSampler(29))

	// One advance into Series A (non-terminal), so exactly one
	// injection of checkSize * multiple.
	require.Len(t, res.FollowOns, 1)
	assert.Equal(t, fund.SeriesA, res.FollowOns[0].Stage)
	assert.InDelta(t, 1.0, res.FollowOns[0].Amount, 1e-12)
	assert.Greater(t, res.FollowOns[0].Equity, 0.0)
	assert.InDelta(t, 2.0, res.Invested, 1e-12)
	assert.Greater(t, res.FinalOwnership, 20.0, "injection adds ownership on top of entry equity")
}

func TestWalk_FollowOnNeverFundsIPO(t *testing.T) {
	inv := fund.Investment{
		Name:           "runner",
		EntryStage:     fund.PreSeed,
		EntryValuation: 4,
		CheckSize:      0.5,
		Params:         fund.DefaultParams(),
	}
	// Force a full run to IPO with injections on every round.
	for _, s := range fund.Stages() {
		if s == fund.PreSeed {
			continue
		}
		inv.Params[s].Progression = 100
	}
	policy := fund.FollowOnStrategy{Enabled: true, Rate: 100, Multiple: 0.5}

	smp := NewSampler(31)
	for i := 0; i < 200; i++ {
		res := Walk(&inv, policy, smp)
		require.Equal(t, fund.IPO, res.ExitStage)
		// Advances into Seed, A, B, C are fundable; the IPO transition
		// is not.
		require.Len(t, res.FollowOns, 4)
		for _, fo := range res.FollowOns {
			require.NotEqual(t, fund.IPO, fo.Stage)
		}
	}
}

func TestWalk_FollowOnZeroRate(t *testing.T) {
	inv := pinnedInvestment()
	policy := fund.FollowOnStrategy{Enabled: true, Rate: 0, Multiple: 2}

	smp := NewSampler(37)
	for i := 0; i < 500; i++ {
		res := Walk(&inv, policy, smp)
		require.Empty(t, res.FollowOns, "a zero rate must never inject")
	}
}

func TestWalk_Stochastic(t *testing.T) {
	inv := fund.Investment{
		Name:           "demo",
		EntryStage:     fund.Seed,
		EntryValuation: 8,
		CheckSize:      1,
		Params:         fund.DefaultParams(),
	}

	smp := NewSampler(41)
	seen := make(map[float64]bool)
	for i := 0; i < 50; i++ {
		res := Walk(&inv, fund.FollowOnStrategy{}, smp)
		seen[res.Exited] = true
	}
	assert.Greater(t, len(seen), 1, "repeated walks should differ")
}
