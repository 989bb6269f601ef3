package sim

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelab/fundsim-go/pkg/fund"
)

func demoPortfolio() *fund.Portfolio {
	return &fund.Portfolio{
		Name: "Test Fund",
		Investments: []fund.Investment{
			{Name: "alpha", EntryStage: fund.PreSeed, EntryValuation: 4, CheckSize: 0.5, Params: fund.DefaultParams()},
			{Name: "beta", EntryStage: fund.Seed, EntryValuation: 8, CheckSize: 1, Params: fund.DefaultParams()},
			{Name: "gamma", EntryStage: fund.SeriesA, EntryValuation: 40, CheckSize: 2, Params: fund.DefaultParams()},
		},
	}
}

func testConfig(trials int) fund.SimulationConfig {
	cfg := fund.DefaultConfig()
	cfg.NumSimulations = trials
	return cfg
}

func TestRun_EmptyPortfolio(t *testing.T) {
	_, err := Run(&fund.Portfolio{}, testConfig(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fund.ErrEmptyPortfolio))
}

func TestRun_NoTrials(t *testing.T) {
	_, err := Run(demoPortfolio(), testConfig(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fund.ErrNoTrials))
}

func TestRun_InvalidInvestment(t *testing.T) {
	p := demoPortfolio()
	p.Investments[1].Params[fund.SeriesB].ExitValuation = fund.Range{Min: 10, Max: 5}

	_, err := Run(p, testConfig(10))
	require.Error(t, err)

	var verr *fund.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "beta", verr.Investment)
}

func TestRun_MatrixShape(t *testing.T) {
	p := demoPortfolio()
	res, err := Run(p, testConfig(25), WithSeed(1))
	require.NoError(t, err)

	require.Len(t, res.Simulations, 25)
	for _, trial := range res.Simulations {
		require.Len(t, trial, len(p.Investments))
	}
}

func TestRun_Stats(t *testing.T) {
	res, err := Run(demoPortfolio(), testConfig(500), WithSeed(2))
	require.NoError(t, err)

	assert.Greater(t, res.AvgInvested, 0.0)
	assert.GreaterOrEqual(t, res.AvgDistributed, 0.0)
	assert.InDelta(t, res.AvgDistributed/res.AvgInvested, res.AvgMultiple, 1e-12)
	assert.GreaterOrEqual(t, res.SuccessRate, 0.0)
	assert.LessOrEqual(t, res.SuccessRate, 1.0)
}

func TestRun_PaidIn(t *testing.T) {
	p := demoPortfolio()
	cfg := testConfig(10)
	cfg.SetupFee = 1
	cfg.ManagementFee = 2
	cfg.ManagementFeeYears = 10
	cfg.FollowOn.Enabled = true
	cfg.FollowOn.ReserveRatio = 50

	res, err := Run(p, cfg, WithSeed(3))
	require.NoError(t, err)

	// committed 3.5 + setup 1 + fees 0.7 + reserve 1.75
	assert.InDelta(t, 6.95, res.PaidIn, 1e-9)
}

func TestRun_Reproducible(t *testing.T) {
	a, err := Run(demoPortfolio(), testConfig(200), WithSeed(99))
	require.NoError(t, err)
	b, err := Run(demoPortfolio(), testConfig(200), WithSeed(99))
	require.NoError(t, err)

	assert.Equal(t, a.AvgDistributed, b.AvgDistributed)
	assert.Equal(t, a.AvgInvested, b.AvgInvested)
	assert.Equal(t, a.Simulations, b.Simulations)
}

func TestRun_SeedMatters(t *testing.T) {
	a, err := Run(demoPortfolio(), testConfig(200), WithSeed(1))
	require.NoError(t, err)
	b, err := Run(demoPortfolio(), testConfig(200), WithSeed(2))
	require.NoError(t, err)

	assert.NotEqual(t, a.AvgDistributed, b.AvgDistributed)
}

func TestRun_PinnedPortfolio(t *testing.T) {
	inv := pinnedInvestment()
	p := &fund.Portfolio{Investments: []fund.Investment{inv}}
	cfg := fund.SimulationConfig{NumSimulations: 50}

	res, err := Run(p, cfg, WithSeed(5))
	require.NoError(t, err)

	assert.InDelta(t, 1.0, res.AvgInvested, 1e-9)
	assert.InDelta(t, 10.0, res.AvgDistributed, 1e-9)
	assert.InDelta(t, 10.0, res.AvgMultiple, 1e-9)
	assert.InDelta(t, 1.0, res.SuccessRate, 1e-12)
	// A 10x single-period return solves to a 900% IRR.
	assert.InDelta(t, 9.0, res.AvgIRR, 0.05)
}

func TestRun_Parallel(t *testing.T) {
	res, err := Run(demoPortfolio(), testConfig(200), WithSeed(7), WithWorkers(4))
	require.NoError(t, err)

	require.Len(t, res.Simulations, 200)
	for i, trial := range res.Simulations {
		require.NotNil(t, trial, "row %d not filled", i)
		require.Len(t, trial, 3)
	}
	assert.Greater(t, res.AvgInvested, 0.0)
}

func TestRun_ParallelReproducible(t *testing.T) {
	a, err := Run(demoPortfolio(), testConfig(100), WithSeed(11), WithWorkers(4))
	require.NoError(t, err)
	b, err := Run(demoPortfolio(), testConfig(100), WithSeed(11), WithWorkers(4))
	require.NoError(t, err)

	assert.Equal(t, a.Simulations, b.Simulations)
}

func TestRun_Progress(t *testing.T) {
	var calls atomic.Int64
	var last atomic.Int64

	_, err := Run(demoPortfolio(), testConfig(30), WithSeed(13),
		WithProgress(func(completed, total int) {
			calls.Add(1)
			last.Store(int64(completed))
			assert.Equal(t, 30, total)
		}))
	require.NoError(t, err)

	assert.Equal(t, int64(30), calls.Load())
	assert.Equal(t, int64(30), last.Load())
}

func TestRun_ProgressParallel(t *testing.T) {
	var calls atomic.Int64
	_, err := Run(demoPortfolio(), testConfig(40), WithSeed(17), WithWorkers(3),
		WithProgress(func(completed, total int) {
			calls.Add(1)
		}))
	require.NoError(t, err)
	assert.Equal(t, int64(40), calls.Load())
}

func TestPortfolioResults_Helpers(t *testing.T) {
	res, err := Run(demoPortfolio(), testConfig(100), WithSeed(19))
	require.NoError(t, err)

	multiples := res.TrialMultiples()
	require.Len(t, multiples, 100)
	for _, m := range multiples {
		require.GreaterOrEqual(t, m, 0.0)
	}

	counts := res.ExitStageCounts()
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 300, total, "every walk ends at some stage")

	lr := res.LossRate()
	assert.GreaterOrEqual(t, lr, 0.0)
	assert.LessOrEqual(t, lr, 1.0)
}

func TestRun_FollowOnIncreasesInvested(t *testing.T) {
	p := demoPortfolio()

	base := testConfig(400)
	base.FollowOn.Enabled = false
	plain, err := Run(p, base, WithSeed(23))
	require.NoError(t, err)

	withFO := testConfig(400)
	withFO.FollowOn = fund.FollowOnStrategy{Enabled: true, Rate: 100, Multiple: 1, ReserveRatio: 30}
	reserved, err := Run(p, withFO, WithSeed(23))
	require.NoError(t, err)

	assert.Greater(t, reserved.AvgInvested, plain.AvgInvested,
		"guaranteed follow-ons must deploy more capital")
}
