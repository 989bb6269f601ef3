package forecast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venturelab/fundsim-go/pkg/fund"
)

func TestCompare_Validates(t *testing.T) {
	p := scenarioPortfolio()
	cfg := testConfig(50)

	_, err := Compare(p, cfg, nil)
	require.ErrorIs(t, err, ErrNoScenarios)

	zero := []Scenario{{Name: "a", Probability: 0, HorizonYears: 5, Macro: NeutralMacro()}}
	_, err = Compare(p, cfg, zero)
	require.Error(t, err)

	bad := []Scenario{{Name: "a", Probability: 10, Macro: NeutralMacro()}}
	_, err = Compare(p, cfg, bad)
	require.ErrorIs(t, err, ErrNoHorizon)

	_, err = Compare(&fund.Portfolio{}, cfg, DefaultScenarios())
	require.ErrorIs(t, err, fund.ErrEmptyPortfolio)
}

func TestCompare_Shape(t *testing.T) {
	p := scenarioPortfolio()
	cmp, err := Compare(p, testConfig(100), DefaultScenarios(), WithSeed(21))
	require.NoError(t, err)

	require.Len(t, cmp.Scenarios, 3)
	assert.Equal(t, "expansion", cmp.Scenarios[0].Scenario)
	assert.Equal(t, "baseline", cmp.Scenarios[1].Scenario)
	assert.Equal(t, "contraction", cmp.Scenarios[2].Scenario)
	assert.Equal(t, int64(21), cmp.Seed)
	assert.Greater(t, cmp.BaselineMultiple, 0.0)

	hm := cmp.HeatMap
	require.Len(t, hm.Scenarios, 3)
	require.Len(t, hm.Years, 10)
	assert.Equal(t, 1, hm.Years[0])
	assert.Equal(t, 10, hm.Years[9])
	for i, row := range hm.Multiples {
		assert.Len(t, row, len(cmp.Scenarios[i].Years))
	}
}

func TestCompare_ExpectedValues(t *testing.T) {
	p := scenarioPortfolio()
	cmp, err := Compare(p, testConfig(100), DefaultScenarios(), WithSeed(13))
	require.NoError(t, err)

	var m, irr, dist float64
	for _, fc := range cmp.Scenarios {
		w := fc.Probability / 100
		m += w * fc.FinalMultiple
		irr += w * fc.FinalIRR
		dist += w * fc.TotalDistributed
	}
	assert.InDelta(t, m, cmp.ExpectedMultiple, 1e-12)
	assert.InDelta(t, irr, cmp.ExpectedIRR, 1e-12)
	assert.InDelta(t, dist, cmp.ExpectedDistributed, 1e-12)
}

func TestCompare_Waterfall(t *testing.T) {
	p := scenarioPortfolio()
	cmp, err := Compare(p, testConfig(100), DefaultScenarios(), WithSeed(5))
	require.NoError(t, err)

	wf := cmp.Waterfall
	require.Len(t, wf, 5)

	assert.Equal(t, "baseline", wf[0].Label)
	assert.Equal(t, cmp.BaselineMultiple, wf[0].Delta)
	assert.Equal(t, cmp.BaselineMultiple, wf[0].Running)

	for i := 1; i < len(wf)-1; i++ {
		assert.InDelta(t, wf[i-1].Running+wf[i].Delta, wf[i].Running, 1e-12, "step %s", wf[i].Label)
	}

	last := wf[len(wf)-1]
	assert.Equal(t, "expected", last.Label)
	assert.InDelta(t, cmp.ExpectedMultiple, last.Running, 1e-12)
	assert.InDelta(t, cmp.ExpectedMultiple, wf[len(wf)-2].Running, 1e-9,
		"scenario deltas must bridge baseline to expected")
}

func TestCompare_Tornado(t *testing.T) {
	p := scenarioPortfolio()
	cmp, err := Compare(p, testConfig(100), DefaultScenarios(), WithSeed(31))
	require.NoError(t, err)

	require.Len(t, cmp.Tornado, 7, "every macro field varies across the default set")

	for i := 1; i < len(cmp.Tornado); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(cmp.Tornado[i-1].Impact), math.Abs(cmp.Tornado[i].Impact),
			"tornado entries sort by swing size")
	}

	var rates *TornadoEntry
	for i := range cmp.Tornado {
		if cmp.Tornado[i].Factor == "interest_rate" {
			rates = &cmp.Tornado[i]
		}
	}
	require.NotNil(t, rates)
	assert.Equal(t, 2.0, rates.LowInput)
	assert.Equal(t, 5.5, rates.HighInput)
	assert.InDelta(t, rates.High-rates.Low, rates.Impact, 1e-12)
}

func TestCompare_TornadoOmitsConstantFactors(t *testing.T) {
	p := scenarioPortfolio()
	a := Scenario{Name: "a", Probability: 50, HorizonYears: 5, Macro: NeutralMacro()}
	b := a
	b.Name = "b"
	b.Macro.Sentiment = SentimentBullish

	cmp, err := Compare(p, testConfig(50), []Scenario{a, b}, WithSeed(2))
	require.NoError(t, err)

	require.Len(t, cmp.Tornado, 1)
	assert.Equal(t, "sentiment", cmp.Tornado[0].Factor)
	assert.Equal(t, float64(SentimentNeutral), cmp.Tornado[0].LowInput)
	assert.Equal(t, float64(SentimentBullish), cmp.Tornado[0].HighInput)
}

func TestCompare_Reproducible(t *testing.T) {
	p := scenarioPortfolio()

	a, err := Compare(p, testConfig(100), DefaultScenarios(), WithSeed(77))
	require.NoError(t, err)
	b, err := Compare(p, testConfig(100), DefaultScenarios(), WithSeed(77))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
