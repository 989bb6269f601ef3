package fund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoPortfolio(t *testing.T) {
	p := DemoPortfolio()
	require.NoError(t, p.Validate())

	assert.Len(t, p.Investments, 6)
	assert.InDelta(t, 12.1, p.CommittedCapital(), 1e-9)
	assert.Len(t, p.Sectors(), 6)

	for _, inv := range p.Investments {
		assert.NotEmpty(t, inv.ID, "investment %s should get an ID", inv.Name)
	}
}

func TestDemoPortfolio_FreshCopies(t *testing.T) {
	a := DemoPortfolio()
	b := DemoPortfolio()

	a.Investments[0].CheckSize = 99
	assert.NotEqual(t, 99.0, b.Investments[0].CheckSize)
}
