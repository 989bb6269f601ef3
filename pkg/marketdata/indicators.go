package marketdata

import (
	"time"

	"github.com/venturelab/fundsim-go/pkg/forecast"
)

// Indicators is a macro snapshot from the indicator service. Rates and
// growth figures are annual percentages; MarketMultiple is the public
// market earnings multiple used to gauge exit pricing.
type Indicators struct {
	InterestRate   float64   `json:"interest_rate"`
	Inflation      float64   `json:"inflation"`
	GDPGrowth      float64   `json:"gdp_growth"`
	MarketMultiple float64   `json:"market_multiple"`
	AsOf           time.Time `json:"as_of"`
}

// Macro overlays the fetched numbers onto a scenario backdrop, keeping
// the backdrop's qualitative fields (cycle, sentiment, liquidity).
func (i Indicators) Macro(base forecast.MacroFactors) forecast.MacroFactors {
	base.InterestRate = i.InterestRate
	base.Inflation = i.Inflation
	base.GDPGrowth = i.GDPGrowth
	base.MarketMultiple = i.MarketMultiple
	return base
}
