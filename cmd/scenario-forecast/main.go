// Package main projects multi-year portfolio performance under
// macroeconomic scenarios and compares the probability-weighted
// outcomes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/venturelab/fundsim-go/pkg/forecast"
	"github.com/venturelab/fundsim-go/pkg/fund"
)

var (
	portfolioPath string
	scenariosPath string
	trials        int
	seed          int64
)

func init() {
	flag.StringVar(&portfolioPath, "portfolio", "", "Portfolio JSON file (default: built-in demo fund)")
	flag.StringVar(&scenariosPath, "scenarios", "", "Scenario JSON file (default: built-in expansion/baseline/contraction set)")
	flag.IntVar(&trials, "trials", 2000, "Trials per scenario projection")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = draw one)")
}

func main() {
	flag.Parse()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("MULTI-YEAR SCENARIO FORECAST")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	p, err := loadPortfolio(portfolioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		os.Exit(1)
	}

	scenarios, err := loadScenarios(scenariosPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scenarios: %v\n", err)
		os.Exit(1)
	}

	cfg := fund.DefaultConfig()
	cfg.NumSimulations = trials

	var opts []forecast.Option
	if seed != 0 {
		opts = append(opts, forecast.WithSeed(seed))
	}

	cmp, err := forecast.Compare(p, cfg, scenarios, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Forecast failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Projected %d scenarios, %d trials each (seed %d)\n\n", len(cmp.Scenarios), trials, cmp.Seed)

	for i := range cmp.Scenarios {
		printScenario(&cmp.Scenarios[i])
	}
	printComparison(cmp)
	printTornado(cmp)
	printWaterfall(cmp)
}

// loadPortfolio reads a portfolio JSON file, falling back to the
// built-in demo fund when no path is given.
func loadPortfolio(path string) (*fund.Portfolio, error) {
	if path == "" {
		fmt.Println("→ No portfolio file given, using the built-in demo fund")
		fmt.Println()
		return fund.DemoPortfolio(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p fund.Portfolio
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	p.EnsureIDs()
	return &p, nil
}

func loadScenarios(path string) ([]forecast.Scenario, error) {
	if path == "" {
		fmt.Println("→ No scenario file given, using the built-in scenario set")
		fmt.Println()
		return forecast.DefaultScenarios(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var scenarios []forecast.Scenario
	if err := json.Unmarshal(raw, &scenarios); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return scenarios, nil
}

func printScenario(fc *forecast.ScenarioForecast) {
	fmt.Printf("SCENARIO: %s (%.0f%% weight)\n", fc.Scenario, fc.Probability)
	fmt.Println(strings.Repeat("-", 50))

	f := fc.Factors[""]
	fmt.Printf("  Factors: valuation x%.2f, progression x%.2f, loss x%.2f\n",
		f.Valuation, f.Progression, f.Loss)
	fmt.Println()

	fmt.Printf("  %4s %10s %10s %9s %9s %9s %8s\n",
		"Year", "Held($M)", "Exits($M)", "Fees($M)", "Net($M)", "Multiple", "IRR")
	for _, yp := range fc.Years {
		fmt.Printf("  %4d %10.2f %10.2f %9.2f %9.2f %8.2fx %7.1f%%\n",
			yp.Year, yp.PortfolioValue, yp.ExitValue, yp.FeesPaid, yp.NetCashFlow,
			yp.Multiple, yp.IRR*100)
	}
	fmt.Printf("  Final: %.2fx multiple, %.1f%% IRR, $%.1fM distributed\n",
		fc.FinalMultiple, fc.FinalIRR*100, fc.TotalDistributed)
	fmt.Println()
}

func printComparison(cmp *forecast.Comparison) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SCENARIO COMPARISON")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("  %-16s %8s %12s %11s %13s\n", "Scenario", "Weight", "Final Mult", "Final IRR", "Distributed")
	for i := range cmp.Scenarios {
		fc := &cmp.Scenarios[i]
		fmt.Printf("  %-16s %7.0f%% %11.2fx %10.1f%% %12.1fM\n",
			fc.Scenario, fc.Probability, fc.FinalMultiple, fc.FinalIRR*100, fc.TotalDistributed)
	}
	fmt.Println()
	fmt.Printf("  Baseline (neutral): %.2fx\n", cmp.BaselineMultiple)
	fmt.Printf("  Expected multiple: %.2fx\n", cmp.ExpectedMultiple)
	fmt.Printf("  Expected IRR: %.1f%%\n", cmp.ExpectedIRR*100)
	fmt.Printf("  Expected distributed: $%.1fM\n", cmp.ExpectedDistributed)
	fmt.Println()
}

func printTornado(cmp *forecast.Comparison) {
	if len(cmp.Tornado) == 0 {
		return
	}
	fmt.Println("TORNADO (single-factor swings on the final multiple):")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  %-16s %16s %8s %8s %8s\n", "Factor", "Input Range", "Low", "High", "Impact")
	for _, e := range cmp.Tornado {
		rng := fmt.Sprintf("%.1f → %.1f", e.LowInput, e.HighInput)
		fmt.Printf("  %-16s %16s %7.2fx %7.2fx %+8.2f\n", e.Factor, rng, e.Low, e.High, e.Impact)
	}
	fmt.Println()
}

func printWaterfall(cmp *forecast.Comparison) {
	fmt.Println("WATERFALL (baseline to probability-weighted expected):")
	fmt.Println(strings.Repeat("-", 50))
	for i, st := range cmp.Waterfall {
		if i == 0 || i == len(cmp.Waterfall)-1 {
			fmt.Printf("  %-16s %8.2fx\n", st.Label, st.Running)
		} else {
			fmt.Printf("  %-16s %+8.2f → %.2fx\n", st.Label, st.Delta, st.Running)
		}
	}
	fmt.Println()
}
