// Package main runs the venture fund Monte Carlo simulator and prints
// the fund-level outcome distribution.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/venturelab/fundsim-go/pkg/fund"
	"github.com/venturelab/fundsim-go/pkg/sim"
)

var (
	portfolioPath string
	trials        int
	seed          int64
	workers       int
	followOn      bool
	followOnRate  float64
	followOnMult  float64
	reserveRatio  float64
)

func init() {
	flag.StringVar(&portfolioPath, "portfolio", "", "Portfolio JSON file (default: built-in demo fund)")
	flag.IntVar(&trials, "trials", 10000, "Number of Monte Carlo trials")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = draw one)")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Parallel simulation workers")
	flag.BoolVar(&followOn, "followon", false, "Enable follow-on reserve deployment")
	flag.Float64Var(&followOnRate, "followon-rate", 50, "Follow-on participation chance per advance (%)")
	flag.Float64Var(&followOnMult, "followon-multiple", 1, "Follow-on check as a multiple of the original")
	flag.Float64Var(&reserveRatio, "reserve", 30, "Follow-on reserve as % of committed capital")
}

func main() {
	flag.Parse()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("VENTURE FUND MONTE CARLO SIMULATION")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	p, err := loadPortfolio(portfolioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		os.Exit(1)
	}

	cfg := fund.DefaultConfig()
	cfg.NumSimulations = trials
	cfg.FollowOn.Enabled = followOn
	cfg.FollowOn.Rate = followOnRate
	cfg.FollowOn.Multiple = followOnMult
	cfg.FollowOn.ReserveRatio = reserveRatio

	printPortfolio(p, cfg)

	opts := []sim.Option{sim.WithWorkers(workers)}
	if seed != 0 {
		opts = append(opts, sim.WithSeed(seed))
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("RUNNING %d SIMULATIONS (%d workers)\n", trials, workers)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	res, err := sim.Run(p, cfg, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Completed %d trials (seed %d)\n\n", trials, res.Seed)

	printDistribution(res)
	printProbabilities(res)
	printExitStages(p, res)
	printSummary(p, cfg, res)
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

func printPortfolio(p *fund.Portfolio, cfg fund.SimulationConfig) {
	fmt.Printf("PORTFOLIO: %s\n", p.Name)
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  %-20s %-12s %-10s %8s %12s\n", "Company", "Sector", "Stage", "Check", "Entry Val")
	for i := range p.Investments {
		inv := &p.Investments[i]
		fmt.Printf("  %-20s %-12s %-10s $%6.1fM $%10.1fM\n",
			inv.Name, inv.Sector, inv.EntryStage, inv.CheckSize, inv.EntryValuation)
	}
	fmt.Printf("  %d investments, $%.1fM committed\n", len(p.Investments), p.CommittedCapital())
	fmt.Println()

	fmt.Println("FUND CONFIGURATION:")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  Trials: %d\n", cfg.NumSimulations)
	fmt.Printf("  Setup fee: $%.2fM\n", cfg.SetupFee)
	fmt.Printf("  Management fee: %.1f%% x %d years\n", cfg.ManagementFee, cfg.ManagementFeeYears)
	if cfg.FollowOn.Enabled {
		fmt.Printf("  Follow-on: enabled (%.0f%% rate, %.1fx checks, %.0f%% reserve)\n",
			cfg.FollowOn.Rate, cfg.FollowOn.Multiple, cfg.FollowOn.ReserveRatio)
	} else {
		fmt.Println("  Follow-on: disabled")
	}
	fmt.Printf("  Investor paid-in: $%.2fM\n", cfg.TotalPaidIn(p.CommittedCapital()))
	fmt.Println()
}

func printDistribution(res *sim.PortfolioResults) {
	multiples := res.TrialMultiples()
	sort.Float64s(multiples)

	fmt.Println("FUND OUTCOME DISTRIBUTION (multiple on invested):")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  Mean: %.2fx\n", stat.Mean(multiples, nil))
	fmt.Printf("  Median: %.2fx\n", stat.Quantile(0.5, stat.Empirical, multiples, nil))
	fmt.Printf("  Std Dev: %.2fx\n", stat.StdDev(multiples, nil))
	fmt.Printf("  5th percentile: %.2fx (downside)\n", stat.Quantile(0.05, stat.Empirical, multiples, nil))
	fmt.Printf("  25th percentile: %.2fx\n", stat.Quantile(0.25, stat.Empirical, multiples, nil))
	fmt.Printf("  75th percentile: %.2fx\n", stat.Quantile(0.75, stat.Empirical, multiples, nil))
	fmt.Printf("  95th percentile: %.2fx (upside)\n", stat.Quantile(0.95, stat.Empirical, multiples, nil))
	fmt.Println()
}

func printProbabilities(res *sim.PortfolioResults) {
	multiples := res.TrialMultiples()
	n := float64(len(multiples))

	fmt.Println("PROBABILITY ANALYSIS:")
	fmt.Println(strings.Repeat("-", 50))
	for _, target := range []float64{1, 2, 3, 5, 10} {
		count := 0
		for _, m := range multiples {
			if m >= target {
				count++
			}
		}
		fmt.Printf("  P(fund multiple >= %.0fx): %.1f%%\n", target, float64(count)/n*100)
	}
	fmt.Println()
}

func printExitStages(p *fund.Portfolio, res *sim.PortfolioResults) {
	counts := res.ExitStageCounts()
	total := len(res.Simulations) * len(p.Investments)

	fmt.Println("EXIT STAGE BREAKDOWN (all company walks):")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  %-10s %10s %8s\n", "Stage", "Walks", "Share")
	for _, s := range fund.Stages() {
		fmt.Printf("  %-10s %10d %7.1f%%\n", s, counts[s], float64(counts[s])/float64(total)*100)
	}
	fmt.Printf("  Write-off rate: %.1f%% of walks returned nothing\n", res.LossRate()*100)
	fmt.Println()
}

func printSummary(p *fund.Portfolio, cfg fund.SimulationConfig, res *sim.PortfolioResults) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
	fmt.Printf("  Avg invested: $%.2fM\n", res.AvgInvested)
	fmt.Printf("  Avg distributed: $%.2fM\n", res.AvgDistributed)
	fmt.Printf("  Avg multiple: %.2fx\n", res.AvgMultiple)
	fmt.Printf("  Avg IRR: %.1f%%\n", res.AvgIRR*100)
	fmt.Printf("  Success rate: %.1f%% of trials had at least one >1x exit\n", res.SuccessRate*100)
	fmt.Printf("  Investor paid-in: $%.2fM (capital + fees + reserve)\n", res.PaidIn)
	if res.PaidIn > 0 {
		fmt.Printf("  Multiple on paid-in: %.2fx\n", res.AvgDistributed/res.PaidIn)
	}
	fmt.Println()
}
