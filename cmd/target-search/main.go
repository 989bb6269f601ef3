// Package main searches for the smallest parameter adjustments that
// lift a portfolio's simulated average multiple to target levels and
// reports how achievable each target is.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/venturelab/fundsim-go/pkg/fund"
	"github.com/venturelab/fundsim-go/pkg/sensitivity"
)

var (
	portfolioPath string
	targetsFlag   string
	trials        int
	seed          int64
	step          float64
	maxAdj        float64
)

func init() {
	flag.StringVar(&portfolioPath, "portfolio", "", "Portfolio JSON file (default: built-in demo fund)")
	flag.StringVar(&targetsFlag, "targets", "2,3,5,10", "Comma-separated target multiples")
	flag.IntVar(&trials, "trials", 1000, "Trials per probe simulation")
	flag.Int64Var(&seed, "seed", 0, "Random seed (0 = draw one)")
	flag.Float64Var(&step, "step", sensitivity.DefaultStep, "Search increment (%)")
	flag.Float64Var(&maxAdj, "max", sensitivity.DefaultMaxAdjustment, "Search bound (%)")
}

func main() {
	flag.Parse()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("TARGET MULTIPLE SENSITIVITY SEARCH")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	targets, err := parseTargets(targetsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing targets: %v\n", err)
		os.Exit(1)
	}

	p, err := loadPortfolio(portfolioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading portfolio: %v\n", err)
		os.Exit(1)
	}

	cfg := fund.DefaultConfig()
	cfg.NumSimulations = trials

	fmt.Printf("→ Searching %d targets in %.0f%% steps up to %.0f%% (%d trials per probe)\n\n",
		len(targets), step, maxAdj, trials)

	opts := []sensitivity.Option{
		sensitivity.WithStep(step),
		sensitivity.WithMaxAdjustment(maxAdj),
	}
	if seed != 0 {
		opts = append(opts, sensitivity.WithSeed(seed))
	}

	report, err := sensitivity.Analyze(p, cfg, targets, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("BASELINE: %.2fx multiple, %.1f%% IRR\n\n", report.BaselineMultiple, report.BaselineIRR*100)

	for i := range report.Targets {
		printTarget(&report.Targets[i])
	}
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

func parseTargets(raw string) ([]float64, error) {
	var out []float64
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("bad target %q: %w", tok, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no targets in %q", raw)
	}
	return out, nil
}

func printTarget(sc *sensitivity.TargetScenario) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("TARGET %.2fx", sc.TargetMultiple)
	switch {
	case !sc.Achievable:
		fmt.Print("  (out of reach within the search bound)")
	case sc.Realistic:
		fmt.Print("  (achievable, realistic)")
	default:
		fmt.Print("  (achievable, aggressive)")
	}
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Printf("ACHIEVABILITY SCORE: %.1f/100\n", sc.Score)
	fmt.Println(strings.Repeat("-", 50))
	for _, f := range sc.ScoreFactors {
		fmt.Printf("  %-10s %5.1f (weight %.1f): %s\n", f.Name, f.Value, f.Weight, f.Explanation)
	}
	fmt.Println()

	fmt.Println("SINGLE LEVERS:")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  %-16s %-12s %10s %10s\n", "Parameter", "Achievable", "Required", "Achieved")
	for _, pr := range sc.Parameters {
		if pr.Achievable {
			fmt.Printf("  %-16s %-12s %9.1f%% %9.2fx\n", pr.Parameter, "yes", pr.Required, pr.AchievedMultiple)
		} else {
			fmt.Printf("  %-16s %-12s %10s %10s\n", pr.Parameter, "no", "-", "-")
		}
	}
	fmt.Println()

	fmt.Println("COMBINED APPROACHES (ranked by total adjustment):")
	fmt.Println(strings.Repeat("-", 50))
	fmt.Printf("  %-4s %-16s %-8s %8s %10s  %s\n", "Rank", "Approach", "Reached", "Total", "Achieved", "Moves")
	for i, ar := range sc.Approaches {
		if ar.Achievable {
			fmt.Printf("  %-4d %-16s %-8s %7.1f%% %9.2fx  %s\n",
				i+1, ar.Name, "yes", ar.TotalAdjustment, ar.AchievedMultiple, formatAdjustments(ar.Adjustments))
		} else {
			fmt.Printf("  %-4d %-16s %-8s %8s %10s  %s\n", i+1, ar.Name, "no", "-", "-", ar.Description)
		}
	}
	fmt.Println()

	if sc.Best != nil {
		fmt.Printf("BEST PATH: %s %q, %.1f%% total adjustment, %.2fx achieved\n",
			sc.Best.Kind, sc.Best.Name, sc.Best.Total, sc.Best.AchievedMultiple)
		if !sc.Best.Adjustments.IsZero() {
			fmt.Printf("  %s\n", formatAdjustments(sc.Best.Adjustments))
		}
	} else {
		fmt.Println("BEST PATH: none within the search bound")
	}
	fmt.Println()
}

// formatAdjustments renders only the levers that actually move.
func formatAdjustments(a sensitivity.Adjustments) string {
	var parts []string
	if a.ProgressionIncrease > 0 {
		parts = append(parts, fmt.Sprintf("progression +%.0f%%", a.ProgressionIncrease))
	}
	if a.DilutionDecrease > 0 {
		parts = append(parts, fmt.Sprintf("dilution -%.0f%%", a.DilutionDecrease))
	}
	if a.LossDecrease > 0 {
		parts = append(parts, fmt.Sprintf("loss -%.0f%%", a.LossDecrease))
	}
	if a.ExitValuationIncrease > 0 {
		parts = append(parts, fmt.Sprintf("exits +%.0f%%", a.ExitValuationIncrease))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}
