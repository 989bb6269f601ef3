package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/venturelab/fundsim-go/pkg/forecast"
	"github.com/venturelab/fundsim-go/pkg/fund"
	"github.com/venturelab/fundsim-go/pkg/sensitivity"
	"github.com/venturelab/fundsim-go/pkg/sim"
)

// maxRequestBytes bounds request bodies; portfolios are small.
const maxRequestBytes = 4 << 20

// simulateRequest is the body for POST /api/simulate and the opening
// frame of /ws/simulate.
type simulateRequest struct {
	Portfolio fund.Portfolio         `json:"portfolio"`
	Config    *fund.SimulationConfig `json:"config,omitempty"`

	// Seed pins the run for reproduction; absent means a fresh
	// crypto-sourced seed.
	Seed *int64 `json:"seed,omitempty"`
}

type sensitivityRequest struct {
	Portfolio     fund.Portfolio         `json:"portfolio"`
	Config        *fund.SimulationConfig `json:"config,omitempty"`
	Targets       []float64              `json:"targets"`
	Step          float64                `json:"step,omitempty"`
	MaxAdjustment float64                `json:"max_adjustment,omitempty"`
	Seed          *int64                 `json:"seed,omitempty"`
}

type forecastRequest struct {
	Portfolio fund.Portfolio         `json:"portfolio"`
	Config    *fund.SimulationConfig `json:"config,omitempty"`

	// Scenarios is optional; absent means the stock three-scenario
	// outlook.
	Scenarios []forecast.Scenario `json:"scenarios,omitempty"`
	Seed      *int64              `json:"seed,omitempty"`
}

// distribution summarizes the spread of per-trial fund multiples.
type distribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	P05    float64 `json:"p05"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
}

// simulateResponse carries run statistics without the raw trial
// matrix; replaying the seed reproduces the matrix when needed.
type simulateResponse struct {
	Results      *sim.PortfolioResults `json:"results"`
	Distribution distribution          `json:"distribution"`
	LossRate     float64               `json:"loss_rate"`
	ExitStages   map[string]int        `json:"exit_stages"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a bounded JSON body into dst, replying 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// boundConfig merges a request config with the defaults and enforces
// the server-side trial cap.
func (s *Server) boundConfig(reqCfg *fund.SimulationConfig) (fund.SimulationConfig, error) {
	cfg := fund.DefaultConfig()
	if reqCfg != nil {
		cfg = *reqCfg
	}
	if cfg.NumSimulations <= 0 {
		cfg.NumSimulations = fund.DefaultConfig().NumSimulations
	}
	if s.cfg.MaxTrials > 0 && cfg.NumSimulations > s.cfg.MaxTrials {
		return fund.SimulationConfig{}, fmt.Errorf("num_simulations %d exceeds the server limit of %d", cfg.NumSimulations, s.cfg.MaxTrials)
	}
	return cfg, nil
}

func (s *Server) workers() int {
	if s.cfg.Workers > 0 {
		return s.cfg.Workers
	}
	return runtime.NumCPU()
}

// GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime_s": time.Since(s.started).Seconds(),
	})
}

// POST /api/simulate runs a full Monte Carlo pass over the posted
// portfolio and returns aggregate statistics.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if !s.decode(w, r, &req) {
		return
	}
	cfg, err := s.boundConfig(req.Config)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Portfolio.EnsureIDs()

	opts := []sim.Option{sim.WithWorkers(s.workers())}
	if req.Seed != nil {
		opts = append(opts, sim.WithSeed(*req.Seed))
	}
	res, err := sim.Run(&req.Portfolio, cfg, opts...)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.trials.Add(float64(cfg.NumSimulations))
	s.writeJSON(w, http.StatusOK, buildSimulateResponse(res))
}

// buildSimulateResponse reduces the trial matrix to a distribution
// summary and drops the matrix itself from the wire format.
func buildSimulateResponse(res *sim.PortfolioResults) simulateResponse {
	multiples := res.TrialMultiples()
	sort.Float64s(multiples)

	counts := make(map[string]int)
	for st, n := range res.ExitStageCounts() {
		counts[st.String()] = n
	}

	dist := distribution{
		Mean:   stat.Mean(multiples, nil),
		Median: stat.Quantile(0.5, stat.Empirical, multiples, nil),
		P05:    stat.Quantile(0.05, stat.Empirical, multiples, nil),
		P25:    stat.Quantile(0.25, stat.Empirical, multiples, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, multiples, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, multiples, nil),
	}
	// A single-trial run has no spread; StdDev would be NaN and NaN
	// does not survive json.Marshal.
	if len(multiples) > 1 {
		dist.StdDev = stat.StdDev(multiples, nil)
	}

	lossRate := res.LossRate()
	res.Simulations = nil
	return simulateResponse{
		Results:      res,
		Distribution: dist,
		LossRate:     lossRate,
		ExitStages:   counts,
	}
}

// POST /api/sensitivity searches parameter adjustments for each posted
// target multiple.
func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req sensitivityRequest
	if !s.decode(w, r, &req) {
		return
	}
	if s.cfg.MaxTargets > 0 && len(req.Targets) > s.cfg.MaxTargets {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%d targets exceeds the server limit of %d", len(req.Targets), s.cfg.MaxTargets))
		return
	}
	cfg, err := s.boundConfig(req.Config)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Portfolio.EnsureIDs()

	opts := []sensitivity.Option{}
	if req.Step > 0 {
		opts = append(opts, sensitivity.WithStep(req.Step))
	}
	if req.MaxAdjustment > 0 {
		opts = append(opts, sensitivity.WithMaxAdjustment(req.MaxAdjustment))
	}
	if req.Seed != nil {
		opts = append(opts, sensitivity.WithSeed(*req.Seed))
	}
	report, err := sensitivity.Analyze(&req.Portfolio, cfg, req.Targets, opts...)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// POST /api/forecast projects the posted portfolio through macro
// scenarios and returns the weighted comparison.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if !s.decode(w, r, &req) {
		return
	}
	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		scenarios = forecast.DefaultScenarios()
	}
	if s.cfg.MaxTargets > 0 && len(scenarios) > s.cfg.MaxTargets {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("%d scenarios exceeds the server limit of %d", len(scenarios), s.cfg.MaxTargets))
		return
	}
	cfg, err := s.boundConfig(req.Config)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Portfolio.EnsureIDs()

	opts := []forecast.Option{}
	if req.Seed != nil {
		opts = append(opts, forecast.WithSeed(*req.Seed))
	}
	cmp, err := forecast.Compare(&req.Portfolio, cfg, scenarios, opts...)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, cmp)
}

// GET /api/marketdata returns the current macro indicators and the
// scenario factors they imply, ready to paste into a forecast request.
func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		s.writeError(w, http.StatusServiceUnavailable, "market data not configured")
		return
	}
	ind, err := s.market.Indicators(r.Context())
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "fetch market data: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"indicators": ind,
		"macro":      ind.Macro(forecast.NeutralMacro()),
	})
}
