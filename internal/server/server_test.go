package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/venturelab/fundsim-go/pkg/fund"
	"github.com/venturelab/fundsim-go/pkg/marketdata"
)

func testConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
		Workers:        2,
		MaxTrials:      5000,
		MaxTargets:     4,
	}
}

func newTestServer(t *testing.T, cfg Config, market *marketdata.Client) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(cfg, zap.NewNop(), market).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func testPortfolio() fund.Portfolio {
	return fund.Portfolio{
		Name: "API Test Fund",
		Investments: []fund.Investment{
			{
				Name:           "Alpha",
				Sector:         "fintech",
				EntryStage:     fund.Seed,
				EntryValuation: 10,
				CheckSize:      1,
				Params:         fund.DefaultParams(),
			},
			{
				Name:           "Beta",
				Sector:         "ai",
				EntryStage:     fund.SeriesA,
				EntryValuation: 40,
				CheckSize:      2,
				Params:         fund.DefaultParams(),
			},
		},
	}
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return raw
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSimulate(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp := postJSON(t, ts.URL+"/api/simulate", map[string]any{
		"portfolio": testPortfolio(),
		"config":    fund.SimulationConfig{NumSimulations: 200},
		"seed":      42,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := readBody(t, resp)

	// The trial matrix never crosses the wire.
	assert.NotContains(t, string(raw), `"simulations"`)

	var out struct {
		Results struct {
			Seed        int64   `json:"seed"`
			AvgInvested float64 `json:"avg_invested"`
			AvgMultiple float64 `json:"avg_multiple"`
		} `json:"results"`
		Distribution struct {
			Mean   float64 `json:"mean"`
			StdDev float64 `json:"std_dev"`
			P05    float64 `json:"p05"`
			P95    float64 `json:"p95"`
		} `json:"distribution"`
		LossRate   float64        `json:"loss_rate"`
		ExitStages map[string]int `json:"exit_stages"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Equal(t, int64(42), out.Results.Seed)
	assert.InDelta(t, 3.0, out.Results.AvgInvested, 1e-9)
	assert.GreaterOrEqual(t, out.Distribution.P95, out.Distribution.P05)
	assert.GreaterOrEqual(t, out.Distribution.StdDev, 0.0)
	assert.GreaterOrEqual(t, out.LossRate, 0.0)
	assert.LessOrEqual(t, out.LossRate, 1.0)

	walks := 0
	for _, n := range out.ExitStages {
		walks += n
	}
	assert.Equal(t, 200*2, walks)
}

func TestSimulate_TrialCap(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp := postJSON(t, ts.URL+"/api/simulate", map[string]any{
		"portfolio": testPortfolio(),
		"config":    fund.SimulationConfig{NumSimulations: 999999},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "server limit")
}

func TestSimulate_EmptyPortfolio(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp := postJSON(t, ts.URL+"/api/simulate", map[string]any{
		"portfolio": fund.Portfolio{Name: "empty"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "no investments")
}

func TestSimulate_MalformedBody(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp, err := http.Post(ts.URL+"/api/simulate", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "invalid request body")
}

func TestSimulate_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp, err := http.Get(ts.URL + "/api/simulate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSensitivity(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp := postJSON(t, ts.URL+"/api/sensitivity", map[string]any{
		"portfolio":      testPortfolio(),
		"config":         fund.SimulationConfig{NumSimulations: 150},
		"targets":        []float64{2},
		"step":           25,
		"max_adjustment": 50,
		"seed":           11,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report struct {
		BaselineMultiple float64 `json:"baseline_multiple"`
		Targets          []struct {
			TargetMultiple float64 `json:"target_multiple"`
			Parameters     []struct {
				Parameter string `json:"parameter"`
			} `json:"parameters"`
		} `json:"targets"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &report))

	assert.Greater(t, report.BaselineMultiple, 0.0)
	require.Len(t, report.Targets, 1)
	assert.Equal(t, 2.0, report.Targets[0].TargetMultiple)
	assert.Len(t, report.Targets[0].Parameters, 4)
}

func TestSensitivity_TooManyTargets(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp := postJSON(t, ts.URL+"/api/sensitivity", map[string]any{
		"portfolio": testPortfolio(),
		"targets":   []float64{2, 3, 4, 5, 6},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "server limit")
}

func TestForecast_DefaultScenarios(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp := postJSON(t, ts.URL+"/api/forecast", map[string]any{
		"portfolio": testPortfolio(),
		"config":    fund.SimulationConfig{NumSimulations: 100},
		"seed":      3,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cmp struct {
		Scenarios []struct {
			Scenario string `json:"scenario"`
		} `json:"scenarios"`
		ExpectedMultiple float64 `json:"expected_multiple"`
		HeatMap          struct {
			Scenarios []string    `json:"scenarios"`
			Multiples [][]float64 `json:"multiples"`
		} `json:"heat_map"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &cmp))

	require.Len(t, cmp.Scenarios, 3)
	assert.Greater(t, cmp.ExpectedMultiple, 0.0)
	assert.Len(t, cmp.HeatMap.Scenarios, 3)
	assert.Len(t, cmp.HeatMap.Multiples, 3)
}

func TestForecast_BadScenarioEnum(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	body := `{
		"portfolio": {"investments": [{"name": "x", "entry_stage": "Seed", "entry_valuation": 10, "check_size": 1}]},
		"scenarios": [{"name": "odd", "probability": 100, "horizon_years": 5,
			"macro": {"rate_cycle": "sideways"}}]
	}`
	resp, err := http.Post(ts.URL+"/api/forecast", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "invalid request body")
}

func TestMarketData(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"interest_rate": 4.5, "inflation": 2.1, "gdp_growth": 1.9, "market_multiple": 22}`)
	}))
	t.Cleanup(upstream.Close)

	client := marketdata.New(marketdata.WithBaseURL(upstream.URL))
	ts := newTestServer(t, testConfig(), client)

	resp, err := http.Get(ts.URL + "/api/marketdata")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Indicators struct {
			InterestRate float64 `json:"interest_rate"`
		} `json:"indicators"`
		Macro struct {
			InterestRate   float64 `json:"interest_rate"`
			MarketMultiple float64 `json:"market_multiple"`
		} `json:"macro"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &out))
	assert.Equal(t, 4.5, out.Indicators.InterestRate)
	assert.Equal(t, 4.5, out.Macro.InterestRate)
	assert.Equal(t, 22.0, out.Macro.MarketMultiple)
}

func TestMarketData_NotConfigured(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp, err := http.Get(ts.URL + "/api/marketdata")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMarketData_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(upstream.Close)

	ts := newTestServer(t, testConfig(), marketdata.New(marketdata.WithBaseURL(upstream.URL)))

	resp, err := http.Get(ts.URL + "/api/marketdata")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "fetch market data")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateRPS = 0.001
	cfg.RateBurst = 2
	ts := newTestServer(t, cfg, nil)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/api/health")
		require.NoError(t, err)
		resp.Body.Close()
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "fundsim_trials_total")
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, testConfig(), nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/simulate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
