package main

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/profitlevers/internal/baseline"
)

func postJSON(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestEvaluateReferenceScenario(t *testing.T) {
	srv := newTestServer(t)

	rr := postJSON(t, srv.routes(), "/api/evaluate",
		`{"external_sales":1000,"margin_pct":0.3,"efficiency_pct":0.9,"overhead_cost":100}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp evaluateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.InDelta(t, 300, resp.Result.GrossMargin, 1e-9)
	assert.InDelta(t, 270, resp.Result.AdjustedMargin, 1e-9)
	assert.InDelta(t, 170, resp.Result.NetProfit, 1e-9)
	assert.True(t, resp.Result.BreakEvenReachable)
	require.NotEmpty(t, resp.Sensitivity)
	assert.Equal(t, 600.0, resp.Sensitivity[0].ExternalSales)
}

func TestEvaluateZeroSalesUsesBaselineSweep(t *testing.T) {
	srv := newTestServer(t)

	rr := postJSON(t, srv.routes(), "/api/evaluate", `{"margin_pct":0.2,"efficiency_pct":1,"overhead_cost":50}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp evaluateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.InDelta(t, -50, resp.Result.NetProfit, 1e-9)
	require.NotEmpty(t, resp.Sensitivity)
	assert.Equal(t, 5194.0, resp.Sensitivity[0].ExternalSales)
}

func TestEvaluateRejectsMalformedPayload(t *testing.T) {
	srv := newTestServer(t)

	for name, body := range map[string]string{
		"not json":      `external_sales=10`,
		"string number": `{"external_sales":"10"}`,
		"unknown field": `{"sales":10}`,
		"out of range":  `{"external_sales":1e999}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := postJSON(t, srv.routes(), "/api/evaluate", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), "invalid lever payload")
		})
	}
}

func TestBaselinesAPI(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	rr := get(t, h, "/api/baselines")
	require.Equal(t, http.StatusOK, rr.Code)
	var all []baseline.Baseline
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, baseline.FY2025(), all[0])

	rr = get(t, h, "/api/baselines/fy2025")
	require.Equal(t, http.StatusOK, rr.Code)
	var one baseline.Baseline
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &one))
	assert.Equal(t, 8658.0, one.Levers.ExternalSales)

	rr = get(t, h, "/api/baselines/fy1999")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "baseline not found")
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	rr := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())

	postJSON(t, h, "/api/evaluate", `{"external_sales":1000,"margin_pct":0.3,"efficiency_pct":0.9,"overhead_cost":100}`)

	rr = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `test_model_evaluations_total{source="api"} 1`)
	assert.Contains(t, rr.Body.String(), `test_model_last_net_profit 170`)
}

func TestEvaluateRejectsOverflowingScenario(t *testing.T) {
	srv := newTestServer(t)

	rr := postJSON(t, srv.routes(), "/api/evaluate", `{"external_sales":1e308,"margin_pct":1,"efficiency_pct":2}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "adjusted_margin")
	assert.Contains(t, resp.Error, "representable range")
}

func TestEvaluateLargestFiniteSales(t *testing.T) {
	srv := newTestServer(t)

	rr := postJSON(t, srv.routes(), "/api/evaluate", `{"external_sales":1.7976931348623157e308,"margin_pct":0.1,"efficiency_pct":1}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp evaluateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Sensitivity)
	assert.Greater(t, resp.Result.NetProfit, 1e306)
}

func TestWriteJSONReportsEncodingFailure(t *testing.T) {
	srv := newTestServer(t)

	rr := httptest.NewRecorder()
	srv.writeJSON(rr, http.StatusOK, map[string]float64{"net_profit": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"failed to encode response"}`, rr.Body.String())
}
