package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/profitlevers/internal/metrics"
)

func TestDashboardStartsFromDefaultBaseline(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	body := rr.Body.String()
	for _, expected := range []string{
		`name="external_sales" min="0" step="100" value="8658"`,
		`id="operating_profit" class="value loss">-1,406<`,
		`id="break_even_sales" class="value">16,926<`,
		`id="total_gp" class="value">2,296<`,
		`&#34;name&#34;: &#34;fy2025&#34;`,
		`<polyline id="curve"`,
	} {
		assert.Contains(t, body, expected)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.Evaluations.WithLabelValues(metrics.SourceDashboard)))
}

func TestDashboardAppliesQueryLevers(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/?baseline=&external_sales=1000&external_margin=30&efficiency=0.9&fixed_costs=100&internal_margin=0")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `id="external_gp" class="value">270<`)
	assert.Contains(t, body, `id="operating_profit" class="value">170<`)
}

func TestDashboardShowsTHB(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/?currency=THB&fx_rate=24")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `value="207792"`)
	assert.Contains(t, body, `-33,735`)
	assert.Contains(t, body, `THB&#39;000`)
}

func TestDashboardRejectsNonNumericLever(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/?external_sales=lots")

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "external_sales must be numeric")
	assert.NotContains(t, rr.Body.String(), `id="operating_profit"`)
}

func TestDashboardRejectsNonFiniteLever(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/?fixed_costs=NaN")

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "overhead_cost: lever value is not a finite number")
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.metrics.EvaluationErrors.WithLabelValues(metrics.SourceDashboard)))
}

func TestDashboardRejectsBadCurrencySettings(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/?currency=USD")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "currency must be AUD or THB")

	rr = get(t, srv.routes(), "/?currency=THB&fx_rate=2")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "fx_rate must be between 10 and 50")
}

func TestDashboardUnknownBaselineFallsBackToBlank(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/?baseline=fy1999")

	require.Equal(t, http.StatusNotFound, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Unknown baseline fy1999")
	assert.Contains(t, body, `id="operating_profit" class="value">0<`)
}

func TestDashboardListsClampNotices(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/?external_sales=-5")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "<li>external_sales clamped to 0</li>"))
}

func TestStaticAssetsAreServed(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/static/dashboard.js")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "WebSocket")
}

func TestDashboardHandlesFloatLimits(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	rr := get(t, h, "/?external_sales=1.2e308")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `id="operating_profit"`)
	assert.Contains(t, rr.Body.String(), `name="external_sales" min="0" step="100" value="12000`)
	assert.NotContains(t, rr.Body.String(), "Inf")

	rr = get(t, h, "/?external_sales=1e19")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "-9,223,372")

	rr = get(t, h, "/?baseline=&external_sales=1e308&external_margin=100&efficiency=2")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "adjusted_margin: result is outside the representable range")
	assert.NotContains(t, rr.Body.String(), `id="operating_profit"`)
}

func TestDashboardScriptNeverSendsBlankLeversAsZero(t *testing.T) {
	srv := newTestServer(t)

	rr := get(t, srv.routes(), "/static/dashboard.js")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.NotContains(t, body, "|| 0")
	assert.Contains(t, body, `must be numeric`)
}
