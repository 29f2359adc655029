package main

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Simplici0/profitlevers/internal/baseline"
	"github.com/Simplici0/profitlevers/internal/db"
	"github.com/Simplici0/profitlevers/internal/metrics"
	"github.com/Simplici0/profitlevers/internal/migrations"
	"github.com/Simplici0/profitlevers/internal/seed"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	require.NoError(t, err, "open sqlite db")
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.Up(ctx, database), "run migrations")
	_, err = seed.Run(ctx, database, seed.Catalog())
	require.NoError(t, err, "seed baselines")

	store := baseline.NewStore(database)
	return &server{
		baselines:       store,
		metrics:         metrics.New("test"),
		logger:          zap.NewNop(),
		defaultBaseline: baseline.FY2025Name,
		defaultFXRate:   24,
		fallbackSales:   fallbackSales(ctx, store, baseline.FY2025Name),
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "8658", formatNumber(8658))
	assert.Equal(t, "207792", formatNumber(8658*24))
	assert.Equal(t, "0.17", formatNumber(0.17000000000000004))
	assert.Equal(t, "10000000000000000000", formatNumber(1e19))
	assert.NotContains(t, formatNumber(math.MaxFloat64), "Inf")
}
