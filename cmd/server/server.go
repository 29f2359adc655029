package main

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/profitlevers/internal/baseline"
	"github.com/Simplici0/profitlevers/internal/display"
	"github.com/Simplici0/profitlevers/internal/logging"
	"github.com/Simplici0/profitlevers/internal/metrics"
	"github.com/Simplici0/profitlevers/web"
)

type baselineReader interface {
	Get(ctx context.Context, name string) (baseline.Baseline, error)
	List(ctx context.Context) ([]baseline.Baseline, error)
}

type server struct {
	baselines       baselineReader
	metrics         *metrics.Metrics
	logger          *zap.Logger
	defaultBaseline string
	defaultFXRate   float64
	// fallbackSales centres the sensitivity sweep when external sales are zero.
	fallbackSales float64
}

type baseViewData struct {
	ErrorMessage string
	Notices      []string
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		panic(err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handleDashboard)
	r.Get("/ws", s.handleLive)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/evaluate", s.handleEvaluate)
		r.Get("/baselines", s.handleBaselines)
		r.Get("/baselines/{name}", s.handleBaseline)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := s.baselines.List(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		http.Error(w, "baseline catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

var templateFuncs = template.FuncMap{
	"amount":  display.Amount,
	"percent": display.Percent,
	"num":     formatNumber,
	"sub":     func(a, b float64) float64 { return a - b },
}

// formatNumber renders v for form fields and SVG attributes, rounded to two
// decimals when that cannot overflow.
func formatNumber(v float64) string {
	if math.Abs(v) < 1e15 {
		v = math.Round(v*100) / 100
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *server) renderTemplate(w http.ResponseWriter, status int, page string, data any) {
	templates, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(web.FS,
		"templates/layout.html",
		"templates/"+page,
	)
	if err != nil {
		s.logger.Error("parse template", zap.String("page", page), zap.Error(err))
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("render template", zap.String("page", page), zap.Error(err))
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
