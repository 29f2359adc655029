package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Simplici0/profitlevers/internal/baseline"
	"github.com/Simplici0/profitlevers/internal/display"
	"github.com/Simplici0/profitlevers/internal/metrics"
)

type dashboardViewData struct {
	baseViewData
	Form         leverForm
	Baselines    []baseline.Baseline
	Baseline     baseline.Baseline
	BaselineJSON string
	Outcome      *outcome
}

// handleDashboard renders the simulator. Levers missing from the query
// start at the selected baseline; "baseline=" with no value starts blank.
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := dashboardViewData{}

	baselines, err := s.baselines.List(r.Context())
	if err != nil {
		s.logger.Error("list baselines", zap.Error(err))
		http.Error(w, "failed to load baselines", http.StatusInternalServerError)
		return
	}
	data.Baselines = baselines

	name := s.defaultBaseline
	if q.Has("baseline") {
		name = strings.TrimSpace(q.Get("baseline"))
	}

	status := http.StatusOK
	selected := baseline.Blank()
	if name != "" {
		selected, err = s.baselines.Get(r.Context(), name)
		if errors.Is(err, baseline.ErrNotFound) {
			status = http.StatusNotFound
			data.ErrorMessage = "Unknown baseline " + name + "; starting from a blank scenario."
			selected = baseline.Blank()
		} else if err != nil {
			s.logger.Error("load baseline", zap.String("baseline", name), zap.Error(err))
			http.Error(w, "failed to load baseline", http.StatusInternalServerError)
			return
		}
	}
	data.Baseline = selected
	if raw, err := json.MarshalIndent(selected, "", "  "); err == nil {
		data.BaselineJSON = string(raw)
	}

	form, err := s.formForRequest(q, selected)
	data.Form = form
	if err != nil {
		data.ErrorMessage = err.Error()
		s.renderTemplate(w, http.StatusBadRequest, "dashboard.html", data)
		return
	}

	fallback := selected.Levers.ExternalSales
	if fallback <= 0 {
		fallback = s.fallbackSales
	}
	result, err := evaluateForm(form, fallback)
	s.metrics.ObserveEvaluation(metrics.SourceDashboard, result.Result.NetProfit, len(result.Adjustments), err)
	if err != nil {
		data.ErrorMessage = err.Error()
		s.renderTemplate(w, http.StatusBadRequest, "dashboard.html", data)
		return
	}

	data.Outcome = &result
	data.Notices = result.Adjustments
	s.renderTemplate(w, status, "dashboard.html", data)
}

// formForRequest resolves the display currency first so baseline amounts
// are shown in it, then layers the query's levers on top.
func (s *server) formForRequest(values url.Values, selected baseline.Baseline) (leverForm, error) {
	fxRate := s.defaultFXRate
	currency, currencyErr := display.ParseCurrency(values.Get("currency"))
	if currencyErr != nil {
		currency = display.AUD
	}
	if values.Has("fx_rate") {
		rate, err := parseNumber(values.Get("fx_rate"), "fx_rate")
		if err != nil {
			return formFromBaseline(selected, display.Converter{Currency: currency, FXRate: fxRate}), err
		}
		fxRate = rate
	}

	conv, err := display.NewConverter(currency, fxRate)
	if err != nil {
		return formFromBaseline(selected, display.Converter{Currency: display.AUD, FXRate: s.defaultFXRate}), err
	}

	form := formFromBaseline(selected, conv)
	if currencyErr != nil {
		return form, currencyErr
	}
	if err := form.applyQuery(values); err != nil {
		return form, err
	}
	return form, nil
}
