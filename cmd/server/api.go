package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/profitlevers/internal/baseline"
	"github.com/Simplici0/profitlevers/internal/metrics"
	"github.com/Simplici0/profitlevers/internal/profit"
)

const maxRequestBody = 1 << 16

type evaluateResponse struct {
	Levers      profit.LeverInputs  `json:"levers"`
	Result      profit.ProfitResult `json:"result"`
	Sensitivity []profit.Point      `json:"sensitivity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleEvaluate evaluates lever values given in model units (AUD '000,
// fractional margins).
func (s *server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var in profit.LeverInputs
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		s.metrics.ObserveEvaluation(metrics.SourceAPI, 0, 0, err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid lever payload: " + err.Error()})
		return
	}

	result, err := profit.Evaluate(in)
	if err == nil {
		var series []profit.Point
		series, err = profit.Sensitivity(in, s.fallbackSales)
		if err == nil {
			s.metrics.ObserveEvaluation(metrics.SourceAPI, result.NetProfit, len(result.Adjustments), nil)
			s.writeJSON(w, http.StatusOK, evaluateResponse{Levers: in, Result: result, Sensitivity: series})
			return
		}
	}

	s.metrics.ObserveEvaluation(metrics.SourceAPI, 0, 0, err)
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *server) handleBaselines(w http.ResponseWriter, r *http.Request) {
	baselines, err := s.baselines.List(r.Context())
	if err != nil {
		s.logger.Error("list baselines", zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load baselines"})
		return
	}
	s.writeJSON(w, http.StatusOK, baselines)
}

func (s *server) handleBaseline(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	b, err := s.baselines.Get(r.Context(), name)
	if errors.Is(err, baseline.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("load baseline", zap.String("baseline", name), zap.Error(err))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load baseline"})
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

// writeJSON encodes v before touching the response so an encoding failure
// still yields a well-formed 500.
func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("encode response", zap.Error(err))
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}
