package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Simplici0/profitlevers/internal/baseline"
	"github.com/Simplici0/profitlevers/internal/chart"
	"github.com/Simplici0/profitlevers/internal/display"
	"github.com/Simplici0/profitlevers/internal/profit"
)

const (
	chartWidth   = 640
	chartHeight  = 280
	chartPadding = 40
)

// leverForm holds lever positions as the user sees them: amounts in the
// display currency, margins in percent, efficiency as a factor.
type leverForm struct {
	Baseline       string  `json:"baseline"`
	Currency       string  `json:"currency"`
	FXRate         float64 `json:"fx_rate"`
	ExternalSales  float64 `json:"external_sales"`
	InternalSales  float64 `json:"internal_sales"`
	ExternalMargin float64 `json:"external_margin"`
	InternalMargin float64 `json:"internal_margin"`
	Efficiency     float64 `json:"efficiency"`
	FixedCosts     float64 `json:"fixed_costs"`
	Repairs        float64 `json:"repairs"`
	FXImpact       float64 `json:"fx_impact"`
}

// formFromBaseline positions every lever at b, expressed in conv's currency.
func formFromBaseline(b baseline.Baseline, conv display.Converter) leverForm {
	return leverForm{
		Baseline:       b.Name,
		Currency:       string(conv.Currency),
		FXRate:         conv.FXRate,
		ExternalSales:  conv.ToDisplay(b.Levers.ExternalSales),
		InternalSales:  conv.ToDisplay(b.Levers.InternalSales),
		ExternalMargin: b.Levers.MarginPct * 100,
		InternalMargin: b.Levers.InternalMarginPct * 100,
		Efficiency:     b.Levers.EfficiencyPct,
		FixedCosts:     conv.ToDisplay(b.Levers.OverheadCost),
		Repairs:        conv.ToDisplay(b.Levers.Repairs),
		FXImpact:       conv.ToDisplay(b.Levers.FXImpact),
	}
}

func (f leverForm) converter() (display.Converter, error) {
	currency, err := display.ParseCurrency(f.Currency)
	if err != nil {
		return display.Converter{}, err
	}
	return display.NewConverter(currency, f.FXRate)
}

// levers converts the form into model units (AUD '000, fractions).
func (f leverForm) levers(conv display.Converter) profit.LeverInputs {
	return profit.LeverInputs{
		ExternalSales:     conv.FromDisplay(f.ExternalSales),
		MarginPct:         f.ExternalMargin / 100,
		EfficiencyPct:     f.Efficiency,
		OverheadCost:      conv.FromDisplay(f.FixedCosts),
		InternalSales:     conv.FromDisplay(f.InternalSales),
		InternalMarginPct: f.InternalMargin / 100,
		Repairs:           conv.FromDisplay(f.Repairs),
		FXImpact:          conv.FromDisplay(f.FXImpact),
	}
}

// applyQuery overrides the levers present in q. Absent levers keep their
// current value; present ones must be numeric.
func (f *leverForm) applyQuery(q url.Values) error {
	fields := []struct {
		name string
		dst  *float64
	}{
		{"external_sales", &f.ExternalSales},
		{"internal_sales", &f.InternalSales},
		{"external_margin", &f.ExternalMargin},
		{"internal_margin", &f.InternalMargin},
		{"efficiency", &f.Efficiency},
		{"fixed_costs", &f.FixedCosts},
		{"repairs", &f.Repairs},
		{"fx_impact", &f.FXImpact},
	}

	for _, field := range fields {
		if !q.Has(field.name) {
			continue
		}
		value, err := parseNumber(q.Get(field.name), field.name)
		if err != nil {
			return err
		}
		*field.dst = value
	}
	return nil
}

func parseNumber(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be numeric", field)
	}
	return value, nil
}

// outcome is one evaluated scenario ready for display.
type outcome struct {
	Unit               string              `json:"unit"`
	ExternalGP         string              `json:"external_gp"`
	TotalGP            string              `json:"total_gp"`
	OperatingProfit    string              `json:"operating_profit"`
	OperatingLoss      bool                `json:"operating_loss"`
	BreakEvenSales     string              `json:"break_even_sales"`
	BreakEvenReachable bool                `json:"break_even_reachable"`
	Adjustments        []string            `json:"adjustments,omitempty"`
	Chart              chart.Line          `json:"chart"`
	Result             profit.ProfitResult `json:"result"`
}

// evaluateForm runs the model for f. fallbackSales centres the sensitivity
// sweep when external sales are zero.
func evaluateForm(f leverForm, fallbackSales float64) (outcome, error) {
	conv, err := f.converter()
	if err != nil {
		return outcome{}, err
	}

	in := f.levers(conv)
	result, err := profit.Evaluate(in)
	if err != nil {
		return outcome{}, err
	}
	series, err := profit.Sensitivity(in, fallbackSales)
	if err != nil {
		return outcome{}, err
	}

	breakEven := "n/a"
	if result.BreakEvenReachable {
		breakEven = display.Amount(conv.ToDisplay(result.BreakEvenExternalSales))
	}

	return outcome{
		Unit:               conv.Unit(),
		ExternalGP:         display.Amount(conv.ToDisplay(result.AdjustedMargin)),
		TotalGP:            display.Amount(conv.ToDisplay(result.TotalGrossProfit)),
		OperatingProfit:    display.Amount(conv.ToDisplay(result.NetProfit)),
		OperatingLoss:      result.NetProfit < 0,
		BreakEvenSales:     breakEven,
		BreakEvenReachable: result.BreakEvenReachable,
		Adjustments:        result.Adjustments,
		Chart:              chart.Layout(series, in.ExternalSales, chartWidth, chartHeight, chartPadding, conv.ToDisplay),
		Result:             result,
	}, nil
}
