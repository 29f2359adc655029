// Package profit holds the profit-lever model: a pure mapping from lever
// positions to gross margin, operating profit and break-even figures.
package profit

import (
	"errors"
	"fmt"
	"math"
)

// MaxEfficiency is the upper clamp for the efficiency multiplier. Values
// above 1 lift the realised margin, values below 1 erode it.
const MaxEfficiency = 2.0

var (
	// ErrNotFinite is returned when a lever holds NaN or an infinity.
	ErrNotFinite = errors.New("lever value is not a finite number")
	// ErrOverflow is returned when finite levers produce a result too large
	// to represent.
	ErrOverflow = errors.New("result is outside the representable range")
)

// LeverInputs are the lever positions for one evaluation. Amounts are in
// AUD '000 and percentages are fractions (0.17 means 17%).
type LeverInputs struct {
	ExternalSales     float64 `json:"external_sales"`
	MarginPct         float64 `json:"margin_pct"`
	EfficiencyPct     float64 `json:"efficiency_pct"`
	OverheadCost      float64 `json:"overhead_cost"`
	InternalSales     float64 `json:"internal_sales"`
	InternalMarginPct float64 `json:"internal_margin_pct"`
	Repairs           float64 `json:"repairs"`
	FXImpact          float64 `json:"fx_impact"`
}

// ProfitResult is the derived outcome of a single evaluation.
type ProfitResult struct {
	GrossMargin            float64  `json:"gross_margin"`
	AdjustedMargin         float64  `json:"adjusted_margin"`
	InternalAdjustedMargin float64  `json:"internal_adjusted_margin"`
	TotalGrossProfit       float64  `json:"total_gross_profit"`
	NetProfit              float64  `json:"net_profit"`
	BreakEvenExternalSales float64  `json:"break_even_external_sales"`
	BreakEvenReachable     bool     `json:"break_even_reachable"`
	Adjustments            []string `json:"adjustments,omitempty"`
}

// Evaluate validates and clamps in, then computes the profit outcome.
func Evaluate(in LeverInputs) (ProfitResult, error) {
	if err := in.Validate(); err != nil {
		return ProfitResult{}, err
	}

	normalized, notes := in.Normalize()
	result := compute(normalized)
	if err := result.checkFinite(); err != nil {
		return ProfitResult{}, err
	}
	result.Adjustments = notes
	return result, nil
}

func (r ProfitResult) checkFinite() error {
	for _, f := range []namedValue{
		{"gross_margin", r.GrossMargin},
		{"adjusted_margin", r.AdjustedMargin},
		{"internal_adjusted_margin", r.InternalAdjustedMargin},
		{"total_gross_profit", r.TotalGrossProfit},
		{"net_profit", r.NetProfit},
	} {
		if !isFinite(f.value) {
			return fmt.Errorf("%s: %w", f.name, ErrOverflow)
		}
	}
	return nil
}

// Validate reports the first lever that is NaN or infinite.
func (in LeverInputs) Validate() error {
	for _, f := range in.fields() {
		if !isFinite(f.value) {
			return fmt.Errorf("%s: %w", f.name, ErrNotFinite)
		}
	}
	return nil
}

// Normalize clamps every lever to its valid range and describes each
// change it made.
func (in LeverInputs) Normalize() (LeverInputs, []string) {
	var notes []string
	note := func(n string) {
		if n != "" {
			notes = append(notes, n)
		}
	}

	var n string
	in.ExternalSales, n = clampMin("external_sales", in.ExternalSales)
	note(n)
	in.MarginPct, n = clampRange("margin_pct", in.MarginPct, 0, 1)
	note(n)
	in.EfficiencyPct, n = clampRange("efficiency_pct", in.EfficiencyPct, 0, MaxEfficiency)
	note(n)
	in.OverheadCost, n = clampMin("overhead_cost", in.OverheadCost)
	note(n)
	in.InternalSales, n = clampMin("internal_sales", in.InternalSales)
	note(n)
	in.InternalMarginPct, n = clampRange("internal_margin_pct", in.InternalMarginPct, 0, 1)
	note(n)
	in.Repairs, n = clampMin("repairs", in.Repairs)
	note(n)

	return in, notes
}

// BreakEven returns the external sales that bring net profit to zero with
// every other lever held. It reports false when external sales cannot move
// profit at all (zero margin or zero efficiency) or when the required sales
// are too large to represent.
func BreakEven(in LeverInputs) (float64, bool) {
	perUnit := in.MarginPct * in.EfficiencyPct
	if perUnit <= 0 {
		return 0, false
	}
	internal := in.InternalSales * in.InternalMarginPct * in.EfficiencyPct
	needed := (in.OverheadCost + in.Repairs - in.FXImpact - internal) / perUnit
	if !isFinite(needed) {
		return 0, false
	}
	return math.Max(0, needed), true
}

func compute(in LeverInputs) ProfitResult {
	gross := in.ExternalSales * in.MarginPct
	adjusted := gross * in.EfficiencyPct
	internal := in.InternalSales * in.InternalMarginPct * in.EfficiencyPct
	total := adjusted + internal
	net := total - in.OverheadCost - in.Repairs + in.FXImpact

	breakEven, reachable := BreakEven(in)

	return ProfitResult{
		GrossMargin:            gross,
		AdjustedMargin:         adjusted,
		InternalAdjustedMargin: internal,
		TotalGrossProfit:       total,
		NetProfit:              net,
		BreakEvenExternalSales: breakEven,
		BreakEvenReachable:     reachable,
	}
}

type namedValue struct {
	name  string
	value float64
}

func (in LeverInputs) fields() []namedValue {
	return []namedValue{
		{"external_sales", in.ExternalSales},
		{"margin_pct", in.MarginPct},
		{"efficiency_pct", in.EfficiencyPct},
		{"overhead_cost", in.OverheadCost},
		{"internal_sales", in.InternalSales},
		{"internal_margin_pct", in.InternalMarginPct},
		{"repairs", in.Repairs},
		{"fx_impact", in.FXImpact},
	}
}

func clampMin(name string, value float64) (float64, string) {
	if value < 0 {
		return 0, fmt.Sprintf("%s clamped to 0", name)
	}
	return value, ""
}

func clampRange(name string, value, lo, hi float64) (float64, string) {
	if value < lo {
		return lo, fmt.Sprintf("%s clamped to %g", name, lo)
	}
	if value > hi {
		return hi, fmt.Sprintf("%s clamped to %g", name, hi)
	}
	return value, ""
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
