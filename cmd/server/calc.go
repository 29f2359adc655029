package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/profitlevers/internal/baseline"
	"github.com/Simplici0/profitlevers/internal/display"
	"github.com/Simplici0/profitlevers/internal/profit"
	"github.com/Simplici0/profitlevers/internal/seed"
)

type calcOutput struct {
	Baseline string              `json:"baseline"`
	Levers   profit.LeverInputs  `json:"levers"`
	Result   profit.ProfitResult `json:"result"`
	Summary  map[string]string   `json:"summary"`
}

func newCalcCmd() *cobra.Command {
	var baselineName string
	form := leverForm{}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Evaluate one scenario and print it as JSON",
		Long: `Starts from a shipped baseline (or a blank scenario with --baseline "")
and applies any lever flags given. Amounts are in AUD '000, margins in
percent and efficiency as a factor.

Example:
  server calc --repairs 700 --efficiency 0.95`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := findShippedBaseline(baselineName)
			if err != nil {
				return err
			}
			return runCalc(cmd.OutOrStdout(), b, cmd.Flags().Changed, form)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&baselineName, "baseline", baseline.FY2025Name, `baseline to start from ("" for blank)`)
	flags.Float64Var(&form.ExternalSales, "external-sales", 0, "external sales, AUD '000")
	flags.Float64Var(&form.InternalSales, "internal-sales", 0, "internal sales, AUD '000")
	flags.Float64Var(&form.ExternalMargin, "external-margin", 0, "external gross margin, percent")
	flags.Float64Var(&form.InternalMargin, "internal-margin", 0, "internal gross margin, percent")
	flags.Float64Var(&form.Efficiency, "efficiency", 0, "operational efficiency factor")
	flags.Float64Var(&form.FixedCosts, "fixed-costs", 0, "fixed costs, AUD '000")
	flags.Float64Var(&form.Repairs, "repairs", 0, "extra repairs and maintenance, AUD '000")
	flags.Float64Var(&form.FXImpact, "fx-impact", 0, "FX or exceptional items, AUD '000 (negative is a loss)")
	return cmd
}

func findShippedBaseline(name string) (baseline.Baseline, error) {
	if strings.TrimSpace(name) == "" {
		return baseline.Blank(), nil
	}
	for _, b := range seed.Catalog() {
		if b.Name == name {
			return b, nil
		}
	}
	return baseline.Baseline{}, fmt.Errorf("%q: %w", name, baseline.ErrNotFound)
}

// runCalc overlays the levers whose flags changed on b and evaluates the result.
func runCalc(out io.Writer, b baseline.Baseline, changed func(flag string) bool, overrides leverForm) error {
	conv := display.Converter{Currency: display.AUD, FXRate: 1}
	form := formFromBaseline(b, conv)

	set := map[string]func(){
		"external-sales":  func() { form.ExternalSales = overrides.ExternalSales },
		"internal-sales":  func() { form.InternalSales = overrides.InternalSales },
		"external-margin": func() { form.ExternalMargin = overrides.ExternalMargin },
		"internal-margin": func() { form.InternalMargin = overrides.InternalMargin },
		"efficiency":      func() { form.Efficiency = overrides.Efficiency },
		"fixed-costs":     func() { form.FixedCosts = overrides.FixedCosts },
		"repairs":         func() { form.Repairs = overrides.Repairs },
		"fx-impact":       func() { form.FXImpact = overrides.FXImpact },
	}
	for name, apply := range set {
		if changed(name) {
			apply()
		}
	}

	in := form.levers(conv)
	result, err := profit.Evaluate(in)
	if err != nil {
		return fmt.Errorf("evaluate scenario: %w", err)
	}
	if logger != nil {
		logger.Debug("scenario evaluated", zap.Float64("net_profit", result.NetProfit), zap.Strings("adjustments", result.Adjustments))
	}

	breakEven := "n/a"
	if result.BreakEvenReachable {
		breakEven = display.Amount(result.BreakEvenExternalSales)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(calcOutput{
		Baseline: b.Name,
		Levers:   in,
		Result:   result,
		Summary: map[string]string{
			"external_gp":      display.Amount(result.AdjustedMargin),
			"total_gp":         display.Amount(result.TotalGrossProfit),
			"operating_profit": display.Amount(result.NetProfit),
			"break_even_sales": breakEven,
			"unit":             conv.Unit(),
		},
	})
}
