package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/profitlevers/internal/baseline"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Catalog is the set of baselines shipped with the dashboard.
func Catalog() []baseline.Baseline {
	return []baseline.Baseline{baseline.FY2025()}
}

// Run executes the startup seed in an idempotent way. Missing baselines are
// inserted and rows that drifted from the shipped values are rewritten.
func Run(ctx context.Context, db *sql.DB, presets []baseline.Baseline) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, b := range presets {
		if err := ensureBaseline(ctx, tx, b, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureBaseline(ctx context.Context, tx *sql.Tx, b baseline.Baseline, stats *Stats) error {
	if b.Name == "" {
		return fmt.Errorf("seed baseline: name is required")
	}

	var same bool
	err := tx.QueryRowContext(ctx, `
		SELECT
			label = ?
			AND source = ?
			AND external_sales = ?
			AND external_margin_pct = ?
			AND efficiency = ?
			AND fixed_costs = ?
			AND internal_sales = ?
			AND internal_margin_pct = ?
			AND repairs = ?
			AND fx_impact = ?
			AND operating_profit_outlook = ?
		FROM baselines
		WHERE name = ?
	`, append(baselineValues(b), b.Name)...).Scan(&same)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO baselines (
				label,
				source,
				external_sales,
				external_margin_pct,
				efficiency,
				fixed_costs,
				internal_sales,
				internal_margin_pct,
				repairs,
				fx_impact,
				operating_profit_outlook,
				name
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, append(baselineValues(b), b.Name)...); err != nil {
			return fmt.Errorf("insert baseline %q: %w", b.Name, err)
		}
		stats.Inserts++
		return nil
	case err != nil:
		return fmt.Errorf("check baseline %q: %w", b.Name, err)
	case same:
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE baselines
		SET
			label = ?,
			source = ?,
			external_sales = ?,
			external_margin_pct = ?,
			efficiency = ?,
			fixed_costs = ?,
			internal_sales = ?,
			internal_margin_pct = ?,
			repairs = ?,
			fx_impact = ?,
			operating_profit_outlook = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, append(baselineValues(b), b.Name)...); err != nil {
		return fmt.Errorf("update baseline %q: %w", b.Name, err)
	}
	stats.Updates++
	return nil
}

func baselineValues(b baseline.Baseline) []any {
	return []any{
		b.Label,
		b.Source,
		b.Levers.ExternalSales,
		b.Levers.MarginPct,
		b.Levers.EfficiencyPct,
		b.Levers.OverheadCost,
		b.Levers.InternalSales,
		b.Levers.InternalMarginPct,
		b.Levers.Repairs,
		b.Levers.FXImpact,
		b.OperatingProfitOutlook,
	}
}
