// Package baseline serves the read-only lever presets that ship with the
// dashboard, such as the FY2025 board-pack outlook.
package baseline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/profitlevers/internal/profit"
)

// ErrNotFound is returned when no baseline has the requested name.
var ErrNotFound = errors.New("baseline not found")

// FY2025Name identifies the FY2025 outlook preset.
const FY2025Name = "fy2025"

// Baseline is a named starting position for every lever.
type Baseline struct {
	Name                   string             `json:"name"`
	Label                  string             `json:"label"`
	Source                 string             `json:"source"`
	Levers                 profit.LeverInputs `json:"levers"`
	OperatingProfitOutlook float64            `json:"operating_profit_outlook"`
}

// FY2025 is the FY2025 (Jul'24 to Jun'25) outlook from the June 2025 board
// pack, in AUD '000. The internal margin is a conservative placeholder and
// fixed costs are solved so operating profit lands near the -1,405 outlook.
func FY2025() Baseline {
	return Baseline{
		Name:   FY2025Name,
		Label:  "FY2025 outlook (June 2025 board pack)",
		Source: "External sales 8,658, internal sales 8,245, operating profit -1,405, external gross margin about 17% (roll-cost average).",
		Levers: profit.LeverInputs{
			ExternalSales:     8658,
			MarginPct:         0.17,
			EfficiencyPct:     1,
			OverheadCost:      3702,
			InternalSales:     8245,
			InternalMarginPct: 0.10,
		},
		OperatingProfitOutlook: -1405,
	}
}

// Blank is the starting position when no baseline is selected: no sales or
// costs, with default margins of 15% external and 8% internal.
func Blank() Baseline {
	return Baseline{
		Label: "Blank scenario",
		Levers: profit.LeverInputs{
			MarginPct:         0.15,
			EfficiencyPct:     1,
			InternalMarginPct: 0.08,
		},
	}
}

// Store reads baselines from SQLite.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectColumns = `
	name,
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
	operating_profit_outlook
`

// Get returns the baseline called name.
func (s *Store) Get(ctx context.Context, name string) (Baseline, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM baselines WHERE name = ?`, name)
	b, err := scanBaseline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Baseline{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Baseline{}, fmt.Errorf("query baseline %q: %w", name, err)
	}
	return b, nil
}

// List returns every baseline ordered by name.
func (s *Store) List(ctx context.Context) ([]Baseline, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM baselines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}
	defer rows.Close()

	baselines := make([]Baseline, 0)
	for rows.Next() {
		b, err := scanBaseline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		baselines = append(baselines, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baselines: %w", err)
	}

	return baselines, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBaseline(row scanner) (Baseline, error) {
	var b Baseline
	err := row.Scan(
		&b.Name,
		&b.Label,
		&b.Source,
		&b.Levers.ExternalSales,
		&b.Levers.MarginPct,
		&b.Levers.EfficiencyPct,
		&b.Levers.OverheadCost,
		&b.Levers.InternalSales,
		&b.Levers.InternalMarginPct,
		&b.Levers.Repairs,
		&b.Levers.FXImpact,
		&b.OperatingProfitOutlook,
	)
	return b, err
}
