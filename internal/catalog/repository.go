// internal/catalog/repository.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	commonerrors "solar-pumping-workers/internal/common/errors"
	"solar-pumping-workers/internal/sizing"
)

const (
	panelsQuery = `SELECT id, brand, model, power_watt, efficiency, cost
		FROM solar_panels ORDER BY id`
	pumpsQuery = `SELECT id, brand, model, power_kw, max_flow_rate_m3_h, max_hmt, cost
		FROM water_pumps ORDER BY id`
	batteriesQuery = `SELECT id, brand, model, voltage, capacity_ah, dod_percent, efficiency_percent, cost
		FROM batteries ORDER BY id`
	assumptionsQuery = `SELECT cost_per_kwc_solar, cost_per_kw_pump, installation_fees_percent,
		maintenance_percent_per_year, cost_per_kwh_grid, cost_per_kwh_diesel,
		system_lifespan_years, discount_rate_percent
		FROM financial_assumptions ORDER BY id LIMIT 1`
)

// Source provides a catalog snapshot and the financial assumptions for one
// computation.
type Source interface {
	Snapshot(ctx context.Context) (*sizing.Catalog, error)
	Assumptions(ctx context.Context) (*sizing.FinancialAssumptions, error)
}

// Repository reads the equipment catalog and the financial assumptions
// from Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Snapshot loads the three catalog tables. Rows come back ordered by id so
// tie-breaks in the selector are stable.
func (r *Repository) Snapshot(ctx context.Context) (*sizing.Catalog, error) {
	var (
		c   sizing.Catalog
		err error
	)
	if c.Panels, err = queryPanels(ctx, r.db); err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}
	if c.Pumps, err = queryPumps(ctx, r.db); err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}
	if c.Batteries, err = queryBatteries(ctx, r.db); err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(err)
	}
	return &c, nil
}

// Assumptions returns the first assumptions row, or nil when none is configured.
func (r *Repository) Assumptions(ctx context.Context) (*sizing.FinancialAssumptions, error) {
	var a sizing.FinancialAssumptions
	err := r.db.QueryRowContext(ctx, assumptionsQuery).Scan(
		&a.CostPerKwcSolar,
		&a.CostPerKwPump,
		&a.InstallationFeesPercent,
		&a.MaintenancePercentPerYear,
		&a.CostPerKwhGrid,
		&a.CostPerKwhDiesel,
		&a.SystemLifespanYears,
		&a.DiscountRatePercent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, commonerrors.NewCatalogLoadFailedError(fmt.Errorf("financial_assumptions: %w", err))
	}
	return &a, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func queryPanels(ctx context.Context, q querier) ([]sizing.Panel, error) {
	rows, err := q.QueryContext(ctx, panelsQuery)
	if err != nil {
		return nil, fmt.Errorf("solar_panels: %w", err)
	}
	defer rows.Close()

	var out []sizing.Panel
	for rows.Next() {
		var p sizing.Panel
		if err := rows.Scan(&p.ID, &p.Brand, &p.Model, &p.PowerWatt, &p.Efficiency, &p.Cost); err != nil {
			return nil, fmt.Errorf("solar_panels: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func queryPumps(ctx context.Context, q querier) ([]sizing.Pump, error) {
	rows, err := q.QueryContext(ctx, pumpsQuery)
	if err != nil {
		return nil, fmt.Errorf("water_pumps: %w", err)
	}
	defer rows.Close()

	var out []sizing.Pump
	for rows.Next() {
		var p sizing.Pump
		if err := rows.Scan(&p.ID, &p.Brand, &p.Model, &p.PowerKw, &p.MaxFlowRateM3H, &p.MaxHmt, &p.Cost); err != nil {
			return nil, fmt.Errorf("water_pumps: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func queryBatteries(ctx context.Context, q querier) ([]sizing.Battery, error) {
	rows, err := q.QueryContext(ctx, batteriesQuery)
	if err != nil {
		return nil, fmt.Errorf("batteries: %w", err)
	}
	defer rows.Close()

	var out []sizing.Battery
	for rows.Next() {
		var b sizing.Battery
		if err := rows.Scan(&b.ID, &b.Brand, &b.Model, &b.Voltage, &b.CapacityAh,
			&b.DepthOfDischargePercent, &b.RoundTripEfficiencyPercent, &b.Cost); err != nil {
			return nil, fmt.Errorf("batteries: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
