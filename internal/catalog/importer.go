// internal/catalog/importer.go
package catalog

import (
	"context"
	"fmt"
)

const (
	insertPanel = `INSERT INTO solar_panels (id, brand, model, power_watt, efficiency, cost)
		VALUES ($1, $2, $3, $4, $5, $6)`
	insertPump = `INSERT INTO water_pumps (id, brand, model, power_kw, max_flow_rate_m3_h, max_hmt, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	insertBattery = `INSERT INTO batteries (id, brand, model, voltage, capacity_ah, dod_percent, efficiency_percent, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertAssumptions = `INSERT INTO financial_assumptions (cost_per_kwc_solar, cost_per_kw_pump,
		installation_fees_percent, maintenance_percent_per_year, cost_per_kwh_grid,
		cost_per_kwh_diesel, system_lifespan_years, discount_rate_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// Moves the serial past the imported ids so later inserts don't collide.
	resyncSequence = `SELECT setval(pg_get_serial_sequence($1, 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`
)

// Import replaces the catalog tables, and the assumptions when the file
// carries them, with the contents of f in one transaction. Rows keep the
// file's ids (zero ids are numbered by position, as LoadFile does), so
// tie-breaks on id rank the same online and offline.
func (r *Repository) Import(ctx context.Context, f *File) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	tables := []string{"solar_panels", "water_pumps", "batteries"}
	if f.Assumptions != nil {
		tables = append(tables, "financial_assumptions")
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, p := range f.Panels {
		if _, err := tx.ExecContext(ctx, insertPanel,
			rowID(p.ID, i), p.Brand, p.Model, p.PowerWatt, p.Efficiency, p.Cost); err != nil {
			return fmt.Errorf("insert panel %s: %w", p.DisplayName(), err)
		}
	}
	for i, p := range f.Pumps {
		if _, err := tx.ExecContext(ctx, insertPump,
			rowID(p.ID, i), p.Brand, p.Model, p.PowerKw, p.MaxFlowRateM3H, p.MaxHmt, p.Cost); err != nil {
			return fmt.Errorf("insert pump %s: %w", p.DisplayName(), err)
		}
	}
	for i, b := range f.Batteries {
		if _, err := tx.ExecContext(ctx, insertBattery,
			rowID(b.ID, i), b.Brand, b.Model, b.Voltage, b.CapacityAh, b.DepthOfDischargePercent,
			b.RoundTripEfficiencyPercent, b.Cost); err != nil {
			return fmt.Errorf("insert battery %s: %w", b.DisplayName(), err)
		}
	}
	for _, table := range tables[:3] {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(resyncSequence, table), table); err != nil {
			return fmt.Errorf("resync %s id sequence: %w", table, err)
		}
	}
	if a := f.Assumptions; a != nil {
		if _, err := tx.ExecContext(ctx, insertAssumptions,
			a.CostPerKwcSolar, a.CostPerKwPump, a.InstallationFeesPercent,
			a.MaintenancePercentPerYear, a.CostPerKwhGrid, a.CostPerKwhDiesel,
			a.SystemLifespanYears, a.DiscountRatePercent); err != nil {
			return fmt.Errorf("insert assumptions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func rowID(id int64, index int) int64 {
	if id != 0 {
		return id
	}
	return int64(index + 1)
}
