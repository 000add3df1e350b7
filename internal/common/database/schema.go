// internal/common/database/schema.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements creates the catalog, assumptions and history tables when
// they do not exist yet.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS solar_panels (
		id          BIGSERIAL PRIMARY KEY,
		brand       VARCHAR(100) NOT NULL,
		model       VARCHAR(100) NOT NULL,
		power_watt  INTEGER NOT NULL,
		efficiency  DOUBLE PRECISION NOT NULL,
		cost        NUMERIC(10,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS water_pumps (
		id                 BIGSERIAL PRIMARY KEY,
		brand              VARCHAR(100) NOT NULL,
		model              VARCHAR(100) NOT NULL,
		power_kw           DOUBLE PRECISION NOT NULL,
		max_flow_rate_m3_h DOUBLE PRECISION NOT NULL,
		max_hmt            DOUBLE PRECISION NOT NULL,
		cost               NUMERIC(10,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS batteries (
		id                 BIGSERIAL PRIMARY KEY,
		brand              VARCHAR(100) NOT NULL,
		model              VARCHAR(100) NOT NULL,
		voltage            INTEGER NOT NULL,
		capacity_ah        INTEGER NOT NULL,
		dod_percent        DOUBLE PRECISION NOT NULL DEFAULT 50,
		efficiency_percent DOUBLE PRECISION NOT NULL DEFAULT 85,
		cost               NUMERIC(10,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS financial_assumptions (
		id                           BIGSERIAL PRIMARY KEY,
		cost_per_kwc_solar           NUMERIC(10,2) NOT NULL DEFAULT 1200,
		cost_per_kw_pump             NUMERIC(10,2) NOT NULL DEFAULT 500,
		installation_fees_percent    DOUBLE PRECISION NOT NULL DEFAULT 15,
		maintenance_percent_per_year DOUBLE PRECISION NOT NULL DEFAULT 1.5,
		cost_per_kwh_grid            NUMERIC(10,4) NOT NULL DEFAULT 0.14,
		cost_per_kwh_diesel          NUMERIC(10,4) NOT NULL DEFAULT 0.45,
		system_lifespan_years        INTEGER NOT NULL DEFAULT 25,
		discount_rate_percent        DOUBLE PRECISION NOT NULL DEFAULT 5
	)`,
	`CREATE TABLE IF NOT EXISTS simulation_results (
		id         UUID PRIMARY KEY,
		name       VARCHAR(200) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		inputs     JSONB NOT NULL,
		results    JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS simulation_results_created_at_idx ON simulation_results (created_at DESC)`,
}

// EnsureSchema runs the schema statements in one transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
