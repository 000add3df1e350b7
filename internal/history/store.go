// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	commonerrors "solar-pumping-workers/internal/common/errors"
	"solar-pumping-workers/internal/sizing"
)

// DefaultRecentLimit is the page size of Recent when the caller passes none.
const DefaultRecentLimit = 20

// Simulation is one persisted sizing run.
type Simulation struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	CreatedAt time.Time            `json:"created_at"`
	Request   sizing.SizingRequest `json:"inputs"`
	Result    sizing.SizingResult  `json:"results"`
}

// NewSimulation names the run after its site and stamps it with a new id.
func NewSimulation(req sizing.SizingRequest, result sizing.SizingResult, now time.Time) Simulation {
	return Simulation{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("Project at %.2f, %.2f", req.Latitude, req.Longitude),
		CreatedAt: now.UTC(),
		Request:   req,
		Result:    result,
	}
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Save persists a run and returns the stored record.
func (s *Store) Save(ctx context.Context, req sizing.SizingRequest, result sizing.SizingResult) (*Simulation, error) {
	sim := NewSimulation(req, result, s.now())

	inputs, err := json.Marshal(sim.Request)
	if err != nil {
		return nil, commonerrors.NewHistorySaveFailedError(err)
	}
	results, err := json.Marshal(sim.Result)
	if err != nil {
		return nil, commonerrors.NewHistorySaveFailedError(err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulation_results (id, name, created_at, inputs, results) VALUES ($1, $2, $3, $4, $5)`,
		sim.ID, sim.Name, sim.CreatedAt, inputs, results,
	)
	if err != nil {
		return nil, commonerrors.NewHistorySaveFailedError(err)
	}
	return &sim, nil
}

// Recent lists the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Simulation, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, inputs, results FROM simulation_results
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("recent simulations", err)
	}
	defer rows.Close()

	sims := make([]Simulation, 0, limit)
	for rows.Next() {
		var (
			sim             Simulation
			inputs, results []byte
		)
		if err := rows.Scan(&sim.ID, &sim.Name, &sim.CreatedAt, &inputs, &results); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("recent simulations", err)
		}
		if err := json.Unmarshal(inputs, &sim.Request); err != nil {
			return nil, fmt.Errorf("simulation %s inputs: %w", sim.ID, err)
		}
		if err := json.Unmarshal(results, &sim.Result); err != nil {
			return nil, fmt.Errorf("simulation %s results: %w", sim.ID, err)
		}
		sims = append(sims, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("recent simulations", err)
	}
	return sims, nil
}
