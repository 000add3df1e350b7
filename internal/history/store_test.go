// internal/history/store_test.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "solar-pumping-workers/internal/common/errors"
	"solar-pumping-workers/internal/sizing"
)

// ==========================
// Fixtures
// ==========================

var fixedNow = time.Date(2024, 5, 14, 9, 30, 0, 0, time.FixedZone("CET", 3600))

func sampleRequest() sizing.SizingRequest {
	return sizing.SizingRequest{
		Latitude:           14.6937,
		Longitude:          -17.4441,
		WaterVolumeM3:      50,
		HeadMeters:         20,
		OptimizationTarget: sizing.TargetPerformance,
	}
}

func sampleResult() sizing.SizingResult {
	return sizing.SizingResult{
		Technical: sizing.Technical{
			RequiredPeakPowerKwc:  2.09,
			PumpPowerKw:           1.67,
			LocalIrradiationKwhM2: 5.2,
			DailyEnergyKwh:        6.81,
			IrradiationIsLive:     true,
		},
		Financial:  sizing.Financial{TotalInvestment: 3312, Lcoe: 0.057, CostVsDieselPerYear: 976.64},
		Components: sizing.Components{PanelModel: "Helio H-400", PanelPowerWatt: 400, PanelQuantity: 6, PumpModel: "Aqua A-2200", PumpPowerKw: 2.2},
	}
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

// ==========================
// Save
// ==========================

func TestStore_Save(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO simulation_results").
		WithArgs(sqlmock.AnyArg(), "Project at 14.69, -17.44", fixedNow.UTC(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	sim, err := store.Save(context.Background(), sampleRequest(), sampleResult())
	require.NoError(t, err)

	assert.Len(t, sim.ID, 36)
	assert.Equal(t, time.UTC, sim.CreatedAt.Location())
	assert.Equal(t, "Helio H-400", sim.Result.Components.PanelModel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Save_Error(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO simulation_results").WillReturnError(errors.New("disk full"))

	_, err := store.Save(context.Background(), sampleRequest(), sampleResult())
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeHistorySaveFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// Recent
// ==========================

func TestStore_Recent(t *testing.T) {
	store, mock := newMockStore(t)

	inputs, err := json.Marshal(sampleRequest())
	require.NoError(t, err)
	results, err := json.Marshal(sampleResult())
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "inputs", "results"}).
		AddRow("b7c1", "Project at 14.69, -17.44", fixedNow.UTC(), inputs, results).
		AddRow("a3f0", "Project at 12.00, 1.00", fixedNow.Add(-time.Hour).UTC(), inputs, results)
	mock.ExpectQuery("FROM simulation_results").WithArgs(5).WillReturnRows(rows)

	sims, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, sims, 2)

	assert.Equal(t, "b7c1", sims[0].ID)
	assert.Equal(t, 50.0, sims[0].Request.WaterVolumeM3)
	assert.Equal(t, 2.09, sims[0].Result.Technical.RequiredPeakPowerKwc)
	assert.True(t, sims[0].CreatedAt.After(sims[1].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Recent_DefaultLimit(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM simulation_results").
		WithArgs(DefaultRecentLimit).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at", "inputs", "results"}))

	sims, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, sims)
	assert.NotNil(t, sims)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Recent_CorruptRow(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "inputs", "results"}).
		AddRow("b7c1", "broken", fixedNow, []byte("{"), []byte("{}"))
	mock.ExpectQuery("FROM simulation_results").WillReturnRows(rows)

	_, err := store.Recent(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b7c1")
}

func TestNewSimulation(t *testing.T) {
	sim := NewSimulation(sampleRequest(), sampleResult(), fixedNow)
	other := NewSimulation(sampleRequest(), sampleResult(), fixedNow)

	assert.NotEqual(t, sim.ID, other.ID)
	assert.Equal(t, "Project at 14.69, -17.44", sim.Name)
	assert.Equal(t, fixedNow.Unix(), sim.CreatedAt.Unix())
}
