// internal/sizing/financial_test.go
package sizing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFinancials(t *testing.T) {
	a := DefaultAssumptions()

	b, err := ComputeFinancials(5000, 10, &a, nil)
	require.NoError(t, err)

	assert.Equal(t, 750.0, b.InstallationCost)
	assert.Equal(t, 5750.0, b.TotalInvestment)
	assert.Equal(t, 86.25, b.AnnualMaintenance)
	assert.Equal(t, 7906.25, b.LifetimeCost)
	assert.Equal(t, 25, b.LifespanYears)
	assert.InDelta(t, 91250.0, b.LifetimeEnergyKwh, 1e-9)
	assert.InDelta(t, 7906.25/91250.0, b.Lcoe, 1e-12)

	s := b.Summary()
	assert.Equal(t, 5750.0, s.TotalInvestment)
	assert.Equal(t, 0.087, s.Lcoe)
}

func TestComputeFinancials_ZeroEnergy(t *testing.T) {
	a := DefaultAssumptions()

	b, err := ComputeFinancials(1200, 0, &a, nil)
	require.NoError(t, err)

	assert.Zero(t, b.Lcoe)
	assert.Zero(t, b.CostVsDieselPerYear)
	assert.Equal(t, 1380.0, b.TotalInvestment)
}

func TestComputeFinancials_LifespanOverride(t *testing.T) {
	a := DefaultAssumptions()
	years := 5

	b, err := ComputeFinancials(5000, 10, &a, &years)
	require.NoError(t, err)

	assert.Equal(t, 5, b.LifespanYears)
	assert.InDelta(t, 5750+86.25*5, b.LifetimeCost, 1e-9)
	// assumptions are not touched by the override
	assert.Equal(t, 25, a.SystemLifespanYears)
}

func TestComputeFinancials_MissingAssumptions(t *testing.T) {
	_, err := ComputeFinancials(5000, 10, nil, nil)
	assert.True(t, errors.Is(err, ErrMissingAssumptions))
}

func TestMaterialCost(t *testing.T) {
	sel := Selection{
		Panel:         Panel{Cost: 150},
		PanelQuantity: 4,
		Pump:          Pump{Cost: 700},
	}
	assert.Equal(t, 1300.0, MaterialCost(sel, nil))

	storage := &StoragePlan{Battery: Battery{Cost: 220}, Quantity: 3}
	assert.Equal(t, 1960.0, MaterialCost(sel, storage))
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	assert.Equal(t, 0.13, round(0.125, 2))
	assert.Equal(t, -0.13, round(-0.125, 2))
	assert.Equal(t, 2.0, round(1.9999, 3))

	// Halves are taken from the shortest decimal form, not the binary value.
	assert.Equal(t, 2.68, round(2.675, 2))
	assert.Equal(t, 1.01, round(1.005, 2))
	assert.Equal(t, 0.146, round(0.1455, 3))
}
