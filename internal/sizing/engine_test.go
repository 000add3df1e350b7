// internal/sizing/engine_test.go
package sizing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func testCatalog() Catalog {
	return Catalog{
		Panels: []Panel{
			{ID: 1, Brand: "Sunmax", Model: "SM-250", PowerWatt: 250, Efficiency: 0.17, Cost: 200},
			{ID: 2, Brand: "Sunmax", Model: "SM-330", PowerWatt: 330, Efficiency: 0.19, Cost: 240},
			{ID: 3, Brand: "Helio", Model: "H-400", PowerWatt: 400, Efficiency: 0.21, Cost: 320},
		},
		Pumps: []Pump{
			{ID: 1, Brand: "Aqua", Model: "A-1500", PowerKw: 1.5, Cost: 300},
			{ID: 2, Brand: "Aqua", Model: "A-2200", PowerKw: 2.2, Cost: 450},
			{ID: 3, Brand: "Deep", Model: "D-3000", PowerKw: 3.0, Cost: 400},
			{ID: 4, Brand: "Deep", Model: "D-5500", PowerKw: 5.5, Cost: 900},
		},
		Batteries: []Battery{
			{ID: 1, Brand: "Volt", Model: "V-100", Voltage: 12, CapacityAh: 100, DepthOfDischargePercent: 50, RoundTripEfficiencyPercent: 85, Cost: 150},
			{ID: 2, Brand: "Volt", Model: "V-200", Voltage: 12, CapacityAh: 200, DepthOfDischargePercent: 50, RoundTripEfficiencyPercent: 85, Cost: 260},
		},
	}
}

func testAssumptions() *FinancialAssumptions {
	a := DefaultAssumptions()
	return &a
}

func fixedIrradiation(v float64, live bool) IrradiationLookup {
	return IrradiationFunc(func(context.Context, float64, float64) Irradiation {
		return Irradiation{ValueKwhPerM2PerDay: v, IsLive: live}
	})
}

func baseRequest() SizingRequest {
	return SizingRequest{
		Latitude:           6.37,
		Longitude:          2.39,
		WaterVolumeM3:      50,
		HeadMeters:         20,
		OptimizationTarget: TargetPerformance,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEngine_Compute_PerformanceScenario(t *testing.T) {
	engine := NewEngine(DefaultParams())

	c, err := engine.Run(context.Background(), baseRequest(), testCatalog(), testAssumptions(), Offline)
	require.NoError(t, err)

	assert.InDelta(t, 9810000.0, c.Energy.HydraulicEnergyJ, 1e-6)
	assert.InDelta(t, 24525000.0, c.Energy.ElectricalEnergyJ, 1e-6)
	assert.InDelta(t, 6.8125, c.Energy.DailyEnergyKwh, 1e-9)
	assert.InDelta(t, 7.834375, c.Generation.TotalDailyGenerationKwh, 1e-9)

	r := c.Result
	assert.Equal(t, 6.81, r.Technical.DailyEnergyKwh)
	assert.Equal(t, 2.09, r.Technical.RequiredPeakPowerKwc)
	assert.Equal(t, 1.67, r.Technical.PumpPowerKw)
	assert.Equal(t, 5.0, r.Technical.LocalIrradiationKwhM2)
	assert.False(t, r.Technical.IrradiationIsLive)
	assert.Equal(t, []string{WarningDegradedIrradiation}, r.Warnings)

	// highest efficiency panel, closest-fit pump
	assert.Equal(t, "Helio H-400", r.Components.PanelModel)
	assert.Equal(t, 6, r.Components.PanelQuantity)
	assert.Equal(t, "Aqua A-2200", r.Components.PumpModel)
	assert.Equal(t, 2.2, r.Components.PumpPowerKw)
	assert.Nil(t, r.Battery)
}

func TestEngine_Compute_SinglePanelCatalog(t *testing.T) {
	catalog := testCatalog()
	catalog.Panels = []Panel{{ID: 7, Brand: "Basic", Model: "B-250", PowerWatt: 250, Efficiency: 0.15, Cost: 200}}

	c, err := NewEngine(DefaultParams()).Run(context.Background(), baseRequest(), catalog, testAssumptions(), Offline)
	require.NoError(t, err)

	assert.Equal(t, 9, c.Result.Components.PanelQuantity)

	// 9*200 + 450 pump
	assert.InDelta(t, 2250.0, c.Financials.MaterialCost, 1e-9)
	assert.Equal(t, 2587.5, c.Result.Financial.TotalInvestment)
	assert.Equal(t, 0.057, c.Result.Financial.Lcoe)
	assert.InDelta(t, 976.64, c.Result.Financial.CostVsDieselPerYear, 0.005)
}

func TestEngine_Compute_CostTarget(t *testing.T) {
	req := baseRequest()
	req.OptimizationTarget = TargetCost

	c, err := NewEngine(DefaultParams()).Run(context.Background(), req, testCatalog(), testAssumptions(), Offline)
	require.NoError(t, err)

	// no margin: 6.8125 / 3.75
	assert.InDelta(t, 1.8166667, c.Generation.RequiredPeakPowerKwc, 1e-6)
	assert.Equal(t, 1.82, c.Result.Technical.RequiredPeakPowerKwc)
	assert.Equal(t, 1.45, c.Result.Technical.PumpPowerKw)

	// cheapest panel above 250 W, cheapest qualifying pump
	assert.Equal(t, "Sunmax SM-330", c.Result.Components.PanelModel)
	assert.Equal(t, 6, c.Result.Components.PanelQuantity)
	assert.Equal(t, "Aqua A-1500", c.Result.Components.PumpModel)
}

func TestEngine_Compute_WithBattery(t *testing.T) {
	req := baseRequest()
	req.AutonomyDays = 2

	c, err := NewEngine(DefaultParams()).Run(context.Background(), req, testCatalog(), testAssumptions(), Offline)
	require.NoError(t, err)

	require.NotNil(t, c.Storage)
	assert.Equal(t, int64(2), c.Storage.Battery.ID)
	assert.InDelta(t, 13.625, c.Storage.TotalEnergyToStoreKwh, 1e-9)
	assert.InDelta(t, 8.0147059, c.Generation.EnergyForChargeKwh, 1e-6)

	require.NotNil(t, c.Result.Battery)
	assert.Equal(t, "Volt V-200", c.Result.Battery.Model)
	assert.Equal(t, 12, c.Result.Battery.Quantity)
	assert.Equal(t, 28.8, c.Result.Battery.TotalCapacityKwh)
	assert.Equal(t, 14.4, c.Result.Battery.UsableCapacityKwh)
	assert.Equal(t, 4.55, c.Result.Technical.RequiredPeakPowerKwc)

	// 12 panels of 400 W, 5.5 kW pump, 12 batteries
	expectedMaterial := 12*320.0 + 900 + 12*260.0
	assert.InDelta(t, expectedMaterial, c.Financials.MaterialCost, 1e-9)
}

func TestEngine_Compute_LiveIrradiation(t *testing.T) {
	c, err := NewEngine(DefaultParams()).Run(context.Background(), baseRequest(), testCatalog(), testAssumptions(), fixedIrradiation(6.25, true))
	require.NoError(t, err)

	assert.True(t, c.Result.Technical.IrradiationIsLive)
	assert.Equal(t, 6.25, c.Result.Technical.LocalIrradiationKwhM2)
	assert.Empty(t, c.Result.Warnings)
	assert.InDelta(t, 7.834375/(6.25*0.75), c.Generation.RequiredPeakPowerKwc, 1e-9)
}

func TestEngine_Compute_LifespanOverride(t *testing.T) {
	req := baseRequest()
	years := 10
	req.LifespanYearsOverride = &years

	c, err := NewEngine(DefaultParams()).Run(context.Background(), req, testCatalog(), testAssumptions(), Offline)
	require.NoError(t, err)

	assert.Equal(t, 10, c.Financials.LifespanYears)
	assert.InDelta(t, 6.8125*365*10, c.Financials.LifetimeEnergyKwh, 1e-6)
}

// ==========================
// Properties
// ==========================

func TestEngine_ZeroVolumeOrHead(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		head   float64
	}{
		{name: "zero volume", volume: 0, head: 20},
		{name: "zero head", volume: 50, head: 0},
		{name: "both zero", volume: 0, head: 0},
	}

	engine := NewEngine(DefaultParams())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.WaterVolumeM3 = tt.volume
			req.HeadMeters = tt.head

			r, err := engine.Compute(context.Background(), req, testCatalog(), testAssumptions(), Offline)
			require.NoError(t, err)

			assert.Zero(t, r.Technical.DailyEnergyKwh)
			assert.Zero(t, r.Technical.RequiredPeakPowerKwc)
			assert.Zero(t, r.Components.PanelQuantity)
			assert.Zero(t, r.Financial.Lcoe)
		})
	}
}

func TestEngine_AutonomyMonotonic(t *testing.T) {
	engine := NewEngine(DefaultParams())
	previous := -1

	for days := 0.0; days <= 10; days += 0.5 {
		req := baseRequest()
		req.AutonomyDays = days

		r, err := engine.Compute(context.Background(), req, testCatalog(), testAssumptions(), Offline)
		require.NoError(t, err)

		quantity := 0
		if r.Battery != nil {
			quantity = r.Battery.Quantity
		}
		assert.GreaterOrEqual(t, quantity, previous, "autonomy %.1f days", days)
		previous = quantity
	}

	// counts that cannot be represented are rejected, never wrapped negative
	for _, days := range []float64{1e20, math.MaxFloat64} {
		req := baseRequest()
		req.AutonomyDays = days
		req.OptimizationTarget = TargetCost

		r, err := engine.Compute(context.Background(), req, testCatalog(), testAssumptions(), Offline)
		assert.ErrorIs(t, err, ErrInvalidInput, "autonomy %g days", days)
		assert.Nil(t, r)
	}
}

func TestEngine_PerformanceNeedsAtLeastCostPower(t *testing.T) {
	engine := NewEngine(DefaultParams())

	for _, days := range []float64{0, 1, 3} {
		perf := baseRequest()
		perf.AutonomyDays = days
		cost := perf
		cost.OptimizationTarget = TargetCost

		pr, err := engine.Compute(context.Background(), perf, testCatalog(), testAssumptions(), Offline)
		require.NoError(t, err)
		cr, err := engine.Compute(context.Background(), cost, testCatalog(), testAssumptions(), Offline)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, pr.Technical.RequiredPeakPowerKwc, cr.Technical.RequiredPeakPowerKwc)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	engine := NewEngine(DefaultParams())
	req := baseRequest()
	req.AutonomyDays = 1.5

	first, err := engine.Compute(context.Background(), req, testCatalog(), testAssumptions(), fixedIrradiation(5.4, true))
	require.NoError(t, err)
	second, err := engine.Compute(context.Background(), req, testCatalog(), testAssumptions(), fixedIrradiation(5.4, true))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_FallbackIrradiation(t *testing.T) {
	var called bool
	down := IrradiationFunc(func(context.Context, float64, float64) Irradiation {
		called = true
		return Irradiation{ValueKwhPerM2PerDay: FallbackIrradiationKwhM2, IsLive: false}
	})

	r, err := NewEngine(DefaultParams()).Compute(context.Background(), baseRequest(), testCatalog(), testAssumptions(), down)
	require.NoError(t, err)

	assert.True(t, called)
	assert.False(t, r.Technical.IrradiationIsLive)
	assert.Equal(t, 5.0, r.Technical.LocalIrradiationKwhM2)
	assert.NotZero(t, r.Components.PanelQuantity)
}

func TestEngine_NonFiniteIrradiationFallsBack(t *testing.T) {
	r, err := NewEngine(DefaultParams()).Compute(context.Background(), baseRequest(), testCatalog(), testAssumptions(), fixedIrradiation(math.NaN(), true))
	require.NoError(t, err)

	assert.False(t, r.Technical.IrradiationIsLive)
	assert.Equal(t, FallbackIrradiationKwhM2, r.Technical.LocalIrradiationKwhM2)
}

func TestEngine_ZeroIrradiation(t *testing.T) {
	r, err := NewEngine(DefaultParams()).Compute(context.Background(), baseRequest(), testCatalog(), testAssumptions(), fixedIrradiation(0, true))
	require.NoError(t, err)

	assert.Zero(t, r.Technical.RequiredPeakPowerKwc)
	assert.Zero(t, r.Components.PanelQuantity)
}

// ==========================
// Error Handling
// ==========================

func TestEngine_Errors(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*SizingRequest, *Catalog, **FinancialAssumptions)
		expectedErr error
	}{
		{
			name: "battery requested with empty catalog",
			mutate: func(r *SizingRequest, c *Catalog, _ **FinancialAssumptions) {
				r.AutonomyDays = 1
				c.Batteries = nil
			},
			expectedErr: ErrNoBatteryAvailable,
		},
		{
			name: "cost policy without panel above 250 W",
			mutate: func(r *SizingRequest, c *Catalog, _ **FinancialAssumptions) {
				r.OptimizationTarget = TargetCost
				c.Panels = c.Panels[:1]
			},
			expectedErr: ErrNoPanelAvailable,
		},
		{
			name: "empty panel catalog",
			mutate: func(_ *SizingRequest, c *Catalog, _ **FinancialAssumptions) {
				c.Panels = nil
			},
			expectedErr: ErrNoPanelAvailable,
		},
		{
			name: "no pump powerful enough",
			mutate: func(_ *SizingRequest, c *Catalog, _ **FinancialAssumptions) {
				c.Pumps = c.Pumps[:1]
			},
			expectedErr: ErrNoPumpAvailable,
		},
		{
			name: "missing assumptions",
			mutate: func(_ *SizingRequest, _ *Catalog, a **FinancialAssumptions) {
				*a = nil
			},
			expectedErr: ErrMissingAssumptions,
		},
		{
			name: "negative volume",
			mutate: func(r *SizingRequest, _ *Catalog, _ **FinancialAssumptions) {
				r.WaterVolumeM3 = -1
			},
			expectedErr: ErrInvalidInput,
		},
		{
			name: "negative head",
			mutate: func(r *SizingRequest, _ *Catalog, _ **FinancialAssumptions) {
				r.HeadMeters = -5
			},
			expectedErr: ErrInvalidInput,
		},
		{
			name: "latitude out of range",
			mutate: func(r *SizingRequest, _ *Catalog, _ **FinancialAssumptions) {
				r.Latitude = 91
			},
			expectedErr: ErrInvalidInput,
		},
		{
			name: "NaN volume",
			mutate: func(r *SizingRequest, _ *Catalog, _ **FinancialAssumptions) {
				r.WaterVolumeM3 = math.NaN()
			},
			expectedErr: ErrInvalidInput,
		},
		{
			name: "unknown target",
			mutate: func(r *SizingRequest, _ *Catalog, _ **FinancialAssumptions) {
				r.OptimizationTarget = "cheapest"
			},
			expectedErr: ErrInvalidInput,
		},
		{
			name: "zero lifespan override",
			mutate: func(r *SizingRequest, _ *Catalog, _ **FinancialAssumptions) {
				zero := 0
				r.LifespanYearsOverride = &zero
			},
			expectedErr: ErrInvalidInput,
		},
	}

	engine := NewEngine(DefaultParams())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, catalog, assumptions := baseRequest(), testCatalog(), testAssumptions()
			tt.mutate(&req, &catalog, &assumptions)

			r, err := engine.Compute(context.Background(), req, catalog, assumptions, Offline)

			assert.Nil(t, r)
			assert.True(t, errors.Is(err, tt.expectedErr), "expected %v, got %v", tt.expectedErr, err)
			assert.Equal(t, tt.expectedErr.Error(), ErrorCode(err))
		})
	}
}

func TestNormalizeRequest_Targets(t *testing.T) {
	tests := []struct {
		in   OptimizationTarget
		want OptimizationTarget
	}{
		{in: "", want: TargetPerformance},
		{in: "performance", want: TargetPerformance},
		{in: "cost", want: TargetCost},
		{in: "budget", want: TargetCost},
		{in: " Budget ", want: TargetCost},
	}
	for _, tt := range tests {
		req := baseRequest()
		req.OptimizationTarget = tt.in
		got, err := NormalizeRequest(req)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.OptimizationTarget)
	}
}

func TestNewEngine_FillsUnsetParams(t *testing.T) {
	engine := NewEngine(Params{PerformanceMargin: 1.2})

	p := engine.Params()
	assert.Equal(t, 1.2, p.PerformanceMargin)
	assert.Equal(t, 0.4, p.PumpEfficiency)
	assert.Equal(t, 0.75, p.SystemLossFactor)
	assert.Equal(t, 0.8, p.PumpToArrayRatio)
}
