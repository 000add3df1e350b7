// internal/sizing/engine.go
package sizing

import (
	"context"
	"fmt"
	"math"
)

// IrradiationLookup provides the daily solar resource for a site. It never
// fails: an unavailable provider is reported through Irradiation.IsLive.
type IrradiationLookup interface {
	DailyIrradiation(ctx context.Context, lat, lon float64) Irradiation
}

// IrradiationFunc adapts a plain function to IrradiationLookup.
type IrradiationFunc func(ctx context.Context, lat, lon float64) Irradiation

func (f IrradiationFunc) DailyIrradiation(ctx context.Context, lat, lon float64) Irradiation {
	return f(ctx, lat, lon)
}

// Offline always answers with the fallback irradiation.
var Offline IrradiationLookup = IrradiationFunc(func(context.Context, float64, float64) Irradiation {
	return Irradiation{ValueKwhPerM2PerDay: FallbackIrradiationKwhM2, IsLive: false}
})

// Engine runs the sizing chain. It holds no state besides its parameters and
// is safe for concurrent use.
type Engine struct {
	params Params
}

func NewEngine(params Params) *Engine {
	return &Engine{params: params.WithDefaults()}
}

func (e *Engine) Params() Params { return e.params }

// Computation is a sizing result together with the unrounded intermediates
// it was derived from.
type Computation struct {
	Result      SizingResult
	Energy      EnergyDemand
	Irradiation Irradiation
	Storage     *StoragePlan
	Generation  GenerationPlan
	Selection   Selection
	Financials  FinancialBreakdown
}

// Compute sizes an installation for req. The catalog and assumptions are
// treated as a read-only snapshot for the duration of the call.
func (e *Engine) Compute(ctx context.Context, req SizingRequest, catalog Catalog, assumptions *FinancialAssumptions, lookup IrradiationLookup) (*SizingResult, error) {
	c, err := e.Run(ctx, req, catalog, assumptions, lookup)
	if err != nil {
		return nil, err
	}
	return &c.Result, nil
}

// Run is Compute returning every intermediate.
func (e *Engine) Run(ctx context.Context, req SizingRequest, catalog Catalog, assumptions *FinancialAssumptions, lookup IrradiationLookup) (*Computation, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}
	if lookup == nil {
		lookup = Offline
	}

	energy := ComputeEnergyDemand(req.WaterVolumeM3, req.HeadMeters, e.params.PumpEfficiency)
	irradiation := lookup.DailyIrradiation(ctx, req.Latitude, req.Longitude)
	if math.IsNaN(irradiation.ValueKwhPerM2PerDay) || math.IsInf(irradiation.ValueKwhPerM2PerDay, 0) {
		irradiation = Irradiation{ValueKwhPerM2PerDay: FallbackIrradiationKwhM2}
	}

	storage, err := SizeStorage(energy.DailyEnergyKwh, req.AutonomyDays, catalog.Batteries)
	if err != nil {
		return nil, err
	}

	generation := PlanGeneration(energy.DailyEnergyKwh, storage, req.OptimizationTarget, irradiation.ValueKwhPerM2PerDay, e.params)

	selection, err := SelectComponents(catalog, req.OptimizationTarget, generation, e.params)
	if err != nil {
		return nil, err
	}

	financials, err := ComputeFinancials(MaterialCost(selection, storage), energy.DailyEnergyKwh, assumptions, req.LifespanYearsOverride)
	if err != nil {
		return nil, err
	}

	return &Computation{
		Result:      assemble(energy, irradiation, storage, generation, selection, financials),
		Energy:      energy,
		Irradiation: irradiation,
		Storage:     storage,
		Generation:  generation,
		Selection:   selection,
		Financials:  financials,
	}, nil
}

// NormalizeRequest checks the request and resolves its defaults.
func NormalizeRequest(req SizingRequest) (SizingRequest, error) {
	checks := []struct {
		name  string
		value float64
	}{
		{"lat", req.Latitude},
		{"lon", req.Longitude},
		{"volume", req.WaterVolumeM3},
		{"hmt", req.HeadMeters},
		{"autonomy_days", req.AutonomyDays},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return req, fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, c.name)
		}
	}

	if req.Latitude < -90 || req.Latitude > 90 {
		return req, fmt.Errorf("%w: lat %.4f out of range [-90, 90]", ErrInvalidInput, req.Latitude)
	}
	if req.Longitude < -180 || req.Longitude > 180 {
		return req, fmt.Errorf("%w: lon %.4f out of range [-180, 180]", ErrInvalidInput, req.Longitude)
	}
	if req.WaterVolumeM3 < 0 {
		return req, fmt.Errorf("%w: volume must be >= 0", ErrInvalidInput)
	}
	if req.HeadMeters < 0 {
		return req, fmt.Errorf("%w: hmt must be >= 0", ErrInvalidInput)
	}
	if req.AutonomyDays < 0 {
		return req, fmt.Errorf("%w: autonomy_days must be >= 0", ErrInvalidInput)
	}
	if req.LifespanYearsOverride != nil && *req.LifespanYearsOverride <= 0 {
		return req, fmt.Errorf("%w: lifespan must be > 0", ErrInvalidInput)
	}

	target, ok := ParseTarget(string(req.OptimizationTarget))
	if !ok {
		return req, fmt.Errorf("%w: unknown optimization_target %q", ErrInvalidInput, req.OptimizationTarget)
	}
	req.OptimizationTarget = target
	return req, nil
}

func assemble(energy EnergyDemand, irr Irradiation, storage *StoragePlan, gen GenerationPlan, sel Selection, fin FinancialBreakdown) SizingResult {
	result := SizingResult{
		Technical: Technical{
			RequiredPeakPowerKwc:  round(gen.RequiredPeakPowerKwc, 2),
			PumpPowerKw:           round(gen.PumpPowerKw, 2),
			LocalIrradiationKwhM2: round(irr.ValueKwhPerM2PerDay, 2),
			DailyEnergyKwh:        round(energy.DailyEnergyKwh, 2),
			IrradiationIsLive:     irr.IsLive,
		},
		Financial: fin.Summary(),
		Components: Components{
			PanelModel:     sel.Panel.DisplayName(),
			PanelPowerWatt: sel.Panel.PowerWatt,
			PanelQuantity:  sel.PanelQuantity,
			PumpModel:      sel.Pump.DisplayName(),
			PumpPowerKw:    sel.Pump.PowerKw,
		},
	}
	if storage != nil {
		result.Battery = &BatteryBank{
			Model:             storage.Battery.DisplayName(),
			Quantity:          storage.Quantity,
			TotalCapacityKwh:  round(storage.TotalCapacityKwh, 2),
			UsableCapacityKwh: round(storage.UsableCapacityKwh, 2),
		}
	}
	if !irr.IsLive {
		result.Warnings = []string{WarningDegradedIrradiation}
	}
	return result
}
