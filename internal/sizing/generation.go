// internal/sizing/generation.go
package sizing

// GenerationPlan is what the solar array has to produce each day.
type GenerationPlan struct {
	EnergyForChargeKwh      float64
	TotalDailyGenerationKwh float64
	RequiredPeakPowerKwc    float64
	PumpPowerKw             float64
}

// PlanGeneration folds battery charging losses and the optimization margin
// into the daily generation target, then converts it to peak power.
func PlanGeneration(dailyEnergyKwh float64, storage *StoragePlan, target OptimizationTarget, irradiationKwhM2 float64, p Params) GenerationPlan {
	var charge float64
	if storage != nil && storage.Battery.RoundTripEfficiencyPercent > 0 {
		charge = dailyEnergyKwh / (storage.Battery.RoundTripEfficiencyPercent / 100)
	}

	total := dailyEnergyKwh + charge
	if target == TargetPerformance {
		total *= p.PerformanceMargin
	}

	var kwc float64
	if irradiationKwhM2 > 0 {
		kwc = total / (irradiationKwhM2 * p.SystemLossFactor)
	}

	return GenerationPlan{
		EnergyForChargeKwh:      charge,
		TotalDailyGenerationKwh: total,
		RequiredPeakPowerKwc:    kwc,
		PumpPowerKw:             kwc * p.PumpToArrayRatio,
	}
}
