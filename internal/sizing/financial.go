// internal/sizing/financial.go
package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FinancialBreakdown carries every intermediate of the cost model, unrounded.
type FinancialBreakdown struct {
	MaterialCost        float64
	InstallationCost    float64
	TotalInvestment     float64
	LifespanYears       int
	AnnualMaintenance   float64
	LifetimeCost        float64
	LifetimeEnergyKwh   float64
	Lcoe                float64
	CostVsDieselPerYear float64
}

// Summary rounds money to cents and the LCOE to a tenth of a cent.
func (b FinancialBreakdown) Summary() Financial {
	return Financial{
		TotalInvestment:     round(b.TotalInvestment, 2),
		Lcoe:                round(b.Lcoe, 3),
		CostVsDieselPerYear: round(b.CostVsDieselPerYear, 2),
	}
}

// MaterialCost prices the panels, the pump and the battery bank.
func MaterialCost(sel Selection, storage *StoragePlan) float64 {
	var batteries float64
	if storage != nil {
		batteries = float64(storage.Quantity) * storage.Battery.Cost
	}
	return float64(sel.PanelQuantity)*sel.Panel.Cost + sel.Pump.Cost + batteries
}

// ComputeFinancials amortizes the investment and maintenance over the
// lifespan (the override when set) and compares the LCOE with diesel.
func ComputeFinancials(materialCost, dailyEnergyKwh float64, a *FinancialAssumptions, lifespanOverride *int) (FinancialBreakdown, error) {
	if a == nil {
		return FinancialBreakdown{}, fmt.Errorf("%w: no financial assumptions configured", ErrMissingAssumptions)
	}

	install := materialCost * a.InstallationFeesPercent / 100
	investment := materialCost + install

	lifespan := a.SystemLifespanYears
	if lifespanOverride != nil {
		lifespan = *lifespanOverride
	}

	maintenance := investment * a.MaintenancePercentPerYear / 100
	lifetimeCost := investment + maintenance*float64(lifespan)
	annualEnergy := dailyEnergyKwh * DaysPerYear
	lifetimeEnergy := annualEnergy * float64(lifespan)

	var lcoe float64
	if lifetimeEnergy > 0 {
		lcoe = lifetimeCost / lifetimeEnergy
	}

	return FinancialBreakdown{
		MaterialCost:        materialCost,
		InstallationCost:    install,
		TotalInvestment:     investment,
		LifespanYears:       lifespan,
		AnnualMaintenance:   maintenance,
		LifetimeCost:        lifetimeCost,
		LifetimeEnergyKwh:   lifetimeEnergy,
		Lcoe:                lcoe,
		CostVsDieselPerYear: (a.CostPerKwhDiesel - lcoe) * annualEnergy,
	}, nil
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
