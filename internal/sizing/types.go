// internal/sizing/types.go
package sizing

import "strings"

// OptimizationTarget selects the component policy and the design margin.
type OptimizationTarget string

const (
	TargetCost        OptimizationTarget = "cost"
	TargetPerformance OptimizationTarget = "performance"
)

// ParseTarget accepts "cost", "budget" (legacy name of the cost policy) and
// "performance". An empty value means performance.
func ParseTarget(s string) (OptimizationTarget, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "performance":
		return TargetPerformance, true
	case "cost", "budget":
		return TargetCost, true
	default:
		return "", false
	}
}

type SizingRequest struct {
	Latitude              float64            `json:"lat"`
	Longitude             float64            `json:"lon"`
	WaterVolumeM3         float64            `json:"volume"`
	HeadMeters            float64            `json:"hmt"`
	AutonomyDays          float64            `json:"autonomy_days"`
	OptimizationTarget    OptimizationTarget `json:"optimization_target"`
	LifespanYearsOverride *int               `json:"lifespan,omitempty"`
}

// FinancialAssumptions is the global cost model. It is read once per
// computation and never mutated by the engine.
type FinancialAssumptions struct {
	CostPerKwcSolar           float64 `json:"cost_per_kwc_solar" yaml:"cost_per_kwc_solar"`
	CostPerKwPump             float64 `json:"cost_per_kw_pump" yaml:"cost_per_kw_pump"`
	InstallationFeesPercent   float64 `json:"installation_fees_percent" yaml:"installation_fees_percent"`
	MaintenancePercentPerYear float64 `json:"maintenance_percent_per_year" yaml:"maintenance_percent_per_year"`
	CostPerKwhGrid            float64 `json:"cost_per_kwh_grid" yaml:"cost_per_kwh_grid"`
	CostPerKwhDiesel          float64 `json:"cost_per_kwh_diesel" yaml:"cost_per_kwh_diesel"`
	SystemLifespanYears       int     `json:"system_lifespan_years" yaml:"system_lifespan_years"`
	DiscountRatePercent       float64 `json:"discount_rate_percent" yaml:"discount_rate_percent"`
}

// DefaultAssumptions returns the values a fresh installation starts with.
func DefaultAssumptions() FinancialAssumptions {
	return FinancialAssumptions{
		CostPerKwcSolar:           1200,
		CostPerKwPump:             500,
		InstallationFeesPercent:   15,
		MaintenancePercentPerYear: 1.5,
		CostPerKwhGrid:            0.14,
		CostPerKwhDiesel:          0.45,
		SystemLifespanYears:       25,
		DiscountRatePercent:       5,
	}
}

type Panel struct {
	ID         int64   `json:"id" yaml:"id"`
	Brand      string  `json:"brand" yaml:"brand"`
	Model      string  `json:"model" yaml:"model"`
	PowerWatt  int     `json:"power_watt" yaml:"power_watt"`
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
	Cost       float64 `json:"cost" yaml:"cost"`
}

func (p Panel) DisplayName() string { return displayName(p.Brand, p.Model) }

type Pump struct {
	ID             int64   `json:"id" yaml:"id"`
	Brand          string  `json:"brand" yaml:"brand"`
	Model          string  `json:"model" yaml:"model"`
	PowerKw        float64 `json:"power_kw" yaml:"power_kw"`
	MaxFlowRateM3H float64 `json:"max_flow_rate_m3_h" yaml:"max_flow_rate_m3_h"`
	MaxHmt         float64 `json:"max_hmt" yaml:"max_hmt"`
	Cost           float64 `json:"cost" yaml:"cost"`
}

func (p Pump) DisplayName() string { return displayName(p.Brand, p.Model) }

type Battery struct {
	ID                         int64   `json:"id" yaml:"id"`
	Brand                      string  `json:"brand" yaml:"brand"`
	Model                      string  `json:"model" yaml:"model"`
	Voltage                    int     `json:"voltage" yaml:"voltage"`
	CapacityAh                 int     `json:"capacity_ah" yaml:"capacity_ah"`
	DepthOfDischargePercent    float64 `json:"dod_percent" yaml:"dod_percent"`
	RoundTripEfficiencyPercent float64 `json:"efficiency_percent" yaml:"efficiency_percent"`
	Cost                       float64 `json:"cost" yaml:"cost"`
}

func (b Battery) DisplayName() string { return displayName(b.Brand, b.Model) }

// CapacityKwh is the rated energy of one unit.
func (b Battery) CapacityKwh() float64 {
	return float64(b.Voltage) * float64(b.CapacityAh) / 1000
}

// UsableCapacityKwh is the rated energy limited by the depth of discharge.
func (b Battery) UsableCapacityKwh() float64 {
	return b.CapacityKwh() * b.DepthOfDischargePercent / 100
}

// Catalog is an immutable snapshot of the parts available for selection.
type Catalog struct {
	Panels    []Panel   `json:"panels" yaml:"panels"`
	Pumps     []Pump    `json:"pumps" yaml:"pumps"`
	Batteries []Battery `json:"batteries" yaml:"batteries"`
}

// Irradiation is the daily solar resource for a site. IsLive is false when
// the provider could not be reached and the fallback value was substituted.
type Irradiation struct {
	ValueKwhPerM2PerDay float64 `json:"value"`
	IsLive              bool    `json:"is_live"`
}

type Technical struct {
	RequiredPeakPowerKwc  float64 `json:"required_peak_power_kwc"`
	PumpPowerKw           float64 `json:"pump_power_kw"`
	LocalIrradiationKwhM2 float64 `json:"local_irradiation_kwh_m2"`
	DailyEnergyKwh        float64 `json:"daily_energy_kwh"`
	IrradiationIsLive     bool    `json:"irradiation_is_live"`
}

type Financial struct {
	TotalInvestment     float64 `json:"total_investment"`
	Lcoe                float64 `json:"lcoe"`
	CostVsDieselPerYear float64 `json:"cost_vs_diesel_per_year"`
}

type Components struct {
	PanelModel     string  `json:"panel_model"`
	PanelPowerWatt int     `json:"panel_power_watt"`
	PanelQuantity  int     `json:"panel_quantity"`
	PumpModel      string  `json:"pump_model"`
	PumpPowerKw    float64 `json:"pump_power_kw"`
}

type BatteryBank struct {
	Model             string  `json:"model"`
	Quantity          int     `json:"quantity"`
	TotalCapacityKwh  float64 `json:"total_capacity_kwh"`
	UsableCapacityKwh float64 `json:"usable_capacity_kwh"`
}

type SizingResult struct {
	Technical  Technical    `json:"technical"`
	Financial  Financial    `json:"financials"`
	Components Components   `json:"components"`
	Battery    *BatteryBank `json:"battery"`
	Warnings   []string     `json:"warnings,omitempty"`
}

func displayName(brand, model string) string {
	return strings.TrimSpace(brand + " " + model)
}
