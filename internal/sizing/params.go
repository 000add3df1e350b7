// internal/sizing/params.go
package sizing

const (
	WaterDensityKgM3 = 1000.0
	GravityMS2       = 9.81
	JoulesPerKwh     = 3.6e6
	DaysPerYear      = 365

	// FallbackIrradiationKwhM2 is substituted when the irradiation provider is unavailable.
	FallbackIrradiationKwhM2 = 5.0

	WarningDegradedIrradiation = "DEGRADED_IRRADIATION"
)

// Params holds the engineering heuristics of the sizing chain. They are
// configuration, not physics: BudgetMinPanelWatt in particular only reflects
// the shape of the catalog the cost policy was written against.
type Params struct {
	PumpEfficiency     float64 `mapstructure:"pump_efficiency"`
	SystemLossFactor   float64 `mapstructure:"system_loss_factor"`
	PerformanceMargin  float64 `mapstructure:"performance_margin"`
	PumpToArrayRatio   float64 `mapstructure:"pump_to_array_ratio"`
	BudgetMinPanelWatt int     `mapstructure:"budget_min_panel_watt"`
}

func DefaultParams() Params {
	return Params{
		PumpEfficiency:     0.4,
		SystemLossFactor:   0.75,
		PerformanceMargin:  1.15,
		PumpToArrayRatio:   0.8,
		BudgetMinPanelWatt: 250,
	}
}

// WithDefaults fills unset (zero or negative) fields from DefaultParams.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.PumpEfficiency <= 0 {
		p.PumpEfficiency = d.PumpEfficiency
	}
	if p.SystemLossFactor <= 0 {
		p.SystemLossFactor = d.SystemLossFactor
	}
	if p.PerformanceMargin <= 0 {
		p.PerformanceMargin = d.PerformanceMargin
	}
	if p.PumpToArrayRatio <= 0 {
		p.PumpToArrayRatio = d.PumpToArrayRatio
	}
	if p.BudgetMinPanelWatt < 0 {
		p.BudgetMinPanelWatt = d.BudgetMinPanelWatt
	}
	return p
}
