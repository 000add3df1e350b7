// internal/sizing/energy.go
package sizing

// EnergyDemand is the daily energy balance of lifting the requested water volume.
type EnergyDemand struct {
	HydraulicEnergyJ  float64
	ElectricalEnergyJ float64
	DailyEnergyKwh    float64
}

// ComputeEnergyDemand converts hydraulic work (rho*g*V*H) into the electrical
// energy the pump draws per day. Zero volume or head yields zero demand.
func ComputeEnergyDemand(volumeM3, headMeters, pumpEfficiency float64) EnergyDemand {
	hydraulic := WaterDensityKgM3 * GravityMS2 * volumeM3 * headMeters
	electrical := hydraulic / pumpEfficiency
	return EnergyDemand{
		HydraulicEnergyJ:  hydraulic,
		ElectricalEnergyJ: electrical,
		DailyEnergyKwh:    electrical / JoulesPerKwh,
	}
}
