// internal/workers/sizing/compute-sizing/models.go
package computesizing

import (
	"context"

	"solar-pumping-workers/internal/history"
	"solar-pumping-workers/internal/sizing"
)

// Input mirrors the process variables of a sizing request.
type Input struct {
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	Volume             float64 `json:"volume"`
	Hmt                float64 `json:"hmt"`
	AutonomyDays       float64 `json:"autonomy_days"`
	OptimizationTarget string  `json:"optimization_target,omitempty"`
	Lifespan           *int    `json:"lifespan,omitempty"`
}

func (in *Input) Request() sizing.SizingRequest {
	return sizing.SizingRequest{
		Latitude:              in.Lat,
		Longitude:             in.Lon,
		WaterVolumeM3:         in.Volume,
		HeadMeters:            in.Hmt,
		AutonomyDays:          in.AutonomyDays,
		OptimizationTarget:    sizing.OptimizationTarget(in.OptimizationTarget),
		LifespanYearsOverride: in.Lifespan,
	}
}

type Output struct {
	SimulationID string              `json:"simulationId"`
	Technical    sizing.Technical    `json:"technical"`
	Financials   sizing.Financial    `json:"financials"`
	Components   sizing.Components   `json:"components"`
	Battery      *sizing.BatteryBank `json:"battery"`
	Warnings     []string            `json:"warnings"`
}

// Service is the part of the sizing service this worker calls.
type Service interface {
	Calculate(ctx context.Context, req sizing.SizingRequest) (*history.Simulation, error)
}
