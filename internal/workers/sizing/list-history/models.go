// internal/workers/sizing/list-history/models.go
package listhistory

import (
	"context"
	"time"

	"solar-pumping-workers/internal/history"
)

type Input struct {
	Limit int `json:"limit,omitempty"`
}

type SimulationSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	PeakPowerKwc float64   `json:"peakPowerKwc"`
	Investment   float64   `json:"totalInvestment"`
	Lcoe         float64   `json:"lcoe"`
}

type Output struct {
	Simulations []SimulationSummary `json:"simulations"`
	Count       int                 `json:"count"`
}

type Service interface {
	History(ctx context.Context, limit int) ([]history.Simulation, error)
}

func summarize(sim history.Simulation) SimulationSummary {
	return SimulationSummary{
		ID:           sim.ID,
		Name:         sim.Name,
		CreatedAt:    sim.CreatedAt,
		Latitude:     sim.Request.Latitude,
		Longitude:    sim.Request.Longitude,
		PeakPowerKwc: sim.Result.Technical.RequiredPeakPowerKwc,
		Investment:   sim.Result.Financial.TotalInvestment,
		Lcoe:         sim.Result.Financial.Lcoe,
	}
}

