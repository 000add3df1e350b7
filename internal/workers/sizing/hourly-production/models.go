// internal/workers/sizing/hourly-production/models.go
package hourlyproduction

import (
	"context"

	"solar-pumping-workers/internal/irradiation"
)

type Input struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Kwc float64 `json:"kwc"`
}

type Output struct {
	HourlyProductionKw []float64 `json:"hourlyProductionKw"`
	IsLive             bool      `json:"isLive"`
}

type Service interface {
	HourlyProduction(ctx context.Context, lat, lon, kwc float64) (irradiation.HourlyProfile, error)
}
