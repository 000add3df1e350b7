// internal/irradiation/hourly.go
package irradiation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"solar-pumping-workers/internal/common/metrics"
	"solar-pumping-workers/internal/sizing"
)

// FallbackCurve is the normalized production of 1 kWc per hour of day used
// when hourly data is unavailable.
var FallbackCurve = [24]float64{
	0, 0, 0, 0, 0, 0, 0.05, 0.20, 0.50, 0.80, 0.95, 1.00,
	1.00, 0.95, 0.80, 0.50, 0.20, 0.05, 0, 0, 0, 0, 0, 0,
}

// HourlyProfile is the average production in kW for each hour of the day.
type HourlyProfile struct {
	ProductionKw [24]float64 `json:"hourly_production_kw"`
	IsLive       bool        `json:"is_live"`
}

type pvhourlyResponse struct {
	Outputs struct {
		Hourly []struct {
			Time string  `json:"time"`
			P    float64 `json:"P"`
		} `json:"hourly"`
	} `json:"outputs"`
}

// HourlyProduction averages the PVGIS hourly series of a kwc array per hour
// of day. A provider failure is not an error: the profile falls back to the
// bell curve scaled by kwc.
func (c *Client) HourlyProduction(ctx context.Context, lat, lon, kwc float64) (HourlyProfile, error) {
	if err := ValidateHourlyRequest(lat, lon, kwc); err != nil {
		return HourlyProfile{}, err
	}

	profile, err := c.fetchHourly(ctx, lat, lon, kwc)
	if err != nil {
		c.logger.Warn("PVGIS hourly data unavailable, using fallback curve", map[string]interface{}{
			"lat":   lat,
			"lon":   lon,
			"kwc":   kwc,
			"error": err.Error(),
		})
		metrics.IrradiationLookups.WithLabelValues("hourly", metrics.SourceFallback).Inc()
		return FallbackProfile(kwc), nil
	}
	metrics.IrradiationLookups.WithLabelValues("hourly", metrics.SourceLive).Inc()
	return profile, nil
}

// ValidateHourlyRequest checks the inputs of an hourly profile, live or not.
func ValidateHourlyRequest(lat, lon, kwc float64) error {
	if math.IsNaN(kwc) || math.IsInf(kwc, 0) || kwc <= 0 {
		return fmt.Errorf("%w: kwc must be a finite number > 0", sizing.ErrInvalidInput)
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates out of range", sizing.ErrInvalidInput)
	}
	return nil
}

// FallbackProfile scales FallbackCurve to kwc.
func FallbackProfile(kwc float64) HourlyProfile {
	var p HourlyProfile
	for h, share := range FallbackCurve {
		p.ProductionKw[h] = round2(share * kwc)
	}
	return p
}

var errTooFewHours = errors.New("hourly series shorter than one day")

func (c *Client) fetchHourly(ctx context.Context, lat, lon, kwc float64) (HourlyProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body pvhourlyResponse
	if err := c.http.GetJSON(ctx, c.endpoint("seriescalc", lat, lon, kwc)+"&pvcalculation=1", &body); err != nil {
		return HourlyProfile{}, err
	}
	return averageByHour(body)
}

// averageByHour sums P (W) per hour of day, taken from the "YYYYMMDD:HHMM"
// timestamp, and divides by the number of days.
func averageByHour(body pvhourlyResponse) (HourlyProfile, error) {
	records := body.Outputs.Hourly
	days := float64(len(records)) / 24
	if days < 1 {
		return HourlyProfile{}, errTooFewHours
	}

	var sums [24]float64
	for _, r := range records {
		if len(r.Time) < 11 {
			return HourlyProfile{}, fmt.Errorf("malformed timestamp %q", r.Time)
		}
		hour, err := strconv.Atoi(r.Time[9:11])
		if err != nil || hour < 0 || hour > 23 {
			return HourlyProfile{}, fmt.Errorf("malformed timestamp %q", r.Time)
		}
		sums[hour] += r.P
	}

	p := HourlyProfile{IsLive: true}
	for h, sum := range sums {
		p.ProductionKw[h] = round2(sum / days / 1000)
	}
	return p, nil
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
