// internal/irradiation/client.go
package irradiation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	commonhttp "solar-pumping-workers/internal/common/http"
	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/common/metrics"
	"solar-pumping-workers/internal/sizing"
)

const DefaultBaseURL = "https://re.jrc.europa.eu/api"

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	FallbackKwhM2 float64
	LossPercent   float64
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.FallbackKwhM2 <= 0 {
		c.FallbackKwhM2 = sizing.FallbackIrradiationKwhM2
	}
	if c.LossPercent <= 0 {
		c.LossPercent = 14
	}
	return c
}

// Client queries PVGIS for the solar resource of a site. It implements
// sizing.IrradiationLookup.
type Client struct {
	cfg    Config
	http   *commonhttp.Client
	cache  Cache
	logger logger.Logger
}

// NewClient builds a client. cache may be nil.
func NewClient(cfg Config, httpClient *commonhttp.Client, cache Cache, log logger.Logger) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = commonhttp.NewClient(cfg.Timeout)
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		cache:  cache,
		logger: logger.ForComponent(log, "irradiation"),
	}
}

var _ sizing.IrradiationLookup = (*Client)(nil)

type pvcalcResponse struct {
	Outputs struct {
		Totals struct {
			Fixed struct {
				Ed *float64 `json:"E_d"`
			} `json:"fixed"`
		} `json:"totals"`
	} `json:"outputs"`
}

var errNoValue = errors.New("response has no positive outputs.totals.fixed.E_d")

// DailyIrradiation returns the average daily yield of 1 kWc at the site,
// numerically the peak-sun-hours in kWh/m²/day. It never fails: any problem
// yields the fallback value with IsLive=false.
func (c *Client) DailyIrradiation(ctx context.Context, lat, lon float64) sizing.Irradiation {
	if c.cache != nil {
		value, ok, err := c.cache.Get(ctx, lat, lon)
		if err != nil {
			c.logger.Warn("irradiation cache read failed", map[string]interface{}{"error": err.Error()})
		}
		if ok {
			metrics.IrradiationLookups.WithLabelValues("daily", metrics.SourceCache).Inc()
			return sizing.Irradiation{ValueKwhPerM2PerDay: value, IsLive: true}
		}
	}

	value, err := c.fetchDaily(ctx, lat, lon)
	if err != nil {
		c.logger.Warn("PVGIS unavailable, using fallback irradiation", map[string]interface{}{
			"lat":      lat,
			"lon":      lon,
			"fallback": c.cfg.FallbackKwhM2,
			"error":    err.Error(),
		})
		metrics.IrradiationLookups.WithLabelValues("daily", metrics.SourceFallback).Inc()
		return sizing.Irradiation{ValueKwhPerM2PerDay: c.cfg.FallbackKwhM2, IsLive: false}
	}

	metrics.IrradiationLookups.WithLabelValues("daily", metrics.SourceLive).Inc()
	if c.cache != nil {
		if err := c.cache.Set(ctx, lat, lon, value); err != nil {
			c.logger.Warn("irradiation cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return sizing.Irradiation{ValueKwhPerM2PerDay: value, IsLive: true}
}

func (c *Client) fetchDaily(ctx context.Context, lat, lon float64) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body pvcalcResponse
	if err := c.http.GetJSON(ctx, c.endpoint("PVcalc", lat, lon, 1), &body); err != nil {
		return 0, err
	}
	ed := body.Outputs.Totals.Fixed.Ed
	if ed == nil || *ed <= 0 || math.IsNaN(*ed) || math.IsInf(*ed, 0) {
		return 0, errNoValue
	}
	return *ed, nil
}

func (c *Client) endpoint(tool string, lat, lon, peakPower float64) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("peakpower", strconv.FormatFloat(peakPower, 'f', -1, 64))
	q.Set("loss", strconv.FormatFloat(c.cfg.LossPercent, 'f', -1, 64))
	q.Set("outputformat", "json")
	return fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, tool, q.Encode())
}
