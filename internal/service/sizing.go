// internal/service/sizing.go
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"solar-pumping-workers/internal/catalog"
	commonerrors "solar-pumping-workers/internal/common/errors"
	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/common/metrics"
	"solar-pumping-workers/internal/common/observability"
	"solar-pumping-workers/internal/history"
	"solar-pumping-workers/internal/irradiation"
	"solar-pumping-workers/internal/sizing"
)

// Irradiation is the part of the PVGIS client the service depends on.
type Irradiation interface {
	sizing.IrradiationLookup
	HourlyProduction(ctx context.Context, lat, lon, kwc float64) (irradiation.HourlyProfile, error)
}

type HistoryStore interface {
	Save(ctx context.Context, req sizing.SizingRequest, result sizing.SizingResult) (*history.Simulation, error)
	Recent(ctx context.Context, limit int) ([]history.Simulation, error)
}

type Indexer interface {
	IndexSimulation(ctx context.Context, sim history.Simulation) error
}

// Dependencies are the collaborators of SizingService. History and Indexer
// may be nil.
type Dependencies struct {
	Catalog       catalog.Source
	Irradiation   Irradiation
	History       HistoryStore
	Indexer       Indexer
	Observability *observability.Observability
}

type Config struct {
	Params      sizing.Params
	RecentLimit int
}

// SizingService runs one sizing per call: it snapshots the catalog, runs the
// engine and records the outcome.
type SizingService struct {
	engine      *sizing.Engine
	deps        Dependencies
	recentLimit int
	logger      logger.Logger
}

func NewSizingService(cfg Config, deps Dependencies, log logger.Logger) *SizingService {
	if deps.Observability == nil {
		deps.Observability = observability.NewNoop()
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = history.DefaultRecentLimit
	}
	return &SizingService{
		engine:      sizing.NewEngine(cfg.Params),
		deps:        deps,
		recentLimit: cfg.RecentLimit,
		logger:      logger.ForComponent(log, "sizing-service"),
	}
}

// Calculate sizes an installation and stores it in the history. Failing to
// persist or index the run is logged and does not fail the computation.
func (s *SizingService) Calculate(ctx context.Context, req sizing.SizingRequest) (sim *history.Simulation, err error) {
	target := "unknown"
	if norm, nerr := sizing.NormalizeRequest(req); nerr == nil {
		req = norm
		target = string(norm.OptimizationTarget)
	}

	ctx, end := s.deps.Observability.StartSpan(ctx, "sizing.calculate",
		attribute.String("target", target),
		attribute.Float64("lat", req.Latitude),
		attribute.Float64("lon", req.Longitude),
	)
	defer func() { end(err) }()

	result, err := s.compute(ctx, req)
	if err != nil {
		metrics.ObserveSizing(target, string(commonerrors.Normalize(err).Code), 0)
		return nil, err
	}
	metrics.ObserveSizing(target, "", result.Technical.RequiredPeakPowerKwc)

	s.logger.Info("Sizing computed", map[string]interface{}{
		"target":       target,
		"peakPowerKwc": result.Technical.RequiredPeakPowerKwc,
		"panels":       result.Components.PanelQuantity,
		"pump":         result.Components.PumpModel,
		"lcoe":         result.Financial.Lcoe,
		"warnings":     result.Warnings,
	})

	return s.record(ctx, req, *result), nil
}

func (s *SizingService) compute(ctx context.Context, req sizing.SizingRequest) (*sizing.SizingResult, error) {
	// Catch bad input before touching the database.
	if _, err := sizing.NormalizeRequest(req); err != nil {
		return nil, err
	}

	snapshot, err := s.deps.Catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	assumptions, err := s.deps.Catalog.Assumptions(ctx)
	if err != nil {
		return nil, err
	}

	var lookup sizing.IrradiationLookup = sizing.Offline
	if s.deps.Irradiation != nil {
		lookup = s.deps.Irradiation
	}
	return s.engine.Compute(ctx, req, *snapshot, assumptions, lookup)
}

func (s *SizingService) record(ctx context.Context, req sizing.SizingRequest, result sizing.SizingResult) *history.Simulation {
	if s.deps.History == nil {
		sim := history.NewSimulation(req, result, time.Now())
		return &sim
	}

	sim, err := s.deps.History.Save(ctx, req, result)
	if err != nil {
		s.logger.Warn("Failed to save simulation", map[string]interface{}{"error": err})
		unsaved := history.NewSimulation(req, result, time.Now())
		return &unsaved
	}

	if s.deps.Indexer != nil {
		if err := s.deps.Indexer.IndexSimulation(ctx, *sim); err != nil {
			s.logger.Warn("Failed to index simulation", map[string]interface{}{
				"simulationId": sim.ID,
				"error":        err,
			})
		}
	}
	return sim
}

// HourlyProduction returns the average production per hour of day of a
// kwc-sized array at the site.
func (s *SizingService) HourlyProduction(ctx context.Context, lat, lon, kwc float64) (irradiation.HourlyProfile, error) {
	if err := irradiation.ValidateHourlyRequest(lat, lon, kwc); err != nil {
		return irradiation.HourlyProfile{}, err
	}
	if s.deps.Irradiation == nil {
		return irradiation.FallbackProfile(kwc), nil
	}

	ctx, end := s.deps.Observability.StartSpan(ctx, "sizing.hourly_production")
	profile, err := s.deps.Irradiation.HourlyProduction(ctx, lat, lon, kwc)
	end(err)
	return profile, err
}

// History lists the latest simulations, newest first.
func (s *SizingService) History(ctx context.Context, limit int) ([]history.Simulation, error) {
	if s.deps.History == nil {
		return []history.Simulation{}, nil
	}
	if limit <= 0 {
		limit = s.recentLimit
	}
	return s.deps.History.Recent(ctx, limit)
}
