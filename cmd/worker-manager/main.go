// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"solar-pumping-workers/internal/api"
	"solar-pumping-workers/internal/catalog"
	"solar-pumping-workers/internal/common/camunda"
	"solar-pumping-workers/internal/common/config"
	"solar-pumping-workers/internal/common/database"
	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/common/observability"
	"solar-pumping-workers/internal/history"
	"solar-pumping-workers/internal/irradiation"
	"solar-pumping-workers/internal/service"
	"solar-pumping-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.Build(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("Starting worker manager", map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- PostgreSQL (required) ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := database.EnsureSchema(ctx, pg.GetDB()); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	log.Info("PostgreSQL connected successfully", nil)

	checks := map[string]api.ReadinessCheck{"postgres": pg.Ping}

	// --- Redis (optional irradiation cache) ---
	var cache irradiation.Cache
	if cfg.Database.Redis.Enabled() && cfg.Irradiation.CacheTTL > 0 {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 5, 2*time.Second, log, "Redis connection")
		if err != nil {
			log.Warn("Redis unavailable, irradiation lookups will not be cached", map[string]interface{}{"error": err})
		} else {
			defer rc.Close()
			cache = irradiation.NewRedisCache(rc.Client, config.GetDuration(cfg.Irradiation.CacheTTL))
			checks["redis"] = rc.Ping
			log.Info("Redis connected successfully", nil)
		}
	}

	// --- Elasticsearch (optional history index) ---
	var indexer service.Indexer
	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = retryWithBackoff(func() error { return es.Ping(ctx) }, 5, 2*time.Second, log, "Elasticsearch connection")
		}
		if err == nil {
			err = es.EnsureIndex(ctx, cfg.History.Index, history.IndexMapping)
		}
		if err != nil {
			log.Warn("Elasticsearch unavailable, simulations will not be indexed", map[string]interface{}{"error": err})
		} else {
			indexer = history.NewIndexer(es.Client, cfg.History.Index)
			checks["elasticsearch"] = es.Ping
			log.Info("Elasticsearch connected successfully", nil)
		}
	}

	reg, err := registry.LoadOrDefault(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(registry.TaskComputeSizing, registry.TaskHourlyProduction, registry.TaskListHistory); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	irr := irradiation.NewClient(irradiation.Config{
		BaseURL:       cfg.Irradiation.BaseURL,
		Timeout:       config.GetDuration(cfg.Irradiation.Timeout),
		FallbackKwhM2: cfg.Irradiation.FallbackKwhM2,
		LossPercent:   cfg.Irradiation.LossPercent,
	}, nil, cache, log)

	deps := service.Dependencies{
		Catalog:       catalog.NewRepository(pg.GetDB()),
		Irradiation:   irr,
		History:       history.NewStore(pg.GetDB()),
		Observability: obs,
	}
	if indexer != nil {
		deps.Indexer = indexer
	}
	svc := service.NewSizingService(service.Config{
		Params:      cfg.Sizing,
		RecentLimit: cfg.History.RecentLimit,
	}, deps, log)

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	var workers []*camunda.CamundaWorker
	if anyWorkerEnabled(cfg) {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: cfg.Camunda.UsePlaintext,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, log, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = zeebe.HealthCheck
		log.Info("Zeebe client connected successfully", nil)

		workers, err = registerWorkers(cfg, zeebe, svc, reg, obs, log)
		if err != nil {
			zapLog.Fatal("worker registration failed", zap.Error(err))
		}
	} else {
		log.Info("No worker enabled, running the HTTP API only", nil)
	}

	// --- HTTP API ---
	server := api.NewServer(api.Config{
		Address:        cfg.HTTP.Address,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ReadTimeout:    config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout:   config.GetDuration(cfg.HTTP.WriteTimeout),
	}, svc, reg, checks, log)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", map[string]interface{}{"error": err})
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received, stopping workers...", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", map[string]interface{}{"error": err})
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			log.Error("Error closing Zeebe client", map[string]interface{}{"error": err})
		}
	}

	log.Info("Worker manager stopped gracefully", nil)
}

func anyWorkerEnabled(cfg *config.Config) bool {
	for _, taskType := range []string{
		registry.TaskComputeSizing,
		registry.TaskHourlyProduction,
		registry.TaskListHistory,
	} {
		if config.IsWorkerEnabled(cfg, taskType) {
			return true
		}
	}
	return false
}
