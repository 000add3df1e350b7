// internal/workers/sizing/list-history/handler.go
package listhistory

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"solar-pumping-workers/internal/common/errors"
	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/common/metrics"
	"solar-pumping-workers/internal/common/validation"
	"solar-pumping-workers/pkg/registry"
)

const TaskType = registry.TaskListHistory

type Handler struct {
	config       *Config
	service      Service
	schema       map[string]interface{}
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

type HandlerOptions struct {
	Config   *Config
	Service  Service
	Registry *registry.ActivityRegistry
	Logger   logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("%s: service is required", TaskType)
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		service:      opts.Service,
		schema:       reg.InputSchemaFor(TaskType),
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	result, err := validation.ValidateAndDecode(mustVariables(job), h.schema, &input)
	if err == nil && !result.Valid {
		err = errors.NewInputValidationFailedError(result.Summary())
	}
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, &input)
	}
	if err != nil {
		stdErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		return nil
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete command: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send complete command: %w", err)
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	return nil
}

// mustVariables treats unreadable variables as an empty input; the limit is
// optional.
func mustVariables(job entities.Job) map[string]interface{} {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return map[string]interface{}{}
	}
	return vars
}

// Execute lists the latest simulations, newest first.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	limit := 0
	if input != nil {
		limit = input.Limit
	}

	sims, err := h.service.History(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := &Output{Simulations: make([]SimulationSummary, len(sims)), Count: len(sims)}
	for i, sim := range sims {
		out.Simulations[i] = summarize(sim)
	}
	return out, nil
}
