// internal/workers/sizing/compute-sizing/handler_test.go
package computesizing

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"solar-pumping-workers/internal/common/config"
	"solar-pumping-workers/internal/common/errors"
	"solar-pumping-workers/internal/common/logger"
	"solar-pumping-workers/internal/history"
	"solar-pumping-workers/internal/sizing"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockService struct {
	mock.Mock
}

func (m *MockService) Calculate(ctx context.Context, req sizing.SizingRequest) (*history.Simulation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Simulation), args.Error(1)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "pumping-project-sizing",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_ComputeSizing",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}
	return entities.Job{ActivatedJob: activatedJob}
}

// ==========================
// Test Helpers
// ==========================

func newTestHandler(t *testing.T, svc Service) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Config:  DefaultConfig(),
		Service: svc,
		Logger:  logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func createSimulation() *history.Simulation {
	return &history.Simulation{
		ID:        "0d8f6a1e-5a8e-4f2b-9d55-3a2c1b7f9e10",
		Name:      "Project at 6.37, 2.39",
		CreatedAt: time.Now().UTC(),
		Result: sizing.SizingResult{
			Technical:  sizing.Technical{RequiredPeakPowerKwc: 4.55, PumpPowerKw: 3.64, DailyEnergyKwh: 6.81},
			Financial:  sizing.Financial{TotalInvestment: 9876.5, Lcoe: 0.161, CostVsDieselPerYear: 718.77},
			Components: sizing.Components{PanelModel: "Helio H-400", PanelPowerWatt: 400, PanelQuantity: 12, PumpModel: "Aqua A-5500", PumpPowerKw: 5.5},
			Battery:    &sizing.BatteryBank{Model: "Volt V-200", Quantity: 12, TotalCapacityKwh: 28.8, UsableCapacityKwh: 14.4},
		},
	}
}

func validVariables() map[string]interface{} {
	return map[string]interface{}{
		"lat":                 6.37,
		"lon":                 2.39,
		"volume":              50,
		"hmt":                 20,
		"autonomy_days":       2,
		"optimization_target": "performance",
		"lifespan":            20,
	}
}

// ==========================
// Handler Creation Tests
// ==========================

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Service: new(MockService), Logger: logger.NewNoOpLogger()})
	assert.NoError(t, err)

	_, err = NewHandler(HandlerOptions{Logger: logger.NewNoOpLogger()})
	assert.Error(t, err)

	_, err = NewHandler(HandlerOptions{
		Config:  &Config{Enabled: true, MaxJobsActive: 5},
		Service: new(MockService),
		Logger:  logger.NewNoOpLogger(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 8, Timeout: 45000, MaxRetries: 2},
	}}

	c := FromAppConfig(cfg)
	assert.True(t, c.Enabled)
	assert.Equal(t, 8, c.MaxJobsActive)
	assert.Equal(t, 45*time.Second, c.Timeout)
	assert.NoError(t, c.Validate())

	assert.False(t, FromAppConfig(&config.Config{}).Enabled)
}

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput(t *testing.T) {
	h := newTestHandler(t, new(MockService))

	input, err := h.parseInput(createMockJob(1, validVariables()))
	require.NoError(t, err)

	assert.Equal(t, 6.37, input.Lat)
	assert.Equal(t, 50.0, input.Volume)
	assert.Equal(t, 2.0, input.AutonomyDays)
	require.NotNil(t, input.Lifespan)
	assert.Equal(t, 20, *input.Lifespan)

	req := input.Request()
	assert.Equal(t, sizing.TargetPerformance, req.OptimizationTarget)
	assert.Equal(t, 20.0, req.HeadMeters)
}

func TestParseInput_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		field  string
	}{
		{name: "missing latitude", mutate: func(v map[string]interface{}) { delete(v, "lat") }, field: "lat"},
		{name: "negative head", mutate: func(v map[string]interface{}) { v["hmt"] = -3 }, field: "hmt"},
		{name: "string volume", mutate: func(v map[string]interface{}) { v["volume"] = "fifty" }, field: "volume"},
		{name: "unknown target", mutate: func(v map[string]interface{}) { v["optimization_target"] = "speed" }, field: "optimization_target"},
		{name: "fractional lifespan", mutate: func(v map[string]interface{}) { v["lifespan"] = 2.5 }, field: "lifespan"},
	}

	h := newTestHandler(t, new(MockService))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars := validVariables()
			tt.mutate(vars)

			_, err := h.parseInput(createMockJob(2, vars))
			require.Error(t, err)

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, errors.ErrCodeInputValidationFailed, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.field)
			assert.Equal(t, "INVALID_INPUT", errors.ConvertToBPMNError(stdErr).Code)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestExecute_Success(t *testing.T) {
	svc := new(MockService)
	svc.On("Calculate", mock.Anything, mock.MatchedBy(func(req sizing.SizingRequest) bool {
		return req.AutonomyDays == 2 && req.WaterVolumeM3 == 50
	})).Return(createSimulation(), nil)

	h := newTestHandler(t, svc)
	input, err := h.parseInput(createMockJob(3, validVariables()))
	require.NoError(t, err)

	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "0d8f6a1e-5a8e-4f2b-9d55-3a2c1b7f9e10", out.SimulationID)
	assert.Equal(t, 4.55, out.Technical.RequiredPeakPowerKwc)
	require.NotNil(t, out.Battery)
	assert.Equal(t, 12, out.Battery.Quantity)
	assert.Empty(t, out.Warnings)
	assert.NotNil(t, out.Warnings)
	svc.AssertExpectations(t)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"simulationId"`)
	assert.Contains(t, string(raw), `"financials"`)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  errors.ErrorCode
		retryable bool
	}{
		{name: "no battery", err: fmt.Errorf("%w: catalog has no battery", sizing.ErrNoBatteryAvailable), wantCode: errors.ErrCodeNoBatteryAvailable},
		{name: "missing assumptions", err: sizing.ErrMissingAssumptions, wantCode: errors.ErrCodeMissingAssumptions},
		{name: "catalog unavailable", err: errors.NewCatalogLoadFailedError(stderrors.New("timeout")), wantCode: errors.ErrCodeCatalogLoadFailed, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			svc.On("Calculate", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := newTestHandler(t, svc).Execute(context.Background(), &Input{Lat: 6.37, Lon: 2.39, Volume: 50, Hmt: 20})
			require.Error(t, err)

			stdErr := errors.Normalize(err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestExecute_NilInput(t *testing.T) {
	_, err := newTestHandler(t, new(MockService)).Execute(context.Background(), nil)
	assert.Error(t, err)
}
