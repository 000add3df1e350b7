// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solar-pumping-workers/internal/sizing"
)

func TestFromSizingError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "invalid input", err: fmt.Errorf("%w: volume must be >= 0", sizing.ErrInvalidInput), wantCode: ErrCodeInvalidInput},
		{name: "no battery", err: sizing.ErrNoBatteryAvailable, wantCode: ErrCodeNoBatteryAvailable},
		{name: "no panel", err: fmt.Errorf("wrapped: %w", sizing.ErrNoPanelAvailable), wantCode: ErrCodeNoPanelAvailable},
		{name: "no pump", err: sizing.ErrNoPumpAvailable, wantCode: ErrCodeNoPumpAvailable},
		{name: "missing assumptions", err: sizing.ErrMissingAssumptions, wantCode: ErrCodeMissingAssumptions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromSizingError(tt.err)
			require.NotNil(t, stdErr)

			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.False(t, stdErr.Retryable)
			assert.Equal(t, tt.err.Error(), stdErr.Details)
			assert.True(t, IsConfigurationError(stdErr.Code))
			assert.Zero(t, GetRetryCount(stdErr.Code))
			assert.True(t, stderrors.Is(stdErr, tt.err))
		})
	}
}

func TestFromSizingError_Foreign(t *testing.T) {
	assert.Nil(t, FromSizingError(nil))
	assert.Nil(t, FromSizingError(fmt.Errorf("connection refused")))

	existing := NewCatalogLoadFailedError(fmt.Errorf("boom"))
	assert.Same(t, existing, FromSizingError(fmt.Errorf("snapshot: %w", existing)))
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	stdErr := Normalize(fmt.Errorf("unexpected"))
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.Equal(t, "unexpected", stdErr.Details)

	stdErr = Normalize(sizing.ErrNoPumpAvailable)
	assert.Equal(t, ErrCodeNoPumpAvailable, stdErr.Code)
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewCatalogLoadFailedError(fmt.Errorf("relation does not exist")))
	assert.Equal(t, "CATALOG_LOAD_FAILED", bpmn.Code)
	assert.True(t, bpmn.Retryable)
	assert.Equal(t, 3, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "CATALOG_LOAD_FAILED", vars["errorCode"])
	assert.Equal(t, "CATALOG_LOAD_FAILED", vars["originalErrorCode"])
	assert.Contains(t, vars, "timestamp")

	bpmn = ConvertToBPMNError(NewInputValidationFailedError("lat: is required"))
	assert.Equal(t, "INVALID_INPUT", bpmn.Code)
	assert.Zero(t, bpmn.Retries)
}

func TestRemainingRetries(t *testing.T) {
	assert.Equal(t, int32(2), RemainingRetries(3, 3))
	assert.Equal(t, int32(3), RemainingRetries(10, 3))
	assert.Equal(t, int32(0), RemainingRetries(1, 3))
	assert.Equal(t, int32(0), RemainingRetries(0, 3))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeNoPanelAvailable))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeMissingAssumptions))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeHistorySaveFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexingFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
