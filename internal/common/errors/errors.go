// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"solar-pumping-workers/internal/sizing"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Sizing engine errors. The codes are the ones the engine sentinels carry.
const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeNoBatteryAvailable ErrorCode = "NO_BATTERY_AVAILABLE"
	ErrCodeNoPanelAvailable   ErrorCode = "NO_PANEL_AVAILABLE"
	ErrCodeNoPumpAvailable    ErrorCode = "NO_PUMP_AVAILABLE"
	ErrCodeMissingAssumptions ErrorCode = "MISSING_ASSUMPTIONS"
)

// Infrastructure and worker errors.
const (
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeCatalogLoadFailed        ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeHistorySaveFailed        ErrorCode = "HISTORY_SAVE_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeIndexingFailed                ErrorCode = "INDEXING_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the error the StandardError was built from, if any.
func (e *StandardError) Unwrap() error { return e.cause }

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewInvalidInputError creates a non-retryable request error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid sizing request", details, false, nil)
}

// NewInputValidationFailedError reports job variables rejected by the activity schema.
func NewInputValidationFailedError(details string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Input does not match the activity schema", details, false, nil)
}

func NewNoBatteryAvailableError(details string) *StandardError {
	return newError(ErrCodeNoBatteryAvailable, "Autonomy requested but no battery in catalog", details, false, nil)
}

func NewNoPanelAvailableError(details string) *StandardError {
	return newError(ErrCodeNoPanelAvailable, "No solar panel satisfies the selection policy", details, false, nil)
}

func NewNoPumpAvailableError(details string) *StandardError {
	return newError(ErrCodeNoPumpAvailable, "No pump meets the required power", details, false, nil)
}

func NewMissingAssumptionsError(details string) *StandardError {
	return newError(ErrCodeMissingAssumptions, "Financial assumptions are not configured", details, false, nil)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", detailsOf(err), true, err)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", query, detailsOf(err)), true, err)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(query string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("query: %s", query), true, nil)
}

// NewCatalogLoadFailedError reports a catalog or assumptions snapshot that could not be read.
func NewCatalogLoadFailedError(err error) *StandardError {
	return newError(ErrCodeCatalogLoadFailed, "Failed to load equipment catalog", detailsOf(err), true, err)
}

func NewHistorySaveFailedError(err error) *StandardError {
	return newError(ErrCodeHistorySaveFailed, "Failed to persist simulation", detailsOf(err), true, err)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", detailsOf(err), true, err)
}

func NewIndexingFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Failed to index document",
		fmt.Sprintf("index: %s, error: %s", index, detailsOf(err)), true, err)
}

// NewExternalServiceError wraps a transient failure of a collaborator (broker, API).
func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), detailsOf(err), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), detailsOf(err), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), false, err)
}

// FromSizingError maps an engine sentinel to its StandardError. A wrapped
// StandardError is returned as is; anything else comes back as nil.
func FromSizingError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	var out *StandardError
	switch {
	case stderrors.Is(err, sizing.ErrInvalidInput):
		out = NewInvalidInputError(err.Error())
	case stderrors.Is(err, sizing.ErrNoBatteryAvailable):
		out = NewNoBatteryAvailableError(err.Error())
	case stderrors.Is(err, sizing.ErrNoPanelAvailable):
		out = NewNoPanelAvailableError(err.Error())
	case stderrors.Is(err, sizing.ErrNoPumpAvailable):
		out = NewNoPumpAvailableError(err.Error())
	case stderrors.Is(err, sizing.ErrMissingAssumptions):
		out = NewMissingAssumptionsError(err.Error())
	default:
		return nil
	}
	out.cause = err
	return out
}

// Normalize always returns a StandardError: engine sentinels are mapped, other
// StandardErrors are unwrapped and anything else becomes INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr := FromSizingError(err); stdErr != nil {
		return stdErr
	}
	return NewInternalError(err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. They are
// identical except for the schema failure, which the process models treat
// as a plain invalid input.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:                  "INVALID_INPUT",
	ErrCodeInputValidationFailed:         "INVALID_INPUT",
	ErrCodeNoBatteryAvailable:            "NO_BATTERY_AVAILABLE",
	ErrCodeNoPanelAvailable:              "NO_PANEL_AVAILABLE",
	ErrCodeNoPumpAvailable:               "NO_PUMP_AVAILABLE",
	ErrCodeMissingAssumptions:            "MISSING_ASSUMPTIONS",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeCatalogLoadFailed:             "CATALOG_LOAD_FAILED",
	ErrCodeHistorySaveFailed:             "HISTORY_SAVE_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeIndexingFailed:                "INDEXING_FAILED",
	ErrCodeExternalService:               "EXTERNAL_SERVICE_ERROR",
	ErrCodeTimeout:                       "TIMEOUT_ERROR",
	ErrCodeInternal:                      "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeCatalogLoadFailed,
		ErrCodeHistorySaveFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeIndexingFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeQueryTimeout, ErrCodeTimeout:
		return 2

	default:
		// request and catalog configuration errors
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// IsConfigurationError reports codes caused by the request or by the catalog
// contents rather than by infrastructure.
func IsConfigurationError(code ErrorCode) bool {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInputValidationFailed,
		ErrCodeNoBatteryAvailable, ErrCodeNoPanelAvailable,
		ErrCodeNoPumpAvailable, ErrCodeMissingAssumptions:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "NO_") || code == ErrCodeMissingAssumptions:
		return "CATALOG"
	case strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") ||
		strings.Contains(codeStr, "CATALOG") || strings.Contains(codeStr, "HISTORY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	default:
		return "OTHER"
	}
}
