// internal/common/observability/metrics_test.go
package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestNoop_DoesNotPanic(t *testing.T) {
	o := NewNoop()

	ctx, end := o.StartSpan(context.Background(), "sizing.compute")
	assert.NotNil(t, ctx)
	end(errors.New("NO_PUMP_AVAILABLE"))

	o.RecordJobProcessed(ctx, "compute-sizing", "completed")
	o.RecordJobDuration(ctx, "compute-sizing", 12*time.Millisecond, "completed")
	o.Shutdown()
}

func TestZeroValue_StartSpan(t *testing.T) {
	var o Observability

	ctx, end := o.StartSpan(context.Background(), "sizing.compute")
	defer end(nil)

	assert.False(t, trace.SpanContextFromContext(ctx).IsValid())
}
