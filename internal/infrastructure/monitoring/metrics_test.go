package monitoring

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsCollector_Generation(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.GenerationCompleted(5, 2, 150*time.Millisecond)
	m.GenerationCompleted(3, 0, 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generationsTotal))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.preparationsPlanned))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.unfilledSlotsTotal))
}

func TestMetricsCollector_Labels(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())

	m.LifecycleOperation("move_meal", "ok")
	m.LifecycleOperation("move_meal", "invalid_state")
	m.LifecycleOperation("move_meal", "ok")
	m.CacheLookup("week", true)
	m.CacheLookup("week", false)
	m.ReconcileOperation("add", 4)
	m.JobRun("rollup", 10, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lifecycleOperations.WithLabelValues("move_meal", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lifecycleOperations.WithLabelValues("move_meal", "invalid_state")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheOperations.WithLabelValues("week", "hit")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.reconcileItems.WithLabelValues("add")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.jobUsers.WithLabelValues("rollup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobFailures.WithLabelValues("rollup")))
}

func TestMetricsCollector_SeparateRegistries(t *testing.T) {
	a := NewMetricsCollector(zap.NewNop())
	b := NewMetricsCollector(zap.NewNop())

	a.LifecycleOperation("confirm_meal", "ok")

	assert.Equal(t, 0.0, testutil.ToFloat64(b.lifecycleOperations.WithLabelValues("confirm_meal", "ok")))
}

func TestMetricsCollector_Handler(t *testing.T) {
	m := NewMetricsCollector(zap.NewNop())
	m.GenerationCompleted(1, 0, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mealprep_generations_total 1"))
}

func TestTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(context.Background(), TracingConfig{ServiceName: "mealprep"}, zap.NewNop())
	require.NoError(t, err)

	ctx, span := tp.Tracer().Start(context.Background(), "noop")
	RecordError(ctx, errors.New("boom"))
	span.End()

	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracingProvider_EnabledWithoutExporter(t *testing.T) {
	tp, err := NewTracingProvider(context.Background(), TracingConfig{
		ServiceName:  "mealprep",
		SamplingRate: 1,
		Enabled:      true,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx, span := tp.Tracer().Start(context.Background(), "generate")
	defer span.End()

	assert.NotEmpty(t, TraceIDFromContext(ctx))
	assert.NoError(t, tp.Shutdown(context.Background()))
}
