package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection for the planner.
// Each collector owns its registry so several can live in one process.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Generation metrics
	generationsTotal    prometheus.Counter
	generationDuration  prometheus.Histogram
	preparationsPlanned prometheus.Counter
	unfilledSlotsTotal  prometheus.Counter

	// Lifecycle metrics
	lifecycleOperations *prometheus.CounterVec

	// Shopping reconciliation metrics
	reconcileItems *prometheus.CounterVec

	// Cache metrics
	cacheOperations *prometheus.CounterVec

	// Job metrics
	jobRuns     *prometheus.CounterVec
	jobUsers    *prometheus.GaugeVec
	jobFailures *prometheus.CounterVec
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		logger:   logger,
		registry: registry,

		generationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mealprep_generations_total",
				Help: "Total number of schedule generations",
			},
		),
		generationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mealprep_generation_duration_seconds",
				Help:    "Schedule generation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		preparationsPlanned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mealprep_preparations_planned_total",
				Help: "Total number of preparations created by generation",
			},
		),
		unfilledSlotsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mealprep_unfilled_slots_total",
				Help: "Generator slots left empty because no recipe qualified",
			},
		),
		lifecycleOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealprep_lifecycle_operations_total",
				Help: "Schedule lifecycle operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		reconcileItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealprep_shopping_reconcile_items_total",
				Help: "Shopping list rows written by reconciliation",
			},
			[]string{"operation"},
		),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealprep_cache_operations_total",
				Help: "Cache lookups by cache and status",
			},
			[]string{"cache", "status"},
		),
		jobRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealprep_job_runs_total",
				Help: "Background job runs",
			},
			[]string{"job"},
		),
		jobUsers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mealprep_job_users",
				Help: "Users processed by the last job run",
			},
			[]string{"job"},
		),
		jobFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mealprep_job_failures_total",
				Help: "Per-user failures during job runs",
			},
			[]string{"job"},
		),
	}
}

// GenerationCompleted records one finished generation
func (m *MetricsCollector) GenerationCompleted(preparations, unfilled int, elapsed time.Duration) {
	m.generationsTotal.Inc()
	m.generationDuration.Observe(elapsed.Seconds())
	m.preparationsPlanned.Add(float64(preparations))
	m.unfilledSlotsTotal.Add(float64(unfilled))
}

func (m *MetricsCollector) LifecycleOperation(operation, outcome string) {
	m.lifecycleOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *MetricsCollector) ReconcileOperation(operation string, items int) {
	m.reconcileItems.WithLabelValues(operation).Add(float64(items))
}

func (m *MetricsCollector) CacheLookup(cache string, hit bool) {
	status := "miss"
	if hit {
		status = "hit"
	}
	m.cacheOperations.WithLabelValues(cache, status).Inc()
}

// JobRun records a job pass over users, failures of which were skipped
func (m *MetricsCollector) JobRun(job string, users, failures int) {
	m.jobRuns.WithLabelValues(job).Inc()
	m.jobUsers.WithLabelValues(job).Set(float64(users))
	m.jobFailures.WithLabelValues(job).Add(float64(failures))
	if failures > 0 {
		m.logger.Warn("Job finished with failures",
			zap.String("job", job),
			zap.Int("users", users),
			zap.Int("failures", failures),
		)
	}
}

// Registry exposes the collector's registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
