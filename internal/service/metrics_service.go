package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/k12-scheduler-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the engine.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	solverRuns     *prometheus.CounterVec
	solverDuration *prometheus.HistogramVec
	solverScore    prometheus.Gauge

	conflictsBySeverity *prometheus.GaugeVec
	matcherFailures     *prometheus.CounterVec
	sisFetchFailures    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solverRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_runs_total",
		Help: "Solver runs by algorithm and outcome",
	}, []string{"algorithm", "outcome"})

	solverDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_duration_seconds",
		Help:    "Wall-clock duration of solver runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	}, []string{"algorithm"})

	solverScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_last_score",
		Help: "Score of the most recent solver run",
	})

	conflictsBySeverity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_conflicts",
		Help: "Conflicts detected on the most recently validated schedule",
	}, []string{"severity"})

	matcherFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_failures_total",
		Help: "Courses the matcher could not bind, by failure code",
	}, []string{"code"})

	sisFetchFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sis_fetch_failures_total",
		Help: "SIS snapshot refreshes that produced no data",
	})

	registry.MustRegister(requestDuration, requestTotal, solverRuns, solverDuration,
		solverScore, conflictsBySeverity, matcherFailures, sisFetchFailures)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		solverRuns:          solverRuns,
		solverDuration:      solverDuration,
		solverScore:         solverScore,
		conflictsBySeverity: conflictsBySeverity,
		matcherFailures:     matcherFailures,
		sisFetchFailures:    sisFetchFailures,
	}
}

// Handler exposes the scrape endpoint.
func (m *MetricsService) Handler() http.Handler {
	return m.handler
}

// ObserveRequest records one HTTP request.
func (m *MetricsService) ObserveRequest(method, path, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveSolverRun records one solver run.
func (m *MetricsService) ObserveSolverRun(algorithm, outcome string, duration time.Duration, score float64) {
	m.solverRuns.WithLabelValues(algorithm, outcome).Inc()
	m.solverDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	m.solverScore.Set(score)
}

// RecordConflictSummary publishes the latest validation severity counts.
func (m *MetricsService) RecordConflictSummary(summary models.ValidationSummary) {
	for _, severity := range []models.ConflictSeverity{
		models.SeverityCritical, models.SeverityHigh, models.SeverityMedium,
		models.SeverityLow, models.SeverityInfo,
	} {
		m.conflictsBySeverity.WithLabelValues(string(severity)).Set(float64(summary.SeverityCounts[severity]))
	}
}

// RecordMatcherFailure counts one unbindable course.
func (m *MetricsService) RecordMatcherFailure(code string) {
	m.matcherFailures.WithLabelValues(code).Inc()
}

// RecordSISFetchFailure counts an empty snapshot refresh.
func (m *MetricsService) RecordSISFetchFailure() {
	m.sisFetchFailures.Inc()
}
