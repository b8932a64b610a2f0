package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	sessionsStarted prometheus.Counter
	sessionsApplied prometheus.Counter
	conflictsRaised prometheus.Counter
	applyDiffSize   prometheus.Histogram
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

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	sessionsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_sessions_started_total",
		Help: "Total scheduling sessions opened",
	})

	sessionsApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_sessions_applied_total",
		Help: "Total scheduling sessions committed",
	})

	conflictsRaised := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_conflicts_total",
		Help: "Total series routed to manual conflict resolution",
	})

	applyDiffSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_apply_diff_size",
		Help:    "Number of attendance mutations per applied session",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses,
		sessionsStarted, sessionsApplied, conflictsRaised, applyDiffSize, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		sessionsStarted: sessionsStarted,
		sessionsApplied: sessionsApplied,
		conflictsRaised: conflictsRaised,
		applyDiffSize:   applyDiffSize,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RecordSessionStarted counts an opened scheduling session and the conflicts
// it surfaced.
func (m *MetricsService) RecordSessionStarted(conflicts int) {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
	m.conflictsRaised.Add(float64(conflicts))
}

// RecordSessionApplied counts a committed session and its diff size.
func (m *MetricsService) RecordSessionApplied(added, removed int) {
	if m == nil {
		return
	}
	m.sessionsApplied.Inc()
	m.applyDiffSize.Observe(float64(added + removed))
}
