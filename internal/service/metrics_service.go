package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/models"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/jobs"
)

// MetricsSnapshot is a lightweight summary for the metrics JSON endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	Generations              uint64    `json:"generations"`
	AverageGenerationMs      float64   `json:"averageGenerationMs"`
	SlotsEmitted             uint64    `json:"slotsEmitted"`
	ConflictsDetected        uint64    `json:"conflictsDetected"`
	AlternativesReturned     uint64    `json:"alternativesReturned"`
	RoutesOptimized          uint64    `json:"routesOptimized"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	JobsFailed               uint64    `json:"jobsFailed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry             *prometheus.Registry
	handler              http.Handler
	requestDuration      *prometheus.HistogramVec
	requestTotal         *prometheus.CounterVec
	generationDuration   *prometheus.HistogramVec
	slotsEmitted         prometheus.Histogram
	conflicts            *prometheus.CounterVec
	alternativesReturned prometheus.Histogram
	annealingIterations  prometheus.Histogram
	routeImprovement     prometheus.Histogram
	cacheLatency         prometheus.Observer
	cacheWrite           prometheus.Observer
	cacheHitRatio        prometheus.Gauge
	cacheHits            prometheus.Counter
	cacheMisses          prometheus.Counter
	dbQueryDuration      *prometheus.HistogramVec
	jobDuration          *prometheus.HistogramVec
	jobOutcomes          *prometheus.CounterVec

	requestCount            uint64
	requestDurationTotal    uint64
	generationCount         uint64
	generationDurationTotal uint64
	slotCount               uint64
	conflictCount           uint64
	alternativeCount        uint64
	routeCount              uint64
	cacheHitCount           uint64
	cacheMissCount          uint64
	dbQueryCount            uint64
	dbQueryDurationTotal    uint64
	jobsFailed              uint64
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

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scheduler_generation_duration_seconds",
		Help:    "Duration of candidate schedule generation",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"source"})

	slotsEmitted := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_slots_emitted",
		Help:    "Slots returned per generation",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_conflicts_total",
		Help: "Conflicts detected by type",
	}, []string{"type"})

	alternativesReturned := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_alternatives_returned",
		Help:    "Alternative times returned per request",
		Buckets: []float64{0, 1, 2, 3, 5, 10},
	})

	annealingIterations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_annealing_iterations",
		Help:    "Simulated annealing iterations per route",
		Buckets: prometheus.ExponentialBuckets(10, 4, 7),
	})

	routeImprovement := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_improvement_ratio",
		Help:    "Share of the nearest-neighbour distance removed by annealing",
		Buckets: prometheus.LinearBuckets(0, 0.05, 11),
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobs_duration_seconds",
		Help:    "Handler run time of background jobs",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 120},
	}, []string{"type"})

	jobOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "jobs_total",
		Help: "Background job runs by type and outcome",
	}, []string{"type", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		generationDuration, slotsEmitted, conflicts, alternativesReturned, annealingIterations, routeImprovement,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration, jobDuration, jobOutcomes, goroutines,
	)

	return &MetricsService{
		registry:             registry,
		handler:              promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:      requestDuration,
		requestTotal:         requestTotal,
		generationDuration:   generationDuration,
		slotsEmitted:         slotsEmitted,
		conflicts:            conflicts,
		alternativesReturned: alternativesReturned,
		annealingIterations:  annealingIterations,
		routeImprovement:     routeImprovement,
		cacheLatency:         cacheLatency,
		cacheWrite:           cacheWrite,
		cacheHitRatio:        cacheHitRatio,
		cacheHits:            cacheHits,
		cacheMisses:          cacheMisses,
		dbQueryDuration:      dbQueryDuration,
		jobDuration:          jobDuration,
		jobOutcomes:          jobOutcomes,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveGeneration records one generator run.
func (m *MetricsService) ObserveGeneration(source string, slots int, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(source).Observe(duration.Seconds())
	m.slotsEmitted.Observe(float64(slots))
	atomic.AddUint64(&m.generationCount, 1)
	atomic.AddUint64(&m.generationDurationTotal, uint64(duration.Nanoseconds()))
	atomic.AddUint64(&m.slotCount, uint64(slots))
}

// ObserveConflicts counts detected conflicts by type.
func (m *MetricsService) ObserveConflicts(conflicts []models.Conflict) {
	if m == nil {
		return
	}
	for _, c := range conflicts {
		m.conflicts.WithLabelValues(string(c.Type)).Inc()
	}
	atomic.AddUint64(&m.conflictCount, uint64(len(conflicts)))
}

func (m *MetricsService) ObserveAlternatives(count int) {
	if m == nil {
		return
	}
	m.alternativesReturned.Observe(float64(count))
	atomic.AddUint64(&m.alternativeCount, uint64(count))
}

// ObserveRoute records annealing effort and how much it shortened the seed tour.
func (m *MetricsService) ObserveRoute(plan *models.RoutePlan) {
	if m == nil || plan == nil {
		return
	}
	m.annealingIterations.Observe(float64(plan.Iterations))
	if plan.SeedDistanceKm > 0 {
		m.routeImprovement.Observe((plan.SeedDistanceKm - plan.DistanceKm) / plan.SeedDistanceKm)
	}
	atomic.AddUint64(&m.routeCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveJob records a background job run. It satisfies jobs.Observer.
func (m *MetricsService) ObserveJob(jobType, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobOutcomes.WithLabelValues(jobType, outcome).Inc()
	if duration > 0 {
		m.jobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
	}
	if outcome == jobs.OutcomeFailed {
		atomic.AddUint64(&m.jobsFailed, 1)
	}
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	generations := atomic.LoadUint64(&m.generationCount)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMillis(atomic.LoadUint64(&m.requestDurationTotal), requests),
		Generations:              generations,
		AverageGenerationMs:      averageMillis(atomic.LoadUint64(&m.generationDurationTotal), generations),
		SlotsEmitted:             atomic.LoadUint64(&m.slotCount),
		ConflictsDetected:        atomic.LoadUint64(&m.conflictCount),
		AlternativesReturned:     atomic.LoadUint64(&m.alternativeCount),
		RoutesOptimized:          atomic.LoadUint64(&m.routeCount),
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: averageMillis(atomic.LoadUint64(&m.dbQueryDurationTotal), dbCount),
		JobsFailed:               atomic.LoadUint64(&m.jobsFailed),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func averageMillis(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
