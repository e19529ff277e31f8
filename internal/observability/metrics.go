package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the reference engine.
// Metrics are organized by pipeline stage: scanning, resolution, caching, and
// provider health. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// ScansTotal counts scan requests processed.
	ScansTotal prometheus.Counter

	// ScanDuration observes end-to-end scan duration in seconds, including
	// resolution.
	ScanDuration prometheus.Histogram

	// MatchesTotal counts raw reference matches, labeled by scheme.
	MatchesTotal *prometheus.CounterVec

	// ReferencesTotal counts canonical references after deduplication,
	// labeled by scheme.
	ReferencesTotal *prometheus.CounterVec

	// ResolutionsTotal counts reference resolutions, labeled by scheme and
	// outcome ("resolved" or "failed").
	ResolutionsTotal *prometheus.CounterVec

	// ResolutionDuration observes provider resolution duration in seconds,
	// labeled by scheme. Cache hits are not observed here.
	ResolutionDuration *prometheus.HistogramVec

	// ResolutionFailures counts resolution failures by scheme and failure
	// kind.
	ResolutionFailures *prometheus.CounterVec

	// CacheHits counts resolutions served from the cache.
	CacheHits prometheus.Counter

	// CacheMisses counts resolutions that required a provider call.
	CacheMisses prometheus.Counter

	// CoalescedCalls counts resolutions that joined an in-flight provider
	// call instead of issuing their own.
	CoalescedCalls prometheus.Counter

	// BreakerRejections counts provider calls suppressed by an open circuit
	// breaker, labeled by scheme.
	BreakerRejections *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total number of scan requests processed",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of scan requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MatchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Total number of raw reference matches by scheme",
		}, []string{"scheme"}),
		ReferencesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_total",
			Help:      "Total number of canonical references by scheme",
		}, []string{"scheme"}),
		ResolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of reference resolutions by scheme and outcome",
		}, []string{"scheme", "outcome"}),
		ResolutionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "Duration of provider resolutions in seconds by scheme",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"scheme"}),
		ResolutionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolution_failures_total",
			Help:      "Total number of resolution failures by scheme and kind",
		}, []string{"scheme", "kind"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of resolutions served from the cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of resolutions requiring a provider call",
		}),
		CoalescedCalls: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coalesced_calls_total",
			Help:      "Total number of resolutions joined to an in-flight provider call",
		}),
		BreakerRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_rejections_total",
			Help:      "Total number of provider calls suppressed by an open circuit breaker",
		}, []string{"scheme"}),
	}
}

// RecordScan records a completed scan request.
func (m *Metrics) RecordScan(durationSeconds float64) {
	m.ScansTotal.Inc()
	m.ScanDuration.Observe(durationSeconds)
}

// RecordMatches records raw matches found for a scheme.
func (m *Metrics) RecordMatches(scheme string, count int) {
	m.MatchesTotal.WithLabelValues(scheme).Add(float64(count))
}

// RecordReference records one canonical reference for a scheme.
func (m *Metrics) RecordReference(scheme string) {
	m.ReferencesTotal.WithLabelValues(scheme).Inc()
}

// RecordResolution records a successful provider resolution.
func (m *Metrics) RecordResolution(scheme string, durationSeconds float64) {
	m.ResolutionsTotal.WithLabelValues(scheme, "resolved").Inc()
	m.ResolutionDuration.WithLabelValues(scheme).Observe(durationSeconds)
}

// RecordResolutionFailed records a failed provider resolution.
func (m *Metrics) RecordResolutionFailed(scheme, kind string, durationSeconds float64) {
	m.ResolutionsTotal.WithLabelValues(scheme, "failed").Inc()
	m.ResolutionFailures.WithLabelValues(scheme, kind).Inc()
	m.ResolutionDuration.WithLabelValues(scheme).Observe(durationSeconds)
}

// RecordCacheHit records a resolution served from the cache.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss records a resolution that required a provider call.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

// RecordCoalesced records a resolution that joined an in-flight call.
func (m *Metrics) RecordCoalesced() {
	m.CoalescedCalls.Inc()
}

// RecordBreakerRejection records a call suppressed by an open breaker.
func (m *Metrics) RecordBreakerRejection(scheme string) {
	m.BreakerRejections.WithLabelValues(scheme).Inc()
}
