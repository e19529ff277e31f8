package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	// Use unique namespace to avoid conflicts with other tests
	m := NewMetrics("test_refengine_new")

	assert.NotNil(t, m.ScansTotal)
	assert.NotNil(t, m.ScanDuration)
	assert.NotNil(t, m.MatchesTotal)
	assert.NotNil(t, m.ReferencesTotal)
	assert.NotNil(t, m.ResolutionsTotal)
	assert.NotNil(t, m.ResolutionDuration)
	assert.NotNil(t, m.ResolutionFailures)
	assert.NotNil(t, m.CacheHits)
	assert.NotNil(t, m.CacheMisses)
	assert.NotNil(t, m.CoalescedCalls)
	assert.NotNil(t, m.BreakerRejections)
}

func TestRecordScan(t *testing.T) {
	m := NewMetrics("test_record_scan")

	initial := testutil.ToFloat64(m.ScansTotal)
	m.RecordScan(0.042)
	assert.Equal(t, initial+1, testutil.ToFloat64(m.ScansTotal))

	histCount, err := getHistogramSampleCount(m.ScanDuration)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordMatches(t *testing.T) {
	m := NewMetrics("test_record_matches")

	m.RecordMatches("arxiv", 3)
	m.RecordMatches("doi", 1)
	assert.Equal(t, float64(3), testutil.ToFloat64(m.MatchesTotal.WithLabelValues("arxiv")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.MatchesTotal.WithLabelValues("doi")))
}

func TestRecordReference(t *testing.T) {
	m := NewMetrics("test_record_reference")

	m.RecordReference("arxiv")
	m.RecordReference("arxiv")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ReferencesTotal.WithLabelValues("arxiv")))
}

func TestRecordResolution(t *testing.T) {
	m := NewMetrics("test_record_resolution")

	m.RecordResolution("doi", 0.25)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("doi", "resolved")))
}

func TestRecordResolutionFailed(t *testing.T) {
	m := NewMetrics("test_record_resolution_failed")

	m.RecordResolutionFailed("ieee", "not_found", 0.1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResolutionsTotal.WithLabelValues("ieee", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ResolutionFailures.WithLabelValues("ieee", "not_found")))
}

func TestRecordCacheHitAndMiss(t *testing.T) {
	m := NewMetrics("test_record_cache")

	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheMisses))
}

func TestRecordCoalesced(t *testing.T) {
	m := NewMetrics("test_record_coalesced")

	m.RecordCoalesced()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CoalescedCalls))
}

func TestRecordBreakerRejection(t *testing.T) {
	m := NewMetrics("test_record_breaker")

	m.RecordBreakerRejection("s2")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BreakerRejections.WithLabelValues("s2")))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
