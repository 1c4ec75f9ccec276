package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// LifecycleOperations counts lifecycle commands by operation and result kind.
	LifecycleOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifecycle_operations_total",
			Help: "Total number of lifecycle commands by operation and result",
		},
		[]string{"op", "result"},
	)

	// AssetsByTier is the asset count per status tier as of the last sweep.
	AssetsByTier = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "assets_by_tier",
			Help: "Number of assets in each status tier at the last sweep",
		},
		[]string{"tier"},
	)

	// MaterialsNeedingReorder is the number of materials at or below min stock.
	MaterialsNeedingReorder = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "materials_needing_reorder",
			Help: "Number of materials at or below their minimum stock",
		},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, LifecycleOperations, AssetsByTier, MaterialsNeedingReorder)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /v1/assets/123/checkout -> /v1/assets/{id}/checkout.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordOperation counts one lifecycle command. result is "ok" or an error kind.
func RecordOperation(op, result string) {
	LifecycleOperations.WithLabelValues(op, result).Inc()
}

// SetTierCounts replaces the tier gauges with counts.
func SetTierCounts(counts map[string]int) {
	for tier, n := range counts {
		AssetsByTier.WithLabelValues(tier).Set(float64(n))
	}
}

// SetReorderCount sets the reorder gauge.
func SetReorderCount(n int) {
	MaterialsNeedingReorder.Set(float64(n))
}
