package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	EntriesCreatedTotal    prometheus.Counter
	ImagesNormalizedTotal  *prometheus.CounterVec
	ImageFetchErrorsTotal  *prometheus.CounterVec
	ImageCacheLookupsTotal *prometheus.CounterVec

	initOnce sync.Once
)

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	EntriesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "workdiary_entries_created_total",
			Help: "Total number of work diary entries inserted.",
		},
	)

	ImagesNormalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdiary_images_normalized_total",
			Help: "Images normalized per slot and input source.",
		},
		[]string{"slot", "source"}, // source: upload, base64, url
	)

	ImageFetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdiary_image_fetch_errors_total",
			Help: "Remote image fetch failures.",
		},
		[]string{"reason"},
	)

	ImageCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workdiary_image_cache_lookups_total",
			Help: "Remote image cache lookups.",
		},
		[]string{"result"}, // hit, miss, error
	)
}
