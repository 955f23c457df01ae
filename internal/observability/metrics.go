package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionsTotal       *prometheus.CounterVec
	eligibilityRejections  *prometheus.CounterVec
	gradesTotal            *prometheus.CounterVec
	uploadRejectionsTotal  *prometheus.CounterVec
	cacheLookupsTotal      *prometheus.CounterVec
	eventPublishFailures   *prometheus.CounterVec
	averageRecomputeErrors prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coachhub_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_submissions_total",
			Help: "Submissions written, by kind (draft or final) and lateness.",
		}, []string{"kind", "late"})

		eligibilityRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_eligibility_rejections_total",
			Help: "Submission attempts rejected by the eligibility rules.",
		}, []string{"reason"})

		gradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_grades_total",
			Help: "Grades written, by operation and whether a late penalty applied.",
		}, []string{"operation", "penalized"})

		uploadRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_upload_rejections_total",
			Help: "Attachment uploads rejected before reaching storage.",
		}, []string{"reason"})

		cacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_cache_lookups_total",
			Help: "Redis cache lookups by cache name and result.",
		}, []string{"cache", "result"})

		eventPublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coachhub_event_publish_failures_total",
			Help: "Lifecycle events that could not be published.",
		}, []string{"transport"})

		averageRecomputeErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coachhub_average_recompute_errors_total",
			Help: "Failed recomputations of assignment average scores.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			eligibilityRejections,
			gradesTotal,
			uploadRejectionsTotal,
			cacheLookupsTotal,
			eventPublishFailures,
			averageRecomputeErrors,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Submissions counts written submissions.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// EligibilityRejections counts rejected attempts per rule.
func EligibilityRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return eligibilityRejections
}

// Grades counts grading writes.
func Grades() *prometheus.CounterVec {
	RegisterMetrics()
	return gradesTotal
}

// UploadRejections counts rejected uploads.
func UploadRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectionsTotal
}

// CacheLookups counts cache hits and misses.
func CacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return cacheLookupsTotal
}

// EventPublishFailures counts dropped lifecycle events.
func EventPublishFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return eventPublishFailures
}

// AverageRecomputeErrors counts swallowed average recompute failures.
func AverageRecomputeErrors() prometheus.Counter {
	RegisterMetrics()
	return averageRecomputeErrors
}
