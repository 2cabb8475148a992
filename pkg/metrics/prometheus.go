package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Waitlist metrics
	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "registration",
			Name:      "total",
			Help:      "Registration attempts by result",
		},
		[]string{"result"},
	)

	ReferralCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "referral",
			Name:      "credits_total",
			Help:      "Referral codes submitted at registration by outcome",
		},
		[]string{"outcome"},
	)

	ReferralCodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "referral",
			Name:      "code_collisions_total",
			Help:      "Generated referral codes that were already issued",
		},
	)

	QueueLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "queue",
			Name:      "lookup_duration_seconds",
			Help:      "Queue position computation duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method"},
	)

	RegistrantsCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "queue",
			Name:      "registrants",
			Help:      "Number of registrants by status",
		},
		[]string{"status"},
	)

	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Identity store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of identity store errors",
		},
		[]string{"backend", "operation"},
	)

	// Scheduler metrics
	SchedulerJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "scheduler",
			Name:      "jobs_total",
			Help:      "Total number of scheduled jobs executed",
		},
		[]string{"job_name", "status"},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduled job execution duration in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"job_name"},
	)

	LastSchedulerJobTime = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "scheduler",
			Name:      "last_job_timestamp",
			Help:      "Unix timestamp of last job execution",
		},
		[]string{"job_name"},
	)

	// Rate limiter metrics
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mystiq_waitlist",
			Subsystem: "rate_limiter",
			Name:      "requests_total",
			Help:      "Total number of rate-limited requests",
		},
		[]string{"allowed"},
	)
)

// Metrics provides convenience methods for recording metrics
type Metrics struct{}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	HttpRequestsTotal.WithLabelValues(method, endpoint, http.StatusText(statusCode)).Inc()
	HttpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRegistration records the result of a registration attempt
// (success, invalid, duplicate, error).
func (m *Metrics) RecordRegistration(result string) {
	RegistrationsTotal.WithLabelValues(result).Inc()
}

// RecordReferralCredit records whether a submitted referral code matched a registrant
func (m *Metrics) RecordReferralCredit(credited bool) {
	outcome := "credited"
	if !credited {
		outcome = "unmatched"
	}
	ReferralCreditsTotal.WithLabelValues(outcome).Inc()
}

// RecordReferralCodeCollision counts a regenerated referral code
func (m *Metrics) RecordReferralCodeCollision() {
	ReferralCodeCollisions.Inc()
}

// RecordQueueLookup records how long a queue position took and how it was computed
func (m *Metrics) RecordQueueLookup(method string, duration time.Duration) {
	QueueLookupDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// UpdateRegistrantsCount updates the registrant gauge for a status
func (m *Metrics) UpdateRegistrantsCount(status string, count int) {
	RegistrantsCount.WithLabelValues(status).Set(float64(count))
}

// RecordStoreOperation records an identity store operation metric
func (m *Metrics) RecordStoreOperation(backend, operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrorsTotal.WithLabelValues(backend, operation).Inc()
	}
}

// RecordSchedulerJob records a scheduler job execution
func (m *Metrics) RecordSchedulerJob(jobName string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	SchedulerJobsTotal.WithLabelValues(jobName, status).Inc()
	SchedulerJobDuration.WithLabelValues(jobName).Observe(duration.Seconds())
	LastSchedulerJobTime.WithLabelValues(jobName).SetToCurrentTime()
}

// RecordRateLimit records a rate limiter decision
func (m *Metrics) RecordRateLimit(allowed bool) {
	if allowed {
		RateLimitRequestsTotal.WithLabelValues("true").Inc()
		return
	}
	RateLimitRequestsTotal.WithLabelValues("false").Inc()
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
