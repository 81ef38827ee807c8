package metrics

import (
	"net/http"
	"strconv"
	"time"

	"go-form-mailer/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Submission pipeline metrics
	SubmissionsTotal  *prometheus.CounterVec
	SubmissionLatency *prometheus.HistogramVec
	DispatchLatency   *prometheus.HistogramVec
	ResumeSize        prometheus.Histogram
	RateLimitHits     *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formmailer_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formmailer_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formmailer_submissions_total",
				Help: "Form submissions by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		SubmissionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formmailer_submission_duration_seconds",
				Help:    "Time spent in the submission pipeline",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		DispatchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formmailer_dispatch_duration_seconds",
				Help:    "Email provider call duration",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"kind", "result"},
		),

		ResumeSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "formmailer_resume_size_bytes",
				Help:    "Size of accepted resume uploads",
				Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10), // 16KiB .. 8MiB
			},
		),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formmailer_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"endpoint"},
		),
	}
}

// ObserveSubmission records a finished pipeline run
func (m *Metrics) ObserveSubmission(kind domain.Kind, outcome string, elapsed time.Duration) {
	m.SubmissionsTotal.WithLabelValues(string(kind), outcome).Inc()
	m.SubmissionLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// ObserveDispatch records one provider call
func (m *Metrics) ObserveDispatch(kind domain.Kind, sent bool, elapsed time.Duration) {
	result := "sent"
	if !sent {
		result = "failed"
	}
	m.DispatchLatency.WithLabelValues(string(kind), result).Observe(elapsed.Seconds())
}

// ObserveResume records the size of an accepted upload
func (m *Metrics) ObserveResume(sizeBytes int64) {
	m.ResumeSize.Observe(float64(sizeBytes))
}

// ObserveRateLimited counts a request rejected by the rate limiter
func (m *Metrics) ObserveRateLimited(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}

// Middleware records request counts and latency per route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
