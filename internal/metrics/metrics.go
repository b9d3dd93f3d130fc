package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	GradingDuration *prometheus.HistogramVec
	GradingTotal    *prometheus.CounterVec
	Submissions     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"method", "endpoint"},
		),
		GradingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grading_duration_seconds",
				Help:    "Time spent grading one question response",
				Buckets: []float64{0.001, 0.01, 0.1, 1, 5, 15, 60},
			},
			[]string{"strategy"},
		),
		GradingTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grading_total",
				Help: "Question responses graded, by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "attempt_submissions_total",
				Help: "Attempt submissions, by result",
			},
			[]string{"result"},
		),
	}

	m.Registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.GradingDuration,
		m.GradingTotal,
		m.Submissions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveGrading satisfies grading.Observer.
func (m *Metrics) ObserveGrading(strategy string, err error, duration time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.GradingTotal.WithLabelValues(strategy, outcome).Inc()
	m.GradingDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// ObserveSubmission records a submit outcome: "graded", "expired" or "failed".
func (m *Metrics) ObserveSubmission(result string) {
	m.Submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		m.RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
