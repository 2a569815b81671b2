package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service collectors. It satisfies app.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	attemptsCreated   prometheus.Counter
	attemptsFinalized prometheus.Counter
	supplyFailures    prometheus.Counter
	percentage        prometheus.Histogram
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attemptsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_created_total",
			Help: "Total number of quiz attempts started",
		}),
		attemptsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_attempts_finalized_total",
			Help: "Total number of quiz attempts finalized",
		}),
		supplyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_supply_failures_total",
			Help: "Total number of failed question supply fetches",
		}),
		percentage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_attempt_percentage",
			Help:    "Percentage scored by finalized attempts",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
	}
	m.registry.MustRegister(
		m.attemptsCreated,
		m.attemptsFinalized,
		m.supplyFailures,
		m.percentage,
		m.requests,
		m.requestDuration,
	)
	return m
}

func (m *Metrics) AttemptCreated() { m.attemptsCreated.Inc() }
func (m *Metrics) SupplyFailed()   { m.supplyFailures.Inc() }

// AttemptFinalized records one frozen attempt and its percentage.
func (m *Metrics) AttemptFinalized(percentage int) {
	m.attemptsFinalized.Inc()
	m.percentage.Observe(float64(percentage))
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requests.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.requestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
