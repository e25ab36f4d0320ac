package discogs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records provider calls. A nil *Metrics records nothing.
type Metrics struct {
	requests           *prometheus.CounterVec
	duration           *prometheus.HistogramVec
	rateLimitRemaining prometheus.Gauge
}

// NewMetrics registers the provider collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "discogs_requests_total",
				Help: "Total number of calls to the Discogs API by endpoint and status code (0 = transport error)",
			},
			[]string{"endpoint", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "discogs_request_duration_seconds",
				Help:    "Latency of calls to the Discogs API",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		rateLimitRemaining: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "discogs_ratelimit_remaining",
				Help: "Last X-Discogs-Ratelimit-Remaining value seen",
			},
		),
	}
}

func (m *Metrics) observe(endpoint string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

func (m *Metrics) observeRateLimit(rl RateLimit) {
	if m == nil || rl.Limit == 0 {
		return
	}
	m.rateLimitRemaining.Set(float64(rl.Remaining))
}
