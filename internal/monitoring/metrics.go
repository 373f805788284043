package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Batch run metrics
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Total number of backtest runs by outcome",
		},
		[]string{"outcome"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Distribution of backtest run durations",
			Buckets: prometheus.DefBuckets,
		},
	)

	tradesPerRun = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "backtest_trades_per_run",
			Help:    "Distribution of trade counts per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	runsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backtest_runs_in_flight",
			Help: "Number of backtest runs currently executing",
		},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(tradesPerRun)
	prometheus.MustRegister(runsInFlight)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Collector feeds run lifecycle events into the Prometheus metrics. It
// satisfies the runner's Observer interface.
type Collector struct{}

// NewCollector creates a collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RunStarted records a run entering execution.
func (c *Collector) RunStarted() {
	runsInFlight.Inc()
}

// RunCompleted records a successful run.
func (c *Collector) RunCompleted(duration time.Duration, trades int) {
	runsInFlight.Dec()
	runsTotal.WithLabelValues("ok").Inc()
	runDuration.Observe(duration.Seconds())
	tradesPerRun.Observe(float64(trades))
}

// RunFailed records a failed run.
func (c *Collector) RunFailed() {
	runsInFlight.Dec()
	runsTotal.WithLabelValues("error").Inc()
}
