package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/domain"
)

// Metrics counts what the monitor does per run: runs, tracked
// products, events by kind, and failure classes.
type Metrics struct {
	runs             prometheus.Counter
	runFailures      prometheus.Counter
	runDuration      prometheus.Histogram
	productsTracked  prometheus.Gauge
	events           *prometheus.CounterVec
	dispatchFailures prometheus.Counter
	fetchErrors      prometheus.Counter
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "arcmon_runs_total",
			Help: "Total number of monitor runs started",
		}),
		runFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "arcmon_run_failures_total",
			Help: "Total number of monitor runs that failed before persisting",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "arcmon_run_duration_seconds",
			Help:    "Duration of one full monitor run in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		productsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "arcmon_products_tracked",
			Help: "Products in the newly built catalog",
		}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "arcmon_events_total",
			Help: "Change events detected, by kind",
		}, []string{"kind"}),
		dispatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "arcmon_dispatch_failures_total",
			Help: "Notification dispatches that failed after transport retries",
		}),
		fetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "arcmon_fetch_errors_total",
			Help: "Per-item catalog retrievals that were skipped on error",
		}),
	}
}

func (m *Metrics) RunStarted() {
	m.runs.Inc()
}

func (m *Metrics) RunFailed() {
	m.runFailures.Inc()
}

func (m *Metrics) RunFinished(start time.Time, tracked int) {
	m.runDuration.Observe(time.Since(start).Seconds())
	m.productsTracked.Set(float64(tracked))
}

func (m *Metrics) EventDetected(kind domain.EventKind) {
	m.events.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) DispatchFailed() {
	m.dispatchFailures.Inc()
}

func (m *Metrics) FetchSkipped() {
	m.fetchErrors.Inc()
}
