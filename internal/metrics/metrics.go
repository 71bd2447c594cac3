// Package metrics exposes Prometheus collectors for ingestion cycles and reads.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quote-tracker/internal/ingest"
)

const namespace = "quote_tracker"

type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal       *prometheus.CounterVec
	SymbolResults     *prometheus.CounterVec
	CycleDuration     prometheus.Histogram
	LastWrittenTS     *prometheus.GaugeVec
	ReadRequestsTotal *prometheus.CounterVec
	ReadDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "cycles_total",
			Help:      "Ingestion cycles by status.",
		}, []string{"status"}),
		SymbolResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "symbol_results_total",
			Help:      "Per-symbol cycle outcomes.",
		}, []string{"outcome", "error_kind"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of ingestion cycles.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastWrittenTS: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "last_written_timestamp_seconds",
			Help:      "Record ts of the last successful write per symbol.",
		}, []string{"symbol"}),
		ReadRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Read API requests by endpoint and status code.",
		}, []string{"endpoint", "code"}),
		ReadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Read API latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CyclesTotal,
		m.SymbolResults,
		m.CycleDuration,
		m.LastWrittenTS,
		m.ReadRequestsTotal,
		m.ReadDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Report implements ingest.Reporter.
func (m *Metrics) Report(_ context.Context, report ingest.CycleReport) error {
	if report.Skipped {
		m.CyclesTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	m.CyclesTotal.WithLabelValues("ran").Inc()
	m.CycleDuration.Observe(report.Duration().Seconds())
	for _, res := range report.Results {
		m.SymbolResults.WithLabelValues(string(res.Outcome), res.ErrorKind).Inc()
		if res.Outcome == ingest.OutcomeWritten {
			m.LastWrittenTS.WithLabelValues(res.Symbol).Set(float64(res.TS))
		}
	}
	return nil
}

func (m *Metrics) ObserveRead(endpoint string, code int, took time.Duration) {
	m.ReadRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	m.ReadDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}
