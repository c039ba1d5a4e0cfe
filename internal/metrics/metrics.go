// Package metrics exposes Prometheus counters for the report pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Report sources.
const (
	SourceAPI       = "api"
	SourceBatch     = "admin_batch"
	SourceScheduled = "scheduled"
	SourceCLI       = "cli"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	llmCalls       *prometheus.CounterVec
	reports        *prometheus.CounterVec
	scanRecords    *prometheus.CounterVec
	reportDuration prometheus.Histogram
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "avp_llm_calls_total",
			Help: "Completed LLM provider calls by outcome.",
		}, []string{"provider", "outcome"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "avp_reports_generated_total",
			Help: "Report generation attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		scanRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "avp_mention_scan_records_total",
			Help: "Mention scan records written.",
		}, []string{"mentioned"}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "avp_report_generation_seconds",
			Help:    "End-to-end report generation time.",
			Buckets: []float64{5, 10, 20, 30, 60, 90, 120, 180, 300},
		}),
	}
	m.registry.MustRegister(
		m.llmCalls,
		m.reports,
		m.scanRecords,
		m.reportDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLLMCall counts one provider call.
func (m *Metrics) ObserveLLMCall(provider, outcome string) {
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
}

// ObserveReport records one report generation attempt.
func (m *Metrics) ObserveReport(source string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reports.WithLabelValues(source, outcome).Inc()
	if err == nil {
		m.reportDuration.Observe(elapsed.Seconds())
	}
}

// ObserveScanRecord counts one written mention record.
func (m *Metrics) ObserveScanRecord(mentioned bool) {
	m.scanRecords.WithLabelValues(strconv.FormatBool(mentioned)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
