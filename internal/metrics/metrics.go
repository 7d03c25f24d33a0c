// Package metrics exposes the Prometheus gauges/counters/histograms
// SmartRAG's orchestrator reports, grounded on
// cmd/metrics-server/main.go's CounterVec/Gauge registration shape,
// generalized from one legal-domain request counter into the set of
// SmartRAG-specific series named in spec.md §5 (strategy dispatch, DB
// executor latency, provider retries).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every SmartRAG metric series. Callers register it once
// against a prometheus.Registerer at startup.
type Registry struct {
	QueriesHandled    *prometheus.CounterVec
	StrategyDispatch  *prometheus.CounterVec
	DBExecutorLatency *prometheus.HistogramVec
	ProviderRetries   *prometheus.CounterVec
	ProviderFailures  *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	StartupTimestamp  prometheus.Gauge
}

// New constructs a Registry with all series defined but not yet
// registered.
func New() *Registry {
	return &Registry{
		QueriesHandled: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "smartrag_queries_handled_total", Help: "Total queries routed through the orchestrator"},
			[]string{"outcome"},
		),
		StrategyDispatch: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "smartrag_strategy_dispatch_total", Help: "Queries dispatched per strategy"},
			[]string{"strategy"},
		),
		DBExecutorLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "smartrag_db_executor_seconds", Help: "Per-database query execution latency"},
			[]string{"database"},
		),
		ProviderRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "smartrag_provider_retries_total", Help: "AI provider call retries"},
			[]string{"provider"},
		),
		ProviderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "smartrag_provider_failures_total", Help: "AI provider calls exhausting retries"},
			[]string{"provider"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "smartrag_active_sessions", Help: "Conversation sessions with at least one turn"},
		),
		StartupTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "smartrag_startup_timestamp", Help: "Unix time the process started"},
		),
	}
}

// MustRegister registers every series against reg, panicking on a
// duplicate-registration error the way prometheus.MustRegister does
// elsewhere in the pack.
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		r.QueriesHandled,
		r.StrategyDispatch,
		r.DBExecutorLatency,
		r.ProviderRetries,
		r.ProviderFailures,
		r.ActiveSessions,
		r.StartupTimestamp,
	)
}
