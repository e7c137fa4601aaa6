// Package metrics defines the Prometheus collectors for the proxy, the
// reload channel and the task engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles all collectors on a dedicated registry so that tests can
// create throwaway instances without global registration conflicts.
type Metrics struct {
	registry *prometheus.Registry

	// ProxyRequests counts forwarded requests by upstream status code; the
	// 502 series covers unreachable backends.
	ProxyRequests *prometheus.CounterVec

	// Injections counts HTML responses that got the reload script embedded.
	Injections prometheus.Counter

	// ReloadSignals counts refresh triggers that drained the registry.
	ReloadSignals prometheus.Counter

	// ReloadClients tracks currently connected reload clients.
	ReloadClients prometheus.Gauge

	// TaskRuns counts task executions by task name and outcome.
	TaskRuns *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchboi_proxy_requests_total",
			Help: "Requests forwarded to the backend, by response status code.",
		}, []string{"code"}),
		Injections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchboi_proxy_injections_total",
			Help: "HTML responses rewritten to embed the reload script.",
		}),
		ReloadSignals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchboi_reload_signals_total",
			Help: "Refresh triggers that closed all reload connections.",
		}),
		ReloadClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchboi_reload_clients",
			Help: "Currently open reload WebSocket connections.",
		}),
		TaskRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchboi_task_runs_total",
			Help: "Task executions by task name and outcome.",
		}, []string{"task", "outcome"}),
	}

	m.registry.MustRegister(
		m.ProxyRequests,
		m.Injections,
		m.ReloadSignals,
		m.ReloadClients,
		m.TaskRuns,
	)
	return m
}

// Registry returns the registry backing the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
