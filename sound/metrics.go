package sound

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Command outcomes reported in sfxd_commands_total
const (
	outcomeApplied = "applied"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

// Metrics holds the Prometheus metrics of a Manager. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	CommandsTotal   *prometheus.CounterVec // Commands by kind and outcome
	EngineFailures  *prometheus.CounterVec // Engine errors and panics by operation
	QueueDepth      prometheus.Gauge       // Commands waiting for the dispatcher
	CachedResources prometheus.Gauge       // Entries in the resource cache
}

// NewMetrics creates the dispatcher metrics and registers them on registry
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfxd_commands_total",
				Help: "Total number of sound commands by kind and outcome",
			},
			[]string{"kind", "outcome"}, // outcome: applied, skipped, failed, dropped
		),
		EngineFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sfxd_engine_failures_total",
				Help: "Total number of sound engine failures by operation",
			},
			[]string{"op"},
		),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sfxd_queue_depth",
			Help: "Number of commands waiting for the dispatcher",
		}),
		CachedResources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sfxd_cached_resources",
			Help: "Number of loaded resources in the dispatcher cache",
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register sound metrics: %w", err)
	}
	return m, nil
}

// Describe implements prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.CommandsTotal.Describe(ch)
	m.EngineFailures.Describe(ch)
	m.QueueDepth.Describe(ch)
	m.CachedResources.Describe(ch)
}

// Collect implements prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.CommandsTotal.Collect(ch)
	m.EngineFailures.Collect(ch)
	m.QueueDepth.Collect(ch)
	m.CachedResources.Collect(ch)
}

func (m *Metrics) command(kind, outcome string) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) engineFailure(op string) {
	if m == nil {
		return
	}
	m.EngineFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) queueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) cached(n int) {
	if m == nil {
		return
	}
	m.CachedResources.Set(float64(n))
}
