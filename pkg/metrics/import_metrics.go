package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import holds the collectors recorded by the vault import pipeline.
type Import struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	entitiesTotal  *prometheus.CounterVec
	orphans        *prometheus.GaugeVec
	lastRunSuccess prometheus.Gauge
}

var importSingleton = sync.OnceValue(func() *Import {
	return NewImport(prometheus.NewRegistry())
})

// UseImport returns the process-wide import metrics.
func UseImport() *Import {
	return importSingleton()
}

func NewImport(reg *prometheus.Registry) *Import {
	f := promauto.With(reg)
	return &Import{
		registry: reg,
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vault_import",
			Name:      "runs_total",
			Help:      "Total number of import runs by mode and outcome.",
		}, []string{"mode", "outcome"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vault_import",
			Name:      "stage_duration_seconds",
			Help:      "Duration of import stages.",
			Buckets: []float64{
				0.01, 0.05,
				0.1, 0.5,
				1, 5, 10, 30, 60, 300,
			},
		}, []string{"stage"}),
		entitiesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vault_import",
			Name:      "entities_created_total",
			Help:      "Total number of rows created by kind.",
		}, []string{"kind"}),
		orphans: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "vault_import",
			Name:      "orphaned_references",
			Help:      "Orphaned contract references found by the last validation, by kind.",
		}, []string{"kind"}),
		lastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "vault_import",
			Name:      "last_run_success",
			Help:      "Whether the last import run succeeded (1/0).",
		}),
	}
}

func (m *Import) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Import) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Import) AddCreated(kind string, n int) {
	if n <= 0 {
		return
	}
	m.entitiesTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Import) SetOrphans(kind string, n int) {
	m.orphans.WithLabelValues(kind).Set(float64(n))
}

func (m *Import) RunFinished(mode, outcome string, success bool) {
	m.runsTotal.WithLabelValues(mode, outcome).Inc()
	if success {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Import) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
