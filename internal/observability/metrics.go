package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	rulesLoadedTotal   prometheus.Counter
	rulesRejectedTotal *prometheus.CounterVec
	fastPatternsTotal  *prometheus.CounterVec
	registryEntries    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rulesLoadedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "fastpat_rules_loaded_total", Help: "Total rules compiled"},
		),
		rulesRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fastpat_rules_rejected_total", Help: "Total rules rejected"},
			[]string{"category", "reason"},
		),
		fastPatternsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "fastpat_fast_patterns_total", Help: "Fast patterns handed to the matcher"},
			[]string{"buffer", "mode"},
		),
		registryEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "fastpat_buffer_registry_entries", Help: "Buffers registered for fast pattern selection"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.rulesLoadedTotal,
		m.rulesRejectedTotal,
		m.fastPatternsTotal,
		m.registryEntries,
	)

	return m
}

func (m *Metrics) RuleLoaded() {
	if m == nil {
		return
	}
	m.rulesLoadedTotal.Inc()
}

func (m *Metrics) RuleRejected(category, reason string) {
	if m == nil {
		return
	}
	m.rulesRejectedTotal.WithLabelValues(category, reason).Inc()
}

func (m *Metrics) FastPatternSelected(buffer, mode string) {
	if m == nil {
		return
	}
	m.fastPatternsTotal.WithLabelValues(buffer, mode).Inc()
}

func (m *Metrics) SetRegistryEntries(n int) {
	if m == nil {
		return
	}
	m.registryEntries.Set(float64(n))
}

// WriteTextfile dumps the gathered metrics in the node exporter textfile
// format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
