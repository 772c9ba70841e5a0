// Package metrics exposes Prometheus counters for card registration and
// scan outcomes. All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	cardsRegistered *prometheus.CounterVec
	scans           *prometheus.CounterVec
	logsAppended    prometheus.Counter
	tokensMinted    prometheus.Counter
}

// New creates a Metrics instance with its own registry.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	m := &Metrics{
		registry: reg,
		cardsRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "idcard_cards_registered_total",
			Help:        "Card registrations, split by whether the name already existed.",
			ConstLabels: constLabels,
		}, []string{"existed"}),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "idcard_scans_total",
			Help:        "Scan submissions by input path and outcome.",
			ConstLabels: constLabels,
		}, []string{"path", "outcome"}),
		logsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "idcard_log_entries_appended_total",
			Help:        "Log entries written.",
			ConstLabels: constLabels,
		}),
		tokensMinted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "idcard_tokens_minted_total",
			Help:        "QR tokens minted.",
			ConstLabels: constLabels,
		}),
	}

	reg.MustRegister(
		m.cardsRegistered,
		m.scans,
		m.logsAppended,
		m.tokensMinted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) CardRegistered(existed bool) {
	if m == nil {
		return
	}
	label := "false"
	if existed {
		label = "true"
	}
	m.cardsRegistered.WithLabelValues(label).Inc()
}

func (m *Metrics) Scan(path, outcome string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(path, outcome).Inc()
}

func (m *Metrics) LogAppended() {
	if m == nil {
		return
	}
	m.logsAppended.Inc()
}

func (m *Metrics) TokenMinted() {
	if m == nil {
		return
	}
	m.tokensMinted.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
