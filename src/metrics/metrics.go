package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stake-plus/countdown/src/countdown"
)

const namespace = "countdown"

// Metrics holds the bot's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	messages *prometheus.CounterVec
	signals  *prometheus.CounterVec
	reloads  *prometheus.CounterVec
	commands *prometheus.CounterVec
}

// New registers the collectors. active reports the number of active countdowns and may be nil.
func New(active func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Countdown messages by outcome.",
		}, []string{"result"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signals raised by accepted messages.",
		}, []string{"signal"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "History reloads by result.",
		}, []string{"result"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands handled.",
		}, []string{"command"}),
	}
	m.registry.MustRegister(m.messages, m.signals, m.reloads, m.commands)
	m.registry.MustRegister(collectors.NewGoCollector())
	if active != nil {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "Active countdowns.",
		}, func() float64 { return float64(active()) }))
	}
	return m
}

// ObserveOutcome counts one TryAppend result.
func (m *Metrics) ObserveOutcome(out countdown.Outcome) {
	if !out.Accepted {
		m.messages.WithLabelValues(out.Reject.String()).Inc()
		return
	}
	m.messages.WithLabelValues("accepted").Inc()
	if out.Signals.Celebrate {
		m.signals.WithLabelValues("celebrate").Inc()
	}
	if out.Signals.PinWorthy {
		m.signals.WithLabelValues("pin").Inc()
	}
	if len(out.Signals.Triggers) > 0 {
		m.signals.WithLabelValues("triggers").Inc()
	}
}

func (m *Metrics) ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reloads.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCommand(name string) {
	m.commands.WithLabelValues(name).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
