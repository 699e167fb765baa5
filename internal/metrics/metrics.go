package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "owlchat"

	codeLabel = "code"
)

// Metrics bundles the server's prometheus collectors on a private
// registry so tests can build isolated instances.
type Metrics struct {
	Reg             *prometheus.Registry
	Logins          prometheus.Counter
	LoginRejections *prometheus.CounterVec
	Logouts         prometheus.Counter
	Events          prometheus.Counter
	EventsDropped   prometheus.Counter
	Connections     prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Reg: reg,
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
		}),
		LoginRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_rejections_total",
		}, []string{codeLabel}),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
		}),
		Events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
		}),
	}

	reg.MustRegister(m.Logins)
	reg.MustRegister(m.LoginRejections)
	reg.MustRegister(m.Logouts)
	reg.MustRegister(m.Events)
	reg.MustRegister(m.EventsDropped)
	reg.MustRegister(m.Connections)

	return m
}

// ObserveChannels registers a gauge fed by the given channel counter.
func (m *Metrics) ObserveChannels(count func() int) {
	m.Reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_channels",
	}, func() float64 { return float64(count()) }))
}
