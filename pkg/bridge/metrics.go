package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus instruments for one bridge. A nil receiver
// (metrics disabled) is safe to call through the accessor methods.
type metrics struct {
	changesTotal  *prometheus.CounterVec
	framesSent    prometheus.Counter
	framesDropped prometheus.Counter
	updateErrors  *prometheus.CounterVec
	activeClients prometheus.Gauge
	objectsGauge  prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer, namespace string) *metrics {
	if registerer == nil {
		return nil
	}
	factory := promauto.With(registerer)

	return &metrics{
		changesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "changes_total",
			Help:      "Property changes observed per registered object",
		}, []string{"object"}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "frames_sent_total",
			Help:      "Change frames delivered to WebSocket clients",
		}),

		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "frames_dropped_total",
			Help:      "Change frames dropped because a client send buffer was full",
		}),

		updateErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "update_errors_total",
			Help:      "Failed inbound property updates by reason",
		}, []string{"reason"}),

		activeClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "clients",
			Help:      "Connected WebSocket clients",
		}),

		objectsGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "objects",
			Help:      "Registered objects",
		}),
	}
}

// nop instruments returned when metrics are disabled.
var (
	nopCounter prometheus.Counter = prometheus.NewCounter(prometheus.CounterOpts{Name: "cuekit_nop"})
	nopGauge   prometheus.Gauge   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "cuekit_nop_gauge"})
)

func (m *metrics) changes(object string) prometheus.Counter {
	if m == nil {
		return nopCounter
	}
	return m.changesTotal.WithLabelValues(object)
}

func (m *metrics) sent() prometheus.Counter {
	if m == nil {
		return nopCounter
	}
	return m.framesSent
}

func (m *metrics) dropped() prometheus.Counter {
	if m == nil {
		return nopCounter
	}
	return m.framesDropped
}

func (m *metrics) updateError(reason string) prometheus.Counter {
	if m == nil {
		return nopCounter
	}
	return m.updateErrors.WithLabelValues(reason)
}

func (m *metrics) clients() prometheus.Gauge {
	if m == nil {
		return nopGauge
	}
	return m.activeClients
}

func (m *metrics) objects() prometheus.Gauge {
	if m == nil {
		return nopGauge
	}
	return m.objectsGauge
}
