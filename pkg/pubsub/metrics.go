package pubsub

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus instruments a Hub updates. A nil *Metrics is
// valid and records nothing.
// No channel labels: channel names are caller-controlled and unbounded.
type Metrics struct {
	Published      prometheus.Counter
	Received       prometheus.Counter
	Dropped        prometheus.Counter
	Delivered      prometheus.Counter
	HandlerErrors  prometheus.Counter
	ActiveChannels prometheus.Gauge
	ActiveHandlers prometheus.Gauge
}

// NewMetrics creates the hub instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_published_total",
			Help:      "Total number of messages handed to the transport.",
		}),
		Received: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_received_total",
			Help:      "Total number of inbound messages mapped to a logical channel.",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_dropped_total",
			Help:      "Total number of inbound messages whose wire channel lacked the subscribe prefix.",
		}),
		Delivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_handler_deliveries_total",
			Help:      "Total number of successful handler invocations.",
		}),
		HandlerErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_handler_errors_total",
			Help:      "Total number of handler invocations that returned an error or panicked.",
		}),
		ActiveChannels: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_active_channels",
			Help:      "Current number of channels with at least one handler.",
		}),
		ActiveHandlers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_active_handlers",
			Help:      "Current number of registered handlers.",
		}),
	}
}

func (m *Metrics) messagePublished() {
	if m != nil {
		m.Published.Inc()
	}
}

func (m *Metrics) messageReceived() {
	if m != nil {
		m.Received.Inc()
	}
}

func (m *Metrics) messageDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) handlerDelivered() {
	if m != nil {
		m.Delivered.Inc()
	}
}

func (m *Metrics) handlerFailed() {
	if m != nil {
		m.HandlerErrors.Inc()
	}
}

func (m *Metrics) handlerAdded(newChannel bool) {
	if m == nil {
		return
	}
	m.ActiveHandlers.Inc()
	if newChannel {
		m.ActiveChannels.Inc()
	}
}

func (m *Metrics) handlerRemoved(channelGone bool) {
	if m == nil {
		return
	}
	m.ActiveHandlers.Dec()
	if channelGone {
		m.ActiveChannels.Dec()
	}
}

func (m *Metrics) reset() {
	if m == nil {
		return
	}
	m.ActiveHandlers.Set(0)
	m.ActiveChannels.Set(0)
}
