// Package metrics provides optional Prometheus instrumentation for a
// session. Every exported constructor accepts a prometheus.Registerer and
// is nil-safe: passing a nil registerer yields a Metrics value whose
// counters exist but are never registered for scraping, so callers never
// need to nil-check before recording.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds one instance's counters. A *Metrics value is always safe to
// call methods on, including a nil *Metrics (every method nil-checks).
type Metrics struct {
	framesSent       prometheus.Counter
	framesReceived   prometheus.Counter
	reconnects       prometheus.Counter
	protocolErrors   prometheus.Counter
	sendQueueDepth   prometheus.Gauge
}

// New builds a Metrics bound to reg. If reg is nil, counters are created
// against a private registry that nothing ever scrapes, so the caller sees
// the same method set without special-casing the disabled case.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "ircsession_frames_sent_total",
			Help: "Total protocol frames written to the transport.",
		}),
		framesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "ircsession_frames_received_total",
			Help: "Total protocol frames parsed from the transport.",
		}),
		reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "ircsession_reconnects_total",
			Help: "Total reconnect attempts made by the supervisor.",
		}),
		protocolErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "ircsession_protocol_errors_total",
			Help: "Total server replies with commandType=error.",
		}),
		sendQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ircsession_send_queue_depth",
			Help: "Current number of frames buffered in the flood-protection queue.",
		}),
	}
}

func (m *Metrics) FrameSent() {
	if m == nil {
		return
	}
	m.framesSent.Inc()
}

func (m *Metrics) FrameReceived() {
	if m == nil {
		return
	}
	m.framesReceived.Inc()
}

func (m *Metrics) Reconnect() {
	if m == nil {
		return
	}
	m.reconnects.Inc()
}

func (m *Metrics) ProtocolError() {
	if m == nil {
		return
	}
	m.protocolErrors.Inc()
}

func (m *Metrics) SetSendQueueDepth(n int) {
	if m == nil {
		return
	}
	m.sendQueueDepth.Set(float64(n))
}
