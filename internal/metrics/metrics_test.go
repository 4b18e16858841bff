package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.FrameSent()
	m.FrameReceived()
	m.Reconnect()
	m.ProtocolError()
	m.SetSendQueueDepth(3)
}

func TestFrameSentIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FrameSent()
	m.FrameSent()

	var out dto.Metric
	if err := m.framesSent.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.Counter.GetValue() != 2 {
		t.Fatalf("frames_sent = %v, want 2", out.Counter.GetValue())
	}
}

func TestSendQueueDepthGauge(t *testing.T) {
	m := New(nil)
	m.SetSendQueueDepth(5)

	var out dto.Metric
	if err := m.sendQueueDepth.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if out.Gauge.GetValue() != 5 {
		t.Fatalf("queue depth = %v, want 5", out.Gauge.GetValue())
	}
}
