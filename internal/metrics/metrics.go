// Package metrics provides Prometheus metrics for the netleaf stack.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "netleaf"
)

// Drop reasons used as the "reason" label on DatagramsDropped.
const (
	DropTooShort     = "too_short"
	DropBadLength    = "bad_length"
	DropBadChecksum  = "bad_checksum"
	DropNoConnection = "no_connection"
)

// Metrics contains all Prometheus metrics for the stack.
type Metrics struct {
	// Port metrics
	PortsOpen   prometheus.Gauge
	PortsOpened prometheus.Counter

	// Transmit metrics
	DatagramsSent  prometheus.Counter
	BytesSent      prometheus.Counter
	TransmitErrors prometheus.Counter

	// Receive metrics
	DatagramsReceived prometheus.Counter
	BytesReceived     prometheus.Counter
	DatagramsDropped  *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the default metrics instance.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance with a custom registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		// Port metrics
		PortsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ports_open",
			Help:      "Number of currently open UDP ports",
		}),
		PortsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ports_opened_total",
			Help:      "Total number of UDP ports opened",
		}),

		// Transmit metrics
		DatagramsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_sent_total",
			Help:      "Total UDP datagrams handed to the network layer",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total UDP payload bytes sent",
		}),
		TransmitErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transmit_errors_total",
			Help:      "Total datagrams rejected by the network layer",
		}),

		// Receive metrics
		DatagramsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_received_total",
			Help:      "Total UDP datagrams delivered to an application",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total UDP payload bytes delivered to an application",
		}),
		DatagramsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datagrams_dropped_total",
			Help:      "Total inbound UDP datagrams dropped by reason",
		}, []string{"reason"}),
	}

	return m
}

// RecordPortOpen records a port being opened.
func (m *Metrics) RecordPortOpen() {
	m.PortsOpen.Inc()
	m.PortsOpened.Inc()
}

// RecordPortClose records a port being closed.
func (m *Metrics) RecordPortClose() {
	m.PortsOpen.Dec()
}

// RecordSend records a datagram handed to the network layer.
func (m *Metrics) RecordSend(payloadBytes int) {
	m.DatagramsSent.Inc()
	m.BytesSent.Add(float64(payloadBytes))
}

// RecordTransmitError records a datagram the network layer refused.
func (m *Metrics) RecordTransmitError() {
	m.TransmitErrors.Inc()
}

// RecordReceive records a datagram delivered to an application.
func (m *Metrics) RecordReceive(payloadBytes int) {
	m.DatagramsReceived.Inc()
	m.BytesReceived.Add(float64(payloadBytes))
}

// RecordDrop records an inbound datagram dropped for the given reason.
func (m *Metrics) RecordDrop(reason string) {
	m.DatagramsDropped.WithLabelValues(reason).Inc()
}
