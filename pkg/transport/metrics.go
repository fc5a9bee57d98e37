package transport

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sshcore"

// Metrics contains all Prometheus metrics for the transport layer.
type Metrics struct {
	// Key exchange metrics
	KexTotal        *prometheus.CounterVec
	KexLatency      prometheus.Histogram
	RekeysTotal     *prometheus.CounterVec
	RekeyBytesTotal prometheus.Counter

	// Authentication metrics
	AuthAttemptsTotal *prometheus.CounterVec
	AuthSuccessTotal  *prometheus.CounterVec
	AuthFailureTotal  *prometheus.CounterVec

	// Connection/channel metrics
	ChannelsOpen      prometheus.Gauge
	ChannelsOpened    prometheus.Counter
	ChannelsClosed    prometheus.Counter
	PacketsSent       prometheus.Counter
	PacketsReceived   prometheus.Counter
	BytesSent         prometheus.Counter
	BytesReceived     prometheus.Counter
	CRCAttackDetected prometheus.Counter
}

var (
	defaultMetrics *Metrics
	metricsOnce    sync.Once
)

// Default returns the default metrics instance, registered against the
// global Prometheus registry.
func Default() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics = NewMetrics()
	})
	return defaultMetrics
}

// NewMetrics creates a new Metrics instance registered against the
// default Prometheus registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a new Metrics instance against a
// caller-supplied registry, so tests and multiple connections within
// one process don't collide on the default one.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		KexTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kex_total",
			Help:      "Total key exchanges completed, by algorithm",
		}, []string{"algorithm"}),
		KexLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kex_latency_seconds",
			Help:      "Time taken to complete a key exchange",
		}),
		RekeysTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rekeys_total",
			Help:      "Total rekeys performed, by trigger",
		}, []string{"trigger"}),
		RekeyBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rekey_bytes_total",
			Help:      "Total bytes transferred across all rekey intervals",
		}),

		AuthAttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Total userauth attempts, by method",
		}, []string{"method"}),
		AuthSuccessTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_success_total",
			Help:      "Total successful userauth attempts, by method",
		}, []string{"method"}),
		AuthFailureTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failure_total",
			Help:      "Total failed userauth attempts, by method",
		}, []string{"method"}),

		ChannelsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channels_open",
			Help:      "Number of currently open channels",
		}),
		ChannelsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_opened_total",
			Help:      "Total channels opened",
		}),
		ChannelsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_closed_total",
			Help:      "Total channels closed",
		}),
		PacketsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_sent_total",
			Help:      "Total binary packets sent",
		}),
		PacketsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packets_received_total",
			Help:      "Total binary packets received",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total payload bytes sent",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total payload bytes received",
		}),
		CRCAttackDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ssh1_crc_attack_detected_total",
			Help:      "Total SSH-1 CRC compensation attack detections",
		}),
	}
}
