package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dfsclient/pkg/dfs"
	"github.com/marmos91/dfsclient/pkg/provider"
)

// dfsMetrics is the Prometheus implementation of dfs.Metrics.
type dfsMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
	streamsOpen       *prometheus.GaugeVec
	streamsTotal      *prometheus.CounterVec
}

var (
	globalDFS     dfs.Metrics
	globalDFSOnce sync.Once
)

// NewDFSMetrics returns the facade and stream metrics of the global
// registry, registering them on first use. It returns nil when metrics are
// disabled, which dfs.WithMetrics ignores.
func NewDFSMetrics() dfs.Metrics {
	if !IsEnabled() {
		return nil
	}
	globalDFSOnce.Do(func() {
		globalDFS = NewDFSMetricsWith(GetRegistry())
	})
	return globalDFS
}

// NewDFSMetricsWith registers facade and stream metrics on reg.
func NewDFSMetricsWith(reg prometheus.Registerer) dfs.Metrics {
	return &dfsMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Filesystem operations by operation and result code",
			},
			[]string{"operation", "code"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of filesystem operations in seconds",
				Buckets:   latencyBuckets,
			},
			[]string{"operation"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_bytes_total",
				Help:      "Bytes moved by streams",
			},
			[]string{"direction"},
		),
		streamsOpen: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "streams_open",
				Help:      "Streams currently open",
			},
			[]string{"direction"},
		),
		streamsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "streams_opened_total",
				Help:      "Streams opened",
			},
			[]string{"direction"},
		),
	}
}

// ObserveOperation labels failures with their provider error code.
func (m *dfsMetrics) ObserveOperation(op string, duration time.Duration, err error) {
	code := "ok"
	if err != nil {
		code = provider.CodeOf(err).String()
	}
	m.operationsTotal.WithLabelValues(op, code).Inc()
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *dfsMetrics) RecordBytes(direction string, n int) {
	if n > 0 {
		m.bytesTotal.WithLabelValues(direction).Add(float64(n))
	}
}

func (m *dfsMetrics) StreamOpened(direction string) {
	m.streamsOpen.WithLabelValues(direction).Inc()
	m.streamsTotal.WithLabelValues(direction).Inc()
}

func (m *dfsMetrics) StreamClosed(direction string) {
	m.streamsOpen.WithLabelValues(direction).Dec()
}
