package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dfsclient/pkg/store/content/s3"
)

const subsystemS3 = "content_s3"

// s3Metrics implements s3.S3Metrics for the S3 content backend.
type s3Metrics struct {
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	transfer *prometheus.CounterVec
}

var (
	globalS3     s3.S3Metrics
	globalS3Once sync.Once
)

// NewS3Metrics returns nil while metrics are disabled; the S3 store then
// falls back to its no-op recorder.
func NewS3Metrics() s3.S3Metrics {
	if !IsEnabled() {
		return nil
	}
	globalS3Once.Do(func() {
		globalS3 = NewS3MetricsWith(GetRegistry())
	})
	return globalS3
}

// NewS3MetricsWith registers the content backend collectors on reg.
func NewS3MetricsWith(reg prometheus.Registerer) s3.S3Metrics {
	factory := promauto.With(reg)
	return &s3Metrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemS3,
			Name:      "requests_total",
			Help:      "S3 API requests issued by the content store, by API call and outcome",
		}, []string{"call", "outcome"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemS3,
			Name:      "request_duration_seconds",
			Help:      "S3 API request latency",
			Buckets:   latencyBuckets,
		}, []string{"call"}),
		transfer: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemS3,
			Name:      "bytes_total",
			Help:      "Blob bytes moved to or from S3",
		}, []string{"direction"}),
	}
}

// outcome is "ok", "canceled" or "error".
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

func (m *s3Metrics) ObserveOperation(call string, d time.Duration, err error) {
	m.calls.WithLabelValues(call, outcome(err)).Inc()
	m.latency.WithLabelValues(call).Observe(d.Seconds())
}

func (m *s3Metrics) RecordBytes(direction string, n int64) {
	if n > 0 {
		m.transfer.WithLabelValues(direction).Add(float64(n))
	}
}
