package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/provider"
)

func TestDFSMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDFSMetricsWith(reg).(*dfsMetrics)

	m.ObserveOperation("stat", 2*time.Millisecond, nil)
	m.ObserveOperation("stat", time.Millisecond, provider.NewPathError("stat", "/x", provider.ErrNotFound))
	m.ObserveOperation("delete", time.Millisecond, fmt.Errorf("wrapped: %w", provider.ErrNotEmpty))
	m.ObserveOperation("mkdir", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("stat", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("stat", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("delete", "not_empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("mkdir", "provider_failure")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.operationDuration))

	m.RecordBytes("read", 100)
	m.RecordBytes("read", 28)
	m.RecordBytes("write", 0)
	assert.Equal(t, 128.0, testutil.ToFloat64(m.bytesTotal.WithLabelValues("read")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.bytesTotal))

	m.StreamOpened("write")
	m.StreamOpened("write")
	m.StreamClosed("write")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsOpen.WithLabelValues("write")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.streamsTotal.WithLabelValues("write")))
}

func TestS3Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewS3MetricsWith(reg).(*s3Metrics)

	m.ObserveOperation("GetObject", 10*time.Millisecond, nil)
	m.ObserveOperation("GetObject", 10*time.Millisecond, errors.New("timeout"))
	m.ObserveOperation("PutObject", time.Millisecond, fmt.Errorf("upload: %w", context.Canceled))
	m.RecordBytes("write", 4096)
	m.RecordBytes("read", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("GetObject", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("GetObject", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("PutObject", "canceled")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(m.transfer.WithLabelValues("write")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.transfer.WithLabelValues("read")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.latency))
}

func TestRegistryLifecycle(t *testing.T) {
	// Disabled until InitRegistry runs; nothing else in this package
	// initializes the global registry.
	assert.False(t, IsEnabled())
	assert.Nil(t, NewDFSMetrics())
	assert.Nil(t, NewS3Metrics())

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	InitRegistry()
	InitRegistry()
	require.True(t, IsEnabled())

	m := NewDFSMetrics()
	require.NotNil(t, m)
	assert.Same(t, m, NewDFSMetrics())
	require.NotNil(t, NewS3Metrics())
	m.ObserveOperation("ls", time.Millisecond, nil)

	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dfsclient_operations_total{code="ok",operation="ls"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServer_Defaults(t *testing.T) {
	s := NewServer(ServerConfig{})
	assert.Equal(t, 9090, s.Port())
	assert.Equal(t, ":9090", s.Addr())

	s = NewServer(ServerConfig{Host: "127.0.0.1", Port: 19090})
	assert.Equal(t, "127.0.0.1:19090", s.Addr())

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/metrics")

	rec = httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
