package s3

import (
	"io"
	"time"
)

// S3Metrics receives per-request observations from the store. A nil value
// in Config disables them.
type S3Metrics interface {
	// ObserveOperation is called once per S3 API call, named after the SDK
	// operation (GetObject, Upload, ...), with its error if any.
	ObserveOperation(call string, duration time.Duration, err error)

	// RecordBytes is called with "read" or "write" once a blob transfer
	// completes.
	RecordBytes(direction string, n int64)
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, time.Duration, error) {}
func (noopMetrics) RecordBytes(string, int64)                     {}

// countingReader reports the bytes pulled from a GetObject body when the
// caller closes it.
type countingReader struct {
	io.ReadCloser
	metrics S3Metrics
	n       int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.n += int64(n)
	return n, err
}

func (r *countingReader) Close() error {
	err := r.ReadCloser.Close()
	r.metrics.RecordBytes("read", r.n)
	return err
}
