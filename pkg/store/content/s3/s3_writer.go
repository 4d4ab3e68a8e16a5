package s3

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// streamingWriter pipes writes into a background upload. The object exists
// only once Close returns nil.
type streamingWriter struct {
	pw      *io.PipeWriter
	done    chan error
	metrics S3Metrics

	mu      sync.Mutex
	closed  bool
	written int64
}

func newStreamingWriter(ctx context.Context, s *S3ContentStore, key string) *streamingWriter {
	pr, pw := io.Pipe()
	w := &streamingWriter{
		pw:      pw,
		done:    make(chan error, 1),
		metrics: s.metrics,
	}

	go func() {
		start := time.Now()
		_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
			Body:   pr,
		})
		s.metrics.ObserveOperation("Upload", time.Since(start), err)
		_ = pr.CloseWithError(err)
		w.done <- err
	}()

	return w
}

func (w *streamingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, content.ErrWriterClosed
	}
	n, err := w.pw.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *streamingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return content.ErrWriterClosed
	}
	w.closed = true

	if err := w.pw.Close(); err != nil {
		return err
	}
	err := <-w.done
	if err == nil {
		w.metrics.RecordBytes("write", w.written)
	}
	return err
}
