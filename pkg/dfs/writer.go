package dfs

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/async"
	"github.com/marmos91/dfsclient/pkg/provider"
)

// WriteOptions configure a new Writer.
type WriteOptions = provider.WriteOptions

// Writer is a push-based byte sink over one write handle.
//
// The handle is opened asynchronously when the Writer is created, with the
// replication factor from WriteOptions. Writes wait for the open, are
// serialized, and are resubmitted until the provider accepted every byte.
// Close waits for the last write and commits the file with exactly one close
// primitive.
//
// A primitive error moves the Writer to StateErrored, closes the handle
// best-effort and rejects all further writes.
type Writer struct {
	path    string
	handle  provider.WriteHandle
	ctx     context.Context
	opts    WriteOptions
	metrics Metrics

	opened *async.Future[struct{}]

	mu           sync.Mutex
	state        State
	err          error
	handleOpen   bool
	bytesWritten int64
	closer       releaser
}

func newWriter(ctx context.Context, path string, h provider.WriteHandle, opts WriteOptions, m Metrics) *Writer {
	w := &Writer{
		path:    path,
		handle:  h,
		ctx:     ctx,
		opts:    opts,
		metrics: m,
		state:   StateOpening,
	}
	w.opened = async.Go(ctx, w.open)
	return w
}

func (w *Writer) open(ctx context.Context) (struct{}, error) {
	err := w.handle.Open(ctx, w.opts)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		logger.Debug("write stream open failed", logger.KeyPath, w.path, logger.KeyError, err)
		if w.state == StateOpening {
			w.state = StateErrored
			w.err = err
		}
		return struct{}{}, err
	}

	w.handleOpen = true
	w.metrics.StreamOpened(directionWrite)
	if w.state == StateOpening {
		w.state = StateOpen
	}
	logger.Debug("write stream opened", logger.KeyPath, w.path, "replication", w.opts.Replication)
	return struct{}{}, nil
}

// Path returns the path the Writer streams to.
func (w *Writer) Path() string {
	return w.path
}

// State returns the current lifecycle state.
func (w *Writer) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// BytesWritten returns the number of bytes the provider accepted so far.
func (w *Writer) BytesWritten() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bytesWritten
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.WriteContext(w.ctx, p)
}

// WriteContext writes all of p. A nil p is a fatal input error regardless of
// the open state: the Writer fails and its handle is released.
func (w *Writer) WriteContext(ctx context.Context, p []byte) (int, error) {
	if p == nil {
		err := provider.NewPathError("write", w.path, fmt.Errorf("%w: nil payload", provider.ErrInvalidInput))
		w.abort(err)
		return 0, err
	}

	if err := w.awaitOpen(ctx); err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkOpenLocked(); err != nil {
		return 0, err
	}

	written := 0
	for written < len(p) {
		n, err := w.handle.Write(ctx, p[written:])
		if n > 0 {
			written += n
			w.bytesWritten += int64(n)
			w.metrics.RecordBytes(directionWrite, n)
		}
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			w.failLocked(err)
			return written, err
		}
	}
	return written, nil
}

// Flush makes the data written so far visible to new readers.
func (w *Writer) Flush(ctx context.Context) error {
	return w.syncWith(ctx, "flush", func(s provider.Syncer) error { return s.Flush(ctx) })
}

// Sync flushes and persists the data written so far.
func (w *Writer) Sync(ctx context.Context) error {
	return w.syncWith(ctx, "sync", func(s provider.Syncer) error { return s.Sync(ctx) })
}

func (w *Writer) syncWith(ctx context.Context, op string, fn func(provider.Syncer) error) error {
	if err := w.awaitOpen(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkOpenLocked(); err != nil {
		return err
	}

	s, ok := w.handle.(provider.Syncer)
	if !ok {
		return provider.NewPathError(op, w.path, provider.ErrNotSupported)
	}
	if err := fn(s); err != nil {
		w.failLocked(err)
		return err
	}
	return nil
}

func (w *Writer) awaitOpen(ctx context.Context) error {
	select {
	case <-w.opened.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) checkOpenLocked() error {
	switch w.state {
	case StateOpen:
		return nil
	case StateErrored:
		return w.err
	default:
		return provider.ErrClosed
	}
}

// abort fails the Writer without waiting for the open to finish; the handle
// is released in the background once it is open.
func (w *Writer) abort(err error) {
	w.mu.Lock()
	if w.state != StateOpening && w.state != StateOpen {
		w.mu.Unlock()
		return
	}
	logger.Debug("write stream aborted", logger.KeyPath, w.path, logger.KeyError, err)
	w.state = StateErrored
	w.err = err
	w.mu.Unlock()

	go func() {
		<-w.opened.Done()
		w.mu.Lock()
		defer w.mu.Unlock()
		if cerr := w.closeLocked(); cerr != nil {
			logger.Warn("best-effort close after write error failed", logger.KeyPath, w.path, logger.KeyError, cerr)
		}
	}()
}

func (w *Writer) failLocked(err error) {
	logger.Debug("write stream failed", logger.KeyPath, w.path, logger.KeyError, err)
	w.state = StateErrored
	w.err = err
	if cerr := w.closeLocked(); cerr != nil {
		logger.Warn("best-effort close after write error failed", logger.KeyPath, w.path, logger.KeyError, cerr)
	}
}

func (w *Writer) closeLocked() error {
	return w.closer.release(func() error {
		if w.state != StateErrored {
			w.state = StateClosing
		}

		var err error
		if w.handleOpen {
			err = w.handle.Close(context.WithoutCancel(w.ctx))
			w.metrics.StreamClosed(directionWrite)
		}

		if w.state != StateErrored {
			w.state = StateClosed
		}
		logger.Debug("write stream closed", logger.KeyPath, w.path, logger.KeyBytes, w.bytesWritten, logger.KeyError, err)
		return err
	})
}

// Close finishes the stream: it waits for a pending open and the last write,
// then commits the file. The close primitive runs at most once and every
// call returns the same result: the stream's error if it failed, otherwise
// the result of the close primitive.
func (w *Writer) Close() error {
	<-w.opened.Done()

	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.closeLocked()
	if w.state == StateErrored {
		return w.err
	}
	return err
}
