package dfs

import (
	"context"
	"io"
	"sync"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/async"
	"github.com/marmos91/dfsclient/pkg/provider"
)

// DefaultChunkSize is the pull size used by ReadChunk when none is given.
const DefaultChunkSize = 64 * 1024

// Reader is a pull-based byte stream over one read handle.
//
// The handle is opened asynchronously as soon as the Reader is created;
// every read waits for that open to finish. Reads are serialized, so at
// most one primitive is in flight on the handle. End of file closes the
// handle immediately, and any read error moves the Reader to StateErrored,
// closes the handle best-effort and stops all further reads.
//
// Reader implements io.ReadCloser. Read uses the context the Reader was
// created with; ReadContext and ReadChunk take an explicit one.
type Reader struct {
	path      string
	handle    provider.ReadHandle
	ctx       context.Context
	chunkSize int
	metrics   Metrics

	opened *async.Future[struct{}]

	mu         sync.Mutex
	state      State
	err        error
	eof        bool
	handleOpen bool
	bytesRead  int64
	closer     releaser
}

func newReader(ctx context.Context, path string, h provider.ReadHandle, chunkSize int, m Metrics) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	r := &Reader{
		path:      path,
		handle:    h,
		ctx:       ctx,
		chunkSize: chunkSize,
		metrics:   m,
		state:     StateOpening,
	}
	r.opened = async.Go(ctx, r.open)
	return r
}

func (r *Reader) open(ctx context.Context) (struct{}, error) {
	err := r.handle.Open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		logger.Debug("read stream open failed", logger.KeyPath, r.path, logger.KeyError, err)
		r.state = StateErrored
		r.err = err
		return struct{}{}, err
	}

	r.handleOpen = true
	r.state = StateOpen
	r.metrics.StreamOpened(directionRead)
	logger.Debug("read stream opened", logger.KeyPath, r.path)
	return struct{}{}, nil
}

// Path returns the path the Reader streams from.
func (r *Reader) Path() string {
	return r.path
}

// State returns the current lifecycle state.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// BytesRead returns the number of bytes delivered so far.
func (r *Reader) BytesRead() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bytesRead
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.ReadContext(r.ctx, p)
}

// ReadContext reads up to len(p) bytes with one read primitive.
func (r *Reader) ReadContext(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return r.pull(ctx, p)
}

// ReadChunk pulls the next chunk into a freshly allocated buffer of at most
// size bytes (DefaultChunkSize, or the configured chunk size, when size <= 0).
// The returned slice holds exactly the bytes read. At end of file it returns
// (nil, io.EOF).
func (r *Reader) ReadChunk(ctx context.Context, size int) ([]byte, error) {
	if size <= 0 {
		size = r.chunkSize
	}
	buf := make([]byte, size)
	n, err := r.pull(ctx, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (r *Reader) pull(ctx context.Context, p []byte) (int, error) {
	select {
	case <-r.opened.Done():
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateOpen:
	case StateErrored:
		return 0, r.err
	default:
		if r.eof {
			return 0, io.EOF
		}
		return 0, provider.ErrClosed
	}

	n, err := r.handle.Read(ctx, p)
	if err != nil {
		r.failLocked(err)
		return 0, err
	}

	if n == 0 {
		r.eof = true
		if cerr := r.closeLocked(); cerr != nil {
			logger.Warn("read stream close at end of file failed", logger.KeyPath, r.path, logger.KeyError, cerr)
		}
		return 0, io.EOF
	}

	r.bytesRead += int64(n)
	r.metrics.RecordBytes(directionRead, n)
	return n, nil
}

// failLocked moves the Reader to StateErrored and releases the handle. A
// failing close is logged; err stays the terminal error.
func (r *Reader) failLocked(err error) {
	logger.Debug("read stream failed", logger.KeyPath, r.path, logger.KeyError, err)
	r.state = StateErrored
	r.err = err
	if cerr := r.closeLocked(); cerr != nil {
		logger.Warn("best-effort close after read error failed", logger.KeyPath, r.path, logger.KeyError, cerr)
	}
}

func (r *Reader) closeLocked() error {
	return r.closer.release(func() error {
		if r.state != StateErrored {
			r.state = StateClosing
		}

		var err error
		if r.handleOpen {
			err = r.handle.Close(context.WithoutCancel(r.ctx))
			r.metrics.StreamClosed(directionRead)
		}

		if r.state != StateErrored {
			r.state = StateClosed
		}
		logger.Debug("read stream closed", logger.KeyPath, r.path, logger.KeyBytes, r.bytesRead, logger.KeyError, err)
		return err
	})
}

// Close releases the handle. It waits for a pending open and for an
// in-flight read. The close primitive runs at most once; every call returns
// the same result: the stream's error if it failed, otherwise the result of
// the close primitive.
func (r *Reader) Close() error {
	<-r.opened.Done()

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.closeLocked()
	if r.state == StateErrored {
		return r.err
	}
	return err
}
