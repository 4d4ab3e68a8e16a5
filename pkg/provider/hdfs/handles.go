package hdfs

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"time"

	"github.com/colinmarc/hdfs/v2"

	"github.com/marmos91/dfsclient/pkg/provider"
)

// deadlined is implemented by FileReader and FileWriter.
type deadlined interface {
	SetDeadline(t time.Time) error
}

// applyDeadline bounds the next I/O call by ctx. The client has no context
// support, so cancellation without a deadline only takes effect between
// calls.
func applyDeadline(ctx context.Context, d deadlined) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	return d.SetDeadline(deadline)
}

type readHandle struct {
	conn   *Connection
	path   string
	full   string
	r      *hdfs.FileReader
	closed bool
}

func (h *readHandle) Open(ctx context.Context) error {
	full, err := h.conn.resolve(h.path)
	if err != nil {
		return err
	}
	h.full = full

	fi, err := h.conn.stat(ctx, full)
	if err != nil {
		return wrap("open", full, err)
	}
	if fi.IsDir() {
		return provider.NewPathError("open", full, provider.ErrIsDirectory)
	}

	r, err := h.conn.client.Open(full)
	if err != nil {
		return wrap("open", full, err)
	}
	h.r = r
	return nil
}

func (h *readHandle) Read(ctx context.Context, p []byte) (int, error) {
	if h.closed || h.r == nil {
		return 0, provider.ErrClosed
	}
	if err := applyDeadline(ctx, h.r); err != nil {
		return 0, err
	}
	n, err := h.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	if err != nil {
		return n, wrap("read", h.full, err)
	}
	return n, nil
}

func (h *readHandle) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.r == nil {
		return nil
	}
	return wrap("close", h.full, h.r.Close())
}

type writeHandle struct {
	conn   *Connection
	path   string
	full   string
	w      *hdfs.FileWriter
	closed bool
}

var _ provider.Syncer = (*writeHandle)(nil)

// Open replaces an existing file and creates missing parents.
func (h *writeHandle) Open(ctx context.Context, opts provider.WriteOptions) error {
	full, err := h.conn.resolve(h.path)
	if err != nil {
		return err
	}
	h.full = full

	if opts.Replication < 0 || opts.BlockSize < 0 {
		return provider.NewPathError("create", full, provider.ErrInvalidInput)
	}
	replication := opts.Replication
	if replication == 0 {
		replication = h.conn.replication
	}
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = h.conn.blockSize
	}

	fi, err := h.conn.stat(ctx, full)
	switch {
	case err == nil && fi.IsDir():
		return provider.NewPathError("create", full, provider.ErrIsDirectory)
	case err == nil:
		if err := h.conn.client.Remove(full); err != nil {
			return wrap("create", full, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return wrap("create", full, err)
	}

	if err := h.conn.client.MkdirAll(path.Dir(full), provider.DefaultDirPermission); err != nil {
		return wrap("create", full, err)
	}

	w, err := h.conn.client.CreateFile(full, int(replication), blockSize, opts.FilePermission())
	if err != nil {
		return wrap("create", full, err)
	}
	h.w = w
	return nil
}

func (h *writeHandle) Write(ctx context.Context, p []byte) (int, error) {
	if h.closed || h.w == nil {
		return 0, provider.ErrClosed
	}
	if err := applyDeadline(ctx, h.w); err != nil {
		return 0, err
	}
	n, err := h.w.Write(p)
	return n, wrap("write", h.full, err)
}

func (h *writeHandle) Flush(ctx context.Context) error {
	if h.closed || h.w == nil {
		return provider.ErrClosed
	}
	if err := applyDeadline(ctx, h.w); err != nil {
		return err
	}
	return wrap("flush", h.full, h.w.Flush())
}

// Sync is Flush: the client exposes no separate hsync.
func (h *writeHandle) Sync(ctx context.Context) error {
	return h.Flush(ctx)
}

func (h *writeHandle) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.w == nil {
		return nil
	}
	if err := applyDeadline(ctx, h.w); err != nil {
		_ = h.w.Close()
		return err
	}
	return wrap("close", h.full, h.w.Close())
}
