package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// readHandle reads the published length of a file from its blob.
type readHandle struct {
	fs   *Filesystem
	path string

	rc io.ReadCloser
	r  io.Reader
}

func (h *readHandle) Open(ctx context.Context) error {
	e, err := h.fs.meta.Get(ctx, h.path)
	if err != nil {
		return translate("open", h.path, err)
	}
	if e.IsDir() {
		return provider.NewPathError("open", h.path, provider.ErrIsDirectory)
	}

	rc, err := h.fs.content.OpenReader(ctx, e.ContentID)
	switch {
	case errors.Is(err, content.ErrContentNotFound) && e.Size == 0:
		// Created but not yet committed: nothing published to read.
		rc = io.NopCloser(strings.NewReader(""))
	case err != nil:
		return translate("open", h.path, err)
	}

	h.rc = rc
	h.r = io.LimitReader(rc, e.Size)

	e.ATime = time.Now()
	if err := h.fs.meta.Put(ctx, e); err != nil {
		logger.Debug("failed to update access time", logger.KeyPath, h.path, logger.KeyError, err)
	}
	return nil
}

// Read never returns io.EOF: end of file is (0, nil).
func (h *readHandle) Read(ctx context.Context, p []byte) (int, error) {
	if h.r == nil {
		return 0, provider.NewPathError("read", h.path, provider.ErrClosed)
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := h.r.Read(p)
		if n > 0 {
			return n, nil
		}
		if err == io.EOF {
			return 0, nil
		}
		if err != nil {
			return 0, translate("read", h.path, err)
		}
	}
}

func (h *readHandle) Close(ctx context.Context) error {
	if h.rc == nil {
		return nil
	}
	err := h.rc.Close()
	h.rc = nil
	h.r = nil
	return translate("close", h.path, err)
}

// writeHandle writes a new blob for a file and swaps it in on Close.
//
// Open makes the file visible with size 0 and a fresh content ID. Flush
// publishes the bytes written so far; Close commits size and mtime and
// releases the blob of the file it replaced.
type writeHandle struct {
	conn *Connection
	path string

	w        content.Writer
	id       content.ID
	replaced content.ID
	written  int64
}

var _ provider.Syncer = (*writeHandle)(nil)

func (h *writeHandle) Open(ctx context.Context, opts provider.WriteOptions) error {
	fs := h.conn.fs

	replication := opts.Replication
	if replication == 0 {
		replication = fs.replication
	}
	if replication < 1 || replication > MaxReplication {
		return provider.NewPathError("create", h.path, provider.ErrInvalidInput)
	}
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = fs.blockSize
	}
	if blockSize < 0 {
		return provider.NewPathError("create", h.path, provider.ErrInvalidInput)
	}
	if h.path == metadata.Root {
		return provider.NewPathError("create", h.path, provider.ErrIsDirectory)
	}

	existing, err := fs.meta.Get(ctx, h.path)
	switch {
	case err == nil && existing.IsDir():
		return provider.NewPathError("create", h.path, provider.ErrIsDirectory)
	case err == nil:
		h.replaced = existing.ContentID
	case !metadata.IsNotFound(err):
		return translate("create", h.path, err)
	}

	dir, _ := metadata.Split(h.path)
	if err := h.conn.mkdirAll(ctx, dir); err != nil {
		return translate("create", dir, err)
	}

	h.id = content.NewID()
	w, err := fs.content.OpenWriter(ctx, h.id)
	if err != nil {
		return translate("create", h.path, err)
	}

	now := time.Now()
	entry := &metadata.Entry{
		Path:        h.path,
		Type:        metadata.TypeFile,
		Replication: replication,
		BlockSize:   blockSize,
		Owner:       h.conn.owner,
		Group:       h.conn.group,
		Mode:        opts.FilePermission(),
		MTime:       now,
		ATime:       now,
		ContentID:   h.id,
	}
	if existing != nil {
		entry.Owner = existing.Owner
		entry.Group = existing.Group
	}
	if err := fs.meta.Put(ctx, entry); err != nil {
		_ = w.Close()
		_ = fs.content.Delete(context.WithoutCancel(ctx), h.id)
		return translate("create", h.path, err)
	}

	h.w = w
	return nil
}

func (h *writeHandle) Write(ctx context.Context, p []byte) (int, error) {
	if h.w == nil {
		return 0, provider.NewPathError("write", h.path, provider.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := h.w.Write(p)
	h.written += int64(n)
	if err != nil {
		return n, translate("write", h.path, err)
	}
	return n, nil
}

// Flush publishes the current length to new readers.
func (h *writeHandle) Flush(ctx context.Context) error {
	if h.w == nil {
		return provider.NewPathError("flush", h.path, provider.ErrClosed)
	}
	return h.publish(ctx, "flush", false)
}

// Sync persists the blob when the content store supports it, then
// publishes.
func (h *writeHandle) Sync(ctx context.Context) error {
	if h.w == nil {
		return provider.NewPathError("sync", h.path, provider.ErrClosed)
	}
	if s, ok := h.w.(content.Syncer); ok {
		if err := s.Sync(); err != nil {
			return translate("sync", h.path, err)
		}
	}
	return h.publish(ctx, "sync", false)
}

func (h *writeHandle) Close(ctx context.Context) error {
	if h.w == nil {
		return nil
	}
	fs := h.conn.fs
	bg := context.WithoutCancel(ctx)

	err := h.w.Close()
	h.w = nil
	if err != nil {
		_ = fs.content.Delete(bg, h.id)
		return translate("close", h.path, err)
	}

	if err := h.publish(bg, "close", true); err != nil {
		return err
	}

	if h.replaced != "" && h.replaced != h.id {
		if err := fs.content.Delete(bg, h.replaced); err != nil {
			logger.Warn("failed to release replaced content", logger.KeyPath, h.path, logger.KeyError, err)
		}
	}
	return nil
}

// publish stores the written length on the entry, provided the entry still
// points at this handle's blob. A file deleted or replaced meanwhile makes
// this blob an orphan, which is released on close.
func (h *writeHandle) publish(ctx context.Context, op string, final bool) error {
	fs := h.conn.fs

	e, err := fs.meta.Get(ctx, h.path)
	if err == nil && e.ContentID != h.id {
		err = metadata.NewError(metadata.ErrNotFound, "file replaced", h.path)
	}
	if err != nil {
		if final {
			_ = fs.content.Delete(ctx, h.id)
		}
		return translate(op, h.path, err)
	}

	e.Size = h.written
	if final {
		e.MTime = time.Now()
	}
	return translate(op, h.path, fs.meta.Put(ctx, e))
}

