// Package dfs is the client facade over a distributed filesystem.
//
// A FileSystem wraps one provider.Connection and exposes every filesystem
// primitive as a single call that completes exactly once, plus Reader and
// Writer streams over the provider's file handles.
package dfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/internal/ratelimiter"
	"github.com/marmos91/dfsclient/pkg/async"
	"github.com/marmos91/dfsclient/pkg/provider"
)

// DefaultMaxPathLength bounds the working directory returned by
// GetWorkingDirectory.
const DefaultMaxPathLength = 1024

type options struct {
	maxPathLength int
	chunkSize     int
	limiter       *ratelimiter.RateLimiter
	metrics       Metrics
}

// Option customizes a FileSystem.
type Option func(*options)

// WithMaxPathLength sets the longest working directory GetWorkingDirectory
// accepts. Values <= 0 keep DefaultMaxPathLength.
func WithMaxPathLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPathLength = n
		}
	}
}

// WithReadChunkSize sets the default ReadChunk size of new Readers.
func WithReadChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithRateLimiter throttles one-shot operations.
func WithRateLimiter(l *ratelimiter.RateLimiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithMetrics installs a metrics sink. Nil keeps collection disabled.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// FileSystem is the facade over one provider connection. It is safe for
// concurrent use.
type FileSystem struct {
	conn provider.Connection
	opts options
}

// New wraps an established connection.
func New(conn provider.Connection, opts ...Option) *FileSystem {
	o := options{
		maxPathLength: DefaultMaxPathLength,
		chunkSize:     DefaultChunkSize,
		metrics:       noopMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &FileSystem{conn: conn, opts: o}
}

// Connect dials a connection with params (defaults applied) and wraps it.
func Connect(ctx context.Context, d provider.Dialer, params provider.Params, opts ...Option) (*FileSystem, error) {
	params = params.WithDefaults()
	conn, err := d.Dial(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("connect to %s:%d: %w", params.Service, params.Port, err)
	}
	logger.Debug("connected", logger.KeyService, params.Service, "port", params.Port, "user", params.User)
	return New(conn, opts...), nil
}

// Close releases the underlying connection.
func (fs *FileSystem) Close() error {
	return fs.conn.Close()
}

// call runs one primitive as a Future and waits for its single outcome.
func call[T any](ctx context.Context, fs *FileSystem, op, path string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := fs.opts.limiter.Wait(ctx); err != nil {
		return zero, err
	}

	start := time.Now()
	v, err := async.Go(ctx, fn).Await(ctx)
	elapsed := time.Since(start)
	fs.opts.metrics.ObserveOperation(op, elapsed, err)

	if err != nil {
		logger.Debug("operation failed", logger.KeyOp, op, logger.KeyPath, path, logger.KeyDuration, elapsed, logger.KeyError, err)
		return zero, err
	}
	logger.Debug("operation completed", logger.KeyOp, op, logger.KeyPath, path, logger.KeyDuration, elapsed)
	return v, nil
}

func exec(ctx context.Context, fs *FileSystem, op, path string, fn func(context.Context) error) error {
	_, err := call(ctx, fs, op, path, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// List returns the entries of path ("" means the working directory) with
// normalized paths.
func (fs *FileSystem) List(ctx context.Context, path string) ([]provider.FileInfo, error) {
	if path == "" {
		path = "."
	}
	entries, err := call(ctx, fs, "list", path, func(ctx context.Context) ([]provider.FileInfo, error) {
		return fs.conn.List(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Path = NormalizePath(entries[i].Path)
	}
	return entries, nil
}

// Stats returns the entry for path.
func (fs *FileSystem) Stats(ctx context.Context, path string) (*provider.FileInfo, error) {
	return call(ctx, fs, "stats", path, func(ctx context.Context) (*provider.FileInfo, error) {
		return fs.conn.GetPathInfo(ctx, path)
	})
}

// Delete removes path. Deleting a non-empty directory requires recursive and
// fails with provider.ErrNotEmpty otherwise.
func (fs *FileSystem) Delete(ctx context.Context, path string, recursive bool) error {
	return exec(ctx, fs, "delete", path, func(ctx context.Context) error {
		return fs.conn.Delete(ctx, path, recursive)
	})
}

// Mkdir creates path and all missing ancestors.
func (fs *FileSystem) Mkdir(ctx context.Context, path string) error {
	return exec(ctx, fs, "mkdir", path, func(ctx context.Context) error {
		return fs.conn.CreateDirectory(ctx, path)
	})
}

// Exists reports whether path exists. Any failure, including permission
// errors and cancellation, reports false.
func (fs *FileSystem) Exists(ctx context.Context, path string) bool {
	return exec(ctx, fs, "exists", path, func(ctx context.Context) error {
		return fs.conn.Exists(ctx, path)
	}) == nil
}

// IsDirectory reports whether path is a directory. A missing path is an
// error, not false.
func (fs *FileSystem) IsDirectory(ctx context.Context, path string) (bool, error) {
	fi, err := fs.Stats(ctx, path)
	if err != nil {
		return false, err
	}
	return fi.Type == provider.TypeDirectory, nil
}

// IsFile reports whether path is a regular file. A missing path is an
// error, not false.
func (fs *FileSystem) IsFile(ctx context.Context, path string) (bool, error) {
	fi, err := fs.Stats(ctx, path)
	if err != nil {
		return false, err
	}
	return fi.Type == provider.TypeFile, nil
}

func (fs *FileSystem) Rename(ctx context.Context, oldPath, newPath string) error {
	return exec(ctx, fs, "rename", oldPath, func(ctx context.Context) error {
		return fs.conn.Rename(ctx, oldPath, newPath)
	})
}

func (fs *FileSystem) SetWorkingDirectory(ctx context.Context, path string) error {
	return exec(ctx, fs, "set_working_directory", path, func(ctx context.Context) error {
		return fs.conn.SetWorkingDirectory(ctx, path)
	})
}

// GetWorkingDirectory returns the working directory. A directory longer than
// the configured maximum path length is an error.
func (fs *FileSystem) GetWorkingDirectory(ctx context.Context) (string, error) {
	wd, err := call(ctx, fs, "get_working_directory", "", func(ctx context.Context) (string, error) {
		return fs.conn.GetWorkingDirectory(ctx)
	})
	if err != nil {
		return "", err
	}
	if len(wd) > fs.opts.maxPathLength {
		return "", fmt.Errorf("%w: working directory is %d bytes, limit %d", provider.ErrInvalidInput, len(wd), fs.opts.maxPathLength)
	}
	return wd, nil
}

func (fs *FileSystem) SetReplication(ctx context.Context, path string, replication int16) error {
	return exec(ctx, fs, "set_replication", path, func(ctx context.Context) error {
		return fs.conn.SetReplication(ctx, path, replication)
	})
}

// Chown changes owner and/or group; an empty string leaves it unchanged.
func (fs *FileSystem) Chown(ctx context.Context, path, owner, group string) error {
	return exec(ctx, fs, "chown", path, func(ctx context.Context) error {
		return fs.conn.Chown(ctx, path, owner, group)
	})
}

func (fs *FileSystem) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	return exec(ctx, fs, "chmod", path, func(ctx context.Context) error {
		return fs.conn.Chmod(ctx, path, mode)
	})
}

// Utime sets modification and access times; a zero time leaves it unchanged.
func (fs *FileSystem) Utime(ctx context.Context, path string, mtime, atime time.Time) error {
	return exec(ctx, fs, "utime", path, func(ctx context.Context) error {
		return fs.conn.Utime(ctx, path, mtime, atime)
	})
}

// Truncate shrinks path to newLength. False means the new length becomes
// visible only after the cluster finishes block recovery.
func (fs *FileSystem) Truncate(ctx context.Context, path string, newLength int64) (bool, error) {
	return call(ctx, fs, "truncate", path, func(ctx context.Context) (bool, error) {
		return fs.conn.Truncate(ctx, path, newLength)
	})
}

func (fs *FileSystem) GetDefaultBlockSize(ctx context.Context) (int64, error) {
	return call(ctx, fs, "get_default_block_size", "", fs.conn.GetDefaultBlockSize)
}

func (fs *FileSystem) GetCapacity(ctx context.Context) (int64, error) {
	return call(ctx, fs, "get_capacity", "", fs.conn.GetCapacity)
}

func (fs *FileSystem) GetUsed(ctx context.Context) (int64, error) {
	return call(ctx, fs, "get_used", "", fs.conn.GetUsed)
}

// Open returns a Reader on path. The open runs in the background; its
// failure is reported by the first read.
func (fs *FileSystem) Open(ctx context.Context, path string) *Reader {
	return newReader(ctx, path, fs.conn.NewReadHandle(path), fs.opts.chunkSize, fs.opts.metrics)
}

// Create returns a Writer creating or replacing path. The open runs in the
// background; its failure is reported by the first write or by Close.
func (fs *FileSystem) Create(ctx context.Context, path string, opts WriteOptions) *Writer {
	return newWriter(ctx, path, fs.conn.NewWriteHandle(path), opts, fs.opts.metrics)
}

// ReadFile reads the whole file at path.
func (fs *FileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	r := fs.Open(ctx, path)
	data, err := io.ReadAll(r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteFile creates or replaces path with data.
func (fs *FileSystem) WriteFile(ctx context.Context, path string, data []byte, opts WriteOptions) error {
	if data == nil {
		data = []byte{}
	}
	w := fs.Create(ctx, path, opts)
	if _, err := w.WriteContext(ctx, data); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
