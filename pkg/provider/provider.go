// Package provider defines the Handle Provider contract: the blocking
// primitives a filesystem backend implements so the dfs package can build
// streams and one-shot operations on top of it.
//
// Implementations:
//   - provider/hdfs: a remote HDFS cluster
//   - provider/storage: an embedded filesystem over metadata and content stores
package provider

import (
	"context"
	"os"
	"time"
)

// Connection is one session with a filesystem.
//
// Relative paths resolve against the connection's working directory.
// Every method must be safe for concurrent use; handles returned by
// NewReadHandle and NewWriteHandle are not, and are driven by a single
// owner.
type Connection interface {
	// List returns the entries of a directory, or the entry itself when path
	// names a file.
	List(ctx context.Context, path string) ([]FileInfo, error)

	// GetPathInfo returns the entry for path.
	GetPathInfo(ctx context.Context, path string) (*FileInfo, error)

	// Delete removes path. A non-empty directory requires recursive.
	Delete(ctx context.Context, path string, recursive bool) error

	// CreateDirectory creates path and every missing ancestor.
	CreateDirectory(ctx context.Context, path string) error

	// Exists returns nil when path exists and an error otherwise.
	Exists(ctx context.Context, path string) error

	Rename(ctx context.Context, oldPath, newPath string) error

	SetWorkingDirectory(ctx context.Context, path string) error
	GetWorkingDirectory(ctx context.Context) (string, error)

	SetReplication(ctx context.Context, path string, replication int16) error

	GetDefaultBlockSize(ctx context.Context) (int64, error)

	// GetCapacity returns the raw capacity of the filesystem in bytes.
	GetCapacity(ctx context.Context) (int64, error)

	// GetUsed returns the raw size of all files in bytes.
	GetUsed(ctx context.Context) (int64, error)

	// Chown changes owner and/or group. An empty string means no change.
	Chown(ctx context.Context, path, owner, group string) error

	Chmod(ctx context.Context, path string, mode os.FileMode) error

	// Utime sets modification and access times. A zero time means no change.
	Utime(ctx context.Context, path string, mtime, atime time.Time) error

	// Truncate shrinks a file to newLength. It returns true when the new
	// length is effective immediately and false when the caller must wait
	// for block recovery before the size reflects it.
	Truncate(ctx context.Context, path string, newLength int64) (bool, error)

	// NewReadHandle returns an unopened read handle bound to path.
	NewReadHandle(path string) ReadHandle

	// NewWriteHandle returns an unopened write handle bound to path.
	NewWriteHandle(path string) WriteHandle

	// Close releases the session.
	Close() error
}

// ReadHandle is one read session on a file.
type ReadHandle interface {
	Open(ctx context.Context) error

	// Read reads up to len(p) bytes. It returns (0, nil) at end of file.
	Read(ctx context.Context, p []byte) (int, error)

	Close(ctx context.Context) error
}

// WriteHandle is one write session on a file. Open creates or replaces the
// file; Close commits it.
type WriteHandle interface {
	Open(ctx context.Context, opts WriteOptions) error

	// Write writes p and returns the number of bytes accepted, which may be
	// less than len(p).
	Write(ctx context.Context, p []byte) (int, error)

	Close(ctx context.Context) error
}

// Syncer is implemented by write handles that can publish data before close.
type Syncer interface {
	// Flush makes written data visible to new readers.
	Flush(ctx context.Context) error

	// Sync flushes and persists written data.
	Sync(ctx context.Context) error
}

// Dialer establishes connections.
type Dialer interface {
	Dial(ctx context.Context, params Params) (Connection, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, params Params) (Connection, error)

func (f DialerFunc) Dial(ctx context.Context, params Params) (Connection, error) {
	return f(ctx, params)
}
