// Package metadata defines the namespace store of the embedded provider.
//
// A metadata store maps absolute, cleaned paths ("/", "/a/b") to entries.
// It enforces the tree shape (parents exist and are directories, names are
// unique) but no HDFS policy: ownership defaults, replication limits and
// working directories belong to the provider.
package metadata

import (
	"context"
	"os"
	"time"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// EntryType distinguishes files from directories.
type EntryType int

const (
	TypeFile EntryType = iota
	TypeDirectory
)

func (t EntryType) String() string {
	if t == TypeDirectory {
		return "directory"
	}
	return "file"
}

// Entry is one node of the namespace.
type Entry struct {
	Path        string      `json:"path"`
	Type        EntryType   `json:"type"`
	Size        int64       `json:"size"`
	Replication int16       `json:"replication,omitempty"`
	BlockSize   int64       `json:"block_size,omitempty"`
	Owner       string      `json:"owner"`
	Group       string      `json:"group"`
	Mode        os.FileMode `json:"mode"`
	MTime       time.Time   `json:"mtime"`
	ATime       time.Time   `json:"atime"`

	// ContentID is the blob holding the bytes of a file. Empty for
	// directories.
	ContentID content.ID `json:"content_id,omitempty"`
}

// IsDir reports whether e is a directory.
func (e *Entry) IsDir() bool {
	return e.Type == TypeDirectory
}

// Clone returns a copy of e. Stores hand out clones so callers may mutate
// the result freely.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// Stats summarizes the namespace.
type Stats struct {
	Files       uint64
	Directories uint64

	// Bytes is the sum of file sizes.
	Bytes uint64

	// RawBytes is the sum of size × replication.
	RawBytes uint64
}

// Add accounts e in s.
func (s *Stats) Add(e *Entry) {
	if e.IsDir() {
		s.Directories++
		return
	}
	s.Files++
	s.Bytes += uint64(e.Size)
	repl := int64(e.Replication)
	if repl < 1 {
		repl = 1
	}
	s.RawBytes += uint64(e.Size * repl)
}

// NewRoot returns the root directory entry created by new stores.
func NewRoot() *Entry {
	now := time.Now()
	return &Entry{
		Path:  Root,
		Type:  TypeDirectory,
		Mode:  os.ModeDir | 0755,
		MTime: now,
		ATime: now,
	}
}

// Store is the namespace contract.
//
// All paths must be absolute and clean; anything else fails with
// ErrInvalidArgument. The root directory always exists and cannot be
// created, deleted or renamed.
//
// Thread Safety:
// Implementations must be safe for concurrent use. Each method is atomic.
type Store interface {
	// Get returns the entry at path.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, path string) (*Entry, error)

	// Create inserts a new entry. The parent must exist and be a directory.
	// Returns ErrAlreadyExists if path is taken.
	Create(ctx context.Context, entry *Entry) error

	// Put replaces an existing entry, or creates it like Create. Replacing
	// a directory with a file or the reverse fails with ErrIsDirectory or
	// ErrNotDirectory.
	Put(ctx context.Context, entry *Entry) error

	// Children lists the direct children of a directory, sorted by name.
	Children(ctx context.Context, path string) ([]*Entry, error)

	// Delete removes path. A non-empty directory requires recursive, else
	// ErrNotEmpty. Returns every removed entry so the caller can release
	// content.
	Delete(ctx context.Context, path string, recursive bool) ([]*Entry, error)

	// Rename moves oldPath and its subtree to newPath, which must not exist
	// and whose parent must be a directory.
	Rename(ctx context.Context, oldPath, newPath string) error

	// Stats walks the namespace.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}
