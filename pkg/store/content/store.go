// Package content defines blob storage for file bytes.
//
// A content store knows nothing about paths, owners or directories: it maps
// an opaque ID to a byte sequence. The namespace lives in the metadata
// store; the embedded provider joins the two.
package content

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// ID identifies one blob.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}

// Store is the blob storage contract.
//
// Implementations must be safe for concurrent use on distinct IDs. Callers
// never read and write the same ID concurrently: a file being rewritten gets
// a new ID.
type Store interface {
	// OpenReader opens id for sequential reading from the start.
	// Returns ErrContentNotFound if id does not exist.
	OpenReader(ctx context.Context, id ID) (io.ReadCloser, error)

	// OpenWriter creates id, replacing existing content. Data becomes
	// durable when the writer is closed.
	OpenWriter(ctx context.Context, id ID) (Writer, error)

	// Size returns the length of id in bytes.
	Size(ctx context.Context, id ID) (int64, error)

	// Truncate resizes id to size, zero-filling when growing.
	Truncate(ctx context.Context, id ID, size int64) error

	// Delete removes id. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id ID) error

	// Stats reports capacity and usage.
	Stats(ctx context.Context) (*StorageStats, error)
}

// Writer receives the bytes of one blob.
type Writer interface {
	io.Writer

	// Close commits the blob. Calling it twice is an error.
	Close() error
}

// Lister is implemented by stores that can enumerate their blobs. Garbage
// collection requires it.
type Lister interface {
	// List returns every ID in the store, in no particular order.
	List(ctx context.Context) ([]ID, error)
}

// Syncer is implemented by writers that can persist data before Close.
type Syncer interface {
	Sync() error
}

// StorageStats describes capacity and usage of a content store.
type StorageStats struct {
	// TotalSize is the capacity in bytes. Unbounded stores (object storage,
	// memory) report ^uint64(0).
	TotalSize uint64

	// UsedSize is the sum of all blob sizes.
	UsedSize uint64

	// AvailableSize is the space left, ^uint64(0) when unbounded.
	AvailableSize uint64

	ContentCount uint64

	// AverageSize is UsedSize / ContentCount, or 0 when empty.
	AverageSize uint64
}

// Unlimited is the TotalSize/AvailableSize of unbounded stores.
const Unlimited = ^uint64(0)

// NewStats fills the derived fields of StorageStats.
func NewStats(total, used, available, count uint64) *StorageStats {
	s := &StorageStats{
		TotalSize:     total,
		UsedSize:      used,
		AvailableSize: available,
		ContentCount:  count,
	}
	if count > 0 {
		s.AverageSize = used / count
	}
	return s
}
