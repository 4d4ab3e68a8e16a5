package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// MemoryContentStore implements content.Store in memory.
//
// Intended for tests and ephemeral filesystems. Writes land in the map as
// they happen, so a concurrent Size reflects data written but not yet
// committed; readers get a snapshot taken at open.
//
// Thread Safety:
// All operations are protected by a sync.RWMutex. Data is copied on the way
// in and out so callers never share buffers with the store.
type MemoryContentStore struct {
	mu   sync.RWMutex
	data map[content.ID][]byte
}

// NewMemoryContentStore creates an empty store.
func NewMemoryContentStore(ctx context.Context) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &MemoryContentStore{
		data: make(map[content.ID][]byte),
	}, nil
}

func (s *MemoryContentStore) OpenReader(ctx context.Context, id content.ID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

func (s *MemoryContentStore) OpenWriter(ctx context.Context, id content.ID) (content.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.data[id] = []byte{}
	s.mu.Unlock()

	return &memoryWriter{store: s, id: id}, nil
}

func (s *MemoryContentStore) Size(ctx context.Context, id content.ID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[id]
	if !ok {
		return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return int64(len(data)), nil
}

func (s *MemoryContentStore) Truncate(ctx context.Context, id content.ID, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("truncate %s to %d: %w", id, size, content.ErrInvalidSize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.data[id]
	if !ok {
		return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}

	if size <= int64(len(data)) {
		s.data[id] = data[:size:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, data)
	s.data[id] = grown
	return nil
}

func (s *MemoryContentStore) Delete(ctx context.Context, id content.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}

// Stats reports unlimited capacity and the summed blob sizes.
func (s *MemoryContentStore) Stats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var used uint64
	for _, data := range s.data {
		used += uint64(len(data))
	}
	return content.NewStats(content.Unlimited, used, content.Unlimited, uint64(len(s.data))), nil
}

type memoryWriter struct {
	store  *MemoryContentStore
	id     content.ID
	closed bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, content.ErrWriterClosed
	}

	w.store.mu.Lock()
	defer w.store.mu.Unlock()

	w.store.data[w.id] = append(w.store.data[w.id], p...)
	return len(p), nil
}

func (w *memoryWriter) Close() error {
	if w.closed {
		return content.ErrWriterClosed
	}
	w.closed = true
	return nil
}

func (s *MemoryContentStore) List(ctx context.Context) ([]content.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]content.ID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
