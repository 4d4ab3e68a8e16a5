// Package memory implements an in-memory metadata store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// MemoryMetadataStore implements metadata.Store with maps.
//
// Thread Safety:
// A single RWMutex guards both maps. Entries are cloned on the way in and
// out.
type MemoryMetadataStore struct {
	mu       sync.RWMutex
	entries  map[string]*metadata.Entry
	children map[string]map[string]struct{}
}

// NewMemoryMetadataStore returns a store holding only the root directory.
func NewMemoryMetadataStore() *MemoryMetadataStore {
	s := &MemoryMetadataStore{
		entries:  make(map[string]*metadata.Entry),
		children: make(map[string]map[string]struct{}),
	}
	s.entries[metadata.Root] = metadata.NewRoot()
	s.children[metadata.Root] = make(map[string]struct{})
	return s
}

func (s *MemoryMetadataStore) Get(ctx context.Context, path string) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := metadata.ValidatePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[path]
	if !ok {
		return nil, metadata.NewError(metadata.ErrNotFound, "not found", path)
	}
	return e.Clone(), nil
}

func (s *MemoryMetadataStore) Create(ctx context.Context, entry *metadata.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := metadata.ValidatePath(entry.Path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.Path]; ok {
		return metadata.NewError(metadata.ErrAlreadyExists, "already exists", entry.Path)
	}
	return s.insertLocked(entry)
}

func (s *MemoryMetadataStore) Put(ctx context.Context, entry *metadata.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := metadata.ValidatePath(entry.Path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[entry.Path]
	if !ok {
		return s.insertLocked(entry)
	}
	if existing.IsDir() && !entry.IsDir() {
		return metadata.NewError(metadata.ErrIsDirectory, "is a directory", entry.Path)
	}
	if !existing.IsDir() && entry.IsDir() {
		return metadata.NewError(metadata.ErrNotDirectory, "not a directory", entry.Path)
	}
	s.entries[entry.Path] = entry.Clone()
	return nil
}

// insertLocked adds a new entry under an existing directory.
func (s *MemoryMetadataStore) insertLocked(entry *metadata.Entry) error {
	dir, name := metadata.Split(entry.Path)
	if dir == "" {
		return metadata.NewError(metadata.ErrAlreadyExists, "already exists", entry.Path)
	}

	parent, ok := s.entries[dir]
	if !ok {
		return metadata.NewError(metadata.ErrNotFound, "parent directory not found", dir)
	}
	if !parent.IsDir() {
		return metadata.NewError(metadata.ErrNotDirectory, "parent is not a directory", dir)
	}

	s.entries[entry.Path] = entry.Clone()
	s.children[dir][name] = struct{}{}
	if entry.IsDir() {
		s.children[entry.Path] = make(map[string]struct{})
	}
	return nil
}

func (s *MemoryMetadataStore) Children(ctx context.Context, path string) ([]*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := metadata.ValidatePath(path); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[path]
	if !ok {
		return nil, metadata.NewError(metadata.ErrNotFound, "not found", path)
	}
	if !e.IsDir() {
		return nil, metadata.NewError(metadata.ErrNotDirectory, "not a directory", path)
	}

	names := make([]string, 0, len(s.children[path]))
	for name := range s.children[path] {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]*metadata.Entry, 0, len(names))
	for _, name := range names {
		result = append(result, s.entries[join(path, name)].Clone())
	}
	return result, nil
}

func (s *MemoryMetadataStore) Delete(ctx context.Context, path string, recursive bool) ([]*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := metadata.ValidatePath(path); err != nil {
		return nil, err
	}
	if path == metadata.Root {
		return nil, metadata.NewError(metadata.ErrInvalidArgument, "cannot delete root", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[path]; !ok {
		return nil, metadata.NewError(metadata.ErrNotFound, "not found", path)
	}
	if len(s.children[path]) > 0 && !recursive {
		return nil, metadata.NewError(metadata.ErrNotEmpty, "directory not empty", path)
	}

	subtree := s.subtreeLocked(path)
	removed := make([]*metadata.Entry, 0, len(subtree))
	for _, p := range subtree {
		removed = append(removed, s.entries[p])
		delete(s.entries, p)
		delete(s.children, p)
	}

	dir, name := metadata.Split(path)
	delete(s.children[dir], name)
	return removed, nil
}

func (s *MemoryMetadataStore) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := metadata.ValidatePath(oldPath); err != nil {
		return err
	}
	if err := metadata.ValidatePath(newPath); err != nil {
		return err
	}
	if oldPath == metadata.Root || newPath == metadata.Root {
		return metadata.NewError(metadata.ErrInvalidArgument, "cannot rename root", oldPath)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[oldPath]; !ok {
		return metadata.NewError(metadata.ErrNotFound, "not found", oldPath)
	}
	if oldPath == newPath {
		return nil
	}
	if metadata.IsWithin(newPath, oldPath) {
		return metadata.NewError(metadata.ErrInvalidArgument, "cannot move a directory into itself", newPath)
	}
	if _, ok := s.entries[newPath]; ok {
		return metadata.NewError(metadata.ErrAlreadyExists, "already exists", newPath)
	}

	newDir, newName := metadata.Split(newPath)
	parent, ok := s.entries[newDir]
	if !ok {
		return metadata.NewError(metadata.ErrNotFound, "parent directory not found", newDir)
	}
	if !parent.IsDir() {
		return metadata.NewError(metadata.ErrNotDirectory, "parent is not a directory", newDir)
	}

	for _, p := range s.subtreeLocked(oldPath) {
		moved := metadata.Rebase(p, oldPath, newPath)
		e := s.entries[p]
		e.Path = moved
		s.entries[moved] = e
		delete(s.entries, p)
		if kids, ok := s.children[p]; ok {
			s.children[moved] = kids
			delete(s.children, p)
		}
	}

	oldDir, oldName := metadata.Split(oldPath)
	delete(s.children[oldDir], oldName)
	s.children[newDir][newName] = struct{}{}
	return nil
}

func (s *MemoryMetadataStore) Stats(ctx context.Context) (*metadata.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &metadata.Stats{}
	for _, e := range s.entries {
		stats.Add(e)
	}
	return stats, nil
}

func (s *MemoryMetadataStore) Close() error {
	return nil
}

// subtreeLocked returns path and all its descendants, parents first.
func (s *MemoryMetadataStore) subtreeLocked(path string) []string {
	result := []string{path}
	for i := 0; i < len(result); i++ {
		for name := range s.children[result[i]] {
			result = append(result, join(result[i], name))
		}
	}
	return result
}

func join(dir, name string) string {
	if dir == metadata.Root {
		return dir + name
	}
	return dir + "/" + name
}
