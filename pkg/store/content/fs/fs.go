// Package fs implements content storage on the local filesystem.
//
// Blobs are stored as regular files named after their ID, fanned out into
// 256 subdirectories by the first two characters of the ID.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// FSContentStore implements content.Store using the local filesystem.
//
// Thread Safety:
// Operations on distinct IDs are independent files and safe concurrently.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates the base directory (0755) if needed.
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSContentStore{basePath: basePath}, nil
}

func (s *FSContentStore) filePath(id content.ID) string {
	name := string(id)
	if len(name) < 2 {
		return filepath.Join(s.basePath, "_", name)
	}
	return filepath.Join(s.basePath, name[:2], name)
}

func notFound(id content.ID, err error) error {
	if errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
	}
	return fmt.Errorf("content %s: %w", id, err)
}

func (s *FSContentStore) OpenReader(ctx context.Context, id content.ID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.filePath(id))
	if err != nil {
		return nil, notFound(id, err)
	}
	return f, nil
}

func (s *FSContentStore) OpenWriter(ctx context.Context, id content.ID) (content.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := s.filePath(id)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return nil, fmt.Errorf("content %s: %w", id, err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("content %s: %w", id, err)
	}
	return &fileWriter{f: f}, nil
}

func (s *FSContentStore) Size(ctx context.Context, id content.ID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fi, err := os.Stat(s.filePath(id))
	if err != nil {
		return 0, notFound(id, err)
	}
	return fi.Size(), nil
}

func (s *FSContentStore) Truncate(ctx context.Context, id content.ID, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("truncate %s to %d: %w", id, size, content.ErrInvalidSize)
	}
	if err := os.Truncate(s.filePath(id), size); err != nil {
		return notFound(id, err)
	}
	return nil
}

func (s *FSContentStore) Delete(ctx context.Context, id content.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.filePath(id)); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return fmt.Errorf("content %s: %w", id, err)
	}
	return nil
}

// Stats combines disk capacity from statfs with a scan of the stored blobs.
func (s *FSContentStore) Stats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var used, count uint64
	err := filepath.WalkDir(s.basePath, func(_ string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return ctx.Err()
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		used += uint64(info.Size())
		count++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan content directory: %w", err)
	}

	total, available, err := diskUsage(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("statfs %s: %w", s.basePath, err)
	}
	return content.NewStats(total, used, available, count), nil
}

// List walks the fan-out directories; every regular file is one blob.
func (s *FSContentStore) List(ctx context.Context) ([]content.ID, error) {
	var ids []content.ID
	err := filepath.WalkDir(s.basePath, func(_ string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return ctx.Err()
		}
		if d.Type().IsRegular() {
			ids = append(ids, content.ID(d.Name()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan content directory: %w", err)
	}
	return ids, nil
}

type fileWriter struct {
	f      *os.File
	closed bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, content.ErrWriterClosed
	}
	return w.f.Write(p)
}

func (w *fileWriter) Sync() error {
	if w.closed {
		return content.ErrWriterClosed
	}
	return w.f.Sync()
}

func (w *fileWriter) Close() error {
	if w.closed {
		return content.ErrWriterClosed
	}
	w.closed = true
	return w.f.Close()
}
