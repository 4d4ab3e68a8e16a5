package storage

import (
	"context"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// Connection is one session on a Filesystem. It carries the user identity
// and the working directory; all state is otherwise in the stores.
type Connection struct {
	fs    *Filesystem
	owner string
	group string

	mu sync.RWMutex
	wd string
}

var _ provider.Connection = (*Connection)(nil)

// resolve turns p into an absolute clean path against the working
// directory.
func (c *Connection) resolve(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	c.mu.RLock()
	wd := c.wd
	c.mu.RUnlock()
	return path.Join(wd, p)
}

func toFileInfo(e *metadata.Entry) provider.FileInfo {
	fi := provider.FileInfo{
		Path:        e.Path,
		Type:        provider.TypeFile,
		Size:        e.Size,
		Replication: e.Replication,
		BlockSize:   e.BlockSize,
		Owner:       e.Owner,
		Group:       e.Group,
		Permissions: e.Mode.Perm(),
		LastMod:     e.MTime,
		LastAccess:  e.ATime,
	}
	if e.IsDir() {
		fi.Type = provider.TypeDirectory
		fi.Size = 0
		fi.Replication = 0
		fi.BlockSize = 0
	}
	return fi
}

func (c *Connection) List(ctx context.Context, p string) ([]provider.FileInfo, error) {
	abs := c.resolve(p)

	e, err := c.fs.meta.Get(ctx, abs)
	if err != nil {
		return nil, translate("list", abs, err)
	}
	if !e.IsDir() {
		return []provider.FileInfo{toFileInfo(e)}, nil
	}

	kids, err := c.fs.meta.Children(ctx, abs)
	if err != nil {
		return nil, translate("list", abs, err)
	}
	result := make([]provider.FileInfo, 0, len(kids))
	for _, k := range kids {
		result = append(result, toFileInfo(k))
	}
	return result, nil
}

func (c *Connection) GetPathInfo(ctx context.Context, p string) (*provider.FileInfo, error) {
	abs := c.resolve(p)

	e, err := c.fs.meta.Get(ctx, abs)
	if err != nil {
		return nil, translate("stat", abs, err)
	}
	fi := toFileInfo(e)
	return &fi, nil
}

// Delete removes the namespace entries in one store call, then releases the
// blobs of removed files concurrently. Blob deletion failures leave orphans
// and are logged, not returned: the path is already gone.
func (c *Connection) Delete(ctx context.Context, p string, recursive bool) error {
	abs := c.resolve(p)

	removed, err := c.fs.meta.Delete(ctx, abs, recursive)
	if err != nil {
		return translate("delete", abs, err)
	}

	ids := make([]content.ID, 0, len(removed))
	for _, e := range removed {
		if !e.IsDir() && e.ContentID != "" {
			ids = append(ids, e.ContentID)
		}
	}
	if err := c.fs.releaseContent(ctx, ids...); err != nil {
		logger.Warn("failed to release content of deleted files", logger.KeyPath, abs, logger.KeyError, err)
	}
	return nil
}

func (fs *Filesystem) releaseContent(ctx context.Context, ids ...content.ID) error {
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(fs.deleteConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			return fs.content.Delete(gctx, id)
		})
	}
	return g.Wait()
}

func (c *Connection) CreateDirectory(ctx context.Context, p string) error {
	abs := c.resolve(p)
	return translate("mkdir", abs, c.mkdirAll(ctx, abs))
}

// mkdirAll creates abs and its missing ancestors. An existing directory is
// not an error; an existing file is.
func (c *Connection) mkdirAll(ctx context.Context, abs string) error {
	if abs == metadata.Root {
		return nil
	}

	e, err := c.fs.meta.Get(ctx, abs)
	if err == nil {
		if e.IsDir() {
			return nil
		}
		return provider.ErrAlreadyExists
	}
	if !metadata.IsNotFound(err) {
		return err
	}

	dir, _ := metadata.Split(abs)
	if err := c.mkdirAll(ctx, dir); err != nil {
		if err == provider.ErrAlreadyExists {
			return provider.ErrNotDirectory
		}
		return err
	}

	now := time.Now()
	err = c.fs.meta.Create(ctx, &metadata.Entry{
		Path:  abs,
		Type:  metadata.TypeDirectory,
		Owner: c.owner,
		Group: c.group,
		Mode:  os.ModeDir | provider.DefaultDirPermission,
		MTime: now,
		ATime: now,
	})
	if code, ok := metadata.CodeOf(err); ok && code == metadata.ErrAlreadyExists {
		// Lost a race with a concurrent mkdir; the winner's entry decides.
		return c.mkdirAll(ctx, abs)
	}
	return err
}

func (c *Connection) Exists(ctx context.Context, p string) error {
	abs := c.resolve(p)
	_, err := c.fs.meta.Get(ctx, abs)
	return translate("exists", abs, err)
}

// Rename moves oldPath. An existing destination directory receives the
// source under its own name.
func (c *Connection) Rename(ctx context.Context, oldPath, newPath string) error {
	src := c.resolve(oldPath)
	dst := c.resolve(newPath)

	if src == metadata.Root {
		return provider.NewPathError("rename", src, provider.ErrInvalidInput)
	}

	if e, err := c.fs.meta.Get(ctx, dst); err == nil {
		if !e.IsDir() {
			return provider.NewPathError("rename", dst, provider.ErrAlreadyExists)
		}
		dst = path.Join(dst, path.Base(src))
	} else if !metadata.IsNotFound(err) {
		return translate("rename", dst, err)
	}

	if err := c.fs.meta.Rename(ctx, src, dst); err != nil {
		return translate("rename", src, err)
	}
	return nil
}

// SetWorkingDirectory requires an existing directory.
func (c *Connection) SetWorkingDirectory(ctx context.Context, p string) error {
	abs := c.resolve(p)

	e, err := c.fs.meta.Get(ctx, abs)
	if err != nil {
		return translate("chdir", abs, err)
	}
	if !e.IsDir() {
		return provider.NewPathError("chdir", abs, provider.ErrNotDirectory)
	}

	c.mu.Lock()
	c.wd = abs
	c.mu.Unlock()
	return nil
}

func (c *Connection) GetWorkingDirectory(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wd, nil
}

// SetReplication accepts 1..MaxReplication and is a no-op on directories.
func (c *Connection) SetReplication(ctx context.Context, p string, replication int16) error {
	abs := c.resolve(p)
	if replication < 1 || replication > MaxReplication {
		return provider.NewPathError("setrep", abs, provider.ErrInvalidInput)
	}

	return c.update(ctx, "setrep", abs, func(e *metadata.Entry) {
		if !e.IsDir() {
			e.Replication = replication
		}
	})
}

func (c *Connection) GetDefaultBlockSize(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.fs.blockSize, nil
}

func (c *Connection) GetCapacity(ctx context.Context) (int64, error) {
	stats, err := c.fs.content.Stats(ctx)
	if err != nil {
		return 0, translate("capacity", "", err)
	}
	return clampInt64(stats.TotalSize), nil
}

// GetUsed returns the raw size: every file counted once per replica.
func (c *Connection) GetUsed(ctx context.Context) (int64, error) {
	stats, err := c.fs.meta.Stats(ctx)
	if err != nil {
		return 0, translate("used", "", err)
	}
	return clampInt64(stats.RawBytes), nil
}

func (c *Connection) Chown(ctx context.Context, p, owner, group string) error {
	abs := c.resolve(p)
	if owner == "" && group == "" {
		return provider.NewPathError("chown", abs, provider.ErrInvalidInput)
	}

	return c.update(ctx, "chown", abs, func(e *metadata.Entry) {
		if owner != "" {
			e.Owner = owner
		}
		if group != "" {
			e.Group = group
		}
	})
}

func (c *Connection) Chmod(ctx context.Context, p string, mode os.FileMode) error {
	abs := c.resolve(p)
	return c.update(ctx, "chmod", abs, func(e *metadata.Entry) {
		e.Mode = (e.Mode &^ os.ModePerm) | mode.Perm()
	})
}

func (c *Connection) Utime(ctx context.Context, p string, mtime, atime time.Time) error {
	abs := c.resolve(p)
	return c.update(ctx, "utime", abs, func(e *metadata.Entry) {
		if !mtime.IsZero() {
			e.MTime = mtime
		}
		if !atime.IsZero() {
			e.ATime = atime
		}
	})
}

// Truncate shrinks a file. The content store applies the new length
// immediately, so the result is always true.
func (c *Connection) Truncate(ctx context.Context, p string, newLength int64) (bool, error) {
	abs := c.resolve(p)
	if newLength < 0 {
		return false, provider.NewPathError("truncate", abs, provider.ErrInvalidInput)
	}

	e, err := c.fs.meta.Get(ctx, abs)
	if err != nil {
		return false, translate("truncate", abs, err)
	}
	if e.IsDir() {
		return false, provider.NewPathError("truncate", abs, provider.ErrIsDirectory)
	}
	if newLength > e.Size {
		return false, provider.NewPathError("truncate", abs, provider.ErrInvalidInput)
	}
	if newLength == e.Size {
		return true, nil
	}

	if err := c.fs.content.Truncate(ctx, e.ContentID, newLength); err != nil {
		return false, translate("truncate", abs, err)
	}
	e.Size = newLength
	e.MTime = time.Now()
	if err := c.fs.meta.Put(ctx, e); err != nil {
		return false, translate("truncate", abs, err)
	}
	return true, nil
}

func (c *Connection) NewReadHandle(p string) provider.ReadHandle {
	return &readHandle{fs: c.fs, path: c.resolve(p)}
}

func (c *Connection) NewWriteHandle(p string) provider.WriteHandle {
	return &writeHandle{conn: c, path: c.resolve(p)}
}

// Close is a no-op: the stores belong to the Filesystem.
func (c *Connection) Close() error {
	logger.Debug("embedded connection closed", "user", c.owner)
	return nil
}

// update applies fn to the entry at abs and stores the result.
func (c *Connection) update(ctx context.Context, op, abs string, fn func(*metadata.Entry)) error {
	e, err := c.fs.meta.Get(ctx, abs)
	if err != nil {
		return translate(op, abs, err)
	}
	fn(e)
	return translate(op, abs, c.fs.meta.Put(ctx, e))
}
