package hdfs

import (
	"context"
	"errors"
	"math"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/colinmarc/hdfs/v2"

	"github.com/marmos91/dfsclient/pkg/provider"
)

// MaxPathLength bounds paths handed to the namenode.
const MaxPathLength = 8000

// Connection is a session with one HDFS cluster.
//
// The working directory is tracked client side; the wire protocol has no
// notion of one.
type Connection struct {
	client      *hdfs.Client
	blockSize   int64
	replication int16

	mu sync.RWMutex
	wd string
}

var _ provider.Connection = (*Connection)(nil)

func (c *Connection) resolve(p string) (string, error) {
	if len(p) > MaxPathLength {
		return "", provider.NewPathError("resolve", p[:64]+"...", provider.ErrInvalidInput)
	}
	if strings.ContainsRune(p, 0) {
		return "", provider.NewPathError("resolve", p, provider.ErrInvalidInput)
	}
	if path.IsAbs(p) {
		return path.Clean(p), nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return path.Join(c.wd, p), nil
}

// blockParams reads replication and block size from the status the
// namenode returns in FileInfo.Sys.
type blockParams interface {
	GetBlockReplication() uint32
	GetBlocksize() uint64
}

func toFileInfo(p string, fi os.FileInfo) provider.FileInfo {
	info := provider.FileInfo{
		Path:        p,
		Type:        provider.TypeFile,
		Size:        fi.Size(),
		Permissions: fi.Mode().Perm(),
		LastMod:     fi.ModTime(),
	}
	switch {
	case fi.IsDir():
		info.Type = provider.TypeDirectory
		info.Size = 0
	case !fi.Mode().IsRegular():
		info.Type = provider.TypeOther
	}

	if hfi, ok := fi.(*hdfs.FileInfo); ok {
		info.Owner = hfi.Owner()
		info.Group = hfi.OwnerGroup()
		info.LastAccess = hfi.AccessTime()
	}
	if bp, ok := fi.Sys().(blockParams); ok && !fi.IsDir() {
		info.Replication = int16(bp.GetBlockReplication())
		info.BlockSize = int64(bp.GetBlocksize())
	}
	return info
}

func (c *Connection) stat(ctx context.Context, p string) (os.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.client.Stat(p)
}

func (c *Connection) List(ctx context.Context, p string) ([]provider.FileInfo, error) {
	full, err := c.resolve(p)
	if err != nil {
		return nil, err
	}
	fi, err := c.stat(ctx, full)
	if err != nil {
		return nil, wrap("list", full, err)
	}
	if !fi.IsDir() {
		return []provider.FileInfo{toFileInfo(full, fi)}, nil
	}

	entries, err := c.client.ReadDir(full)
	if err != nil {
		return nil, wrap("list", full, err)
	}
	out := make([]provider.FileInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, toFileInfo(path.Join(full, e.Name()), e))
	}
	return out, nil
}

func (c *Connection) GetPathInfo(ctx context.Context, p string) (*provider.FileInfo, error) {
	full, err := c.resolve(p)
	if err != nil {
		return nil, err
	}
	fi, err := c.stat(ctx, full)
	if err != nil {
		return nil, wrap("stat", full, err)
	}
	info := toFileInfo(full, fi)
	return &info, nil
}

func (c *Connection) Delete(ctx context.Context, p string, recursive bool) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if recursive {
		// RemoveAll succeeds on a missing path.
		if _, err := c.client.Stat(full); err != nil {
			return wrap("delete", full, err)
		}
		return wrap("delete", full, c.client.RemoveAll(full))
	}
	return wrap("delete", full, c.client.Remove(full))
}

func (c *Connection) CreateDirectory(ctx context.Context, p string) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap("mkdir", full, c.client.MkdirAll(full, provider.DefaultDirPermission))
}

func (c *Connection) Exists(ctx context.Context, p string) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	_, err = c.stat(ctx, full)
	return wrap("exists", full, err)
}

// Rename moves oldPath to newPath. An existing directory at newPath
// receives oldPath under its own name.
func (c *Connection) Rename(ctx context.Context, oldPath, newPath string) error {
	src, err := c.resolve(oldPath)
	if err != nil {
		return err
	}
	dst, err := c.resolve(newPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if fi, err := c.client.Stat(dst); err == nil {
		if !fi.IsDir() {
			return provider.NewPathError("rename", dst, provider.ErrAlreadyExists)
		}
		dst = path.Join(dst, path.Base(src))
	}
	return wrap("rename", src, c.client.Rename(src, dst))
}

func (c *Connection) SetWorkingDirectory(ctx context.Context, p string) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	fi, err := c.stat(ctx, full)
	if err != nil {
		return wrap("chdir", full, err)
	}
	if !fi.IsDir() {
		return provider.NewPathError("chdir", full, provider.ErrNotDirectory)
	}
	c.mu.Lock()
	c.wd = full
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

// SetReplication is not exposed by the wire client.
func (c *Connection) SetReplication(ctx context.Context, p string, replication int16) error {
	return provider.NewPathError("setrep", p, provider.ErrNotSupported)
}

func (c *Connection) GetDefaultBlockSize(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.blockSize, nil
}

func (c *Connection) fsInfo(ctx context.Context) (hdfs.FsInfo, error) {
	if err := ctx.Err(); err != nil {
		return hdfs.FsInfo{}, err
	}
	info, err := c.client.StatFs()
	if err != nil {
		return hdfs.FsInfo{}, wrap("statfs", "", err)
	}
	return info, nil
}

func (c *Connection) GetCapacity(ctx context.Context) (int64, error) {
	info, err := c.fsInfo(ctx)
	if err != nil {
		return 0, err
	}
	return clampInt64(info.Capacity), nil
}

func (c *Connection) GetUsed(ctx context.Context) (int64, error) {
	info, err := c.fsInfo(ctx)
	if err != nil {
		return 0, err
	}
	return clampInt64(info.Used), nil
}

// Chown fills an empty owner or group from the current status, since the
// namenode treats empty as "clear".
func (c *Connection) Chown(ctx context.Context, p, owner, group string) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	if owner == "" && group == "" {
		return provider.NewPathError("chown", full, provider.ErrInvalidInput)
	}
	fi, err := c.stat(ctx, full)
	if err != nil {
		return wrap("chown", full, err)
	}
	if hfi, ok := fi.(*hdfs.FileInfo); ok {
		if owner == "" {
			owner = hfi.Owner()
		}
		if group == "" {
			group = hfi.OwnerGroup()
		}
	}
	return wrap("chown", full, c.client.Chown(full, owner, group))
}

func (c *Connection) Chmod(ctx context.Context, p string, mode os.FileMode) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap("chmod", full, c.client.Chmod(full, mode.Perm()))
}

func (c *Connection) Utime(ctx context.Context, p string, mtime, atime time.Time) error {
	full, err := c.resolve(p)
	if err != nil {
		return err
	}
	if mtime.IsZero() || atime.IsZero() {
		fi, err := c.stat(ctx, full)
		if err != nil {
			return wrap("utime", full, err)
		}
		if mtime.IsZero() {
			mtime = fi.ModTime()
		}
		if atime.IsZero() {
			atime = mtime
			if hfi, ok := fi.(*hdfs.FileInfo); ok {
				atime = hfi.AccessTime()
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap("utime", full, c.client.Chtimes(full, atime, mtime))
}

// Truncate reports false while the namenode recovers the last block; the
// file reaches newLength once recovery completes.
func (c *Connection) Truncate(ctx context.Context, p string, newLength int64) (bool, error) {
	full, err := c.resolve(p)
	if err != nil {
		return false, err
	}
	if newLength < 0 {
		return false, provider.NewPathError("truncate", full, provider.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	done, err := c.client.Truncate(full, newLength)
	if err != nil {
		return false, wrap("truncate", full, err)
	}
	return done, nil
}

func (c *Connection) NewReadHandle(p string) provider.ReadHandle {
	return &readHandle{conn: c, path: p}
}

func (c *Connection) NewWriteHandle(p string) provider.WriteHandle {
	return &writeHandle{conn: c, path: p}
}

func (c *Connection) Close() error {
	err := c.client.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
