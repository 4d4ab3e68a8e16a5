// Package storage implements an embedded filesystem provider.
//
// The namespace lives in a metadata.Store and file bytes in a
// content.Store. The provider applies HDFS semantics on top: implicit
// parent creation, replication factors, owner and group defaults, and
// length-only truncation.
package storage

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/user"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

const (
	// DefaultBlockSize matches the HDFS dfs.blocksize default.
	DefaultBlockSize int64 = 128 << 20

	// DefaultReplication matches the HDFS dfs.replication default.
	DefaultReplication int16 = 3

	// MaxReplication is the largest accepted replication factor.
	MaxReplication int16 = 512

	defaultDeleteConcurrency = 8
)

// Config wires the stores of a Filesystem.
type Config struct {
	Metadata metadata.Store
	Content  content.Store

	// DefaultBlockSize applies when WriteOptions.BlockSize is zero.
	DefaultBlockSize int64

	// DefaultReplication applies when WriteOptions.Replication is zero.
	DefaultReplication int16

	// DeleteConcurrency bounds concurrent blob deletions of a recursive
	// delete.
	DeleteConcurrency int
}

// Filesystem owns the stores and hands out connections. It implements
// provider.Dialer.
type Filesystem struct {
	meta    metadata.Store
	content content.Store

	blockSize         int64
	replication       int16
	deleteConcurrency int
}

// New validates cfg.
func New(cfg Config) (*Filesystem, error) {
	if cfg.Metadata == nil {
		return nil, fmt.Errorf("metadata store is required")
	}
	if cfg.Content == nil {
		return nil, fmt.Errorf("content store is required")
	}

	fs := &Filesystem{
		meta:              cfg.Metadata,
		content:           cfg.Content,
		blockSize:         cfg.DefaultBlockSize,
		replication:       cfg.DefaultReplication,
		deleteConcurrency: cfg.DeleteConcurrency,
	}
	if fs.blockSize <= 0 {
		fs.blockSize = DefaultBlockSize
	}
	if fs.replication <= 0 {
		fs.replication = DefaultReplication
	}
	if fs.replication > MaxReplication {
		return nil, fmt.Errorf("default replication %d exceeds %d", fs.replication, MaxReplication)
	}
	if fs.deleteConcurrency <= 0 {
		fs.deleteConcurrency = defaultDeleteConcurrency
	}
	return fs, nil
}

// Dial opens a connection acting as params.User, or the OS user when
// empty. Service and port are ignored: there is exactly one namespace.
func (fs *Filesystem) Dial(ctx context.Context, params provider.Params) (provider.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	owner := params.User
	if owner == "" {
		owner = currentUser()
	}

	logger.Debug("embedded connection opened", "user", owner)
	return &Connection{
		fs:    fs,
		owner: owner,
		group: provider.DefaultSupergroup,
		wd:    metadata.Root,
	}, nil
}

// Close closes the metadata store. Connections must not be used afterwards.
func (fs *Filesystem) Close() error {
	return fs.meta.Close()
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "hdfs"
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
