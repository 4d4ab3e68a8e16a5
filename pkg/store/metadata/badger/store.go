// Package badger implements a persistent metadata store on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// BadgerMetadataStore implements metadata.Store on BadgerDB.
//
// Thread Safety:
// Reads run in concurrent read transactions. Writes are serialized by mu so
// that multi-key updates (subtree deletes and renames) never conflict.
type BadgerMetadataStore struct {
	db *badger.DB
	mu sync.Mutex
}

// BadgerMetadataStoreConfig configures a BadgerMetadataStore.
type BadgerMetadataStoreConfig struct {
	// DBPath is the directory holding the database files.
	DBPath string `mapstructure:"db_path" validate:"required"`

	// BlockCacheSizeMB is the LSM block cache, default 64.
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is the LSM index cache, default 32.
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`

	// InMemory runs without touching disk; DBPath is ignored.
	InMemory bool `mapstructure:"in_memory"`
}

// NewBadgerMetadataStore opens (or creates) the database and makes sure the
// root directory exists.
func NewBadgerMetadataStore(ctx context.Context, config BadgerMetadataStoreConfig) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.DBPath)
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	store := &BadgerMetadataStore{db: db}
	if err := store.initializeRoot(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize root: %w", err)
	}
	return store, nil
}

func (s *BadgerMetadataStore) initializeRoot() error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyEntry(metadata.Root))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setEntry(txn, metadata.NewRoot())
	})
}

// Close closes the database.
func (s *BadgerMetadataStore) Close() error {
	return s.db.Close()
}

func getEntry(txn *badger.Txn, path string) (*metadata.Entry, error) {
	item, err := txn.Get(keyEntry(path))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, metadata.NewError(metadata.ErrNotFound, "not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", path, err)
	}

	var e *metadata.Entry
	err = item.Value(func(val []byte) error {
		e, err = decodeEntry(val)
		return err
	})
	return e, err
}

func setEntry(txn *badger.Txn, e *metadata.Entry) error {
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	return txn.Set(keyEntry(e.Path), data)
}

// hasChildren reports whether dir has at least one child.
func hasChildren(txn *badger.Txn, dir string) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = keyChildPrefix(dir)

	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	return it.Valid()
}

// children returns the direct children of dir in name order.
func children(txn *badger.Txn, dir string) ([]*metadata.Entry, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyChildPrefix(dir)

	it := txn.NewIterator(opts)
	defer it.Close()

	var result []*metadata.Entry
	for it.Rewind(); it.Valid(); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			e, err := decodeEntry(val)
			if err != nil {
				return err
			}
			result = append(result, e)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// subtree returns root and all its descendants, parents first.
func subtree(txn *badger.Txn, root *metadata.Entry) ([]*metadata.Entry, error) {
	result := []*metadata.Entry{root}
	for i := 0; i < len(result); i++ {
		if !result[i].IsDir() {
			continue
		}
		kids, err := children(txn, result[i].Path)
		if err != nil {
			return nil, err
		}
		result = append(result, kids...)
	}
	return result, nil
}

// checkParent verifies that the parent of path is an existing directory.
func checkParent(txn *badger.Txn, path string) error {
	dir, _ := metadata.Split(path)
	if dir == "" {
		return metadata.NewError(metadata.ErrAlreadyExists, "already exists", path)
	}
	parent, err := getEntry(txn, dir)
	if metadata.IsNotFound(err) {
		return metadata.NewError(metadata.ErrNotFound, "parent directory not found", dir)
	}
	if err != nil {
		return err
	}
	if !parent.IsDir() {
		return metadata.NewError(metadata.ErrNotDirectory, "parent is not a directory", dir)
	}
	return nil
}
