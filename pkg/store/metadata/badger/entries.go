package badger

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

func (s *BadgerMetadataStore) Get(ctx context.Context, path string) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := metadata.ValidatePath(path); err != nil {
		return nil, err
	}

	var e *metadata.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		e, err = getEntry(txn, path)
		return err
	})
	return e, err
}

func (s *BadgerMetadataStore) Create(ctx context.Context, entry *metadata.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := metadata.ValidatePath(entry.Path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := getEntry(txn, entry.Path)
		if err == nil {
			return metadata.NewError(metadata.ErrAlreadyExists, "already exists", entry.Path)
		}
		if !metadata.IsNotFound(err) {
			return err
		}
		if err := checkParent(txn, entry.Path); err != nil {
			return err
		}
		return setEntry(txn, entry)
	})
}

func (s *BadgerMetadataStore) Put(ctx context.Context, entry *metadata.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := metadata.ValidatePath(entry.Path); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		existing, err := getEntry(txn, entry.Path)
		switch {
		case metadata.IsNotFound(err):
			if err := checkParent(txn, entry.Path); err != nil {
				return err
			}
		case err != nil:
			return err
		case existing.IsDir() && !entry.IsDir():
			return metadata.NewError(metadata.ErrIsDirectory, "is a directory", entry.Path)
		case !existing.IsDir() && entry.IsDir():
			return metadata.NewError(metadata.ErrNotDirectory, "not a directory", entry.Path)
		}
		return setEntry(txn, entry)
	})
}

func (s *BadgerMetadataStore) Children(ctx context.Context, path string) ([]*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := metadata.ValidatePath(path); err != nil {
		return nil, err
	}

	var result []*metadata.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		dir, err := getEntry(txn, path)
		if err != nil {
			return err
		}
		if !dir.IsDir() {
			return metadata.NewError(metadata.ErrNotDirectory, "not a directory", path)
		}
		result, err = children(txn, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []*metadata.Entry{}
	}
	return result, nil
}

func (s *BadgerMetadataStore) Delete(ctx context.Context, path string, recursive bool) ([]*metadata.Entry, error) {
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

	var removed []*metadata.Entry
	err := s.db.Update(func(txn *badger.Txn) error {
		e, err := getEntry(txn, path)
		if err != nil {
			return err
		}
		if e.IsDir() && !recursive && hasChildren(txn, path) {
			return metadata.NewError(metadata.ErrNotEmpty, "directory not empty", path)
		}

		removed, err = subtree(txn, e)
		if err != nil {
			return err
		}
		for _, r := range removed {
			if err := txn.Delete(keyEntry(r.Path)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return nil, errors.New("subtree too large to delete in one transaction")
	}
	return removed, err
}

func (s *BadgerMetadataStore) Rename(ctx context.Context, oldPath, newPath string) error {
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

	return s.db.Update(func(txn *badger.Txn) error {
		e, err := getEntry(txn, oldPath)
		if err != nil {
			return err
		}
		if oldPath == newPath {
			return nil
		}
		if metadata.IsWithin(newPath, oldPath) {
			return metadata.NewError(metadata.ErrInvalidArgument, "cannot move a directory into itself", newPath)
		}
		if _, err := getEntry(txn, newPath); err == nil {
			return metadata.NewError(metadata.ErrAlreadyExists, "already exists", newPath)
		} else if !metadata.IsNotFound(err) {
			return err
		}
		if err := checkParent(txn, newPath); err != nil {
			return err
		}

		moved, err := subtree(txn, e)
		if err != nil {
			return err
		}
		for _, m := range moved {
			if err := txn.Delete(keyEntry(m.Path)); err != nil {
				return err
			}
			m.Path = metadata.Rebase(m.Path, oldPath, newPath)
			if err := setEntry(txn, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BadgerMetadataStore) Stats(ctx context.Context) (*metadata.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &metadata.Stats{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				e, err := decodeEntry(val)
				if err != nil {
					return err
				}
				stats.Add(e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
