package hdfs

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/marmos91/dfsclient/pkg/provider"
)

var errnoSentinels = map[syscall.Errno]error{
	syscall.ENOENT:    provider.ErrNotFound,
	syscall.ENOTEMPTY: provider.ErrNotEmpty,
	syscall.ENOTDIR:   provider.ErrNotDirectory,
	syscall.EISDIR:    provider.ErrIsDirectory,
	syscall.EACCES:    provider.ErrPermissionDenied,
	syscall.EPERM:     provider.ErrPermissionDenied,
	syscall.EEXIST:    provider.ErrAlreadyExists,
	syscall.EINVAL:    provider.ErrInvalidInput,
}

// sentinelFor returns the provider sentinel matching err, or nil.
func sentinelFor(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}

	// Errno first: ENOTEMPTY also matches os.ErrExist.
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errnoSentinels[errno]
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return provider.ErrNotFound
	case errors.Is(err, os.ErrPermission):
		return provider.ErrPermissionDenied
	case errors.Is(err, os.ErrExist):
		return provider.ErrAlreadyExists
	case errors.Is(err, os.ErrDeadlineExceeded):
		return context.DeadlineExceeded
	}
	return nil
}

type mappedError struct {
	sentinel error
	err      error
}

func (e *mappedError) Error() string { return e.err.Error() }

func (e *mappedError) Unwrap() []error { return []error{e.sentinel, e.err} }

// mapError keeps the client's message and makes err match the provider
// taxonomy through errors.Is.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	s := sentinelFor(err)
	if s == nil || errors.Is(err, s) {
		return err
	}
	return &mappedError{sentinel: s, err: err}
}

// wrap maps err and records op and path.
func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *os.PathError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return provider.NewPathError(op, path, mapError(err))
}
