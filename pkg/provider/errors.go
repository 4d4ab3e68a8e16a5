package provider

import (
	"context"
	"errors"
)

// ErrorCode is the category of a filesystem error.
//
// Providers return one of the sentinel errors below (usually wrapped in a
// *PathError); callers classify any error with CodeOf.
type ErrorCode int

const (
	// CodeProviderFailure is any error the taxonomy does not name. The
	// underlying error is surfaced verbatim.
	CodeProviderFailure ErrorCode = iota

	// CodeNotFound indicates the path does not exist.
	CodeNotFound

	// CodeNotEmpty indicates a non-recursive delete of a non-empty directory.
	CodeNotEmpty

	// CodeInvalidInput covers malformed payloads, options and paths.
	CodeInvalidInput

	// CodePermissionDenied indicates the user may not perform the operation.
	CodePermissionDenied

	// CodeAlreadyExists indicates the destination of a create or rename exists.
	CodeAlreadyExists

	// CodeNotDirectory indicates a directory was expected.
	CodeNotDirectory

	// CodeIsDirectory indicates a file was expected.
	CodeIsDirectory

	// CodeNotSupported indicates the provider cannot perform the operation.
	CodeNotSupported

	// CodeCanceled indicates the caller's context ended first.
	CodeCanceled
)

var (
	ErrNotFound         = errors.New("file not found")
	ErrNotEmpty         = errors.New("directory not empty")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyExists    = errors.New("file already exists")
	ErrNotDirectory     = errors.New("not a directory")
	ErrIsDirectory      = errors.New("is a directory")
	ErrNotSupported     = errors.New("operation not supported")

	// ErrClosed is returned by streams used after Close.
	ErrClosed = errors.New("stream closed")
)

var codes = []struct {
	err  error
	code ErrorCode
}{
	{ErrNotFound, CodeNotFound},
	{ErrNotEmpty, CodeNotEmpty},
	{ErrInvalidInput, CodeInvalidInput},
	{ErrPermissionDenied, CodePermissionDenied},
	{ErrAlreadyExists, CodeAlreadyExists},
	{ErrNotDirectory, CodeNotDirectory},
	{ErrIsDirectory, CodeIsDirectory},
	{ErrNotSupported, CodeNotSupported},
	{context.Canceled, CodeCanceled},
	{context.DeadlineExceeded, CodeCanceled},
}

// CodeOf classifies err. A nil error has no meaningful code and reports
// CodeProviderFailure; check for nil first.
func CodeOf(err error) ErrorCode {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeProviderFailure
}

func (c ErrorCode) String() string {
	switch c {
	case CodeNotFound:
		return "not_found"
	case CodeNotEmpty:
		return "not_empty"
	case CodeInvalidInput:
		return "invalid_input"
	case CodePermissionDenied:
		return "permission_denied"
	case CodeAlreadyExists:
		return "already_exists"
	case CodeNotDirectory:
		return "not_directory"
	case CodeIsDirectory:
		return "is_directory"
	case CodeNotSupported:
		return "not_supported"
	case CodeCanceled:
		return "canceled"
	default:
		return "provider_failure"
	}
}

// PathError records the operation and path that caused an error.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError wraps err with op and path. A nil err returns nil.
func NewPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PathError{Op: op, Path: path, Err: err}
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
