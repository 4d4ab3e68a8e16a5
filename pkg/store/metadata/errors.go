package metadata

import "errors"

// StoreError is a namespace error with a category and the path involved.
//
// The provider translates codes into its own error taxonomy; infrastructure
// failures (disk, database) are returned as plain errors.
type StoreError struct {
	Code    ErrorCode
	Message string
	Path    string
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// Is matches another *StoreError with the same code, so that
// errors.Is(err, &StoreError{Code: ErrNotFound}) works.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	return ok && t.Code == e.Code
}

// ErrorCode is the category of a StoreError.
type ErrorCode int

const (
	ErrNotFound ErrorCode = iota
	ErrAlreadyExists
	ErrNotEmpty
	ErrNotDirectory
	ErrIsDirectory
	ErrInvalidArgument
)

// NewError builds a *StoreError.
func NewError(code ErrorCode, message, path string) error {
	return &StoreError{Code: code, Message: message, Path: path}
}

// CodeOf returns the code of a *StoreError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsNotFound reports whether err is a StoreError with ErrNotFound.
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrNotFound
}
