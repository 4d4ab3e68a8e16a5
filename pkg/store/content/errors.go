package content

import "errors"

// Implementations wrap these with the ID involved:
//
//	return fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
var (
	// ErrContentNotFound indicates the ID does not exist.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidSize indicates a negative size was passed to Truncate.
	ErrInvalidSize = errors.New("invalid content size")

	// ErrWriterClosed is returned when writing to or closing a closed writer.
	ErrWriterClosed = errors.New("content writer closed")
)
