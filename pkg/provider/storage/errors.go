package storage

import (
	"errors"

	"github.com/marmos91/dfsclient/pkg/provider"
	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// translate maps store errors onto the provider taxonomy. Anything it does
// not recognize is wrapped verbatim.
func translate(op, path string, err error) error {
	if err == nil {
		return nil
	}

	if code, ok := metadata.CodeOf(err); ok {
		return provider.NewPathError(op, path, sentinelFor(code))
	}

	switch {
	case errors.Is(err, content.ErrContentNotFound):
		return provider.NewPathError(op, path, provider.ErrNotFound)
	case errors.Is(err, content.ErrInvalidSize):
		return provider.NewPathError(op, path, provider.ErrInvalidInput)
	case errors.Is(err, content.ErrWriterClosed):
		return provider.NewPathError(op, path, provider.ErrClosed)
	}

	// Already classified by this package.
	var pe *provider.PathError
	if errors.As(err, &pe) {
		return err
	}
	return provider.NewPathError(op, path, err)
}

func sentinelFor(code metadata.ErrorCode) error {
	switch code {
	case metadata.ErrNotFound:
		return provider.ErrNotFound
	case metadata.ErrAlreadyExists:
		return provider.ErrAlreadyExists
	case metadata.ErrNotEmpty:
		return provider.ErrNotEmpty
	case metadata.ErrNotDirectory:
		return provider.ErrNotDirectory
	case metadata.ErrIsDirectory:
		return provider.ErrIsDirectory
	default:
		return provider.ErrInvalidInput
	}
}
