package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not found", ErrNotFound, CodeNotFound},
		{"wrapped not empty", NewPathError("delete", "/d", ErrNotEmpty), CodeNotEmpty},
		{"double wrapped", fmt.Errorf("outer: %w", NewPathError("chmod", "/f", ErrPermissionDenied)), CodePermissionDenied},
		{"invalid", ErrInvalidInput, CodeInvalidInput},
		{"exists", ErrAlreadyExists, CodeAlreadyExists},
		{"not dir", ErrNotDirectory, CodeNotDirectory},
		{"is dir", ErrIsDirectory, CodeIsDirectory},
		{"unsupported", ErrNotSupported, CodeNotSupported},
		{"canceled", context.Canceled, CodeCanceled},
		{"opaque", errors.New("rpc failure"), CodeProviderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestPathError(t *testing.T) {
	err := NewPathError("delete", "/dir2", ErrNotEmpty)

	assert.Equal(t, "delete /dir2: directory not empty", err.Error())
	assert.ErrorIs(t, err, ErrNotEmpty)

	var pe *PathError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, "/dir2", pe.Path)

	assert.NoError(t, NewPathError("x", "/y", nil))
	assert.Equal(t, "capacity: file not found", NewPathError("capacity", "", ErrNotFound).Error())
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "not_empty", CodeNotEmpty.String())
	assert.Equal(t, "provider_failure", CodeProviderFailure.String())
}

func TestParamsWithDefaults(t *testing.T) {
	p := Params{Port: -4}.WithDefaults()
	assert.Equal(t, DefaultService, p.Service)
	assert.Equal(t, 0, p.Port)

	p = Params{Service: "nn1", Port: 9000}.WithDefaults()
	assert.Equal(t, "nn1", p.Service)
	assert.Equal(t, 9000, p.Port)
}

func TestFilePermission(t *testing.T) {
	assert.Equal(t, DefaultFilePermission, WriteOptions{}.FilePermission())
	assert.Equal(t, 0600, int(WriteOptions{Permission: 0600}.FilePermission()))
}
