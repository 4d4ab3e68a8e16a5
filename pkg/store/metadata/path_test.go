package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path  string
		valid bool
	}{
		{"/", true},
		{"/a", true},
		{"/a/b", true},
		{"", false},
		{"a", false},
		{"/a/", false},
		{"//a", false},
		{"/a/../b", false},
		{"/a/./b", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			code, ok := CodeOf(err)
			assert.True(t, ok)
			assert.Equal(t, ErrInvalidArgument, code)
		})
	}
}

func TestSplit(t *testing.T) {
	dir, name := Split("/a/b")
	assert.Equal(t, "/a", dir)
	assert.Equal(t, "b", name)

	dir, name = Split("/a")
	assert.Equal(t, "/", dir)
	assert.Equal(t, "a", name)

	dir, name = Split("/")
	assert.Empty(t, dir)
	assert.Empty(t, name)
}

func TestIsWithin(t *testing.T) {
	assert.True(t, IsWithin("/a", "/a"))
	assert.True(t, IsWithin("/a/b", "/a"))
	assert.True(t, IsWithin("/a", "/"))
	assert.False(t, IsWithin("/ab", "/a"))
	assert.False(t, IsWithin("/", "/a"))
}

func TestRebase(t *testing.T) {
	assert.Equal(t, "/x", Rebase("/a", "/a", "/x"))
	assert.Equal(t, "/x/b/c", Rebase("/a/b/c", "/a", "/x"))
	assert.Equal(t, "/y/z/b", Rebase("/a/b", "/a", "/y/z"))
}

func TestStoreError_Is(t *testing.T) {
	err := NewError(ErrNotEmpty, "directory not empty", "/d")

	assert.ErrorIs(t, err, &StoreError{Code: ErrNotEmpty})
	assert.NotErrorIs(t, err, &StoreError{Code: ErrNotFound})
	assert.False(t, IsNotFound(err))
	assert.True(t, IsNotFound(NewError(ErrNotFound, "not found", "/x")))
	assert.Equal(t, "directory not empty: /d", err.Error())
}

func TestStats_Add(t *testing.T) {
	var s Stats
	s.Add(&Entry{Type: TypeDirectory})
	s.Add(&Entry{Type: TypeFile, Size: 10, Replication: 3})
	s.Add(&Entry{Type: TypeFile, Size: 5})

	assert.Equal(t, Stats{Files: 2, Directories: 1, Bytes: 15, RawBytes: 35}, s)
}
