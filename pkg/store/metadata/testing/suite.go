// Package testing provides a conformance suite for metadata.Store
// implementations.
package testing

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// StoreTestSuite runs the metadata.Store contract against one backend.
type StoreTestSuite struct {
	// NewStore returns a fresh store holding only the root.
	NewStore func(t *testing.T) metadata.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("EntryOperations", suite.RunEntryTests)
	t.Run("DeleteOperations", suite.RunDeleteTests)
	t.Run("RenameOperations", suite.RunRenameTests)
	t.Run("Statistics", suite.RunStatsTests)
}

func testContext() context.Context {
	return context.Background()
}

func newDir(path string) *metadata.Entry {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &metadata.Entry{
		Path:  path,
		Type:  metadata.TypeDirectory,
		Owner: "hdfs",
		Group: "supergroup",
		Mode:  os.ModeDir | 0755,
		MTime: now,
		ATime: now,
	}
}

func newFile(path string, size int64) *metadata.Entry {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &metadata.Entry{
		Path:        path,
		Type:        metadata.TypeFile,
		Size:        size,
		Replication: 3,
		BlockSize:   128 << 20,
		Owner:       "hdfs",
		Group:       "supergroup",
		Mode:        0644,
		MTime:       now,
		ATime:       now,
		ContentID:   content.NewID(),
	}
}

func mustCreate(t *testing.T, store metadata.Store, entries ...*metadata.Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, store.Create(testContext(), e), e.Path)
	}
}

func requireCode(t *testing.T, want metadata.ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	code, ok := metadata.CodeOf(err)
	require.True(t, ok, "expected StoreError, got %v", err)
	require.Equal(t, want, code, err.Error())
}
