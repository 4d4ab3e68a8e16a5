package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/content"
	contenttesting "github.com/marmos91/dfsclient/pkg/store/content/testing"
)

func TestFSContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			store, err := NewFSContentStore(context.Background(), t.TempDir())
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

func TestFSContentStore_FanOut(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := NewFSContentStore(ctx, base)
	require.NoError(t, err)

	w, err := store.OpenWriter(ctx, "abcdef")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(filepath.Join(base, "ab", "abcdef"))
	assert.NoError(t, err)
}

func TestFSContentStore_WriterSync(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSContentStore(ctx, t.TempDir())
	require.NoError(t, err)

	w, err := store.OpenWriter(ctx, "synced")
	require.NoError(t, err)
	_, err = w.Write([]byte("durable"))
	require.NoError(t, err)

	syncer, ok := w.(content.Syncer)
	require.True(t, ok)
	require.NoError(t, syncer.Sync())

	size, err := store.Size(ctx, "synced")
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, syncer.Sync(), content.ErrWriterClosed)
}

func TestFSContentStore_StatsReportsDiskCapacity(t *testing.T) {
	store, err := NewFSContentStore(context.Background(), t.TempDir())
	require.NoError(t, err)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Positive(t, stats.TotalSize)
}
