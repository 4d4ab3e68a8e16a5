package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/content"
	contenttesting "github.com/marmos91/dfsclient/pkg/store/content/testing"
)

func TestMemoryContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			store, err := NewMemoryContentStore(context.Background())
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

func TestMemoryContentStore_ReaderIsSnapshot(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryContentStore(ctx)
	require.NoError(t, err)

	w, err := store.OpenWriter(ctx, "blob")
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)

	r, err := store.OpenReader(ctx, "blob")
	require.NoError(t, err)

	_, err = w.Write([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	buf := make([]byte, 16)
	n, _ := r.Read(buf)
	require.Equal(t, "abc", string(buf[:n]))

	size, err := store.Size(ctx, "blob")
	require.NoError(t, err)
	require.Equal(t, int64(6), size)
}
