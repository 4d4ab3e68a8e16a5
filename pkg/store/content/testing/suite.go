// Package testing provides a conformance suite for content.Store
// implementations.
package testing

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// StoreTestSuite runs the content.Store contract against one backend.
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &storetesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore returns a fresh, empty store for each test.
	NewStore func(t *testing.T) content.Store

	// ApproximateUsage skips exact UsedSize checks for stores that report
	// encoded sizes.
	ApproximateUsage bool
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("WriteOperations", suite.RunWriteTests)
	t.Run("Statistics", suite.RunStatsTests)
	t.Run("Listing", suite.RunListTests)
}

func testContext() context.Context {
	return context.Background()
}

func generateTestData(size int) []byte {
	data := make([]byte, size)
	_, _ = rand.Read(data)
	return data
}

func mustWriteContent(t *testing.T, store content.Store, id content.ID, data []byte) {
	t.Helper()

	w, err := store.OpenWriter(testContext(), id)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func mustReadContent(t *testing.T, store content.Store, id content.ID) []byte {
	t.Helper()

	r, err := store.OpenReader(testContext(), id)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func testID(name string) content.ID {
	return content.ID(fmt.Sprintf("%s-%s", name, content.NewID()))
}
