package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// RunListTests covers enumeration. Stores that do not implement
// content.Lister skip it.
func (suite *StoreTestSuite) RunListTests(t *testing.T) {
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_AfterWriteAndDelete", suite.testListAfterWriteAndDelete)
}

func (suite *StoreTestSuite) lister(t *testing.T) (content.Store, content.Lister) {
	store := suite.NewStore(t)
	l, ok := store.(content.Lister)
	if !ok {
		t.Skip("store does not implement content.Lister")
	}
	return store, l
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	_, l := suite.lister(t)

	ids, err := l.List(testContext())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func (suite *StoreTestSuite) testListAfterWriteAndDelete(t *testing.T) {
	store, l := suite.lister(t)
	a, b, c := testID("a"), testID("b"), testID("c")

	mustWriteContent(t, store, a, []byte("one"))
	mustWriteContent(t, store, b, []byte("two"))
	mustWriteContent(t, store, c, nil)
	require.NoError(t, store.Delete(testContext(), b))

	ids, err := l.List(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, []content.ID{a, c}, ids)
}
