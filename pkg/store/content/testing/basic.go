package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// RunBasicTests covers reads, sizes and deletes.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("OpenReader_NotFound", suite.testOpenReaderNotFound)
	t.Run("OpenReader_Success", suite.testOpenReaderSuccess)
	t.Run("OpenReader_Empty", suite.testOpenReaderEmpty)
	t.Run("OpenReader_Large", suite.testOpenReaderLarge)
	t.Run("Size_NotFound", suite.testSizeNotFound)
	t.Run("Size_Success", suite.testSizeSuccess)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_Missing", suite.testDeleteMissing)
}

func (suite *StoreTestSuite) testOpenReaderNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.OpenReader(testContext(), testID("missing"))
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testOpenReaderSuccess(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("read")

	mustWriteContent(t, store, id, []byte("Hello, World!"))

	assert.Equal(t, []byte("Hello, World!"), mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testOpenReaderEmpty(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("empty")

	mustWriteContent(t, store, id, nil)

	assert.Empty(t, mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testOpenReaderLarge(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("large")
	data := generateTestData(3*1024*1024 + 17)

	mustWriteContent(t, store, id, data)

	assert.Equal(t, data, mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testSizeNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Size(testContext(), testID("missing"))
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testSizeSuccess(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("size")

	mustWriteContent(t, store, id, generateTestData(1234))

	size, err := store.Size(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), size)
}

func (suite *StoreTestSuite) testDeleteSuccess(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("delete")

	mustWriteContent(t, store, id, []byte("bye"))
	require.NoError(t, store.Delete(testContext(), id))

	_, err := store.OpenReader(testContext(), id)
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}

func (suite *StoreTestSuite) testDeleteMissing(t *testing.T) {
	store := suite.NewStore(t)

	assert.NoError(t, store.Delete(testContext(), testID("missing")))
}
