package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/content"
)

// RunWriteTests covers writers and truncation.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("Write_MultipleChunks", suite.testWriteMultipleChunks)
	t.Run("Write_Overwrite", suite.testWriteOverwrite)
	t.Run("Writer_DoubleClose", suite.testWriterDoubleClose)
	t.Run("Writer_WriteAfterClose", suite.testWriterWriteAfterClose)
	t.Run("Truncate_Shrink", suite.testTruncateShrink)
	t.Run("Truncate_Grow", suite.testTruncateGrow)
	t.Run("Truncate_Zero", suite.testTruncateZero)
	t.Run("Truncate_Negative", suite.testTruncateNegative)
	t.Run("Truncate_NotFound", suite.testTruncateNotFound)
}

func (suite *StoreTestSuite) testWriteMultipleChunks(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("chunks")

	w, err := store.OpenWriter(testContext(), id)
	require.NoError(t, err)

	var want bytes.Buffer
	for i := 0; i < 10; i++ {
		chunk := generateTestData(4096 + i)
		n, err := w.Write(chunk)
		require.NoError(t, err)
		require.Equal(t, len(chunk), n)
		want.Write(chunk)
	}
	require.NoError(t, w.Close())

	assert.Equal(t, want.Bytes(), mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testWriteOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("overwrite")

	mustWriteContent(t, store, id, []byte("first version, longer"))
	mustWriteContent(t, store, id, []byte("second"))

	assert.Equal(t, []byte("second"), mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testWriterDoubleClose(t *testing.T) {
	store := suite.NewStore(t)

	w, err := store.OpenWriter(testContext(), testID("double-close"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Close(), content.ErrWriterClosed)
}

func (suite *StoreTestSuite) testWriterWriteAfterClose(t *testing.T) {
	store := suite.NewStore(t)

	w, err := store.OpenWriter(testContext(), testID("write-after-close"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, content.ErrWriterClosed)
}

func (suite *StoreTestSuite) testTruncateShrink(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("shrink")
	data := generateTestData(10000)

	mustWriteContent(t, store, id, data)
	require.NoError(t, store.Truncate(testContext(), id, 100))

	assert.Equal(t, data[:100], mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testTruncateGrow(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("grow")

	mustWriteContent(t, store, id, []byte("abc"))
	require.NoError(t, store.Truncate(testContext(), id, 8))

	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0}, mustReadContent(t, store, id))
}

func (suite *StoreTestSuite) testTruncateZero(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("zero")

	mustWriteContent(t, store, id, generateTestData(512))
	require.NoError(t, store.Truncate(testContext(), id, 0))

	size, err := store.Size(testContext(), id)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func (suite *StoreTestSuite) testTruncateNegative(t *testing.T) {
	store := suite.NewStore(t)
	id := testID("negative")

	mustWriteContent(t, store, id, []byte("abc"))

	assert.ErrorIs(t, store.Truncate(testContext(), id, -1), content.ErrInvalidSize)
}

func (suite *StoreTestSuite) testTruncateNotFound(t *testing.T) {
	store := suite.NewStore(t)

	err := store.Truncate(testContext(), testID("missing"), 10)
	assert.ErrorIs(t, err, content.ErrContentNotFound)
}
