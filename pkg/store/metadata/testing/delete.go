package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// RunDeleteTests covers Delete.
func (suite *StoreTestSuite) RunDeleteTests(t *testing.T) {
	t.Run("Delete_File", suite.testDeleteFile)
	t.Run("Delete_EmptyDirectory", suite.testDeleteEmptyDirectory)
	t.Run("Delete_NotEmpty", suite.testDeleteNotEmpty)
	t.Run("Delete_Recursive", suite.testDeleteRecursive)
	t.Run("Delete_NotFound", suite.testDeleteNotFound)
	t.Run("Delete_Root", suite.testDeleteRoot)
}

func (suite *StoreTestSuite) testDeleteFile(t *testing.T) {
	store := suite.NewStore(t)
	file := newFile("/f", 10)
	mustCreate(t, store, file)

	removed, err := store.Delete(testContext(), "/f", false)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, file.ContentID, removed[0].ContentID)

	_, err = store.Get(testContext(), "/f")
	requireCode(t, metadata.ErrNotFound, err)

	kids, err := store.Children(testContext(), "/")
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func (suite *StoreTestSuite) testDeleteEmptyDirectory(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newDir("/d"))

	removed, err := store.Delete(testContext(), "/d", false)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}

func (suite *StoreTestSuite) testDeleteNotEmpty(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newDir("/d"), newFile("/d/f", 0))

	_, err := store.Delete(testContext(), "/d", false)
	requireCode(t, metadata.ErrNotEmpty, err)

	_, err = store.Get(testContext(), "/d/f")
	assert.NoError(t, err)
}

func (suite *StoreTestSuite) testDeleteRecursive(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store,
		newDir("/d"),
		newDir("/d/sub"),
		newFile("/d/sub/a", 1),
		newFile("/d/b", 2),
		newFile("/keep", 3),
	)

	removed, err := store.Delete(testContext(), "/d", true)
	require.NoError(t, err)
	assert.Len(t, removed, 4)

	for _, p := range []string{"/d", "/d/sub", "/d/sub/a", "/d/b"} {
		_, err := store.Get(testContext(), p)
		requireCode(t, metadata.ErrNotFound, err)
	}
	_, err = store.Get(testContext(), "/keep")
	assert.NoError(t, err)
}

func (suite *StoreTestSuite) testDeleteNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Delete(testContext(), "/missing", true)
	requireCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testDeleteRoot(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Delete(testContext(), "/", true)
	requireCode(t, metadata.ErrInvalidArgument, err)
}
