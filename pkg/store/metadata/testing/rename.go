package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// RunRenameTests covers Rename.
func (suite *StoreTestSuite) RunRenameTests(t *testing.T) {
	t.Run("Rename_File", suite.testRenameFile)
	t.Run("Rename_Subtree", suite.testRenameSubtree)
	t.Run("Rename_DestinationExists", suite.testRenameDestinationExists)
	t.Run("Rename_SourceMissing", suite.testRenameSourceMissing)
	t.Run("Rename_ParentMissing", suite.testRenameParentMissing)
	t.Run("Rename_IntoItself", suite.testRenameIntoItself)
	t.Run("Rename_SamePath", suite.testRenameSamePath)
}

func (suite *StoreTestSuite) testRenameFile(t *testing.T) {
	store := suite.NewStore(t)
	file := newFile("/old", 5)
	mustCreate(t, store, file, newDir("/dir"))

	require.NoError(t, store.Rename(testContext(), "/old", "/dir/new"))

	_, err := store.Get(testContext(), "/old")
	requireCode(t, metadata.ErrNotFound, err)

	got, err := store.Get(testContext(), "/dir/new")
	require.NoError(t, err)
	assert.Equal(t, "/dir/new", got.Path)
	assert.Equal(t, file.ContentID, got.ContentID)
}

func (suite *StoreTestSuite) testRenameSubtree(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store,
		newDir("/src"),
		newDir("/src/sub"),
		newFile("/src/sub/f", 1),
		newFile("/src/g", 2),
	)

	require.NoError(t, store.Rename(testContext(), "/src", "/dst"))

	for _, p := range []string{"/dst", "/dst/sub", "/dst/sub/f", "/dst/g"} {
		e, err := store.Get(testContext(), p)
		require.NoError(t, err, p)
		assert.Equal(t, p, e.Path)
	}
	_, err := store.Get(testContext(), "/src/g")
	requireCode(t, metadata.ErrNotFound, err)

	kids, err := store.Children(testContext(), "/dst/sub")
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, "/dst/sub/f", kids[0].Path)
}

func (suite *StoreTestSuite) testRenameDestinationExists(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newFile("/a", 0), newFile("/b", 0))

	requireCode(t, metadata.ErrAlreadyExists, store.Rename(testContext(), "/a", "/b"))
}

func (suite *StoreTestSuite) testRenameSourceMissing(t *testing.T) {
	store := suite.NewStore(t)

	requireCode(t, metadata.ErrNotFound, store.Rename(testContext(), "/missing", "/x"))
}

func (suite *StoreTestSuite) testRenameParentMissing(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newFile("/a", 0))

	requireCode(t, metadata.ErrNotFound, store.Rename(testContext(), "/a", "/no/such/dir"))
}

func (suite *StoreTestSuite) testRenameIntoItself(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newDir("/d"))

	requireCode(t, metadata.ErrInvalidArgument, store.Rename(testContext(), "/d", "/d/inner"))
}

func (suite *StoreTestSuite) testRenameSamePath(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newFile("/a", 0))

	assert.NoError(t, store.Rename(testContext(), "/a", "/a"))
}
