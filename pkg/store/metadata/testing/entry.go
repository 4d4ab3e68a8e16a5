package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

// RunEntryTests covers Get, Create, Put and Children.
func (suite *StoreTestSuite) RunEntryTests(t *testing.T) {
	t.Run("Get_Root", suite.testGetRoot)
	t.Run("Get_NotFound", suite.testGetNotFound)
	t.Run("Get_InvalidPath", suite.testGetInvalidPath)
	t.Run("Create_Success", suite.testCreateSuccess)
	t.Run("Create_AlreadyExists", suite.testCreateAlreadyExists)
	t.Run("Create_ParentMissing", suite.testCreateParentMissing)
	t.Run("Create_ParentIsFile", suite.testCreateParentIsFile)
	t.Run("Create_Root", suite.testCreateRoot)
	t.Run("Put_Replace", suite.testPutReplace)
	t.Run("Put_Creates", suite.testPutCreates)
	t.Run("Put_TypeMismatch", suite.testPutTypeMismatch)
	t.Run("Get_ReturnsCopy", suite.testGetReturnsCopy)
	t.Run("Children_Sorted", suite.testChildrenSorted)
	t.Run("Children_Empty", suite.testChildrenEmpty)
	t.Run("Children_NotDirectory", suite.testChildrenNotDirectory)
	t.Run("Children_SimilarPrefix", suite.testChildrenSimilarPrefix)
}

func (suite *StoreTestSuite) testGetRoot(t *testing.T) {
	store := suite.NewStore(t)

	root, err := store.Get(testContext(), "/")
	require.NoError(t, err)
	assert.Equal(t, "/", root.Path)
	assert.True(t, root.IsDir())
}

func (suite *StoreTestSuite) testGetNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Get(testContext(), "/missing")
	requireCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testGetInvalidPath(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Get(testContext(), "relative/path")
	requireCode(t, metadata.ErrInvalidArgument, err)
}

func (suite *StoreTestSuite) testCreateSuccess(t *testing.T) {
	store := suite.NewStore(t)
	file := newFile("/dir/file.txt", 42)

	mustCreate(t, store, newDir("/dir"), file)

	got, err := store.Get(testContext(), "/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, file.Path, got.Path)
	assert.Equal(t, file.Size, got.Size)
	assert.Equal(t, file.Replication, got.Replication)
	assert.Equal(t, file.Owner, got.Owner)
	assert.Equal(t, file.Mode, got.Mode)
	assert.Equal(t, file.ContentID, got.ContentID)
	assert.True(t, file.MTime.Equal(got.MTime))
}

func (suite *StoreTestSuite) testCreateAlreadyExists(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newFile("/f", 0))

	requireCode(t, metadata.ErrAlreadyExists, store.Create(testContext(), newFile("/f", 0)))
	requireCode(t, metadata.ErrAlreadyExists, store.Create(testContext(), newDir("/f")))
}

func (suite *StoreTestSuite) testCreateParentMissing(t *testing.T) {
	store := suite.NewStore(t)

	requireCode(t, metadata.ErrNotFound, store.Create(testContext(), newFile("/a/b", 0)))
}

func (suite *StoreTestSuite) testCreateParentIsFile(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newFile("/f", 0))

	requireCode(t, metadata.ErrNotDirectory, store.Create(testContext(), newFile("/f/child", 0)))
}

func (suite *StoreTestSuite) testCreateRoot(t *testing.T) {
	store := suite.NewStore(t)

	requireCode(t, metadata.ErrAlreadyExists, store.Create(testContext(), newDir("/")))
}

func (suite *StoreTestSuite) testPutReplace(t *testing.T) {
	store := suite.NewStore(t)
	file := newFile("/f", 1)
	mustCreate(t, store, file)

	file.Size = 1000
	file.Owner = "alice"
	require.NoError(t, store.Put(testContext(), file))

	got, err := store.Get(testContext(), "/f")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Size)
	assert.Equal(t, "alice", got.Owner)
}

func (suite *StoreTestSuite) testPutCreates(t *testing.T) {
	store := suite.NewStore(t)

	require.NoError(t, store.Put(testContext(), newFile("/new", 3)))

	_, err := store.Get(testContext(), "/new")
	assert.NoError(t, err)
}

func (suite *StoreTestSuite) testPutTypeMismatch(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newDir("/d"), newFile("/f", 0))

	requireCode(t, metadata.ErrIsDirectory, store.Put(testContext(), newFile("/d", 0)))
	requireCode(t, metadata.ErrNotDirectory, store.Put(testContext(), newDir("/f")))
}

func (suite *StoreTestSuite) testGetReturnsCopy(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newFile("/f", 7))

	got, err := store.Get(testContext(), "/f")
	require.NoError(t, err)
	got.Size = 99

	again, err := store.Get(testContext(), "/f")
	require.NoError(t, err)
	assert.Equal(t, int64(7), again.Size)
}

func (suite *StoreTestSuite) testChildrenSorted(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store,
		newDir("/d"),
		newFile("/d/c", 0),
		newFile("/d/a", 0),
		newDir("/d/b"),
		newFile("/d/b/nested", 0),
	)

	kids, err := store.Children(testContext(), "/d")
	require.NoError(t, err)

	var paths []string
	for _, k := range kids {
		paths = append(paths, k.Path)
	}
	assert.Equal(t, []string{"/d/a", "/d/b", "/d/c"}, paths)
}

func (suite *StoreTestSuite) testChildrenEmpty(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newDir("/empty"))

	kids, err := store.Children(testContext(), "/empty")
	require.NoError(t, err)
	assert.Empty(t, kids)

	kids, err = store.Children(testContext(), "/")
	require.NoError(t, err)
	assert.Len(t, kids, 1)
}

func (suite *StoreTestSuite) testChildrenNotDirectory(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newFile("/f", 0))

	_, err := store.Children(testContext(), "/f")
	requireCode(t, metadata.ErrNotDirectory, err)

	_, err = store.Children(testContext(), "/missing")
	requireCode(t, metadata.ErrNotFound, err)
}

func (suite *StoreTestSuite) testChildrenSimilarPrefix(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store,
		newDir("/a"),
		newDir("/ab"),
		newFile("/a/x", 0),
		newFile("/ab/y", 0),
	)

	kids, err := store.Children(testContext(), "/a")
	require.NoError(t, err)
	require.Len(t, kids, 1)
	assert.Equal(t, "/a/x", kids[0].Path)
}
