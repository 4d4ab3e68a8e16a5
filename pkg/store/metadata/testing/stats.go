package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStatsTests covers Stats.
func (suite *StoreTestSuite) RunStatsTests(t *testing.T) {
	t.Run("Stats_RootOnly", suite.testStatsRootOnly)
	t.Run("Stats_Counts", suite.testStatsCounts)
}

func (suite *StoreTestSuite) testStatsRootOnly(t *testing.T) {
	store := suite.NewStore(t)

	stats, err := store.Stats(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Directories)
	assert.Zero(t, stats.Files)
	assert.Zero(t, stats.Bytes)
}

func (suite *StoreTestSuite) testStatsCounts(t *testing.T) {
	store := suite.NewStore(t)
	mustCreate(t, store, newDir("/d"), newFile("/d/a", 100), newFile("/b", 50))

	stats, err := store.Stats(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Directories)
	assert.Equal(t, uint64(2), stats.Files)
	assert.Equal(t, uint64(150), stats.Bytes)
	assert.Equal(t, uint64(450), stats.RawBytes)
}
