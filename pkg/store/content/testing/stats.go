package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStatsTests covers StorageStats accounting.
func (suite *StoreTestSuite) RunStatsTests(t *testing.T) {
	t.Run("Stats_Empty", suite.testStatsEmpty)
	t.Run("Stats_WithContent", suite.testStatsWithContent)
	t.Run("Stats_AfterDelete", suite.testStatsAfterDelete)
}

func (suite *StoreTestSuite) testStatsEmpty(t *testing.T) {
	store := suite.NewStore(t)

	stats, err := store.Stats(testContext())
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Zero(t, stats.UsedSize)
	assert.Zero(t, stats.ContentCount)
	assert.Zero(t, stats.AverageSize)
}

func (suite *StoreTestSuite) testStatsWithContent(t *testing.T) {
	store := suite.NewStore(t)

	mustWriteContent(t, store, testID("stats-1"), generateTestData(100))
	mustWriteContent(t, store, testID("stats-2"), generateTestData(200))
	mustWriteContent(t, store, testID("stats-3"), generateTestData(300))

	stats, err := store.Stats(testContext())
	require.NoError(t, err)

	assert.Equal(t, uint64(3), stats.ContentCount)
	assert.Positive(t, stats.UsedSize)
	if !suite.ApproximateUsage {
		assert.Equal(t, uint64(600), stats.UsedSize)
		assert.Equal(t, uint64(200), stats.AverageSize)
	}
	assert.LessOrEqual(t, stats.AvailableSize, stats.TotalSize)
}

func (suite *StoreTestSuite) testStatsAfterDelete(t *testing.T) {
	store := suite.NewStore(t)
	keep := testID("keep")
	drop := testID("drop")

	mustWriteContent(t, store, keep, generateTestData(100))
	mustWriteContent(t, store, drop, generateTestData(400))
	require.NoError(t, store.Delete(testContext(), drop))

	stats, err := store.Stats(testContext())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), stats.ContentCount)
	if !suite.ApproximateUsage {
		assert.Equal(t, uint64(100), stats.UsedSize)
	}
}
