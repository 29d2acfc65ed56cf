package rating

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennissheppard/ootp-tools-sub006/models"
)

func testCache(t *testing.T) *ResultCache {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := NewResultCache(mr.Addr(), "")
	require.NotNil(t, cache)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestResultCacheRoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	result := &RunResult{
		RunID:      "run-1",
		TargetYear: 2027,
		League:     models.DefaultLeagueContext(2027),
		Ratings: []models.RatingResult{
			{PlayerID: "p1", Name: "Mike Smith", TrueRating: 3.5},
		},
		Projections: []models.ProjectedLine{
			{PlayerID: "p1", Year: 2027, IP: 180.5, ProjectedRating: 4.0},
		},
	}

	require.NoError(t, cache.Set(ctx, result))

	got, ok := cache.Get(ctx, 2027)
	require.True(t, ok)
	assert.Equal(t, result.RunID, got.RunID)
	require.Len(t, got.Ratings, 1)
	assert.Equal(t, 3.5, got.Ratings[0].TrueRating)
	require.Len(t, got.Projections, 1)
	assert.Equal(t, 180.5, got.Projections[0].IP)
}

func TestResultCacheMiss(t *testing.T) {
	cache := testCache(t)

	_, ok := cache.Get(context.Background(), 2031)
	assert.False(t, ok)
}

func TestResultCacheInvalidate(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &RunResult{RunID: "run-2", TargetYear: 2027}))
	cache.Invalidate(ctx, 2027)

	_, ok := cache.Get(ctx, 2027)
	assert.False(t, ok)
}

func TestResultCacheKeysPerYear(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &RunResult{RunID: "a", TargetYear: 2027}))
	require.NoError(t, cache.Set(ctx, &RunResult{RunID: "b", TargetYear: 2028}))

	got, ok := cache.Get(ctx, 2027)
	require.True(t, ok)
	assert.Equal(t, "a", got.RunID)
}

func TestNilCacheIsSafe(t *testing.T) {
	cache := NewResultCache("", "")
	require.Nil(t, cache)
	ctx := context.Background()

	assert.NoError(t, cache.Ping(ctx))
	assert.NoError(t, cache.Set(ctx, &RunResult{RunID: "x", TargetYear: 2027}))
	_, ok := cache.Get(ctx, 2027)
	assert.False(t, ok)
	cache.Invalidate(ctx, 2027)
	assert.NoError(t, cache.Close())
}
