package rating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRankAscendingIdenticalMetrics(t *testing.T) {
	metrics := make([]float64, 100)
	for i := range metrics {
		metrics[i] = 4.2
	}

	entries := RankAscending(metrics, zap.NewNop())
	require.Len(t, entries, 100)

	// Identical inputs get identical percentiles and identical ratings,
	// with no ordering artifacts from sort position.
	for _, e := range entries {
		assert.InDelta(t, 50.0, e.Percentile, 1e-9)
		assert.Equal(t, 3.0, e.Bucket)
	}
}

func TestRankAscendingLowerIsBetter(t *testing.T) {
	metrics := []float64{3.10, 4.50, 3.90, 5.20}

	entries := RankAscending(metrics, zap.NewNop())

	assert.InDelta(t, 87.5, entries[0].Percentile, 1e-9) // best metric
	assert.InDelta(t, 12.5, entries[3].Percentile, 1e-9) // worst metric
	assert.Equal(t, 4.0, entries[0].Bucket)
	assert.Equal(t, 1.5, entries[3].Bucket)
}

func TestRankAscendingTiesShareAverageRank(t *testing.T) {
	metrics := []float64{3.0, 4.0, 4.0, 5.0}

	entries := RankAscending(metrics, zap.NewNop())

	// The tied pair occupies ranks 2 and 3, averaging 2.5
	assert.InDelta(t, 2.5, entries[1].Rank, 1e-9)
	assert.InDelta(t, 2.5, entries[2].Rank, 1e-9)
	assert.Equal(t, entries[1].Percentile, entries[2].Percentile)
	assert.Equal(t, entries[1].Bucket, entries[2].Bucket)
}

func TestRankAscendingPercentileRange(t *testing.T) {
	for _, n := range []int{1, 2, 7, 50} {
		metrics := make([]float64, n)
		for i := range metrics {
			metrics[i] = float64(i)
		}
		for _, e := range RankAscending(metrics, zap.NewNop()) {
			assert.Greater(t, e.Percentile, 0.0, "pool size %d", n)
			assert.LessOrEqual(t, e.Percentile, 100.0, "pool size %d", n)
		}
	}
}

func TestRankAscendingSingleMember(t *testing.T) {
	entries := RankAscending([]float64{3.3}, zap.NewNop())
	require.Len(t, entries, 1)
	assert.InDelta(t, 50.0, entries[0].Percentile, 1e-9)
	assert.Equal(t, 3.0, entries[0].Bucket)
}

func TestRankAscendingEmptyPool(t *testing.T) {
	assert.Empty(t, RankAscending(nil, zap.NewNop()))
}

func TestBucketForPercentile(t *testing.T) {
	tests := []struct {
		pct  float64
		want float64
	}{
		{100, 5.0},
		{97.7, 5.0},
		{97.6, 4.5},
		{93.3, 4.5},
		{84.1, 4.0},
		{69.1, 3.5},
		{50.0, 3.0},
		{30.9, 2.5},
		{15.9, 2.0},
		{6.7, 1.5},
		{2.3, 1.0},
		{2.2, 0.5},
		{0, 0.5},
	}

	log := zap.NewNop()
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketForPercentile(tt.pct, log), "pct %v", tt.pct)
	}
}

func TestBucketForPercentileOutOfDomain(t *testing.T) {
	log := zap.NewNop()
	assert.Equal(t, 0.5, BucketForPercentile(math.NaN(), log))
	assert.Equal(t, 0.5, BucketForPercentile(-1, log))
	assert.Equal(t, 0.5, BucketForPercentile(101, log))
	// Nil logger must not panic
	assert.Equal(t, 0.5, BucketForPercentile(math.NaN(), nil))
}
