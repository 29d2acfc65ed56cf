package rating

import (
	"math"
	"sort"

	"go.uber.org/zap"
)

// ratingBucket maps a minimum percentile to a discrete rating. Thresholds
// approximate a normal-distribution bucketing in half-star steps.
type ratingBucket struct {
	minPercentile float64
	rating        float64
}

var ratingBuckets = []ratingBucket{
	{97.7, 5.0},
	{93.3, 4.5},
	{84.1, 4.0},
	{69.1, 3.5},
	{50.0, 3.0},
	{30.9, 2.5},
	{15.9, 2.0},
	{6.7, 1.5},
	{2.3, 1.0},
}

const lowestBucket = 0.5

// RankedEntry is the ranking outcome for one pool member, indexed back into
// the caller's slice.
type RankedEntry struct {
	Index      int
	Metric     float64
	Rank       float64 // tie-aware average rank, 1-based ascending
	Percentile float64 // 0-100, higher is better
	Bucket     float64 // discrete rating, 0.5-5.0
}

// RankAscending ranks a pool by a scalar metric where lower is better.
// Ties receive the average of their tied rank positions, so identical
// metrics always produce identical percentiles. Percentile is
// (n - rank + 0.5) / n * 100. The caller is responsible for pool
// membership: True Rating pools must hold a single role tier, projection
// pools span the whole league.
func RankAscending(metrics []float64, log *zap.Logger) []RankedEntry {
	n := len(metrics)
	entries := make([]RankedEntry, n)
	if n == 0 {
		return entries
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return metrics[order[a]] < metrics[order[b]]
	})

	// Assign average ranks across runs of equal metrics
	pos := 0
	for pos < n {
		end := pos
		for end+1 < n && metrics[order[end+1]] == metrics[order[pos]] {
			end++
		}
		avgRank := float64(pos+1+end+1) / 2
		for i := pos; i <= end; i++ {
			idx := order[i]
			pct := (float64(n) - avgRank + 0.5) / float64(n) * 100
			entries[idx] = RankedEntry{
				Index:      idx,
				Metric:     metrics[idx],
				Rank:       avgRank,
				Percentile: pct,
				Bucket:     BucketForPercentile(pct, log),
			}
		}
		pos = end + 1
	}

	return entries
}

// BucketForPercentile maps a percentile to its discrete rating. Percentiles
// that fall outside every threshold (including NaN from a degenerate pool)
// default to the lowest bucket with a consistency warning rather than
// propagating.
func BucketForPercentile(pct float64, log *zap.Logger) float64 {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		if log != nil {
			log.Warn("percentile outside rating bucket domain, defaulting to lowest bucket",
				zap.Float64("percentile", pct))
		}
		return lowestBucket
	}
	for _, b := range ratingBuckets {
		if pct >= b.minPercentile {
			return b.rating
		}
	}
	return lowestBucket
}
