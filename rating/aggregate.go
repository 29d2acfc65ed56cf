package rating

import "github.com/dennissheppard/ootp-tools-sub006/models"

// DefaultYearWeights weights the most recent seasons 5:3:2. Callers running
// mid-season supply an interpolated vector instead so weighting shifts
// smoothly toward the current year as it completes.
var DefaultYearWeights = []float64{5, 3, 2}

// SeasonProgressWeights interpolates between the default prior-year weights
// and an all-current-year weighting based on how much of the season is
// complete (0.0 to 1.0).
func SeasonProgressWeights(progress float64) []float64 {
	p := models.Clamp(progress, 0, 1)
	weights := make([]float64, len(DefaultYearWeights))
	for i, w := range DefaultYearWeights {
		if i == 0 {
			// Current year grows toward full weight
			weights[i] = w + (10-w)*p
		} else {
			weights[i] = w * (1 - p)
		}
	}
	return weights
}

// AggregateSeasons combines up to len(weights) most recent season lines
// into one innings-weighted rate line. Each year's effective weight is its
// year weight times its innings pitched. A zero total weight yields the
// all-zero WeightedRates, which callers must treat as "no data".
func AggregateSeasons(lines []models.SeasonLine, weights []float64) models.WeightedRates {
	if len(weights) == 0 {
		weights = DefaultYearWeights
	}

	var sumW, sumK9, sumBB9, sumHR9, totalIP float64
	for i, line := range lines {
		if i >= len(weights) {
			break
		}
		w := weights[i] * line.IP
		if w <= 0 {
			continue
		}
		sumW += w
		sumK9 += line.K9 * w
		sumBB9 += line.BB9 * w
		sumHR9 += line.HR9 * w
		totalIP += line.IP
	}

	if sumW <= 0 {
		return models.WeightedRates{}
	}

	return models.WeightedRates{
		K9:      sumK9 / sumW,
		BB9:     sumBB9 / sumW,
		HR9:     sumHR9 / sumW,
		TotalIP: totalIP,
	}
}
