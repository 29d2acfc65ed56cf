package models

import "math"

// Rating scale boundaries. Display ratings live on the familiar 20-80
// scouting scale; the internal scale is wider so inverse conversions can
// extrapolate past the display bounds without bunching at the edges.
const (
	RatingMin  = 0.0
	RatingMax  = 100.0
	DisplayMin = 20.0
	DisplayMax = 80.0
)

// Physical bounds for per-nine rate stats. Every forward formula clamps its
// output here; out-of-domain inputs are never an error.
const (
	K9Min  = 0.0
	K9Max  = 15.0
	BB9Min = 0.0
	BB9Max = 10.0
	HR9Min = 0.0
	HR9Max = 3.0
	H9Min  = 4.0
	H9Max  = 14.0
)

// Calibrated rating-to-rate coefficients. Linear terms come from regression
// against collected league output; the small quadratic terms capture the
// curvature at the rating extremes.
const (
	k9Intercept = 2.07
	k9Linear    = 0.0740
	k9Quad      = 0.00012

	bb9Intercept = 5.22
	bb9Linear    = 0.0520
	bb9Quad      = 0.00006

	hr9Intercept = 2.08
	hr9Linear    = 0.0240
	hr9Quad      = 0.00005

	h9Intercept       = 12.9
	h9BABIPCoeff      = 0.0500
	h9MovementCoeff   = 0.0300
	defaultRunsPerWin = 9.5
)

// DefaultFIPConstant anchors the FIP-like metric to the familiar ERA-shaped
// scale. Skill calibrations elsewhere are expressed against this anchored
// scale, so it is fixed rather than per-year.
const DefaultFIPConstant = 3.47

// Clamp bounds a value to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampRating bounds a rating to the internal 0-100 scale.
func ClampRating(r float64) float64 {
	return Clamp(r, RatingMin, RatingMax)
}

// ClampDisplay bounds a rating to the 20-80 display scale.
func ClampDisplay(r float64) float64 {
	return Clamp(r, DisplayMin, DisplayMax)
}

// K9ForRating converts a stuff rating to an expected strikeout rate.
func K9ForRating(r float64) float64 {
	return Clamp(k9Intercept+k9Linear*r+k9Quad*r*r, K9Min, K9Max)
}

// RatingForK9 recovers an approximate stuff rating from an observed
// strikeout rate. Only the linear term is inverted, so the round trip
// drifts slightly at the extremes; that drift is a documented property of
// the conversion, not a defect.
func RatingForK9(k9 float64) float64 {
	return ClampRating((k9 - k9Intercept) / k9Linear)
}

// BB9ForRating converts a control rating to an expected walk rate.
func BB9ForRating(r float64) float64 {
	return Clamp(bb9Intercept-bb9Linear*r-bb9Quad*r*r, BB9Min, BB9Max)
}

// RatingForBB9 recovers an approximate control rating from a walk rate.
func RatingForBB9(bb9 float64) float64 {
	return ClampRating((bb9Intercept - bb9) / bb9Linear)
}

// HR9ForRating converts a home-run-avoidance rating to an expected home run
// rate.
func HR9ForRating(r float64) float64 {
	return Clamp(hr9Intercept-hr9Linear*r+hr9Quad*r*r, HR9Min, HR9Max)
}

// RatingForHR9 recovers an approximate HR-avoidance rating from a home run
// rate.
func RatingForHR9(hr9 float64) float64 {
	return ClampRating((hr9Intercept - hr9) / hr9Linear)
}

// H9ForRatings converts babip-proxy and movement ratings to an expected hit
// rate. Hits allowed correlate with two ratings, so this one stays linear.
func H9ForRatings(babip, movement float64) float64 {
	return Clamp(h9Intercept-h9BABIPCoeff*babip-h9MovementCoeff*movement, H9Min, H9Max)
}

// FIPLike is the ranking metric: a linear combination of the three true
// outcomes with no additive constant. Lower is better. Not a displayed stat.
func FIPLike(k9, bb9, hr9 float64) float64 {
	return (13*hr9 + 3*bb9 - 2*k9) / 9
}

// FIPLikeRates is FIPLike over an aggregated rate line.
func FIPLikeRates(w WeightedRates) float64 {
	return FIPLike(w.K9, w.BB9, w.HR9)
}

// ValueMetric anchors the FIP-like metric to the league run environment.
func ValueMetric(k9, bb9, hr9 float64, league LeagueContext) float64 {
	c := league.FIPConstant
	if c == 0 {
		c = DefaultFIPConstant
	}
	return FIPLike(k9, bb9, hr9) + c
}

// DefaultLeagueContext is the hardcoded final fallback when no league data
// can be fetched for a year or its predecessor.
func DefaultLeagueContext(year int) LeagueContext {
	return LeagueContext{
		Year:         year,
		AvgK9:        7.0,
		AvgBB9:       3.1,
		AvgHR9:       1.0,
		FIPConstant:  DefaultFIPConstant,
		RunsPerWin:   defaultRunsPerWin,
		UsedFallback: true,
		FallbackKind: "default",
	}
}
