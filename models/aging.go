package models

// AgingDelta holds additive rating changes for one season of aging.
// Deltas are expected values only; projection variance is the ensemble's
// job, not the aging curve's.
type AgingDelta struct {
	Stuff       float64
	Control     float64
	HRAvoidance float64
}

// agingBand maps an age range to a base delta. Control ages more gently
// than raw stuff, HR avoidance sits in between.
type agingBand struct {
	maxAge int
	base   float64
}

var agingBands = []agingBand{
	{21, 2.5},   // rapid development
	{24, 1.5},   // development
	{27, 0.25},  // peak plateau
	{29, -0.25}, // flat
	{32, -0.75}, // slow decline
	{35, -1.5},  // decline
	{39, -2.5},  // steep decline
	{44, -4.0},  // cliff
}

const agingFreefall = -6.0 // 45 and beyond

// AgingDeltaForAge returns the expected rating change for a pitcher playing
// a season at the given age.
func AgingDeltaForAge(age int) AgingDelta {
	base := agingFreefall
	for _, band := range agingBands {
		if age <= band.maxAge {
			base = band.base
			break
		}
	}

	controlScale := 1.0
	hraScale := 1.0
	if base < 0 {
		// Command survives aging better than velocity does
		controlScale = 0.75
		hraScale = 0.9
	}

	return AgingDelta{
		Stuff:       base,
		Control:     base * controlScale,
		HRAvoidance: base * hraScale,
	}
}

// Scale returns a copy of the delta multiplied by f.
func (d AgingDelta) Scale(f float64) AgingDelta {
	return AgingDelta{
		Stuff:       d.Stuff * f,
		Control:     d.Control * f,
		HRAvoidance: d.HRAvoidance * f,
	}
}

// ApplyAging adds a delta to a rating and clamps to the internal scale.
func ApplyAging(rating, delta float64) float64 {
	return ClampRating(rating + delta)
}
