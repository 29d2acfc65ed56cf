package rating

import "github.com/dennissheppard/ootp-tools-sub006/models"

// tierParams holds the regression targets and base strengths for one role
// tier. Strength is expressed in innings of league-average performance:
// starters carry the largest samples so they regress least, relievers most.
type tierParams struct {
	targetK9  float64
	targetBB9 float64
	targetHR9 float64

	strengthK9  float64
	strengthBB9 float64
	strengthHR9 float64
}

var tierTable = map[models.RoleTier]tierParams{
	models.RoleStarter: {
		targetK9: 7.0, targetBB9: 3.0, targetHR9: 1.00,
		strengthK9: 60, strengthBB9: 70, strengthHR9: 90,
	},
	models.RoleSwingman: {
		targetK9: 7.4, targetBB9: 3.2, targetHR9: 1.05,
		strengthK9: 80, strengthBB9: 90, strengthHR9: 110,
	},
	models.RoleReliever: {
		targetK9: 8.2, targetBB9: 3.5, targetHR9: 1.10,
		strengthK9: 100, strengthBB9: 110, strengthHR9: 130,
	},
}

// skillBreakpoint anchors the continuous skill slide. shift runs from -1
// (elite, pull target toward an even better value) to +1 (poor, target
// worse); mult scales regression strength so elite performers keep more of
// their observed stats.
type skillBreakpoint struct {
	fip   float64
	shift float64
	mult  float64
}

// Breakpoint positions are on the constant-anchored FIP-like scale.
var skillBreakpoints = []skillBreakpoint{
	{2.8, -1.0, 0.60},
	{3.2, -0.5, 0.75},
	{3.8, 0.0, 1.00},
	{4.4, 0.5, 1.20},
	{5.0, 1.0, 1.35},
}

// Regression strength reaches full tier strength at this sample size.
// Below it, strength ramps down so thin samples aren't pulled all the way
// to the tier mean.
const fullStrengthInnings = 60.0

// Per-unit-of-shift target adjustments, one per rate.
const (
	targetShiftK9  = 1.2
	targetShiftBB9 = 0.5
	targetShiftHR9 = 0.25
)

// skillAdjustment interpolates the target shift and strength multiplier
// for a FIP-like skill estimate. Piecewise-linear between breakpoints, flat
// beyond the ends, so similar pitchers never bunch onto a hard step.
func skillAdjustment(fip float64) (shift, mult float64) {
	first := skillBreakpoints[0]
	if fip <= first.fip {
		return first.shift, first.mult
	}
	last := skillBreakpoints[len(skillBreakpoints)-1]
	if fip >= last.fip {
		return last.shift, last.mult
	}

	for i := 1; i < len(skillBreakpoints); i++ {
		hi := skillBreakpoints[i]
		if fip > hi.fip {
			continue
		}
		lo := skillBreakpoints[i-1]
		t := (fip - lo.fip) / (hi.fip - lo.fip)
		shift = lo.shift + t*(hi.shift-lo.shift)
		mult = lo.mult + t*(hi.mult-lo.mult)
		return shift, mult
	}

	return last.shift, last.mult
}

// RegressRates shrinks an aggregated rate line toward a tier-appropriate
// target. The target and strength both slide continuously with the
// pitcher's own estimated skill, and overall strength ramps down for small
// samples. An empty aggregate passes through untouched; the caller must
// treat it as "no data".
func RegressRates(obs models.WeightedRates, tier models.RoleTier) models.WeightedRates {
	if obs.IsEmpty() {
		return obs
	}

	params, ok := tierTable[tier]
	if !ok {
		params = tierTable[models.RoleReliever]
	}

	// The breakpoint table is calibrated on the constant-anchored scale, so
	// the raw component metric must be anchored before the lookup.
	skill := models.FIPLikeRates(obs) + models.DefaultFIPConstant
	shift, mult := skillAdjustment(skill)

	ramp := models.Clamp(obs.TotalIP/fullStrengthInnings, 0, 1)
	scale := mult * ramp

	// Better-than-average skill (negative shift) means a higher K target
	// and lower BB/HR targets.
	k9Target := params.targetK9 - shift*targetShiftK9
	bb9Target := params.targetBB9 + shift*targetShiftBB9
	hr9Target := params.targetHR9 + shift*targetShiftHR9

	regress := func(observed, target, strength float64) float64 {
		k := strength * scale
		return (observed*obs.TotalIP + target*k) / (obs.TotalIP + k)
	}

	return models.WeightedRates{
		K9:      models.Clamp(regress(obs.K9, k9Target, params.strengthK9), models.K9Min, models.K9Max),
		BB9:     models.Clamp(regress(obs.BB9, bb9Target, params.strengthBB9), models.BB9Min, models.BB9Max),
		HR9:     models.Clamp(regress(obs.HR9, hr9Target, params.strengthHR9), models.HR9Min, models.HR9Max),
		TotalIP: obs.TotalIP,
	}
}

// Innings of performance at which the blend trusts stats and scouting
// equally. Larger observed samples shift trust toward performance.
const scoutingConfidenceInnings = 150.0

// ScoutingRates converts a scouting profile into the rate line the ratings
// imply, via the forward conversion formulas.
func ScoutingRates(prof *models.ScoutingProfile) models.WeightedRates {
	return models.WeightedRates{
		K9:  models.K9ForRating(prof.Stuff),
		BB9: models.BB9ForRating(prof.Control),
		HR9: models.HR9ForRating(prof.HRAvoidance),
	}
}

// BlendScouting mixes the regressed performance rates with the
// scouting-implied rates. With no profile the performance line passes
// through; with no performance sample the scouting line wins outright.
func BlendScouting(perf models.WeightedRates, prof *models.ScoutingProfile) models.WeightedRates {
	if prof == nil {
		return perf
	}

	scout := ScoutingRates(prof)
	w := perf.TotalIP / (perf.TotalIP + scoutingConfidenceInnings)

	return models.WeightedRates{
		K9:      perf.K9*w + scout.K9*(1-w),
		BB9:     perf.BB9*w + scout.BB9*(1-w),
		HR9:     perf.HR9*w + scout.HR9*(1-w),
		TotalIP: perf.TotalIP,
	}
}
