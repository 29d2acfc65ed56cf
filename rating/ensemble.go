package rating

import (
	"math"
	"math/rand"

	"github.com/dennissheppard/ootp-tools-sub006/models"
)

// Ensemble weight tuning.
const (
	// Innings at which sample confidence saturates
	ensembleConfidenceIP = 150.0
	// Recent innings at which a year-over-year trend is fully trusted
	trendConfidenceIP = 120.0
	// Trend confidence required before the gated weight shift applies
	trendGateThreshold = 0.6
	// FIP-like swing treated as a real directional trend
	trendSwingThreshold = 0.15
	// K/9 coefficient of variation above which weight shifts to Neutral
	volatilityThreshold = 0.15
	// A single bad year must not dominate the blend
	maxPessimisticWeight = 0.40
)

// SubmodelRates is one submodel's projected rate line.
type SubmodelRates struct {
	K9  float64 `json:"k9"`
	BB9 float64 `json:"bb9"`
	HR9 float64 `json:"hr9"`
}

// EnsembleInputs feeds one ensemble projection. Age is the age of the
// season being projected; component ratings are on the internal 0-100
// scale; Seasons are ordered most-recent-first.
type EnsembleInputs struct {
	Age         int
	Stuff       float64
	Control     float64
	HRAvoidance float64
	Seasons     []models.SeasonLine
	League      models.LeagueContext

	// Optional uniform noise on the value metric. Zero amplitude (the
	// default) keeps the projection fully deterministic; callers wanting
	// spread supply both the amplitude and their own seed.
	JitterAmplitude float64
	JitterSeed      int64
}

// EnsembleOutcome is the transient result of one ensemble call: the three
// submodel lines, their normalized weights, the blended line, and the
// descriptive metadata consumers use to judge projection fidelity.
type EnsembleOutcome struct {
	Optimistic  SubmodelRates `json:"optimistic"`
	Neutral     SubmodelRates `json:"neutral"`
	Pessimistic SubmodelRates `json:"pessimistic"`

	WeightOptimistic  float64 `json:"weight_optimistic"`
	WeightNeutral     float64 `json:"weight_neutral"`
	WeightPessimistic float64 `json:"weight_pessimistic"`

	Blended SubmodelRates `json:"blended"`
	Value   float64       `json:"value"`

	TrendDirection string  `json:"trend_direction"` // improving / declining / stable
	TrendMagnitude float64 `json:"trend_magnitude"`
	ConfidenceTier string  `json:"confidence_tier"` // high / medium / low
}

// ProjectEnsemble computes the three-submodel projection and blends them
// with confidence-derived weights. Weights always renormalize to sum to
// 1.0; if every raw weight comes out non-positive the blend falls back to
// 100% Neutral.
func ProjectEnsemble(in EnsembleInputs) EnsembleOutcome {
	delta := models.AgingDeltaForAge(in.Age)

	optimistic := ratesForRatings(
		models.ApplyAging(in.Stuff, delta.Stuff),
		models.ApplyAging(in.Control, delta.Control),
		models.ApplyAging(in.HRAvoidance, delta.HRAvoidance),
	)

	// Heavily damped aging, ratings held to the display scale
	damped := delta.Scale(0.2)
	neutral := ratesForRatings(
		models.ClampDisplay(in.Stuff+damped.Stuff),
		models.ClampDisplay(in.Control+damped.Control),
		models.ClampDisplay(in.HRAvoidance+damped.HRAvoidance),
	)

	pessimistic, haveTrend := trendRates(in)
	if !haveTrend {
		pessimistic = neutral
	}

	out := EnsembleOutcome{
		Optimistic:  optimistic,
		Neutral:     neutral,
		Pessimistic: pessimistic,
	}

	out.TrendDirection, out.TrendMagnitude = skillTrend(in.Seasons)
	wOpt, wNeut, wPess, confTier := ensembleWeights(in, out.TrendDirection)
	out.WeightOptimistic = wOpt
	out.WeightNeutral = wNeut
	out.WeightPessimistic = wPess
	out.ConfidenceTier = confTier

	out.Blended = SubmodelRates{
		K9:  wOpt*optimistic.K9 + wNeut*neutral.K9 + wPess*pessimistic.K9,
		BB9: wOpt*optimistic.BB9 + wNeut*neutral.BB9 + wPess*pessimistic.BB9,
		HR9: wOpt*optimistic.HR9 + wNeut*neutral.HR9 + wPess*pessimistic.HR9,
	}
	out.Value = models.ValueMetric(out.Blended.K9, out.Blended.BB9, out.Blended.HR9, in.League)
	if in.JitterAmplitude > 0 {
		rng := rand.New(rand.NewSource(in.JitterSeed))
		out.Value += (rng.Float64()*2 - 1) * in.JitterAmplitude
	}

	return out
}

func ratesForRatings(stuff, control, hra float64) SubmodelRates {
	return SubmodelRates{
		K9:  models.K9ForRating(stuff),
		BB9: models.BB9ForRating(control),
		HR9: models.HR9ForRating(hra),
	}
}

// trendRates extrapolates the most recent year-over-year movement in each
// rate, scaled by an adaptive dampening factor. Requires two prior seasons.
func trendRates(in EnsembleInputs) (SubmodelRates, bool) {
	if len(in.Seasons) < 2 {
		return SubmodelRates{}, false
	}
	recent, prior := in.Seasons[0], in.Seasons[1]

	sampleTrust := 0.5 + 0.5*models.Clamp(recent.IP/100, 0, 1)

	project := func(recentRate, priorRate, improveSign, strongSwing, lo, hi float64) float64 {
		trend := recentRate - priorRate
		improving := trend*improveSign > 0

		factor := 0.5
		if !improving && (in.Age <= 23 || in.Age >= 33) {
			// Declines at the age extremes are real more often than not
			factor += 0.2
		}
		if improving && math.Abs(trend) > strongSwing {
			// Big jumps are as likely variance as skill
			factor *= 0.5
		}
		factor *= sampleTrust

		return models.Clamp(recentRate+trend*factor, lo, hi)
	}

	return SubmodelRates{
		K9:  project(recent.K9, prior.K9, +1, 1.0, models.K9Min, models.K9Max),
		BB9: project(recent.BB9, prior.BB9, -1, 0.5, models.BB9Min, models.BB9Max),
		HR9: project(recent.HR9, prior.HR9, -1, 0.25, models.HR9Min, models.HR9Max),
	}, true
}

// skillTrend classifies the most recent year-over-year FIP-like movement.
func skillTrend(seasons []models.SeasonLine) (string, float64) {
	if len(seasons) < 2 {
		return "stable", 0
	}
	recent := models.FIPLike(seasons[0].K9, seasons[0].BB9, seasons[0].HR9)
	prior := models.FIPLike(seasons[1].K9, seasons[1].BB9, seasons[1].HR9)
	swing := recent - prior

	switch {
	case swing > trendSwingThreshold:
		return "declining", swing
	case swing < -trendSwingThreshold:
		return "improving", -swing
	default:
		return "stable", math.Abs(swing)
	}
}

// ensembleWeights derives the submodel weights from sample confidence, age,
// strikeout-rate volatility, and the confidence-gated trend shift.
func ensembleWeights(in EnsembleInputs, trendDirection string) (wOpt, wNeut, wPess float64, confTier string) {
	var recentIP, totalIP float64
	for i, s := range in.Seasons {
		if i >= 3 {
			break
		}
		totalIP += s.IP
	}
	if len(in.Seasons) > 0 {
		recentIP = in.Seasons[0].IP
	}

	ipConf := models.Clamp(totalIP/ensembleConfidenceIP, 0, 1)
	ageFactor := models.Clamp((30-float64(in.Age))/10, 0, 1)

	wOpt = 0.20 + 0.30*ageFactor*ipConf
	wPess = 0.20 * ipConf

	// High volatility means neither tail submodel deserves trust
	if cv := k9Volatility(in.Seasons); cv > volatilityThreshold {
		wOpt -= 0.10
		wPess -= 0.10
	}

	trendConf := models.Clamp(recentIP/trendConfidenceIP, 0, 1)
	if len(in.Seasons) >= 2 && trendConf > trendGateThreshold {
		switch trendDirection {
		case "declining":
			wPess += 0.15
		case "improving":
			wOpt += 0.10
		}
	}

	wOpt = math.Max(0, wOpt)
	wPess = models.Clamp(wPess, 0, maxPessimisticWeight)
	wNeut = math.Max(0, 1-wOpt-wPess)

	sum := wOpt + wNeut + wPess
	if sum <= 0 {
		wOpt, wNeut, wPess = 0, 1, 0
	} else {
		wOpt /= sum
		wNeut /= sum
		wPess /= sum
	}

	switch {
	case ipConf >= 0.8:
		confTier = "high"
	case ipConf >= 0.4:
		confTier = "medium"
	default:
		confTier = "low"
	}

	return wOpt, wNeut, wPess, confTier
}

// k9Volatility is the coefficient of variation of the last three seasons'
// strikeout rates. Fewer than three seasons reads as zero volatility.
func k9Volatility(seasons []models.SeasonLine) float64 {
	if len(seasons) < 3 {
		return 0
	}

	var sum float64
	for i := 0; i < 3; i++ {
		sum += seasons[i].K9
	}
	mean := sum / 3
	if mean <= 0 {
		return 0
	}

	var variance float64
	for i := 0; i < 3; i++ {
		d := seasons[i].K9 - mean
		variance += d * d
	}
	variance /= 3

	return math.Sqrt(variance) / mean
}
