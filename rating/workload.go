package rating

import (
	"fmt"
	"math"

	"github.com/dennissheppard/ootp-tools-sub006/models"
)

// Workload chain tuning.
const (
	// Scouting role signal gates
	starterPitchCount   = 3
	starterStaminaFloor = 45.0
	provenSkillValue    = 4.2
	trackRecordInnings  = 50.0
	// Recent games-started fallbacks
	recentGSThreshold     = 15
	historicalGSThreshold = 20
	// Formula fallback bounds
	starterBaseIP    = 100.0
	starterIPPerSta  = 1.2
	starterIPMax     = 280.0
	relieverBaseIP   = 30.0
	relieverIPPerSta = 0.6
	relieverIPMax    = 100.0
	// Innings history considered sufficient durability evidence
	durabilityEvidenceIP = 60.0
	// Completed-season floors filter injury-shortened years
	starterCompletedFloor  = 100.0
	swingmanCompletedFloor = 70.0
	relieverCompletedFloor = 30.0
	// Breakout override
	breakoutMinIP  = 120.0
	breakoutFactor = 1.5
	// Historical blend context
	prospectInnings  = 150.0
	workhorseInnings = 160.0
	// Age cliffs
	ageCliffFirst  = 40
	ageCliffSecond = 43
	ageCliffThird  = 46
	// Pool cap
	historicalMaxCapFactor = 1.05
	// Elite boost ramps from 1.00 at the threshold to 1.08 at full effect
	eliteBoostThreshold = 3.5
	eliteBoostFloor     = 2.5
	eliteBoostMax       = 1.08
)

// StageRecord is the immutable audit entry one workload stage emits. Every
// stage records itself, including explicit no-ops, so a projection can
// always be explained after the fact.
type StageRecord struct {
	Stage   string  `json:"stage"`
	Input   float64 `json:"input"`
	Output  float64 `json:"output"`
	Applied bool    `json:"applied"`
	Note    string  `json:"note,omitempty"`
}

// WorkloadInputs feeds one workload projection.
type WorkloadInputs struct {
	Age             int
	Scouting        *models.ScoutingProfile
	ExplicitStarter bool
	Seasons         []models.SeasonLine // most recent first
	Value           float64             // projected value metric, lower is better
	Pool            *PoolDistributions  // may be nil
}

// WorkloadProjection is the final innings estimate plus the full audit
// trail of how each stage transformed it.
type WorkloadProjection struct {
	Role   models.RoleTier `json:"role"`
	IP     float64         `json:"ip"`
	Stages []StageRecord   `json:"stages"`
}

// ProjectWorkload runs the sequential modifier chain: role decision, base
// estimate, injury, skill, historical blend, age cliff, pool cap, elite
// boost. Each stage is a pure transform of the previous estimate; the
// result is never negative.
func ProjectWorkload(in WorkloadInputs) WorkloadProjection {
	stages := make([]StageRecord, 0, 8)

	role, roleRec := resolveRole(in)
	stages = append(stages, roleRec)

	est, rec := baseIPStage(in, role)
	stages = append(stages, rec)

	est, rec = injuryStage(in, est)
	stages = append(stages, rec)

	est, rec = skillStage(in, est)
	stages = append(stages, rec)

	est, rec = historicalBlendStage(in, role, est)
	stages = append(stages, rec)

	est, rec = ageCliffStage(in, est)
	stages = append(stages, rec)

	est, rec = poolCapStage(in, role, est)
	stages = append(stages, rec)

	est, rec = eliteBoostStage(in, est)
	stages = append(stages, rec)

	return WorkloadProjection{
		Role:   role,
		IP:     math.Max(0, est),
		Stages: stages,
	}
}

// resolveRole prefers the scouting signal, then the explicit role flag,
// then recent games-started evidence, and finally defaults to relief work.
func resolveRole(in WorkloadInputs) (models.RoleTier, StageRecord) {
	totalIP := totalInnings(in.Seasons)

	if sc := in.Scouting; sc != nil &&
		sc.UsablePitches >= starterPitchCount &&
		sc.Stamina > starterStaminaFloor &&
		(totalIP < trackRecordInnings || in.Value < provenSkillValue) {
		return models.RoleStarter, StageRecord{
			Stage: "role", Applied: true,
			Note: "starter by scouting signal",
		}
	}

	if in.ExplicitStarter {
		return models.RoleStarter, StageRecord{
			Stage: "role", Applied: true,
			Note: "starter by explicit role flag",
		}
	}

	if len(in.Seasons) > 0 && in.Seasons[0].GamesStarted >= recentGSThreshold {
		return models.RoleStarter, StageRecord{
			Stage: "role", Applied: true,
			Note: "starter by recent games started",
		}
	}
	for _, s := range in.Seasons {
		if s.GamesStarted >= historicalGSThreshold {
			return models.RoleStarter, StageRecord{
				Stage: "role", Applied: true,
				Note: "starter by historical games started",
			}
		}
	}

	return models.RoleReliever, StageRecord{
		Stage: "role", Applied: true,
		Note: "reliever by default",
	}
}

// baseIPStage maps the stamina percentile onto the same-role historical
// innings distribution when pool data exists, otherwise falls back to the
// role-specific linear formula.
func baseIPStage(in WorkloadInputs, role models.RoleTier) (float64, StageRecord) {
	stamina := 50.0
	if in.Scouting != nil {
		stamina = in.Scouting.Stamina
	}

	if in.Pool.HasRole(role) {
		pct := in.Pool.StaminaPercentile(role, stamina)
		est := in.Pool.IPAtPercentile(role, pct)
		if role == models.RoleReliever {
			est = models.Clamp(est, 20, 110)
		} else {
			est = models.Clamp(est, 60, 300)
		}
		return est, StageRecord{
			Stage: "base_ip", Output: est, Applied: true,
			Note: fmt.Sprintf("pool percentile mapping at stamina pct %.1f", pct),
		}
	}

	var est float64
	if role == models.RoleReliever {
		est = models.Clamp(relieverBaseIP+stamina*relieverIPPerSta, relieverBaseIP, relieverIPMax)
	} else {
		est = models.Clamp(starterBaseIP+stamina*starterIPPerSta, starterBaseIP, starterIPMax)
	}
	return est, StageRecord{
		Stage: "base_ip", Output: est, Applied: true,
		Note: "formula fallback, no pool distribution",
	}
}

// injuryStage applies the proneness factor only when no meaningful innings
// history exists; real workload history already prices durability in.
func injuryStage(in WorkloadInputs, est float64) (float64, StageRecord) {
	rec := StageRecord{Stage: "injury", Input: est, Output: est}

	if totalInnings(in.Seasons) >= durabilityEvidenceIP {
		rec.Note = "skipped, durability evidenced by workload history"
		return est, rec
	}
	if in.Scouting == nil {
		rec.Note = "skipped, no scouting profile"
		return est, rec
	}

	factor := in.Scouting.Injury.WorkloadFactor()
	out := est * factor
	rec.Output = out
	rec.Applied = factor != 1.0
	rec.Note = fmt.Sprintf("%s x%.2f", in.Scouting.Injury, factor)
	return out, rec
}

// skillStage nudges innings by projected skill: managers ride their best
// arms harder.
func skillStage(in WorkloadInputs, est float64) (float64, StageRecord) {
	var factor float64
	switch {
	case in.Value < 3.2:
		factor = 1.08
	case in.Value < 3.6:
		factor = 1.04
	case in.Value < 4.2:
		factor = 1.00
	case in.Value < 4.8:
		factor = 0.95
	default:
		factor = 0.88
	}

	out := est * factor
	return out, StageRecord{
		Stage: "skill", Input: est, Output: out, Applied: factor != 1.0,
		Note: fmt.Sprintf("value %.2f x%.2f", in.Value, factor),
	}
}

// historicalBlendStage mixes the model estimate with a recency-weighted
// average of completed seasons. Injury-shortened years fall below the
// role floor and are excluded; a breakout season more than 1.5x the prior
// year becomes the baseline outright instead of being blended down.
func historicalBlendStage(in WorkloadInputs, role models.RoleTier, est float64) (float64, StageRecord) {
	rec := StageRecord{Stage: "historical_blend", Input: est, Output: est}

	floor := relieverCompletedFloor
	switch role {
	case models.RoleStarter:
		floor = starterCompletedFloor
	case models.RoleSwingman:
		floor = swingmanCompletedFloor
	}

	var completed []float64
	for _, s := range in.Seasons {
		if s.IP >= floor {
			completed = append(completed, s.IP)
		}
		if len(completed) == len(DefaultYearWeights) {
			break
		}
	}
	if len(completed) == 0 {
		rec.Note = "skipped, no completed seasons"
		return est, rec
	}

	var hist float64
	if len(completed) >= 2 && completed[0] > breakoutMinIP && completed[0] > breakoutFactor*completed[1] {
		// Ramp-up season: the new workload level is the baseline
		hist = completed[0]
		rec.Note = "breakout override, recent season as baseline"
	} else {
		var sumW, sum float64
		for i, ip := range completed {
			w := DefaultYearWeights[i]
			sumW += w
			sum += ip * w
		}
		hist = sum / sumW
	}

	totalIP := totalInnings(in.Seasons)
	modelWeight := 0.5
	switch {
	case totalIP < prospectInnings && role != models.RoleReliever && in.Scouting != nil:
		// Limited track record with a starter profile: trust the model
		modelWeight = 0.7
	case hist >= workhorseInnings:
		// Established workhorse: trust the history
		modelWeight = 0.3
	}

	out := est*modelWeight + hist*(1-modelWeight)
	rec.Output = out
	rec.Applied = true
	if rec.Note == "" {
		rec.Note = fmt.Sprintf("model weight %.2f over %d completed seasons", modelWeight, len(completed))
	}
	return out, rec
}

// ageCliffStage cuts projections above the fixed age thresholds, each cut
// more severe than the last.
func ageCliffStage(in WorkloadInputs, est float64) (float64, StageRecord) {
	rec := StageRecord{Stage: "age_cliff", Input: est, Output: est}

	var factor float64
	switch {
	case in.Age >= ageCliffThird:
		factor = 0.50
	case in.Age >= ageCliffSecond:
		factor = 0.65
	case in.Age >= ageCliffFirst:
		factor = 0.80
	default:
		rec.Note = fmt.Sprintf("skipped, age %d below cliff", in.Age)
		return est, rec
	}

	out := est * factor
	rec.Output = out
	rec.Applied = true
	rec.Note = fmt.Sprintf("age %d x%.2f", in.Age, factor)
	return out, rec
}

// poolCapStage caps starter projections at 105% of the best same-role
// innings figure observed in the league pool.
func poolCapStage(in WorkloadInputs, role models.RoleTier, est float64) (float64, StageRecord) {
	rec := StageRecord{Stage: "pool_cap", Input: est, Output: est}

	if role == models.RoleReliever || !in.Pool.HasRole(role) {
		rec.Note = "skipped, reliever or no pool data"
		return est, rec
	}

	cap := in.Pool.MaxIP(role) * historicalMaxCapFactor
	if est <= cap {
		rec.Note = fmt.Sprintf("under cap %.0f", cap)
		return est, rec
	}

	rec.Output = cap
	rec.Applied = true
	rec.Note = fmt.Sprintf("capped at %.0f", cap)
	return cap, rec
}

// eliteBoostStage applies a smooth 1.00-1.08x boost for projections whose
// value metric beats the elite threshold, countering a systematic tendency
// to under-project elite workloads.
func eliteBoostStage(in WorkloadInputs, est float64) (float64, StageRecord) {
	rec := StageRecord{Stage: "elite_boost", Input: est, Output: est}

	if in.Value >= eliteBoostThreshold {
		rec.Note = "skipped, below elite threshold"
		return est, rec
	}

	t := models.Clamp((eliteBoostThreshold-in.Value)/(eliteBoostThreshold-eliteBoostFloor), 0, 1)
	factor := 1.0 + t*(eliteBoostMax-1.0)
	out := est * factor
	rec.Output = out
	rec.Applied = true
	rec.Note = fmt.Sprintf("value %.2f x%.3f", in.Value, factor)
	return out, rec
}

func totalInnings(seasons []models.SeasonLine) float64 {
	var total float64
	for _, s := range seasons {
		total += s.IP
	}
	return total
}
