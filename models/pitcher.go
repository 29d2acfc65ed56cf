package models

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RoleTier classifies a pitcher for regression targets and workload bounds
type RoleTier string

const (
	RoleStarter  RoleTier = "starter"
	RoleSwingman RoleTier = "swingman"
	RoleReliever RoleTier = "reliever"
)

// Innings thresholds for role classification
const (
	StarterInningsThreshold  = 130.0
	SwingmanInningsThreshold = 70.0
)

// RoleTierForInnings derives a role from total innings pitched.
// An explicit role signal from the caller overrides this.
func RoleTierForInnings(totalIP float64) RoleTier {
	switch {
	case totalIP >= StarterInningsThreshold:
		return RoleStarter
	case totalIP >= SwingmanInningsThreshold:
		return RoleSwingman
	default:
		return RoleReliever
	}
}

// InjuryProneness is the scouted durability category
type InjuryProneness string

const (
	InjuryIronMan InjuryProneness = "Iron Man"
	InjuryDurable InjuryProneness = "Durable"
	InjuryNormal  InjuryProneness = "Normal"
	InjuryFragile InjuryProneness = "Fragile"
	InjuryWrecked InjuryProneness = "Wrecked"
)

// WorkloadFactor returns the multiplicative innings adjustment for the
// category. Only applied when no real workload history exists, so durability
// isn't double-counted.
func (ip InjuryProneness) WorkloadFactor() float64 {
	switch ip {
	case InjuryIronMan:
		return 1.10
	case InjuryDurable:
		return 1.05
	case InjuryFragile:
		return 0.85
	case InjuryWrecked:
		return 0.70
	default:
		return 1.00
	}
}

// ScoutingProfile is an immutable snapshot of one scouting source's view of
// a pitcher. Ratings are on the 20-80 scale, stamina on 0-100.
type ScoutingProfile struct {
	PlayerID      string          `json:"player_id"`
	Name          string          `json:"name"`
	Stuff         float64         `json:"stuff"`
	Control       float64         `json:"control"`
	HRAvoidance   float64         `json:"hr_avoidance"`
	Movement      float64         `json:"movement"`
	BABIP         float64         `json:"babip"`
	Stamina       float64         `json:"stamina"`
	Injury        InjuryProneness `json:"injury"`
	UsablePitches int             `json:"usable_pitches"`
	Overall       float64         `json:"overall"`   // star grade, 0.5-5.0
	Potential     float64         `json:"potential"` // star grade, 0.5-5.0
	Source        string          `json:"source"`
	AsOf          time.Time       `json:"as_of"`
}

// SeasonLine is one historical season of pitching, a read-only fact.
// Slices of SeasonLine are always ordered most-recent-first.
type SeasonLine struct {
	Year         int     `json:"year"`
	IP           float64 `json:"ip"` // decimal innings (182.2 parses to 182.667)
	GamesStarted int     `json:"games_started"`
	K9           float64 `json:"k9"`
	BB9          float64 `json:"bb9"`
	HR9          float64 `json:"hr9"`
}

// WeightedRates is the innings-weighted aggregate of several seasons.
// TotalIP of zero means "no data", not a valid zero-rate line.
type WeightedRates struct {
	K9      float64 `json:"k9"`
	BB9     float64 `json:"bb9"`
	HR9     float64 `json:"hr9"`
	TotalIP float64 `json:"total_ip"`
}

// IsEmpty reports whether the aggregate carries no sample at all.
func (w WeightedRates) IsEmpty() bool {
	return w.TotalIP <= 0
}

// RatingResult is the outcome of one rating pass for one pitcher.
// Created fresh each pass and never mutated afterwards.
type RatingResult struct {
	PlayerID      string        `json:"player_id"`
	Name          string        `json:"name"`
	Team          string        `json:"team,omitempty"`
	Role          RoleTier      `json:"role"`
	Rates         WeightedRates `json:"rates"`
	StuffRating   float64       `json:"stuff_rating"`   // internal 0-100
	ControlRating float64       `json:"control_rating"` // internal 0-100
	HRRating      float64       `json:"hr_rating"`      // internal 0-100
	Metric        float64       `json:"metric"`         // FIP-like, lower is better
	Percentile    float64       `json:"percentile"`     // tier-relative, 0-100
	TrueRating    float64       `json:"true_rating"`    // 0.5-5.0 in half-star steps
	UsedScouting  bool          `json:"used_scouting"`
	UsedFallback  bool          `json:"used_fallback_stats"`
}

// ProjectedLine is a forward-looking season projection for one pitcher.
// Superseded by re-running the pipeline, never updated in place.
type ProjectedLine struct {
	PlayerID        string   `json:"player_id"`
	Name            string   `json:"name"`
	Team            string   `json:"team,omitempty"`
	Year            int      `json:"year"`
	Role            RoleTier `json:"role"`
	K9              float64  `json:"k9"`
	BB9             float64  `json:"bb9"`
	HR9             float64  `json:"hr9"`
	IP              float64  `json:"ip"`
	Value           float64  `json:"value"`
	Percentile      float64  `json:"percentile"`
	ProjectedRating float64  `json:"projected_rating"`
	CurrentRating   float64  `json:"current_rating"`
	ConfidenceTier  string   `json:"confidence_tier"`
}

// LeagueContext is the per-year league environment, read-only configuration.
type LeagueContext struct {
	Year         int     `json:"year"`
	AvgK9        float64 `json:"avg_k9"`
	AvgBB9       float64 `json:"avg_bb9"`
	AvgHR9       float64 `json:"avg_hr9"`
	FIPConstant  float64 `json:"fip_constant"`
	RunsPerWin   float64 `json:"runs_per_win"`
	UsedFallback bool    `json:"used_fallback,omitempty"`
	FallbackKind string  `json:"fallback_kind,omitempty"` // "prior_year" or "default"
}

// ParseInnings converts the innings.thirds encoding to decimal innings.
// "182.2" means 182 and two thirds. Values with other fractional digits are
// treated as already-decimal.
func ParseInnings(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty innings value")
	}

	whole := s
	thirds := 0
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		whole = s[:idx]
		frac := s[idx+1:]
		switch frac {
		case "0":
			thirds = 0
		case "1":
			thirds = 1
		case "2":
			thirds = 2
		default:
			// Not thirds encoding, parse as plain decimal
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid innings value %q: %w", s, err)
			}
			return v, nil
		}
	}

	w, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("invalid innings value %q: %w", s, err)
	}

	return float64(w) + float64(thirds)/3.0, nil
}

// FormatInnings converts decimal innings back to the innings.thirds display
// encoding (182.667 -> "182.2").
func FormatInnings(ip float64) string {
	whole := math.Floor(ip)
	thirds := int(math.Round((ip - whole) * 3))
	if thirds >= 3 {
		whole++
		thirds = 0
	}
	return fmt.Sprintf("%.0f.%d", whole, thirds)
}

var (
	starPattern    = regexp.MustCompile(`[\d.]+`)
	suffixPattern  = regexp.MustCompile(`\s+(jr\.?|sr\.?|ii|iii|iv)$`)
	nonNamePattern = regexp.MustCompile(`[^a-z\s]`)
)

// ParseStars parses a star grade string like "4.5 Stars" into its numeric
// value. Returns 0 when no number is present.
func ParseStars(s string) float64 {
	match := starPattern.FindString(s)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeName canonicalizes a player name for cross-source reconciliation:
// lowercase, suffixes stripped, punctuation removed, whitespace collapsed.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = suffixPattern.ReplaceAllString(n, "")
	n = nonNamePattern.ReplaceAllString(n, "")
	return strings.Join(strings.Fields(n), " ")
}
