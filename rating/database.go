package rating

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dennissheppard/ootp-tools-sub006/models"
)

// updateRunStatus updates the analysis run status in the database.
func (e *Engine) updateRunStatus(runID, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
		UPDATE analysis_runs
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := e.db.Exec(ctx, query, runID, status); err != nil {
		e.log.Warn("failed to update run status",
			zap.String("run_id", runID), zap.Error(err))
	}
}

// fetchSeasonLines loads per-player season lines for the given span of
// years ending at endYear, most recent first. Rates are derived from the
// counting stats; innings arrive in the thirds encoding.
func (e *Engine) fetchSeasonLines(ctx context.Context, endYear, span int) (map[string][]models.SeasonLine, error) {
	query := `
		SELECT player_id, year, innings, games_started, strikeouts, walks, home_runs
		FROM pitching_stats
		WHERE year > $1 AND year <= $2
		ORDER BY player_id, year DESC
	`

	rows, err := e.db.Query(ctx, query, endYear-span, endYear)
	if err != nil {
		return nil, fmt.Errorf("failed to query pitching stats: %w", err)
	}
	defer rows.Close()

	seasons := make(map[string][]models.SeasonLine)
	for rows.Next() {
		var (
			playerID  string
			year      int
			innings   string
			gs        int
			k, bb, hr int
		)
		if err := rows.Scan(&playerID, &year, &innings, &gs, &k, &bb, &hr); err != nil {
			e.log.Warn("failed to scan season line", zap.Error(err))
			continue
		}

		ip, err := models.ParseInnings(innings)
		if err != nil {
			e.log.Warn("invalid innings encoding",
				zap.String("player_id", playerID), zap.String("innings", innings))
			continue
		}

		line := models.SeasonLine{
			Year:         year,
			IP:           ip,
			GamesStarted: gs,
		}
		if ip > 0 {
			line.K9 = float64(k) * 9 / ip
			line.BB9 = float64(bb) * 9 / ip
			line.HR9 = float64(hr) * 9 / ip
		}
		seasons[playerID] = append(seasons[playerID], line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading pitching stats: %w", err)
	}

	return seasons, nil
}

// fetchScouting loads the most recent scouting report per pitcher.
func (e *Engine) fetchScouting(ctx context.Context) (map[string]*models.ScoutingProfile, error) {
	query := `
		SELECT DISTINCT ON (player_id)
		       player_id, name, stuff, control, hr_avoidance, movement, babip,
		       stamina, injury_proneness, usable_pitches,
		       overall_grade, potential_grade, source, report_date
		FROM scouting_reports
		ORDER BY player_id, report_date DESC
	`

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scouting reports: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]*models.ScoutingProfile)
	for rows.Next() {
		var (
			p                  models.ScoutingProfile
			injury             string
			overall, potential string
		)
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.Stuff, &p.Control,
			&p.HRAvoidance, &p.Movement, &p.BABIP, &p.Stamina, &injury,
			&p.UsablePitches, &overall, &potential, &p.Source, &p.AsOf); err != nil {
			e.log.Warn("failed to scan scouting report", zap.Error(err))
			continue
		}

		p.Injury = models.InjuryProneness(injury)
		p.Overall = models.ParseStars(overall)
		p.Potential = models.ParseStars(potential)
		profiles[p.PlayerID] = &p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading scouting reports: %w", err)
	}

	return profiles, nil
}

// rosterEntry carries the identity fields the pipeline needs per pitcher.
type rosterEntry struct {
	Name            string
	Team            string
	Age             int
	ExplicitStarter bool
}

// fetchRoster loads pitcher identity and team assignment, resolving
// affiliates up to their parent club for display.
func (e *Engine) fetchRoster(ctx context.Context) (map[string]rosterEntry, error) {
	query := `
		SELECT p.player_id, p.name, p.age, p.role_flag,
		       COALESCE(parent.name, t.name, '') AS team_name
		FROM players p
		LEFT JOIN teams t ON p.team_id = t.id
		LEFT JOIN teams parent ON t.parent_id = parent.id
		WHERE p.position = 'P'
	`

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	roster := make(map[string]rosterEntry)
	for rows.Next() {
		var (
			playerID, name, team string
			roleFlag             *string
			age                  int
		)
		if err := rows.Scan(&playerID, &name, &age, &roleFlag, &team); err != nil {
			e.log.Warn("failed to scan roster row", zap.Error(err))
			continue
		}
		roster[playerID] = rosterEntry{
			Name:            name,
			Team:            team,
			Age:             age,
			ExplicitStarter: roleFlag != nil && *roleFlag == "SP",
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading roster: %w", err)
	}

	return roster, nil
}

// storeRunResult persists ratings and projections for a completed run.
func (e *Engine) storeRunResult(ctx context.Context, result *RunResult) error {
	for _, r := range result.Ratings {
		query := `
			INSERT INTO pitcher_ratings (
				run_id, player_id, target_year, role, k9, bb9, hr9, total_ip,
				metric, percentile, true_rating, used_scouting, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
			ON CONFLICT (player_id, target_year) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				role = EXCLUDED.role,
				k9 = EXCLUDED.k9,
				bb9 = EXCLUDED.bb9,
				hr9 = EXCLUDED.hr9,
				total_ip = EXCLUDED.total_ip,
				metric = EXCLUDED.metric,
				percentile = EXCLUDED.percentile,
				true_rating = EXCLUDED.true_rating,
				used_scouting = EXCLUDED.used_scouting
		`
		if _, err := e.db.Exec(ctx, query,
			result.RunID, r.PlayerID, result.TargetYear, string(r.Role),
			r.Rates.K9, r.Rates.BB9, r.Rates.HR9, r.Rates.TotalIP,
			r.Metric, r.Percentile, r.TrueRating, r.UsedScouting); err != nil {
			return fmt.Errorf("failed to store rating for %s: %w", r.PlayerID, err)
		}
	}

	for _, p := range result.Projections {
		query := `
			INSERT INTO pitcher_projections (
				run_id, player_id, target_year, role, k9, bb9, hr9, ip,
				value, percentile, projected_rating, confidence_tier, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
			ON CONFLICT (player_id, target_year) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				role = EXCLUDED.role,
				k9 = EXCLUDED.k9,
				bb9 = EXCLUDED.bb9,
				hr9 = EXCLUDED.hr9,
				ip = EXCLUDED.ip,
				value = EXCLUDED.value,
				percentile = EXCLUDED.percentile,
				projected_rating = EXCLUDED.projected_rating,
				confidence_tier = EXCLUDED.confidence_tier
		`
		if _, err := e.db.Exec(ctx, query,
			result.RunID, p.PlayerID, p.Year, string(p.Role),
			p.K9, p.BB9, p.HR9, p.IP,
			p.Value, p.Percentile, p.ProjectedRating, p.ConfidenceTier); err != nil {
			return fmt.Errorf("failed to store projection for %s: %w", p.PlayerID, err)
		}
	}

	return nil
}

// createRunRecord inserts the analysis run row before the background run
// starts.
func (e *Engine) createRunRecord(ctx context.Context, runID string, targetYear int) error {
	query := `
		INSERT INTO analysis_runs (id, target_year, status, created_at)
		VALUES ($1, $2, 'pending', NOW())
	`
	if _, err := e.db.Exec(ctx, query, runID, targetYear); err != nil {
		return fmt.Errorf("failed to create analysis run: %w", err)
	}
	return nil
}

// loadRunResult reads a completed run back from the database when it has
// aged out of memory.
func (e *Engine) loadRunResult(ctx context.Context, runID string) (*RunResult, error) {
	var (
		targetYear int
		status     string
	)
	err := e.db.QueryRow(ctx,
		"SELECT target_year, status FROM analysis_runs WHERE id = $1", runID).
		Scan(&targetYear, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis run: %w", err)
	}
	if status != "completed" {
		return nil, fmt.Errorf("run %s not completed (status %s)", runID, status)
	}

	result := &RunResult{RunID: runID, TargetYear: targetYear}

	rows, err := e.db.Query(ctx, `
		SELECT player_id, role, k9, bb9, hr9, total_ip, metric, percentile,
		       true_rating, used_scouting
		FROM pitcher_ratings WHERE run_id = $1
		ORDER BY percentile DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r    models.RatingResult
			role string
		)
		if err := rows.Scan(&r.PlayerID, &role, &r.Rates.K9, &r.Rates.BB9,
			&r.Rates.HR9, &r.Rates.TotalIP, &r.Metric, &r.Percentile,
			&r.TrueRating, &r.UsedScouting); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		r.Role = models.RoleTier(role)
		result.Ratings = append(result.Ratings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading ratings: %w", err)
	}

	projRows, err := e.db.Query(ctx, `
		SELECT player_id, role, k9, bb9, hr9, ip, value, percentile,
		       projected_rating, confidence_tier
		FROM pitcher_projections WHERE run_id = $1
		ORDER BY percentile DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load projections: %w", err)
	}
	defer projRows.Close()

	for projRows.Next() {
		var (
			p    models.ProjectedLine
			role string
		)
		if err := projRows.Scan(&p.PlayerID, &role, &p.K9, &p.BB9, &p.HR9,
			&p.IP, &p.Value, &p.Percentile, &p.ProjectedRating,
			&p.ConfidenceTier); err != nil {
			return nil, fmt.Errorf("failed to scan projection: %w", err)
		}
		p.Role = models.RoleTier(role)
		p.Year = targetYear
		result.Projections = append(result.Projections, p)
	}
	if err := projRows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading projections: %w", err)
	}

	return result, nil
}
