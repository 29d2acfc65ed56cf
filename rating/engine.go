package rating

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dennissheppard/ootp-tools-sub006/leaguectx"
	"github.com/dennissheppard/ootp-tools-sub006/metrics"
	"github.com/dennissheppard/ootp-tools-sub006/models"
)

// Seasons of history feeding the aggregation window.
const historySpan = 3

// Readiness gate: pitchers with no recent top-level innings still enter the
// output when scouting grades them at or above these star bars.
const (
	readinessOverallStars   = 2.5
	readinessPotentialStars = 3.5
)

// Engine orchestrates rating and projection runs over a player pool.
type Engine struct {
	db     *pgxpool.Pool
	league *leaguectx.Service
	cache  *ResultCache
	log    *zap.Logger

	mu         sync.RWMutex
	activeRuns map[string]*RunStatus

	poolMu   sync.Mutex
	poolYear int
	poolDist *PoolDistributions
}

// RunStatus tracks the progress of one analysis run.
type RunStatus struct {
	RunID         string     `json:"run_id"`
	TargetYear    int        `json:"target_year"`
	Status        string     `json:"status"`
	TotalPlayers  int        `json:"total_players"`
	RatedPlayers  int        `json:"rated_players"`
	StartTime     time.Time  `json:"start_time"`
	CompletedTime *time.Time `json:"completed_time,omitempty"`

	Result *RunResult `json:"-"`
}

// RunResult is the complete output of one run.
type RunResult struct {
	RunID       string                 `json:"run_id"`
	TargetYear  int                    `json:"target_year"`
	League      models.LeagueContext   `json:"league"`
	Ratings     []models.RatingResult  `json:"ratings"`
	Projections []models.ProjectedLine `json:"projections"`
	Warnings    []string               `json:"warnings,omitempty"`
}

// PlayerData is the assembled per-pitcher input for one run: identity,
// history, and scouting, all fetched before computation starts.
type PlayerData struct {
	PlayerID        string
	Name            string
	Team            string
	Age             int
	ExplicitStarter bool
	Seasons         []models.SeasonLine // most recent first
	Scouting        *models.ScoutingProfile
}

// NewEngine creates a rating engine. The result cache may be nil.
func NewEngine(db *pgxpool.Pool, league *leaguectx.Service, cache *ResultCache, log *zap.Logger) *Engine {
	return &Engine{
		db:         db,
		league:     league,
		cache:      cache,
		log:        log,
		activeRuns: make(map[string]*RunStatus),
	}
}

// StartRun registers a run record and returns once the row exists; the
// caller then launches RunProjection in the background.
func (e *Engine) StartRun(ctx context.Context, runID string, targetYear int) error {
	return e.createRunRecord(ctx, runID, targetYear)
}

// RunProjection executes a complete rating and projection run for the
// target year. Intended to run on its own goroutine; progress is visible
// through GetRunStatus.
func (e *Engine) RunProjection(runID string, targetYear int) {
	ctx := context.Background()
	start := time.Now()

	e.updateRunStatus(runID, "running")
	e.mu.Lock()
	e.activeRuns[runID] = &RunStatus{
		RunID:      runID,
		TargetYear: targetYear,
		Status:     "running",
		StartTime:  start,
	}
	e.mu.Unlock()

	result, err := e.computeRun(ctx, runID, targetYear)
	if err != nil {
		e.log.Error("analysis run failed",
			zap.String("run_id", runID), zap.Int("target_year", targetYear), zap.Error(err))
		e.setRunFailed(runID)
		e.updateRunStatus(runID, "error")
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return
	}

	if err := e.storeRunResult(ctx, result); err != nil {
		e.log.Error("failed to store run result", zap.String("run_id", runID), zap.Error(err))
	}

	e.cache.Invalidate(ctx, targetYear)
	if err := e.cache.Set(ctx, result); err != nil {
		e.log.Warn("failed to cache run result", zap.String("run_id", runID), zap.Error(err))
	}

	completed := time.Now()
	e.mu.Lock()
	if status, ok := e.activeRuns[runID]; ok {
		status.Status = "completed"
		status.RatedPlayers = len(result.Ratings)
		status.CompletedTime = &completed
		status.Result = result
	}
	e.mu.Unlock()

	e.updateRunStatus(runID, "completed")
	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.PlayersRated.Add(float64(len(result.Ratings)))
	metrics.RunDuration.Observe(time.Since(start).Seconds())

	e.log.Info("analysis run completed",
		zap.String("run_id", runID),
		zap.Int("target_year", targetYear),
		zap.Int("ratings", len(result.Ratings)),
		zap.Int("projections", len(result.Projections)),
		zap.Duration("elapsed", time.Since(start)))
}

// computeRun fetches all upstream data, then runs the pipeline. The four
// reads are independent and issued concurrently, but all must complete
// before any per-player computation begins.
func (e *Engine) computeRun(ctx context.Context, runID string, targetYear int) (*RunResult, error) {
	var (
		wg       sync.WaitGroup
		seasons  map[string][]models.SeasonLine
		scouting map[string]*models.ScoutingProfile
		roster   map[string]rosterEntry
		league   models.LeagueContext

		seasonsErr, scoutingErr, rosterErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		seasons, seasonsErr = e.fetchSeasonLines(ctx, targetYear-1, historySpan)
	}()
	go func() {
		defer wg.Done()
		scouting, scoutingErr = e.fetchScouting(ctx)
	}()
	go func() {
		defer wg.Done()
		roster, rosterErr = e.fetchRoster(ctx)
	}()
	go func() {
		defer wg.Done()
		// The league service degrades internally, never errors
		league = e.league.GetContext(ctx, targetYear)
	}()
	wg.Wait()

	// Stats are the backbone of the run; no compensating for their absence
	if seasonsErr != nil {
		metrics.FetchFailures.WithLabelValues("stats").Inc()
		return nil, seasonsErr
	}

	result := &RunResult{RunID: runID, TargetYear: targetYear, League: league}
	if scoutingErr != nil {
		metrics.FetchFailures.WithLabelValues("scouting").Inc()
		e.log.Warn("scouting fetch failed, rating on performance only", zap.Error(scoutingErr))
		result.Warnings = append(result.Warnings, "scouting unavailable")
		scouting = map[string]*models.ScoutingProfile{}
	}
	if rosterErr != nil {
		metrics.FetchFailures.WithLabelValues("roster").Inc()
		e.log.Warn("roster fetch failed, identities degraded", zap.Error(rosterErr))
		result.Warnings = append(result.Warnings, "roster unavailable")
		roster = map[string]rosterEntry{}
	}
	if league.UsedFallback {
		metrics.FetchFailures.WithLabelValues("league_context").Inc()
		result.Warnings = append(result.Warnings, "league context fallback: "+league.FallbackKind)
	}

	players := assemblePlayers(seasons, scouting, roster)

	e.mu.Lock()
	if status, ok := e.activeRuns[runID]; ok {
		status.TotalPlayers = len(players)
	}
	e.mu.Unlock()

	result.Ratings = ComputeRatings(players, e.log)

	pool := e.poolDistributions(targetYear, players, result.Ratings)
	result.Projections = e.computeProjections(players, result.Ratings, league, pool, targetYear)

	return result, nil
}

// assemblePlayers joins the three fetched maps into the per-player inputs.
// Players appearing only in scouting still enter the pool; the readiness
// gate decides later whether they make the output.
func assemblePlayers(
	seasons map[string][]models.SeasonLine,
	scouting map[string]*models.ScoutingProfile,
	roster map[string]rosterEntry,
) []PlayerData {
	ids := make(map[string]bool, len(seasons)+len(scouting))
	for id := range seasons {
		ids[id] = true
	}
	for id := range scouting {
		ids[id] = true
	}

	players := make([]PlayerData, 0, len(ids))
	for id := range ids {
		p := PlayerData{
			PlayerID: id,
			Seasons:  seasons[id],
			Scouting: scouting[id],
		}
		if entry, ok := roster[id]; ok {
			p.Name = entry.Name
			p.Team = entry.Team
			p.Age = entry.Age
			p.ExplicitStarter = entry.ExplicitStarter
		}
		if p.Name == "" && p.Scouting != nil {
			p.Name = p.Scouting.Name
		}
		players = append(players, p)
	}
	return players
}

// ComputeRatings runs the rating pipeline over a pool: aggregate history,
// regress toward tier targets, blend scouting, invert to component ratings,
// then rank each role tier separately for the True Rating. Pools are never
// merged across tiers here.
func ComputeRatings(players []PlayerData, log *zap.Logger) []models.RatingResult {
	results := make([]models.RatingResult, 0, len(players))

	for _, p := range players {
		agg := AggregateSeasons(p.Seasons, nil)
		if agg.IsEmpty() && p.Scouting == nil {
			continue
		}

		role := models.RoleTierForInnings(agg.TotalIP)
		if p.ExplicitStarter {
			role = models.RoleStarter
		}

		var blended models.WeightedRates
		usedFallback := false
		if agg.IsEmpty() {
			// Scouting-only rendition; rates carry no sample at all
			blended = ScoutingRates(p.Scouting)
			usedFallback = true
		} else {
			regressed := RegressRates(agg, role)
			blended = BlendScouting(regressed, p.Scouting)
		}

		results = append(results, models.RatingResult{
			PlayerID:      p.PlayerID,
			Name:          p.Name,
			Team:          p.Team,
			Role:          role,
			Rates:         blended,
			StuffRating:   models.RatingForK9(blended.K9),
			ControlRating: models.RatingForBB9(blended.BB9),
			HRRating:      models.RatingForHR9(blended.HR9),
			Metric:        models.FIPLikeRates(blended),
			UsedScouting:  p.Scouting != nil,
			UsedFallback:  usedFallback,
		})
	}

	// Tier-isolated percentile ranking
	byTier := make(map[models.RoleTier][]int)
	for i, r := range results {
		byTier[r.Role] = append(byTier[r.Role], i)
	}
	for _, indices := range byTier {
		metricsPool := make([]float64, len(indices))
		for j, idx := range indices {
			metricsPool[j] = results[idx].Metric
		}
		for j, entry := range RankAscending(metricsPool, log) {
			idx := indices[j]
			results[idx].Percentile = entry.Percentile
			results[idx].TrueRating = entry.Bucket
		}
	}

	return results
}

// computeProjections runs aging/ensemble and the workload chain per player,
// then ranks the whole pool (not tier-split) for the projected rating.
// The canonical current ratings from the rating pass are overlaid last so
// displayed current values stay consistent regardless of computation path.
func (e *Engine) computeProjections(
	players []PlayerData,
	ratings []models.RatingResult,
	league models.LeagueContext,
	pool *PoolDistributions,
	targetYear int,
) []models.ProjectedLine {
	ratingByID := make(map[string]models.RatingResult, len(ratings))
	for _, r := range ratings {
		ratingByID[r.PlayerID] = r
	}

	var lines []models.ProjectedLine
	for _, p := range players {
		current, ok := ratingByID[p.PlayerID]
		if !ok || !readyForOutput(p) {
			continue
		}

		projectedAge := p.Age + 1

		ensemble := ProjectEnsemble(EnsembleInputs{
			Age:         projectedAge,
			Stuff:       current.StuffRating,
			Control:     current.ControlRating,
			HRAvoidance: current.HRRating,
			Seasons:     p.Seasons,
			League:      league,
		})

		workload := ProjectWorkload(WorkloadInputs{
			Age:             projectedAge,
			Scouting:        p.Scouting,
			ExplicitStarter: p.ExplicitStarter,
			Seasons:         p.Seasons,
			Value:           ensemble.Value,
			Pool:            pool,
		})

		lines = append(lines, models.ProjectedLine{
			PlayerID:       p.PlayerID,
			Name:           p.Name,
			Team:           p.Team,
			Year:           targetYear,
			Role:           workload.Role,
			K9:             ensemble.Blended.K9,
			BB9:            ensemble.Blended.BB9,
			HR9:            ensemble.Blended.HR9,
			IP:             workload.IP,
			Value:          ensemble.Value,
			ConfidenceTier: ensemble.ConfidenceTier,
		})
	}

	// Projection ranking spans the full pool
	metricsPool := make([]float64, len(lines))
	for i, line := range lines {
		metricsPool[i] = line.Value
	}
	for i, entry := range RankAscending(metricsPool, e.log) {
		lines[i].Percentile = entry.Percentile
		lines[i].ProjectedRating = entry.Bucket
	}

	// Overlay canonical current values from the authoritative rating pass
	for i := range lines {
		if current, ok := ratingByID[lines[i].PlayerID]; ok {
			lines[i].CurrentRating = current.TrueRating
		}
	}

	return lines
}

// readyForOutput gates projections: recent top-level innings, or scouting
// grades above the readiness bar.
func readyForOutput(p PlayerData) bool {
	if len(p.Seasons) > 0 && p.Seasons[0].IP > 0 {
		return true
	}
	if p.Scouting == nil {
		return false
	}
	return p.Scouting.Overall >= readinessOverallStars ||
		p.Scouting.Potential >= readinessPotentialStars
}

// poolDistributions returns the distributions for the data year, rebuilding
// only when the year changes. The snapshot is read-only once built, so
// per-player work can share it freely.
func (e *Engine) poolDistributions(year int, players []PlayerData, ratings []models.RatingResult) *PoolDistributions {
	e.poolMu.Lock()
	defer e.poolMu.Unlock()

	if e.poolDist != nil && e.poolYear == year {
		return e.poolDist
	}

	roleByID := make(map[string]models.RoleTier, len(ratings))
	for _, r := range ratings {
		roleByID[r.PlayerID] = r.Role
	}

	poolPlayers := make([]PoolPlayer, 0, len(players))
	for _, p := range players {
		if len(p.Seasons) == 0 {
			continue
		}
		role, ok := roleByID[p.PlayerID]
		if !ok {
			role = models.RoleTierForInnings(p.Seasons[0].IP)
		}
		stamina := 50.0
		if p.Scouting != nil {
			stamina = p.Scouting.Stamina
		}
		poolPlayers = append(poolPlayers, PoolPlayer{
			Role:    role,
			Stamina: stamina,
			IP:      p.Seasons[0].IP,
		})
	}

	e.poolYear = year
	e.poolDist = BuildPoolDistributions(year, poolPlayers)
	return e.poolDist
}

// InvalidatePoolDistributions drops the cached pool snapshot, forcing a
// rebuild on the next run.
func (e *Engine) InvalidatePoolDistributions() {
	e.poolMu.Lock()
	defer e.poolMu.Unlock()
	e.poolDist = nil
	e.poolYear = 0
}

// RunMultiYear runs the pipeline for several target years. A failure in
// one year is isolated: it is recorded as a warning and the batch
// continues.
func (e *Engine) RunMultiYear(ctx context.Context, runID string, years []int) []*RunResult {
	results := make([]*RunResult, 0, len(years))
	for _, year := range years {
		result, err := e.computeRun(ctx, runID, year)
		if err != nil {
			metrics.FetchFailures.WithLabelValues("batch_year").Inc()
			e.log.Warn("skipping year in multi-year batch",
				zap.Int("year", year), zap.Error(err))
			continue
		}
		results = append(results, result)
	}
	return results
}

// GetRunStatus returns the in-memory status of a run.
func (e *Engine) GetRunStatus(runID string) (*RunStatus, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	status, ok := e.activeRuns[runID]
	return status, ok
}

// GetRunResult returns a completed run's result, preferring memory, then
// the Redis cache, then the database.
func (e *Engine) GetRunResult(ctx context.Context, runID string) (*RunResult, error) {
	e.mu.RLock()
	if status, ok := e.activeRuns[runID]; ok && status.Result != nil {
		e.mu.RUnlock()
		return status.Result, nil
	}
	e.mu.RUnlock()

	return e.loadRunResult(ctx, runID)
}

// GetYearResult returns the latest completed result for a target year,
// preferring the Redis cache over the database.
func (e *Engine) GetYearResult(ctx context.Context, targetYear int) (*RunResult, error) {
	if result, ok := e.cache.Get(ctx, targetYear); ok {
		return result, nil
	}

	var runID string
	err := e.db.QueryRow(ctx, `
		SELECT id FROM analysis_runs
		WHERE target_year = $1 AND status = 'completed'
		ORDER BY created_at DESC LIMIT 1
	`, targetYear).Scan(&runID)
	if err != nil {
		return nil, err
	}
	return e.loadRunResult(ctx, runID)
}

// CleanupOldRuns removes finished runs from memory after 24 hours.
func (e *Engine) CleanupOldRuns() {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	for runID, status := range e.activeRuns {
		if status.StartTime.Before(cutoff) {
			delete(e.activeRuns, runID)
		}
	}
}

func (e *Engine) setRunFailed(runID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if status, ok := e.activeRuns[runID]; ok {
		status.Status = "error"
	}
}
