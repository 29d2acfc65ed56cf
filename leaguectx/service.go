// Package leaguectx fetches the per-year league environment from the
// data-fetcher service, with an in-memory cache and a degrading fallback
// chain: requested year, prior year, hardcoded defaults.
package leaguectx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dennissheppard/ootp-tools-sub006/models"
)

const (
	// Cached contexts stay valid for a full run cycle
	cacheDuration = 30 * time.Minute

	// Timeout for data-fetcher requests
	requestTimeout = 10 * time.Second
)

// Service handles league context fetching and caching.
type Service struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	mu    sync.RWMutex
	cache map[int]cachedContext
}

type cachedContext struct {
	ctx       models.LeagueContext
	expiresAt time.Time
}

// contextResponse is the data-fetcher's wire format for one league year.
type contextResponse struct {
	Year        int     `json:"year"`
	AvgK9       float64 `json:"avg_k9"`
	AvgBB9      float64 `json:"avg_bb9"`
	AvgHR9      float64 `json:"avg_hr9"`
	FIPConstant float64 `json:"fip_constant"`
	RunsPerWin  float64 `json:"runs_per_win"`
}

// NewService creates a league context service against a data-fetcher base
// URL.
func NewService(baseURL string, log *zap.Logger) *Service {
	return &Service{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		log:   log,
		cache: make(map[int]cachedContext),
	}
}

// GetContext returns the league context for a year. A failed fetch degrades
// to the prior year, then to the hardcoded default context; both fallbacks
// are recorded on the returned context and logged as warnings, never
// surfaced as errors.
func (s *Service) GetContext(ctx context.Context, year int) models.LeagueContext {
	if cached, ok := s.getCached(year); ok {
		return cached
	}

	lc, err := s.fetchYear(ctx, year)
	if err == nil {
		s.setCached(year, lc)
		return lc
	}
	s.log.Warn("league context fetch failed, falling back to prior year",
		zap.Int("year", year), zap.Error(err))

	prior, priorErr := s.fetchYear(ctx, year-1)
	if priorErr == nil {
		prior.Year = year
		prior.UsedFallback = true
		prior.FallbackKind = "prior_year"
		s.setCached(year, prior)
		return prior
	}
	s.log.Warn("prior-year league context fetch failed, using defaults",
		zap.Int("year", year-1), zap.Error(priorErr))

	def := models.DefaultLeagueContext(year)
	s.setCached(year, def)
	return def
}

// Invalidate drops the cached context for a year, forcing a refetch.
func (s *Service) Invalidate(year int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, year)
}

func (s *Service) fetchYear(ctx context.Context, year int) (models.LeagueContext, error) {
	if s.baseURL == "" {
		return models.LeagueContext{}, fmt.Errorf("data-fetcher URL not configured")
	}

	params := url.Values{}
	params.Add("year", fmt.Sprintf("%d", year))
	apiURL := fmt.Sprintf("%s/league-context?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return models.LeagueContext{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.LeagueContext{}, fmt.Errorf("data-fetcher request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.LeagueContext{}, fmt.Errorf("data-fetcher returned status %d: %s", resp.StatusCode, string(body))
	}

	var wire contextResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return models.LeagueContext{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if wire.AvgK9 == 0 && wire.AvgBB9 == 0 {
		return models.LeagueContext{}, fmt.Errorf("data-fetcher returned empty context for %d", year)
	}

	return models.LeagueContext{
		Year:        year,
		AvgK9:       wire.AvgK9,
		AvgBB9:      wire.AvgBB9,
		AvgHR9:      wire.AvgHR9,
		FIPConstant: wire.FIPConstant,
		RunsPerWin:  wire.RunsPerWin,
	}, nil
}

func (s *Service) getCached(year int) (models.LeagueContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cached, ok := s.cache[year]
	if !ok || time.Now().After(cached.expiresAt) {
		return models.LeagueContext{}, false
	}
	return cached.ctx, true
}

func (s *Service) setCached(year int, lc models.LeagueContext) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[year] = cachedContext{
		ctx:       lc,
		expiresAt: time.Now().Add(cacheDuration),
	}
}
