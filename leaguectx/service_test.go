package leaguectx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func serveContext(t *testing.T, years map[string]contextResponse) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/league-context", r.URL.Path)
		resp, ok := years[r.URL.Query().Get("year")]
		if !ok {
			http.Error(w, "no data", http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGetContextSuccess(t *testing.T) {
	srv, _ := serveContext(t, map[string]contextResponse{
		"2027": {Year: 2027, AvgK9: 8.2, AvgBB9: 3.0, AvgHR9: 1.1, FIPConstant: 3.30, RunsPerWin: 9.8},
	})

	s := NewService(srv.URL, zap.NewNop())
	lc := s.GetContext(context.Background(), 2027)

	assert.Equal(t, 2027, lc.Year)
	assert.Equal(t, 8.2, lc.AvgK9)
	assert.Equal(t, 3.30, lc.FIPConstant)
	assert.False(t, lc.UsedFallback)
}

func TestGetContextPriorYearFallback(t *testing.T) {
	srv, _ := serveContext(t, map[string]contextResponse{
		"2026": {Year: 2026, AvgK9: 7.8, AvgBB9: 3.1, AvgHR9: 1.0, FIPConstant: 3.40, RunsPerWin: 9.6},
	})

	s := NewService(srv.URL, zap.NewNop())
	lc := s.GetContext(context.Background(), 2027)

	// Prior-year data served under the requested year, flagged as fallback
	assert.Equal(t, 2027, lc.Year)
	assert.Equal(t, 7.8, lc.AvgK9)
	assert.True(t, lc.UsedFallback)
	assert.Equal(t, "prior_year", lc.FallbackKind)
}

func TestGetContextDefaultFallback(t *testing.T) {
	srv, _ := serveContext(t, nil)

	s := NewService(srv.URL, zap.NewNop())
	lc := s.GetContext(context.Background(), 2027)

	assert.Equal(t, 2027, lc.Year)
	assert.True(t, lc.UsedFallback)
	assert.Equal(t, "default", lc.FallbackKind)
	assert.Equal(t, 7.0, lc.AvgK9)
	assert.Equal(t, 3.47, lc.FIPConstant)
}

func TestGetContextNoURLDegradesToDefault(t *testing.T) {
	s := NewService("", zap.NewNop())
	lc := s.GetContext(context.Background(), 2027)

	assert.Equal(t, "default", lc.FallbackKind)
}

func TestGetContextCaches(t *testing.T) {
	srv, hits := serveContext(t, map[string]contextResponse{
		"2027": {Year: 2027, AvgK9: 8.2, AvgBB9: 3.0, AvgHR9: 1.1, FIPConstant: 3.30, RunsPerWin: 9.8},
	})

	s := NewService(srv.URL, zap.NewNop())
	s.GetContext(context.Background(), 2027)
	s.GetContext(context.Background(), 2027)
	assert.Equal(t, int64(1), hits.Load())

	s.Invalidate(2027)
	s.GetContext(context.Background(), 2027)
	assert.Equal(t, int64(2), hits.Load())
}

func TestGetContextFallbackAlsoCached(t *testing.T) {
	srv, hits := serveContext(t, nil)

	s := NewService(srv.URL, zap.NewNop())
	s.GetContext(context.Background(), 2027)
	firstRound := hits.Load()
	require.Equal(t, int64(2), firstRound) // requested year plus prior year

	// The default result is cached; no storm of retries on repeat reads
	s.GetContext(context.Background(), 2027)
	assert.Equal(t, firstRound, hits.Load())
}

func TestGetContextRejectsEmptyPayload(t *testing.T) {
	srv, _ := serveContext(t, map[string]contextResponse{
		"2027": {Year: 2027}, // all-zero averages read as no data
	})

	s := NewService(srv.URL, zap.NewNop())
	lc := s.GetContext(context.Background(), 2027)

	assert.True(t, lc.UsedFallback)
}
