package models

import (
	"math"
	"testing"
)

func TestForwardConversionsStayInBounds(t *testing.T) {
	for r := -20.0; r <= 120.0; r += 5 {
		k9 := K9ForRating(r)
		if k9 < K9Min || k9 > K9Max {
			t.Errorf("K9ForRating(%v) = %v, outside [%v, %v]", r, k9, K9Min, K9Max)
		}
		bb9 := BB9ForRating(r)
		if bb9 < BB9Min || bb9 > BB9Max {
			t.Errorf("BB9ForRating(%v) = %v, outside [%v, %v]", r, bb9, BB9Min, BB9Max)
		}
		hr9 := HR9ForRating(r)
		if hr9 < HR9Min || hr9 > HR9Max {
			t.Errorf("HR9ForRating(%v) = %v, outside [%v, %v]", r, hr9, HR9Min, HR9Max)
		}
		h9 := H9ForRatings(r, r)
		if h9 < H9Min || h9 > H9Max {
			t.Errorf("H9ForRatings(%v, %v) = %v, outside [%v, %v]", r, r, h9, H9Min, H9Max)
		}
	}
}

func TestForwardConversionsMonotonic(t *testing.T) {
	for r := 5.0; r <= 100.0; r += 5 {
		if K9ForRating(r) < K9ForRating(r-5) {
			t.Errorf("K9ForRating not increasing at rating %v", r)
		}
		prevBB, curBB := BB9ForRating(r-5), BB9ForRating(r)
		if curBB > prevBB {
			t.Errorf("BB9ForRating not decreasing at rating %v", r)
		}
	}
}

func TestInverseConversionsClampToScale(t *testing.T) {
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"k9 below intercept", RatingForK9(0), 0},
		{"k9 extreme", RatingForK9(25), 100},
		{"bb9 above intercept", RatingForBB9(8), 0},
		{"bb9 extreme low", RatingForBB9(-2), 100},
		{"hr9 above intercept", RatingForHR9(3), 0},
		{"hr9 extreme low", RatingForHR9(-1), 100},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

// The inverse ignores the quadratic term, so the round trip drifts by up
// to quad/linear * r^2 ratings. The drift must stay bounded and vanish at
// zero.
func TestRoundTripDriftBounded(t *testing.T) {
	if got := RatingForK9(K9ForRating(0)); got != 0 {
		t.Errorf("round trip at rating 0 drifted to %v", got)
	}
	for r := 0.0; r <= 100.0; r += 10 {
		back := RatingForK9(K9ForRating(r))
		if math.Abs(back-r) > 17 {
			t.Errorf("round trip drift at rating %v: got %v back", r, back)
		}
	}
}

func TestFIPLike(t *testing.T) {
	got := FIPLike(9, 3, 1)
	want := (13.0 + 9.0 - 18.0) / 9.0
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("FIPLike(9, 3, 1) = %v, want %v", got, want)
	}

	// More strikeouts is always better
	if FIPLike(10, 3, 1) >= FIPLike(9, 3, 1) {
		t.Error("FIPLike did not improve with strikeout rate")
	}
	// More walks and homers is always worse
	if FIPLike(9, 4, 1) <= FIPLike(9, 3, 1) {
		t.Error("FIPLike did not worsen with walk rate")
	}
	if FIPLike(9, 3, 1.5) <= FIPLike(9, 3, 1) {
		t.Error("FIPLike did not worsen with home run rate")
	}
}

func TestValueMetricUsesLeagueConstant(t *testing.T) {
	league := LeagueContext{FIPConstant: 3.20}
	got := ValueMetric(9, 3, 1, league)
	want := FIPLike(9, 3, 1) + 3.20
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ValueMetric = %v, want %v", got, want)
	}

	// Zero constant falls back to the default
	gotDefault := ValueMetric(9, 3, 1, LeagueContext{})
	wantDefault := FIPLike(9, 3, 1) + 3.47
	if math.Abs(gotDefault-wantDefault) > 1e-12 {
		t.Errorf("ValueMetric default = %v, want %v", gotDefault, wantDefault)
	}
}

func TestDefaultLeagueContext(t *testing.T) {
	lc := DefaultLeagueContext(2027)
	if lc.Year != 2027 {
		t.Errorf("year = %d, want 2027", lc.Year)
	}
	if !lc.UsedFallback || lc.FallbackKind != "default" {
		t.Errorf("fallback metadata = %v/%q, want true/default", lc.UsedFallback, lc.FallbackKind)
	}
	if lc.AvgK9 != 7.0 || lc.AvgBB9 != 3.1 || lc.AvgHR9 != 1.0 {
		t.Errorf("unexpected league averages: %+v", lc)
	}
}

func TestClampHelpers(t *testing.T) {
	if got := ClampRating(120); got != 100 {
		t.Errorf("ClampRating(120) = %v", got)
	}
	if got := ClampRating(-5); got != 0 {
		t.Errorf("ClampRating(-5) = %v", got)
	}
	if got := ClampDisplay(95); got != 80 {
		t.Errorf("ClampDisplay(95) = %v", got)
	}
	if got := ClampDisplay(10); got != 20 {
		t.Errorf("ClampDisplay(10) = %v", got)
	}
}
