package models

import (
	"math"
	"testing"
)

func TestParseInnings(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"182.2", 182 + 2.0/3.0, false},
		{"182.1", 182 + 1.0/3.0, false},
		{"182.0", 182, false},
		{"45", 45, false},
		{" 100.2 ", 100 + 2.0/3.0, false},
		{"0.1", 1.0 / 3.0, false},
		// Non-thirds fractions parse as plain decimal
		{"55.5", 55.5, false},
		{"12.25", 12.25, false},
		{"", 0, true},
		{"abc", 0, true},
		{"12.x", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseInnings(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseInnings(%q): expected error, got %v", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseInnings(%q): unexpected error %v", tt.input, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseInnings(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatInnings(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{182 + 2.0/3.0, "182.2"},
		{182 + 1.0/3.0, "182.1"},
		{182, "182.0"},
		{0, "0.0"},
		// Rounding at the two-thirds boundary carries into the whole
		{99.99, "100.0"},
	}

	for _, tt := range tests {
		if got := FormatInnings(tt.input); got != tt.want {
			t.Errorf("FormatInnings(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestInningsRoundTrip(t *testing.T) {
	for _, s := range []string{"0.0", "0.1", "0.2", "75.1", "182.2", "300.0"} {
		ip, err := ParseInnings(s)
		if err != nil {
			t.Fatalf("ParseInnings(%q): %v", s, err)
		}
		if got := FormatInnings(ip); got != s {
			t.Errorf("round trip %q -> %v -> %q", s, ip, got)
		}
	}
}

func TestRoleTierForInnings(t *testing.T) {
	tests := []struct {
		ip   float64
		want RoleTier
	}{
		{200, RoleStarter},
		{130, RoleStarter},
		{129.9, RoleSwingman},
		{70, RoleSwingman},
		{69.9, RoleReliever},
		{0, RoleReliever},
	}

	for _, tt := range tests {
		if got := RoleTierForInnings(tt.ip); got != tt.want {
			t.Errorf("RoleTierForInnings(%v) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestWorkloadFactor(t *testing.T) {
	tests := []struct {
		proneness InjuryProneness
		want      float64
	}{
		{InjuryIronMan, 1.10},
		{InjuryDurable, 1.05},
		{InjuryNormal, 1.00},
		{InjuryFragile, 0.85},
		{InjuryWrecked, 0.70},
		{InjuryProneness("unknown"), 1.00},
		{InjuryProneness(""), 1.00},
	}

	for _, tt := range tests {
		if got := tt.proneness.WorkloadFactor(); got != tt.want {
			t.Errorf("WorkloadFactor(%q) = %v, want %v", tt.proneness, got, tt.want)
		}
	}
}

func TestParseStars(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"4.5 Stars", 4.5},
		{"3 Stars", 3},
		{"0.5 Stars", 0.5},
		{"5", 5},
		{"None", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseStars(tt.input); got != tt.want {
			t.Errorf("ParseStars(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ken Griffey Jr.", "ken griffey"},
		{"Cal Ripken Sr", "cal ripken"},
		{"Frank  Thomas III", "frank thomas"},
		{"John O'Neil", "john oneil"},
		{"  LUIS   DE LA CRUZ  ", "luis de la cruz"},
		{"A.J. Burnett", "aj burnett"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizedNamesMatchAcrossSources(t *testing.T) {
	pairs := [][2]string{
		{"Ken Griffey Jr.", "ken griffey"},
		{"J.D. Martin", "JD Martin"},
		{"Mike Trout", "  mike   trout "},
	}
	for _, p := range pairs {
		if NormalizeName(p[0]) != NormalizeName(p[1]) {
			t.Errorf("names %q and %q did not reconcile: %q vs %q",
				p[0], p[1], NormalizeName(p[0]), NormalizeName(p[1]))
		}
	}
}
