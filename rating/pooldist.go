package rating

import (
	"sort"

	"github.com/dennissheppard/ootp-tools-sub006/models"
)

// Minimum same-role sample before percentile mapping is trusted over the
// linear stamina fallback.
const minPoolSamples = 8

// PoolPlayer is the slice of a player the pool distributions need.
type PoolPlayer struct {
	Role    models.RoleTier
	Stamina float64
	IP      float64
}

// PoolDistributions holds the pool-wide same-role stamina and innings
// distributions for one data year. It is built once per analysis run before
// any per-player work starts and is read-only afterwards, so the per-player
// loop can be parallelized without coordination. A new data year requires an
// explicit rebuild; the engine never silently reuses a stale year.
type PoolDistributions struct {
	Year int

	stamina map[models.RoleTier][]float64 // sorted ascending
	innings map[models.RoleTier][]float64 // sorted ascending
}

// BuildPoolDistributions constructs the distributions for one run.
// Swingmen fold into the starter distributions for workload purposes; the
// workload chain only distinguishes starter-shaped from reliever-shaped
// usage.
func BuildPoolDistributions(year int, players []PoolPlayer) *PoolDistributions {
	p := &PoolDistributions{
		Year:    year,
		stamina: make(map[models.RoleTier][]float64),
		innings: make(map[models.RoleTier][]float64),
	}

	for _, pl := range players {
		role := pl.Role
		if role == models.RoleSwingman {
			role = models.RoleStarter
		}
		if pl.IP <= 0 {
			continue
		}
		p.stamina[role] = append(p.stamina[role], pl.Stamina)
		p.innings[role] = append(p.innings[role], pl.IP)
	}

	for role := range p.stamina {
		sort.Float64s(p.stamina[role])
		sort.Float64s(p.innings[role])
	}

	return p
}

// HasRole reports whether the distributions carry enough same-role samples
// to use for percentile mapping.
func (p *PoolDistributions) HasRole(role models.RoleTier) bool {
	if p == nil {
		return false
	}
	return len(p.stamina[p.key(role)]) >= minPoolSamples
}

// StaminaPercentile returns where a stamina value falls within the
// same-role population, 0-100.
func (p *PoolDistributions) StaminaPercentile(role models.RoleTier, stamina float64) float64 {
	values := p.stamina[p.key(role)]
	if len(values) == 0 {
		return 50
	}
	below := sort.SearchFloat64s(values, stamina)
	return float64(below) / float64(len(values)) * 100
}

// IPAtPercentile returns the innings value at the given percentile of the
// same-role historical distribution, linearly interpolated between
// neighbors.
func (p *PoolDistributions) IPAtPercentile(role models.RoleTier, pct float64) float64 {
	values := p.innings[p.key(role)]
	if len(values) == 0 {
		return 0
	}
	if len(values) == 1 {
		return values[0]
	}

	pos := models.Clamp(pct, 0, 100) / 100 * float64(len(values)-1)
	lo := int(pos)
	if lo >= len(values)-1 {
		return values[len(values)-1]
	}
	frac := pos - float64(lo)
	return values[lo] + frac*(values[lo+1]-values[lo])
}

// MaxIP returns the highest same-role innings figure observed in the pool.
func (p *PoolDistributions) MaxIP(role models.RoleTier) float64 {
	values := p.innings[p.key(role)]
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

func (p *PoolDistributions) key(role models.RoleTier) models.RoleTier {
	if role == models.RoleSwingman {
		return models.RoleStarter
	}
	return role
}
