package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dennissheppard/ootp-tools-sub006/models"
)

func starterPool(n int) []PoolPlayer {
	players := make([]PoolPlayer, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, PoolPlayer{
			Role:    models.RoleStarter,
			Stamina: 40 + float64(i)*5,
			IP:      120 + float64(i)*10,
		})
	}
	return players
}

func TestHasRoleRequiresMinimumSample(t *testing.T) {
	thin := BuildPoolDistributions(2026, starterPool(5))
	assert.False(t, thin.HasRole(models.RoleStarter))

	full := BuildPoolDistributions(2026, starterPool(10))
	assert.True(t, full.HasRole(models.RoleStarter))
	assert.False(t, full.HasRole(models.RoleReliever))

	var nilPool *PoolDistributions
	assert.False(t, nilPool.HasRole(models.RoleStarter))
}

func TestSwingmenFoldIntoStarters(t *testing.T) {
	players := starterPool(6)
	for i := 0; i < 4; i++ {
		players = append(players, PoolPlayer{
			Role: models.RoleSwingman, Stamina: 55, IP: 90,
		})
	}

	pool := BuildPoolDistributions(2026, players)
	assert.True(t, pool.HasRole(models.RoleStarter))
	// A swingman query reads the combined starter distribution
	assert.True(t, pool.HasRole(models.RoleSwingman))
}

func TestStaminaPercentile(t *testing.T) {
	pool := BuildPoolDistributions(2026, starterPool(10))

	assert.InDelta(t, 0, pool.StaminaPercentile(models.RoleStarter, 10), 1e-9)
	assert.InDelta(t, 100, pool.StaminaPercentile(models.RoleStarter, 99), 1e-9)

	mid := pool.StaminaPercentile(models.RoleStarter, 63)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 100.0)

	// Empty distribution reads as the median
	assert.InDelta(t, 50, pool.StaminaPercentile(models.RoleReliever, 70), 1e-9)
}

func TestIPAtPercentile(t *testing.T) {
	pool := BuildPoolDistributions(2026, starterPool(10))

	assert.InDelta(t, 120, pool.IPAtPercentile(models.RoleStarter, 0), 1e-9)
	assert.InDelta(t, 210, pool.IPAtPercentile(models.RoleStarter, 100), 1e-9)

	// Midpoints interpolate linearly between neighbors
	mid := pool.IPAtPercentile(models.RoleStarter, 50)
	assert.InDelta(t, 165, mid, 1e-9)

	// Out-of-range percentiles clamp
	assert.InDelta(t, 120, pool.IPAtPercentile(models.RoleStarter, -10), 1e-9)
	assert.InDelta(t, 210, pool.IPAtPercentile(models.RoleStarter, 150), 1e-9)

	assert.InDelta(t, 0, pool.IPAtPercentile(models.RoleReliever, 50), 1e-9)
}

func TestMaxIP(t *testing.T) {
	pool := BuildPoolDistributions(2026, starterPool(10))
	assert.InDelta(t, 210, pool.MaxIP(models.RoleStarter), 1e-9)
	assert.InDelta(t, 0, pool.MaxIP(models.RoleReliever), 1e-9)
}

func TestZeroInningsPlayersExcluded(t *testing.T) {
	players := starterPool(8)
	players = append(players, PoolPlayer{Role: models.RoleStarter, Stamina: 90, IP: 0})

	pool := BuildPoolDistributions(2026, players)
	require.True(t, pool.HasRole(models.RoleStarter))
	assert.InDelta(t, 190, pool.MaxIP(models.RoleStarter), 1e-9)
}
