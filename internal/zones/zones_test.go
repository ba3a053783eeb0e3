package zones

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citypulse/internal/models"
)

func testZones() []models.Zone {
	return []models.Zone{
		{ID: "downtown", Name: "Downtown", Kind: "commercial", Buildings: 120, BaseLoad: 80},
		{ID: "harbor", Name: "Harbor", Kind: "industrial", Buildings: 40, BaseLoad: 55},
	}
}

func TestStatesDeterministicWithinHour(t *testing.T) {
	at := time.Date(2026, time.March, 14, 9, 5, 0, 0, time.UTC)
	later := time.Date(2026, time.March, 14, 9, 55, 0, 0, time.UTC)

	first := States(testZones(), at)
	second := States(testZones(), later)
	require.Equal(t, first, second, "same hour must render identically")
}

func TestStatesOrderAndBounds(t *testing.T) {
	states := States(testZones(), time.Now())
	require.Len(t, states, 2)

	assert.Equal(t, "downtown", states[0].Zone.ID)
	assert.Equal(t, "harbor", states[1].Zone.ID)

	for _, state := range states {
		base := state.Zone.BaseLoad
		assert.GreaterOrEqual(t, state.Load, base*(1-pulseFraction)-1e-9)
		assert.LessOrEqual(t, state.Load, base*(1+pulseFraction)+1e-9)
		assert.Contains(t, []string{LevelLow, LevelMedium, LevelHigh}, state.Level)
	}
}

func TestStatesZeroBaseline(t *testing.T) {
	states := States([]models.Zone{{ID: "empty", BaseLoad: 0}}, time.Now())
	require.Len(t, states, 1)
	assert.Zero(t, states[0].Load)
	assert.Equal(t, LevelLow, states[0].Level)
}

func TestStatesEmptyConfig(t *testing.T) {
	assert.Empty(t, States(nil, time.Now()))
}
