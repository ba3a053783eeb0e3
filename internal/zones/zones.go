package zones

import (
	"math"
	"time"

	"citypulse/internal/models"
)

const pulseFraction = 0.15

const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// States computes the current load for every configured zone, in configured
// order. The pulse reuses the seeded-sine idiom of the series synthesizer so
// a zone renders the same way for the whole wall-clock hour.
func States(zones []models.Zone, now time.Time) []models.ZoneState {
	hour := float64(now.UTC().Hour())

	states := make([]models.ZoneState, 0, len(zones))
	for _, zone := range zones {
		seed := float64(firstByte(zone.ID))*1000 + hour
		load := zone.BaseLoad * (1 + math.Sin(seed)*pulseFraction)
		if load < 0 {
			load = 0
		}
		states = append(states, models.ZoneState{
			Zone:  zone,
			Load:  load,
			Level: level(load, zone.BaseLoad),
		})
	}
	return states
}

// level buckets the load relative to the zone baseline. The pulse spans
// +-15% of baseline, so 0.95 and 1.05 split it into three visible bands.
func level(load, baseline float64) string {
	if baseline <= 0 {
		return LevelLow
	}
	ratio := load / baseline
	switch {
	case ratio < 0.95:
		return LevelLow
	case ratio < 1.05:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func firstByte(id string) byte {
	if id == "" {
		return 0
	}
	return id[0]
}
