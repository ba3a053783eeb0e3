package series

import (
	"math"
	"time"

	"citypulse/internal/models"
)

const (
	// noiseFraction scales the sine perturbation to +-10% of the base value.
	noiseFraction = 0.1
	// driftFraction is the per-step linear drift applied for trending metrics.
	driftFraction = 0.002
)

// referenceDay anchors the x-axis so identical inputs produce identical
// timestamps within one UTC calendar day. Only the wall clock's time of day
// moves the base instant; the absolute date never feeds the values.
var referenceDay = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Synthesize produces hours+1 points of a plausible noisy series for one
// metric, oldest first. The wiggle pattern is seeded from the metric id so
// the same metric always renders the same line; there is no hidden state and
// no I/O. The caller supplies now, which keeps the function deterministic in
// tests.
func Synthesize(metric models.MetricSample, hours int, now time.Time) []models.SeriesPoint {
	if hours < 0 {
		hours = 0
	}

	warning, critical := 0.0, 0.0
	if metric.Threshold != nil {
		warning = metric.Threshold.Warning
		critical = metric.Threshold.Critical
	}

	base := baseTimestamp(now)
	seedBase := float64(firstByte(metric.ID)) * 1000

	points := make([]models.SeriesPoint, 0, hours+1)
	for i := hours; i >= 0; i-- {
		ts := base.Add(-time.Duration(i) * time.Hour)

		noise := math.Sin(seedBase+float64(i)) * metric.Value * noiseFraction

		drift := 0.0
		switch metric.Trend {
		case models.TrendUp:
			drift = float64(hours-i) * driftFraction * metric.Value
		case models.TrendDown:
			drift = -float64(hours-i) * driftFraction * metric.Value
		}

		value := metric.Value + noise + drift
		if value < 0 {
			value = 0
		}

		points = append(points, models.SeriesPoint{
			TimeLabel: ts.Format("15:04"),
			Value:     value,
			Warning:   warning,
			Critical:  critical,
		})
	}
	return points
}

// baseTimestamp combines the fixed reference day with now's time of day, so
// labels read like "now minus N hours" while the date cannot drift the seed.
func baseTimestamp(now time.Time) time.Time {
	now = now.UTC()
	sinceMidnight := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second
	return referenceDay.Add(sinceMidnight)
}

func firstByte(id string) byte {
	if id == "" {
		return 0
	}
	return id[0]
}
