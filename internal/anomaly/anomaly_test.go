package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citypulse/internal/models"
)

var evalTime = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	threshold := &models.Threshold{Warning: 65, Critical: 75}

	cases := []struct {
		name           string
		value          float64
		threshold      *models.Threshold
		higherIsBetter bool
		want           Severity
	}{
		{"no threshold", 500, nil, false, SeverityOK},
		{"zero threshold never alarms", 500, &models.Threshold{}, false, SeverityOK},
		{"below warning", 60, threshold, false, SeverityOK},
		{"above warning", 70, threshold, false, SeverityWarning},
		{"above critical", 80, threshold, false, SeverityCritical},
		{"higher is better, healthy", 90, threshold, true, SeverityOK},
		{"higher is better, slipping", 70, threshold, true, SeverityWarning},
		{"higher is better, failing", 60, threshold, true, SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.value, tc.threshold, tc.higherIsBetter))
		})
	}
}

func TestDetectorEmitsOnlyOnTransition(t *testing.T) {
	metric := models.MetricSample{
		ID:        "air-quality",
		Name:      "Air Quality Index",
		Unit:      "AQI",
		Threshold: &models.Threshold{Warning: 100, Critical: 150},
	}
	d := NewDetector()

	event, severity := d.Evaluate(metric, 50, evalTime)
	assert.Nil(t, event, "first ok reading is steady state")
	assert.Equal(t, SeverityOK, severity)

	event, severity = d.Evaluate(metric, 120, evalTime)
	require.NotNil(t, event)
	assert.Equal(t, SeverityWarning, severity)
	assert.Equal(t, SeverityOK, event.Previous)
	assert.Equal(t, 100.0, event.Threshold)
	assert.NotEmpty(t, event.ID)

	event, _ = d.Evaluate(metric, 130, evalTime)
	assert.Nil(t, event, "same severity must not re-alert")

	event, _ = d.Evaluate(metric, 160, evalTime)
	require.NotNil(t, event)
	assert.Equal(t, SeverityCritical, event.Severity)
	assert.Equal(t, SeverityWarning, event.Previous)
	assert.Equal(t, 150.0, event.Threshold)

	event, _ = d.Evaluate(metric, 40, evalTime)
	require.NotNil(t, event, "recovery is a transition too")
	assert.Equal(t, SeverityOK, event.Severity)
	assert.Contains(t, event.Message, "recovered")
	assert.Zero(t, event.Threshold)
}

func TestDetectorTracksMetricsIndependently(t *testing.T) {
	d := NewDetector()
	a := models.MetricSample{ID: "a", Threshold: &models.Threshold{Warning: 10, Critical: 20}}
	b := models.MetricSample{ID: "b", Threshold: &models.Threshold{Warning: 10, Critical: 20}}

	event, _ := d.Evaluate(a, 15, evalTime)
	require.NotNil(t, event)
	event, _ = d.Evaluate(b, 15, evalTime)
	require.NotNil(t, event, "second metric has its own state")
}

func TestSummarize(t *testing.T) {
	events := []Event{
		{MetricID: "traffic", Name: "Traffic", Severity: SeverityWarning, Timestamp: evalTime},
		{MetricID: "traffic", Name: "Traffic", Severity: SeverityCritical, Timestamp: evalTime.Add(time.Minute)},
		{MetricID: "traffic", Name: "Traffic", Severity: SeverityOK, Timestamp: evalTime.Add(2 * time.Minute)},
		{MetricID: "energy", Name: "Energy", Severity: SeverityWarning, Timestamp: evalTime},
	}

	summaries := Summarize(events)
	require.Len(t, summaries, 2)

	assert.Equal(t, "energy", summaries[0].MetricID)
	assert.Equal(t, 1, summaries[0].Warnings)

	traffic := summaries[1]
	assert.Equal(t, 3, traffic.Total)
	assert.Equal(t, 1, traffic.Warnings)
	assert.Equal(t, 1, traffic.Criticals)
	assert.Equal(t, 1, traffic.Recoveries)
	assert.Equal(t, SeverityOK, traffic.LastSeverity)
	assert.Equal(t, evalTime.Add(2*time.Minute), traffic.LastSeen)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Nil(t, Summarize(nil))
}
