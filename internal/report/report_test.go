package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citypulse/internal/anomaly"
	"citypulse/internal/charts"
	"citypulse/internal/models"
	"citypulse/internal/series"
)

func TestBuildProducesPDF(t *testing.T) {
	metric := models.MetricSample{
		ID: "energy-efficiency", Name: "Energy Efficiency", Unit: "%",
		Value: 87, Trend: models.TrendUp,
		Threshold: &models.Threshold{Warning: 65, Critical: 50},
	}
	now := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	points := series.Synthesize(metric, 12, now)

	png, err := charts.NewRenderer().RenderSeries(metric, points)
	require.NoError(t, err)

	readings := []models.MetricReading{
		{Metric: metric, Value: points[len(points)-1].Value, Severity: "ok"},
	}
	summaries := []anomaly.MetricAnomalySummary{
		{MetricID: metric.ID, Name: metric.Name, Warnings: 2, LastSeverity: anomaly.SeverityOK},
	}

	pdf, err := Build("Meridian City", now, readings, summaries, map[string][]byte{metric.ID: png})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")), "output must be a PDF")
	assert.Greater(t, len(pdf), 2048)
}

func TestBuildWithoutChartsOrAnomalies(t *testing.T) {
	readings := []models.MetricReading{
		{Metric: models.MetricSample{ID: "traffic-flow", Name: "Traffic Flow"}, Value: 300, Severity: "ok"},
	}
	pdf, err := Build("Meridian City", time.Now(), readings, nil, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
