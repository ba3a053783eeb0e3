package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citypulse/internal/anomaly"
)

func newTestStorage(t *testing.T) (*AnomalyStorage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anomalies.json")
	s, err := NewAnomalyStorage(path)
	require.NoError(t, err)
	return s, path
}

func event(id string, severity anomaly.Severity, at time.Time) anomaly.Event {
	return anomaly.Event{
		ID:        id,
		MetricID:  "traffic-flow",
		Severity:  severity,
		Timestamp: at,
	}
}

func TestAppendAndLatest(t *testing.T) {
	s, _ := newTestStorage(t)

	_, ok := s.Latest()
	assert.False(t, ok, "empty storage has no latest event")

	now := time.Now().UTC()
	require.NoError(t, s.Append(
		event("1", anomaly.SeverityWarning, now),
		event("2", anomaly.SeverityCritical, now.Add(time.Minute)),
	))

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, "2", latest.ID)
}

func TestAppendNothingIsNoop(t *testing.T) {
	s, _ := newTestStorage(t)
	require.NoError(t, s.Append())
	assert.Empty(t, s.History())
}

func TestHistoryNNewestFirst(t *testing.T) {
	s, _ := newTestStorage(t)
	now := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Append(event(id, anomaly.SeverityWarning, now.Add(time.Duration(i)*time.Minute))))
	}

	got := s.HistoryN(2)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	assert.Len(t, s.HistoryN(0), 3, "non-positive limit returns everything")
	assert.Len(t, s.HistoryN(99), 3)
}

func TestReloadFromDisk(t *testing.T) {
	s, path := newTestStorage(t)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Append(event("persisted", anomaly.SeverityCritical, now)))

	reloaded, err := NewAnomalyStorage(path)
	require.NoError(t, err)

	history := reloaded.History()
	require.Len(t, history, 1)
	assert.Equal(t, "persisted", history[0].ID)
	assert.Equal(t, anomaly.SeverityCritical, history[0].Severity)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s, _ := newTestStorage(t)
	require.NoError(t, s.Append(event("x", anomaly.SeverityWarning, time.Now())))

	history := s.History()
	history[0].ID = "mutated"

	fresh := s.History()
	assert.Equal(t, "x", fresh[0].ID)
}
