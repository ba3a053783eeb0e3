package anomaly

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"citypulse/internal/models"
)

// Severity classifies a metric reading against its thresholds.
type Severity string

const (
	SeverityOK       Severity = "ok"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event records one severity transition for a metric.
type Event struct {
	ID        string    `json:"id"`
	MetricID  string    `json:"metric_id"`
	Name      string    `json:"name"`
	Severity  Severity  `json:"severity"`
	Previous  Severity  `json:"previous"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricAnomalySummary aggregates event history for one metric.
type MetricAnomalySummary struct {
	MetricID     string    `json:"metric_id"`
	Name         string    `json:"name"`
	Total        int       `json:"total"`
	Warnings     int       `json:"warnings"`
	Criticals    int       `json:"criticals"`
	Recoveries   int       `json:"recoveries"`
	LastSeverity Severity  `json:"last_severity"`
	LastSeen     time.Time `json:"last_seen"`
}

// Classify maps a reading to a severity. For higher-is-better metrics a value
// below critical is critical and below warning is warning; otherwise the
// comparison is inverted. Absent thresholds (both zero) never alarm.
func Classify(value float64, threshold *models.Threshold, higherIsBetter bool) Severity {
	if threshold == nil || (threshold.Warning == 0 && threshold.Critical == 0) {
		return SeverityOK
	}
	if higherIsBetter {
		switch {
		case value < threshold.Critical:
			return SeverityCritical
		case value < threshold.Warning:
			return SeverityWarning
		default:
			return SeverityOK
		}
	}
	switch {
	case value > threshold.Critical:
		return SeverityCritical
	case value > threshold.Warning:
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// Detector tracks the last severity per metric and emits events only when the
// severity changes, recoveries included.
type Detector struct {
	mu   sync.Mutex
	last map[string]Severity
}

// NewDetector creates a detector with no prior state; the first non-ok
// reading of each metric produces an event.
func NewDetector() *Detector {
	return &Detector{last: make(map[string]Severity)}
}

// Evaluate classifies a reading and returns an event when the metric moved to
// a different severity. The returned severity is always the current one.
func (d *Detector) Evaluate(metric models.MetricSample, value float64, now time.Time) (*Event, Severity) {
	severity := Classify(value, metric.Threshold, metric.HigherIsBetter)

	d.mu.Lock()
	previous, seen := d.last[metric.ID]
	d.last[metric.ID] = severity
	d.mu.Unlock()

	if !seen {
		previous = SeverityOK
	}
	if severity == previous {
		return nil, severity
	}

	event := &Event{
		ID:        uuid.NewString(),
		MetricID:  metric.ID,
		Name:      metric.Name,
		Severity:  severity,
		Previous:  previous,
		Value:     value,
		Message:   transitionMessage(metric, value, previous, severity),
		Timestamp: now.UTC(),
	}
	if metric.Threshold != nil {
		switch severity {
		case SeverityWarning:
			event.Threshold = metric.Threshold.Warning
		case SeverityCritical:
			event.Threshold = metric.Threshold.Critical
		}
	}
	return event, severity
}

func transitionMessage(metric models.MetricSample, value float64, from, to Severity) string {
	name := metric.Name
	if name == "" {
		name = metric.ID
	}
	if to == SeverityOK {
		return fmt.Sprintf("%s recovered (%.2f%s)", name, value, unitSuffix(metric))
	}
	return fmt.Sprintf("%s moved from %s to %s (%.2f%s)", name, from, to, value, unitSuffix(metric))
}

func unitSuffix(metric models.MetricSample) string {
	if metric.Unit == "" {
		return ""
	}
	return " " + metric.Unit
}

// Summarize aggregates per-metric event counts from history, sorted by metric id.
func Summarize(events []Event) []MetricAnomalySummary {
	type acc struct {
		name       string
		warnings   int
		criticals  int
		recoveries int
		total      int
		last       Severity
		lastSeen   time.Time
	}
	state := make(map[string]*acc)
	for _, event := range events {
		entry := state[event.MetricID]
		if entry == nil {
			entry = &acc{name: event.Name}
			state[event.MetricID] = entry
		}
		entry.total++
		switch event.Severity {
		case SeverityWarning:
			entry.warnings++
		case SeverityCritical:
			entry.criticals++
		case SeverityOK:
			entry.recoveries++
		}
		if event.Timestamp.After(entry.lastSeen) {
			entry.lastSeen = event.Timestamp
			entry.last = event.Severity
		}
	}
	if len(state) == 0 {
		return nil
	}

	ids := make([]string, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]MetricAnomalySummary, 0, len(ids))
	for _, id := range ids {
		data := state[id]
		results = append(results, MetricAnomalySummary{
			MetricID:     id,
			Name:         data.name,
			Total:        data.total,
			Warnings:     data.warnings,
			Criticals:    data.criticals,
			Recoveries:   data.recoveries,
			LastSeverity: data.last,
			LastSeen:     data.lastSeen,
		})
	}
	return results
}
