package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"citypulse/internal/anomaly"
)

const maxEvents = 5000

// AnomalyStorage handles persistence of anomaly-event history to disk.
type AnomalyStorage struct {
	mu     sync.RWMutex
	path   string
	events []anomaly.Event
}

// NewAnomalyStorage creates a storage instance and loads existing history if present.
func NewAnomalyStorage(path string) (*AnomalyStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	s := &AnomalyStorage{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Append adds new events and persists them to disk. Oldest events are dropped
// once the retention cap is reached.
func (s *AnomalyStorage) Append(events ...anomaly.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, events...)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	return s.persist()
}

// Latest returns the most recent event if it exists.
func (s *AnomalyStorage) Latest() (anomaly.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) == 0 {
		return anomaly.Event{}, false
	}
	return s.events[len(s.events)-1], true
}

// History returns a copy of the entire event history, oldest first.
func (s *AnomalyStorage) History() []anomaly.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]anomaly.Event, len(s.events))
	copy(copied, s.events)
	return copied
}

// HistoryN returns up to limit events, newest first.
func (s *AnomalyStorage) HistoryN(limit int) []anomaly.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]anomaly.Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		out = append(out, s.events[i])
	}
	return out
}

func (s *AnomalyStorage) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.events = []anomaly.Event{}
			return nil
		}
		return fmt.Errorf("read history: %w", err)
	}

	if len(data) == 0 {
		s.events = []anomaly.Event{}
		return nil
	}

	var events []anomaly.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("parse history: %w", err)
	}

	s.events = events
	return nil
}

func (s *AnomalyStorage) persist() error {
	bytes, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", s.path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}
