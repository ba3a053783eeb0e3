package simulator

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"citypulse/internal/anomaly"
	"citypulse/internal/config"
	"citypulse/internal/models"
	"citypulse/internal/series"
	"citypulse/internal/storage"
	"citypulse/internal/telemetry"
	"citypulse/internal/topology"
	"citypulse/internal/zones"
)

const recentAnomalies = 20

// DashboardSnapshot is the full state pushed to dashboard clients.
type DashboardSnapshot struct {
	GeneratedAt time.Time              `json:"generated_at"`
	City        string                 `json:"city"`
	Readings    []models.MetricReading `json:"readings"`
	Zones       []models.ZoneState     `json:"zones"`
	Topology    topology.Stats         `json:"topology"`
	Anomalies   []anomaly.Event        `json:"anomalies"`
}

// Simulator periodically recomputes the dashboard snapshot, records anomaly
// transitions and fans the result out to live subscribers.
type Simulator struct {
	cfg      config.Config
	interval time.Duration
	detector *anomaly.Detector
	store    *storage.AnomalyStorage
	network  *topology.Network
	metrics  *telemetry.Metrics
	log      *zap.Logger

	mu          sync.RWMutex
	latest      DashboardSnapshot
	hasSnapshot bool
	subscribers map[chan DashboardSnapshot]struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a simulator over the configured city.
func New(
	cfg config.Config,
	store *storage.AnomalyStorage,
	network *topology.Network,
	metrics *telemetry.Metrics,
	log *zap.Logger,
) *Simulator {
	interval := time.Duration(cfg.RefreshSeconds) * time.Second
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}

	return &Simulator{
		cfg:         cfg,
		interval:    interval,
		detector:    anomaly.NewDetector(),
		store:       store,
		network:     network,
		metrics:     metrics,
		log:         log.Named("simulator"),
		subscribers: make(map[chan DashboardSnapshot]struct{}),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start launches the refresh loop in a goroutine.
func (s *Simulator) Start() {
	go s.run()
}

// Stop requests graceful loop termination and waits until it is done.
func (s *Simulator) Stop() {
	select {
	case <-s.doneCh:
		return
	default:
	}
	close(s.stopCh)
	<-s.doneCh
}

func (s *Simulator) run() {
	defer close(s.doneCh)

	if _, err := s.RunOnce(time.Now().UTC()); err != nil {
		s.log.Warn("initial refresh failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(time.Now().UTC()); err != nil {
				s.log.Warn("refresh failed", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce computes one snapshot synchronously, persists any anomaly
// transitions and publishes the result.
func (s *Simulator) RunOnce(now time.Time) (DashboardSnapshot, error) {
	synthStart := time.Now()

	readings := make([]models.MetricReading, 0, len(s.cfg.Metrics))
	var events []anomaly.Event
	for _, metric := range s.cfg.Metrics {
		points := series.Synthesize(metric, s.cfg.WindowHours, now)
		current := points[len(points)-1].Value

		event, severity := s.detector.Evaluate(metric, current, now)
		if event != nil {
			events = append(events, *event)
			s.metrics.AnomalyEvents.WithLabelValues(string(event.Severity)).Inc()
			s.log.Info("anomaly transition",
				zap.String("metric", metric.ID),
				zap.String("severity", string(event.Severity)),
				zap.Float64("value", current),
			)
		}

		readings = append(readings, models.MetricReading{
			Metric:   metric,
			Value:    current,
			Severity: string(severity),
		})
	}
	s.metrics.SynthesizeTiming.Observe(time.Since(synthStart).Seconds())

	if len(events) > 0 {
		if err := s.store.Append(events...); err != nil {
			return DashboardSnapshot{}, err
		}
	}

	stats, err := s.network.Stats()
	if err != nil {
		return DashboardSnapshot{}, err
	}

	snapshot := DashboardSnapshot{
		GeneratedAt: now.UTC(),
		City:        s.cfg.CityName,
		Readings:    readings,
		Zones:       zones.States(s.cfg.Zones, now),
		Topology:    stats,
		Anomalies:   s.store.HistoryN(recentAnomalies),
	}

	s.mu.Lock()
	s.latest = snapshot
	s.hasSnapshot = true
	subscribers := make([]chan DashboardSnapshot, 0, len(s.subscribers))
	for ch := range s.subscribers {
		subscribers = append(subscribers, ch)
	}
	s.mu.Unlock()

	for _, ch := range subscribers {
		// Slow subscribers skip a beat rather than stall the loop.
		select {
		case ch <- snapshot:
		default:
		}
	}

	s.metrics.SnapshotsTotal.Inc()
	return snapshot, nil
}

// Snapshot returns the latest computed snapshot.
func (s *Simulator) Snapshot() (DashboardSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasSnapshot
}

// Subscribe registers a live listener. The returned cancel func must be
// called to release the channel.
func (s *Simulator) Subscribe() (<-chan DashboardSnapshot, func()) {
	ch := make(chan DashboardSnapshot, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	s.metrics.LiveSubscribers.Inc()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			s.metrics.LiveSubscribers.Dec()
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Metric resolves a catalog metric by id.
func (s *Simulator) Metric(id string) (models.MetricSample, bool) {
	for _, metric := range s.cfg.Metrics {
		if metric.ID == id {
			return metric, true
		}
	}
	return models.MetricSample{}, false
}

// Series synthesizes a window for one catalog metric. Negative or oversized
// hours fall back to the configured window; zero is honored and yields a
// single point.
func (s *Simulator) Series(metric models.MetricSample, hours int, now time.Time) []models.SeriesPoint {
	if hours < 0 || hours > 168 {
		hours = s.cfg.WindowHours
	}
	return series.Synthesize(metric, hours, now)
}
