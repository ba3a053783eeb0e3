package server

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"citypulse/internal/anomaly"
	"citypulse/internal/charts"
	"citypulse/internal/report"
	"citypulse/internal/simulator"
	"citypulse/internal/storage"
	"citypulse/internal/telemetry"
	"citypulse/internal/topology"
)

//go:embed static/*
var embeddedStatic embed.FS

// Server wraps HTTP serving of API + static assets.
type Server struct {
	httpServer   *http.Server
	sim          *simulator.Simulator
	store        *storage.AnomalyStorage
	network      *topology.Network
	renderer     *charts.Renderer
	metrics      *telemetry.Metrics
	staticFS     fs.FS
	city         string
	historyLimit int
	log          *zap.Logger
}

// New creates a configured HTTP server for the dashboard.
func New(
	addr string,
	city string,
	sim *simulator.Simulator,
	store *storage.AnomalyStorage,
	network *topology.Network,
	metrics *telemetry.Metrics,
	log *zap.Logger,
) *Server {
	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic("static assets missing: " + err.Error())
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer:   &http.Server{Addr: addr, Handler: mux},
		sim:          sim,
		store:        store,
		network:      network,
		renderer:     charts.NewRenderer(),
		metrics:      metrics,
		staticFS:     staticFS,
		city:         city,
		historyLimit: 200,
		log:          log.Named("server"),
	}
	s.registerRoutes(mux)
	return s
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the root handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	fileServer := http.FileServer(http.FS(s.staticFS))

	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		data, err := fs.ReadFile(s.staticFS, "index.html")
		if err != nil {
			http.Error(w, "index missing", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}))
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))

	s.api(mux, "GET /api/status", s.handleStatus)
	s.api(mux, "GET /api/metrics", s.handleMetrics)
	s.api(mux, "GET /api/metrics/{id}/series", s.handleSeries)
	s.api(mux, "GET /api/metrics/{id}/chart.png", s.handleChart)
	s.api(mux, "GET /api/topology", s.handleTopology)
	s.api(mux, "GET /api/topology/stats", s.handleTopologyStats)
	s.api(mux, "GET /api/zones", s.handleZones)
	s.api(mux, "GET /api/anomalies", s.handleAnomalies)
	s.api(mux, "GET /api/anomalies/summary", s.handleAnomalySummary)
	s.api(mux, "GET /api/report.pdf", s.handleReport)

	// The websocket route stays uninstrumented: the status recorder would
	// hide the hijacker the upgrade needs.
	mux.HandleFunc("GET /ws/live", s.handleLiveWS)
	mux.Handle("GET /metrics", s.metrics.Handler())
}

func (s *Server) api(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.Handle(pattern, s.metrics.Instrument(pattern, handler))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := s.sim.Snapshot()
	if !ok {
		writeJSON(w, http.StatusOK, simulator.DashboardSnapshot{City: s.city})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	snapshot, _ := s.sim.Snapshot()
	writeJSON(w, http.StatusOK, snapshot.Readings)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	metric, ok := s.sim.Metric(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown metric")
		return
	}
	points := s.sim.Series(metric, parseHours(r), time.Now().UTC())
	writeJSON(w, http.StatusOK, points)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	metric, ok := s.sim.Metric(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown metric")
		return
	}
	points := s.sim.Series(metric, parseHours(r), time.Now().UTC())
	png, err := s.renderer.RenderSeries(metric, points)
	if err != nil {
		s.log.Error("render chart", zap.String("metric", metric.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "chart rendering failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleTopology(w http.ResponseWriter, _ *http.Request) {
	data, err := s.network.Snapshot()
	if err != nil {
		s.log.Error("topology snapshot", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "topology unavailable")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleTopologyStats(w http.ResponseWriter, _ *http.Request) {
	stats, err := s.network.Stats()
	if err != nil {
		s.log.Error("topology stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "topology unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleZones(w http.ResponseWriter, _ *http.Request) {
	snapshot, _ := s.sim.Snapshot()
	writeJSON(w, http.StatusOK, snapshot.Zones)
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, s.historyLimit)
	writeJSON(w, http.StatusOK, s.store.HistoryN(limit))
}

func (s *Server) handleAnomalySummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, anomaly.Summarize(s.store.History()))
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := s.sim.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}

	now := time.Now().UTC()
	chartImages := make(map[string][]byte, len(snapshot.Readings))
	for _, reading := range snapshot.Readings {
		points := s.sim.Series(reading.Metric, -1, now)
		png, err := s.renderer.RenderSeries(reading.Metric, points)
		if err != nil {
			s.log.Warn("report chart skipped", zap.String("metric", reading.Metric.ID), zap.Error(err))
			continue
		}
		chartImages[reading.Metric.ID] = png
	}

	pdf, err := report.Build(s.city, now, snapshot.Readings, anomaly.Summarize(s.store.History()), chartImages)
	if err != nil {
		s.log.Error("build report", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(pdf)
}

func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}

// parseHours returns -1 when the query leaves hours unset or invalid, which
// callers translate into the configured window.
func parseHours(r *http.Request) int {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return -1
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return -1
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
