package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"citypulse/internal/config"
	"citypulse/internal/server"
	"citypulse/internal/simulator"
	"citypulse/internal/storage"
	"citypulse/internal/telemetry"
	"citypulse/internal/topology"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", ":8080", "address for the web server")
	)
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	log.Info("configuration loaded",
		zap.String("city", cfg.CityName),
		zap.Int("metrics", len(cfg.Metrics)),
		zap.Int("zones", len(cfg.Zones)),
	)

	historyPath := filepath.Join(cfg.DataDirectory, "anomaly_history.json")
	store, err := storage.NewAnomalyStorage(historyPath)
	if err != nil {
		log.Fatal("initialise storage", zap.Error(err))
	}

	network, err := topology.Build(cfg.Topology.Nodes, cfg.Topology.Links)
	if err != nil {
		log.Fatal("build topology", zap.Error(err))
	}

	metrics := telemetry.New()

	sim := simulator.New(cfg, store, network, metrics, log)
	sim.Start()
	defer sim.Stop()

	srv := server.New(*addr, cfg.CityName, sim, store, network, metrics, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("server shutdown", zap.Error(err))
		}
	}()

	log.Info("citypulse listening",
		zap.String("addr", *addr),
		zap.Int("refresh_seconds", cfg.RefreshSeconds),
	)
	if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server error", zap.Error(err))
	}
}
