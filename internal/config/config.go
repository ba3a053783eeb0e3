package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"citypulse/internal/models"
)

// Config represents configuration data for the dashboard backend.
type Config struct {
	CityName       string                `yaml:"city_name"`
	RefreshSeconds int                   `yaml:"refresh_seconds"`
	WindowHours    int                   `yaml:"window_hours"`
	DataDirectory  string                `yaml:"data_directory"`
	Metrics        []models.MetricSample `yaml:"metrics"`
	Zones          []models.Zone         `yaml:"zones"`
	Topology       Topology              `yaml:"topology"`
}

// Topology declares the infrastructure diagram nodes and links.
type Topology struct {
	Nodes []models.NodeSpec `yaml:"nodes"`
	Links []models.LinkSpec `yaml:"links"`
}

// DefaultConfig returns a complete demo city in case no configuration file is
// provided, mirroring the KPI catalog the dashboard ships with.
func DefaultConfig() Config {
	return Config{
		CityName:       "Meridian City",
		RefreshSeconds: 15,
		WindowHours:    24,
		DataDirectory:  filepath.Join(".dist", "data"),
		Metrics: []models.MetricSample{
			{
				ID: "energy-efficiency", Name: "Energy Efficiency", Unit: "%",
				Value: 87, Trend: models.TrendUp, HigherIsBetter: true,
				Threshold: &models.Threshold{Warning: 65, Critical: 50},
			},
			{
				ID: "traffic-flow", Name: "Traffic Flow", Unit: "veh/min",
				Value: 342, Trend: models.TrendFlat,
				Threshold: &models.Threshold{Warning: 420, Critical: 480},
			},
			{
				ID: "air-quality", Name: "Air Quality Index", Unit: "AQI",
				Value: 52, Trend: models.TrendDown,
				Threshold: &models.Threshold{Warning: 100, Critical: 150},
			},
			{
				ID: "water-pressure", Name: "Water Pressure", Unit: "kPa",
				Value: 412, Trend: models.TrendFlat,
				Threshold: &models.Threshold{Warning: 480, Critical: 520},
			},
			{
				ID: "network-latency", Name: "Network Latency", Unit: "ms",
				Value: 18, Trend: models.TrendDown,
				Threshold: &models.Threshold{Warning: 40, Critical: 80},
			},
			{
				ID: "waste-collection", Name: "Waste Collection", Unit: "%",
				Value: 91, Trend: models.TrendUp, HigherIsBetter: true,
				Threshold: &models.Threshold{Warning: 70, Critical: 55},
			},
		},
		Zones: []models.Zone{
			{ID: "downtown", Name: "Downtown", Kind: "commercial", X: 0.32, Y: 0.41, Buildings: 140, BaseLoad: 82},
			{ID: "harbor", Name: "Harbor District", Kind: "industrial", X: 0.71, Y: 0.22, Buildings: 46, BaseLoad: 58},
			{ID: "greenfield", Name: "Greenfield", Kind: "residential", X: 0.18, Y: 0.74, Buildings: 210, BaseLoad: 37},
			{ID: "techpark", Name: "Tech Park", Kind: "commercial", X: 0.58, Y: 0.63, Buildings: 64, BaseLoad: 71},
		},
		Topology: Topology{
			Nodes: []models.NodeSpec{
				{ID: "plant-1", Name: "Riverside Plant", Kind: "plant"},
				{ID: "sub-north", Name: "North Substation", Kind: "substation"},
				{ID: "sub-south", Name: "South Substation", Kind: "substation"},
				{ID: "downtown", Name: "Downtown Grid", Kind: "district"},
				{ID: "harbor", Name: "Harbor Grid", Kind: "district"},
				{ID: "greenfield", Name: "Greenfield Grid", Kind: "district"},
				{ID: "sensor-aq1", Name: "Air Sensor AQ-1", Kind: "sensor"},
				{ID: "sensor-wp1", Name: "Pressure Sensor WP-1", Kind: "sensor"},
			},
			Links: []models.LinkSpec{
				{Source: "plant-1", Target: "sub-north", Kind: "power", Capacity: 120},
				{Source: "plant-1", Target: "sub-south", Kind: "power", Capacity: 100},
				{Source: "sub-north", Target: "downtown", Kind: "power", Capacity: 60},
				{Source: "sub-north", Target: "greenfield", Kind: "power", Capacity: 40},
				{Source: "sub-south", Target: "harbor", Kind: "power", Capacity: 55},
				{Source: "downtown", Target: "sensor-aq1", Kind: "telemetry", Capacity: 1},
				{Source: "harbor", Target: "sensor-wp1", Kind: "telemetry", Capacity: 1},
			},
		},
	}
}

// Load reads configuration from a yaml file. Missing files fall back to the
// default city.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RefreshSeconds < 5 {
		cfg.RefreshSeconds = 15
	}
	if cfg.WindowHours <= 0 {
		cfg.WindowHours = 24
	}
	if cfg.WindowHours > 168 {
		cfg.WindowHours = 168
	}
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = DefaultConfig().DataDirectory
	}
	if cfg.CityName == "" {
		cfg.CityName = DefaultConfig().CityName
	}
	if len(cfg.Metrics) == 0 {
		return Config{}, errors.New("configuration must define at least one metric")
	}
	for i, metric := range cfg.Metrics {
		if metric.ID == "" {
			return Config{}, fmt.Errorf("metric %d is missing id", i)
		}
		if metric.Value < 0 {
			return Config{}, fmt.Errorf("metric %s value must be non-negative", metric.ID)
		}
		if metric.Trend == "" {
			cfg.Metrics[i].Trend = models.TrendFlat
		}
	}
	for i, zone := range cfg.Zones {
		if zone.ID == "" {
			return Config{}, fmt.Errorf("zone %d is missing id", i)
		}
	}
	nodeIDs := make(map[string]struct{}, len(cfg.Topology.Nodes))
	for i, node := range cfg.Topology.Nodes {
		if node.ID == "" {
			return Config{}, fmt.Errorf("topology node %d is missing id", i)
		}
		nodeIDs[node.ID] = struct{}{}
	}
	for _, link := range cfg.Topology.Links {
		if _, ok := nodeIDs[link.Source]; !ok {
			return Config{}, fmt.Errorf("topology link source %q is not a declared node", link.Source)
		}
		if _, ok := nodeIDs[link.Target]; !ok {
			return Config{}, fmt.Errorf("topology link target %q is not a declared node", link.Target)
		}
	}
	return cfg, nil
}
