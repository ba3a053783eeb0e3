package models

// Trend describes the drift direction of a synthesized metric series.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// Threshold holds the constant reference levels rendered alongside a series.
type Threshold struct {
	Warning  float64 `yaml:"warning" json:"warning"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// MetricSample describes one dashboard KPI: its identity, current reading,
// drift direction and optional thresholds.
type MetricSample struct {
	ID             string     `yaml:"id" json:"id"`
	Name           string     `yaml:"name" json:"name"`
	Unit           string     `yaml:"unit" json:"unit,omitempty"`
	Value          float64    `yaml:"value" json:"value"`
	Trend          Trend      `yaml:"trend" json:"trend"`
	Threshold      *Threshold `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	HigherIsBetter bool       `yaml:"higher_is_better" json:"higher_is_better"`
}

// SeriesPoint is one timestamped sample of a synthesized series. Warning and
// Critical repeat the metric thresholds on every point so chart overlays can
// draw them from the same payload.
type SeriesPoint struct {
	TimeLabel string  `json:"timeLabel"`
	Value     float64 `json:"value"`
	Warning   float64 `json:"warning"`
	Critical  float64 `json:"critical"`
}

// MetricReading pairs a catalog metric with its latest synthesized value and
// the severity it classifies into.
type MetricReading struct {
	Metric   MetricSample `json:"metric"`
	Value    float64      `json:"value"`
	Severity string       `json:"severity"`
}
