package charts

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"citypulse/internal/models"
)

var (
	seriesColor   = color.RGBA{R: 33, G: 118, B: 210, A: 255}
	warningColor  = color.RGBA{R: 237, G: 162, B: 0, A: 255}
	criticalColor = color.RGBA{R: 211, G: 47, B: 47, A: 255}
)

// Renderer draws synthesized series as PNG line charts with threshold overlay.
type Renderer struct {
	width  vg.Length
	height vg.Length
}

// NewRenderer creates a renderer with the default chart dimensions.
func NewRenderer() *Renderer {
	return &Renderer{
		width:  16 * vg.Centimeter,
		height: 9 * vg.Centimeter,
	}
}

// RenderSeries renders the series of one metric. Threshold rule lines are
// drawn only when the metric defines non-zero levels. An empty series yields
// a valid empty chart.
func (r *Renderer) RenderSeries(metric models.MetricSample, points []models.SeriesPoint) ([]byte, error) {
	p := plot.New()
	p.Title.Text = chartTitle(metric)
	p.Y.Label.Text = metric.Unit
	p.Y.Min = 0
	p.X.Tick.Marker = plot.ConstantTicks(timeTicks(points))

	if len(points) > 0 {
		xys := make(plotter.XYs, len(points))
		for i, point := range points {
			xys[i].X = float64(i)
			xys[i].Y = point.Value
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("series line: %w", err)
		}
		line.Color = seriesColor
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(metric.Name, line)

		if warning := points[0].Warning; warning > 0 {
			rule, err := ruleLine(warning, len(points), warningColor)
			if err != nil {
				return nil, err
			}
			p.Add(rule)
			p.Legend.Add("warning", rule)
		}
		if critical := points[0].Critical; critical > 0 {
			rule, err := ruleLine(critical, len(points), criticalColor)
			if err != nil {
				return nil, err
			}
			p.Add(rule)
			p.Legend.Add("critical", rule)
		}
	}
	p.Legend.Top = true

	writer, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write chart: %w", err)
	}
	return buf.Bytes(), nil
}

func chartTitle(metric models.MetricSample) string {
	if metric.Name != "" {
		return metric.Name
	}
	return metric.ID
}

// ruleLine draws a horizontal threshold across the full x range.
func ruleLine(level float64, count int, c color.RGBA) (*plotter.Line, error) {
	line, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: level},
		{X: float64(count - 1), Y: level},
	})
	if err != nil {
		return nil, fmt.Errorf("threshold line: %w", err)
	}
	line.Color = c
	line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	return line, nil
}

// timeTicks labels a subset of points so the axis stays readable at 24h+.
func timeTicks(points []models.SeriesPoint) []plot.Tick {
	if len(points) == 0 {
		return nil
	}
	step := (len(points)-1)/6 + 1
	ticks := make([]plot.Tick, 0, len(points)/step+1)
	for i := 0; i < len(points); i += step {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: points[i].TimeLabel})
	}
	return ticks
}
