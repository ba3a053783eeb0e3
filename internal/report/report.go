package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"citypulse/internal/anomaly"
	"citypulse/internal/models"
)

// Build renders the daily operations report: a KPI table, the anomaly summary
// and one chart image per metric. Chart images are keyed by metric id; a
// missing image simply skips that page section.
func Build(
	city string,
	generatedAt time.Time,
	readings []models.MetricReading,
	summaries []anomaly.MetricAnomalySummary,
	chartImages map[string][]byte,
) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s operations report", city), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s - Operations Report", city), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated "+generatedAt.UTC().Format(time.RFC1123), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	writeKPITable(pdf, readings)
	pdf.Ln(6)
	writeAnomalyTable(pdf, summaries)

	for _, reading := range readings {
		image, ok := chartImages[reading.Metric.ID]
		if !ok || len(image) == 0 {
			continue
		}
		name := "chart-" + reading.Metric.ID
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(image))
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, reading.Metric.Name, "", 1, "L", false, 0, "")
		pdf.ImageOptions(name, 15, pdf.GetY()+4, 180, 0, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeKPITable(pdf *gofpdf.Fpdf, readings []models.MetricReading) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Key Performance Indicators", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(70, 7, "Metric", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 7, "Value", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Unit", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Severity", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, reading := range readings {
		pdf.CellFormat(70, 7, reading.Metric.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", reading.Value), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, reading.Metric.Unit, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, reading.Severity, "1", 1, "L", false, 0, "")
	}
}

func writeAnomalyTable(pdf *gofpdf.Fpdf, summaries []anomaly.MetricAnomalySummary) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Anomaly Summary", "", 1, "L", false, 0, "")

	if len(summaries) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 7, "No anomaly events on record.", "", 1, "L", false, 0, "")
		return
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, 7, "Metric", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 7, "Warnings", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 7, "Criticals", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 7, "Recoveries", "1", 0, "R", false, 0, "")
	pdf.CellFormat(28, 7, "Last State", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, summary := range summaries {
		name := summary.Name
		if name == "" {
			name = summary.MetricID
		}
		pdf.CellFormat(60, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", summary.Warnings), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%d", summary.Criticals), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 7, fmt.Sprintf("%d", summary.Recoveries), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 7, string(summary.LastSeverity), "1", 1, "L", false, 0, "")
	}
}
