package services

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/equipviz/backend/internal/equipment"
	"github.com/equipviz/backend/internal/models"
	"github.com/go-pdf/fpdf"
)

const (
	ReportTitle = "Chemical Equipment Parameter Report"

	pageHeight   = 792.0 // letter, points
	bottomMargin = 50.0
	lineStep     = 20.0
)

// ReportService renders the newest summary as a PDF document.
type ReportService struct {
	summaries *SummaryService
}

func NewReportService(summaries *SummaryService) *ReportService {
	return &ReportService{summaries: summaries}
}

// Latest renders the newest stored summary. Returns *NotFoundError when the store is empty.
func (rs *ReportService) Latest(ctx context.Context) (*models.UploadSummary, []byte, error) {
	summary, err := rs.summaries.Latest(ctx)
	if err != nil {
		return nil, nil, err
	}
	doc, err := RenderPDF(summary)
	if err != nil {
		return nil, nil, err
	}
	return summary, doc, nil
}

// FileName is the attachment name for a summary's report.
func FileName(summary *models.UploadSummary) string {
	return fmt.Sprintf("report_%d.pdf", summary.ID)
}

// RenderPDF lays out one summary on letter pages. Positions are measured
// from the top of the page.
func RenderPDF(summary *models.UploadSummary) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Report - "+summary.FileName, true)
	pdf.SetCreator("equipviz", true)
	pdf.SetCreationDate(summary.UploadedAt)
	pdf.SetCompression(false)
	pdf.AddPage()

	text := func(x, fromBottom float64, s string) {
		pdf.Text(x, pageHeight-fromBottom, tr(s))
	}

	pdf.SetFont("Helvetica", "B", 16)
	text(100, 750, ReportTitle)

	pdf.SetFont("Helvetica", "", 12)
	text(100, 730, "File: "+summary.FileName)
	text(100, 715, "Date: "+summary.UploadedAt.UTC().Format("2006-01-02 15:04:05"))

	pdf.SetFont("Helvetica", "B", 14)
	text(100, 680, "Summary Statistics")

	pdf.SetFont("Helvetica", "", 12)
	text(120, 660, fmt.Sprintf("Total Equipment: %d", summary.TotalEquipment))
	text(120, 645, "Avg Flowrate: "+formatFloat(summary.AvgFlowrate))
	text(120, 630, "Avg Pressure: "+formatFloat(summary.AvgPressure))
	text(120, 615, "Avg Temperature: "+formatFloat(summary.AvgTemperature))

	pdf.SetFont("Helvetica", "B", 14)
	text(100, 580, "Type Distribution")

	pdf.SetFont("Helvetica", "", 12)
	entries := equipment.SortedDistribution(summary.Distribution())
	if len(entries) == 0 {
		text(120, 560, "No distribution data available")
	}
	y := 560.0
	for _, e := range entries {
		if y < bottomMargin {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 12)
			y = 750
		}
		text(120, y, fmt.Sprintf("%s: %d", e.Type, e.Count))
		y -= lineStep
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
