package services

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var riskRGB = map[string][3]int{
	"red":   {185, 28, 28},
	"amber": {180, 83, 9},
	"green": {21, 128, 61},
}

// RenderPDF produces an A4 report. Long question lists flow onto new pages.
func RenderPDF(in ReportInput) ([]byte, error) {
	v := buildReportView(in)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetCreationDate(in.CompletedAt)
	pdf.SetTitle(v.Title+" - Results", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr(v.Title+" - Results"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, tr("Assessment Date: "+v.Date), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Overall Score: %d%%", v.OverallScore), "", 1, "L", false, 0, "")
	if c, ok := riskRGB[v.Risk.Color]; ok {
		pdf.SetTextColor(c[0], c[1], c[2])
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, tr(v.Risk.Label+": "+v.Risk.Description), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	if len(v.CategoryScores) > 0 {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, "Category Scores", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(120, 7, "Category", "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, "Score", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, cs := range v.CategoryScores {
			pdf.CellFormat(120, 7, tr(cs.Category), "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%d%%", cs.Score), "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Assessment Details", "", 1, "L", false, 0, "")
	for _, r := range v.Rows {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, tr(r.Question), "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		pdf.SetX(25)
		pdf.MultiCell(0, 6, tr("Answer: "+r.Answer), "", "L", false)
		pdf.Ln(3)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
