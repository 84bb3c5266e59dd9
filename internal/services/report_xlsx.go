package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	answersSheet = "Answers"
)

// RenderXLSX produces a workbook with a Summary sheet and an Answers sheet.
func RenderXLSX(in ReportInput) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(answersSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	v := buildReportView(in)
	summary := [][]any{
		{"Assessment", v.Title},
		{"Assessment Date", v.Date},
		{"Overall Score", v.OverallScore},
		{"Risk", v.Risk.Label},
		{"Recommendation", v.Risk.Description},
	}
	if len(v.CategoryScores) > 0 {
		summary = append(summary, []any{}, []any{"Category", "Score"})
		for _, cs := range v.CategoryScores {
			summary = append(summary, []any{cs.Category, cs.Score})
		}
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, fmt.Errorf("style summary: %w", err)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "B", 48)

	answers := [][]any{{"Question", "Answer"}}
	for _, r := range v.Rows {
		answers = append(answers, []any{r.Question, r.Answer})
	}
	if err := writeRows(f, answersSheet, answers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(answersSheet, "A1", "B1", bold); err != nil {
		return nil, fmt.Errorf("style answers: %w", err)
	}
	_ = f.SetColWidth(answersSheet, "A", "A", 80)
	_ = f.SetColWidth(answersSheet, "B", "B", 40)

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
