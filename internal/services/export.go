package services

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
)

type LongRow struct {
	ResultID    string
	ChildID     int64
	QuestionID  string
	Category    string
	Answer      string
	CompletedAt string // RFC3339
}

type ScoreRow struct {
	ResultID     string
	ChildID      int64
	OverallScore int
	RiskTier     RiskTier
	CompletedAt  string
}

// ExportLongCSV renders one row per answered question, sorted by result then question.
func ExportLongCSV(rows []LongRow) ([]byte, error) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ResultID == rows[j].ResultID {
			return rows[i].QuestionID < rows[j].QuestionID
		}
		return rows[i].ResultID < rows[j].ResultID
	})
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"result_id", "child_id", "question_id", "category", "answer", "completed_at"})
	for _, r := range rows {
		rec := []string{
			r.ResultID,
			strconv.FormatInt(r.ChildID, 10),
			r.QuestionID,
			r.Category,
			r.Answer,
			r.CompletedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportWideCSV renders one row per result and one column per question.
// inputs is map[resultID]map[questionID]answer.
func ExportWideCSV(questionIDs []string, inputs map[string]map[string]string) ([]byte, error) {
	ids := make([]string, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := append([]string{"result_id"}, questionIDs...)
	_ = w.Write(header)
	for _, id := range ids {
		row := make([]string, 0, 1+len(questionIDs))
		row = append(row, id)
		for _, q := range questionIDs {
			row = append(row, inputs[id][q])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportScoreCSV renders overall scores, one row per result.
func ExportScoreCSV(rows []ScoreRow) ([]byte, error) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ResultID < rows[j].ResultID })
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"result_id", "child_id", "overall_score", "risk_tier", "completed_at"})
	for _, r := range rows {
		rec := []string{
			r.ResultID,
			strconv.FormatInt(r.ChildID, 10),
			strconv.Itoa(r.OverallScore),
			string(r.RiskTier),
			r.CompletedAt,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
