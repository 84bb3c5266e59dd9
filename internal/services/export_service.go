package services

import (
	"strconv"
	"strings"
	"time"
)

type ExportStore interface {
	GetResult(id string) (*AssessmentResult, error)
	ListResultsByTemplate(templateID string) ([]*AssessmentResult, error)
}

type ReportParams struct {
	ResultID string
	Format   string
}

type ExportParams struct {
	TemplateID string
	Format     string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store     ExportStore
	templates *TemplateService
}

func NewExportService(store ExportStore, templates *TemplateService) *ExportService {
	return &ExportService{store: store, templates: templates}
}

// ExportReport renders a stored result as html, pdf or xlsx. Format defaults to html.
func (s *ExportService) ExportReport(params ReportParams) (*ExportResult, error) {
	if params.ResultID == "" {
		return nil, NewInvalidError("result id required")
	}
	format := ReportFormat(strings.ToLower(params.Format))
	if format == "" {
		format = ReportHTML
	}
	contentType, ok := reportContentTypes[format]
	if !ok {
		return nil, NewInvalidError("unsupported format")
	}
	res, err := s.store.GetResult(params.ResultID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, NewNotFoundError("assessment result not found")
	}
	t, err := s.templates.GetTemplate(res.TemplateID)
	if err != nil {
		return nil, err
	}
	in := ReportInputFromResult(t, res)

	var data []byte
	switch format {
	case ReportHTML:
		data, err = RenderHTML(in)
	case ReportPDF:
		data, err = RenderPDF(in)
	case ReportXLSX:
		data, err = RenderXLSX(in)
	}
	if err != nil {
		return nil, err
	}
	return &ExportResult{Filename: ReportFilename(res.CompletedAt, format), ContentType: contentType, Data: data}, nil
}

// ExportResultsCSV exports every stored result of a template as long, wide or score CSV.
func (s *ExportService) ExportResultsCSV(params ExportParams) (*ExportResult, error) {
	if params.TemplateID == "" {
		return nil, NewInvalidError("template_id required")
	}
	format := params.Format
	if format == "" {
		format = "long"
	}
	t, err := s.templates.GetTemplate(params.TemplateID)
	if err != nil {
		return nil, err
	}
	rs, err := s.store.ListResultsByTemplate(t.ID)
	if err != nil {
		return nil, err
	}

	switch format {
	case "long":
		b, err := ExportLongCSV(buildLongRows(t, rs))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: t.ID + "-long.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case "wide":
		ids := make([]string, 0, len(t.Questions))
		for _, q := range t.Questions {
			ids = append(ids, q.ID)
		}
		b, err := ExportWideCSV(ids, buildWideMap(rs))
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: t.ID + "-wide.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case "score":
		rows := make([]ScoreRow, 0, len(rs))
		for _, r := range rs {
			rows = append(rows, ScoreRow{
				ResultID:     r.ID,
				ChildID:      r.ChildID,
				OverallScore: r.OverallScore,
				RiskTier:     r.RiskTier,
				CompletedAt:  r.CompletedAt.Format(time.RFC3339),
			})
		}
		b, err := ExportScoreCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: t.ID + "-score.csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	default:
		return nil, NewInvalidError("unsupported format")
	}
}

// rawAnswer is the machine-readable cell value: numbers as digits,
// choices joined with ";", text verbatim.
func rawAnswer(a Answer) string {
	switch a.Kind {
	case AnswerNumber:
		return strconv.Itoa(a.Number)
	case AnswerChoices:
		return strings.Join(a.Choices, ";")
	default:
		return a.Text
	}
}

func buildLongRows(t *AssessmentTemplate, rs []*AssessmentResult) []LongRow {
	out := []LongRow{}
	for _, r := range rs {
		for _, q := range t.Questions {
			a, ok := r.Answers[q.ID]
			if !ok {
				continue
			}
			cat := q.Category
			if cat == "" {
				cat = DefaultCategory
			}
			out = append(out, LongRow{
				ResultID:    r.ID,
				ChildID:     r.ChildID,
				QuestionID:  q.ID,
				Category:    cat,
				Answer:      rawAnswer(a),
				CompletedAt: r.CompletedAt.Format(time.RFC3339),
			})
		}
	}
	return out
}

func buildWideMap(rs []*AssessmentResult) map[string]map[string]string {
	mp := map[string]map[string]string{}
	for _, r := range rs {
		row := map[string]string{}
		for id, a := range r.Answers {
			row[id] = rawAnswer(a)
		}
		mp[r.ID] = row
	}
	return mp
}
