package services

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

// NotAnswered is shown for any question without a resolvable answer.
const NotAnswered = "Not answered"

type ReportFormat string

const (
	ReportHTML ReportFormat = "html"
	ReportPDF  ReportFormat = "pdf"
	ReportXLSX ReportFormat = "xlsx"
)

var reportContentTypes = map[ReportFormat]string{
	ReportHTML: "text/html; charset=utf-8",
	ReportPDF:  "application/pdf",
	ReportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ReportInput is everything a rendered report shows. CategoryScores is optional.
type ReportInput struct {
	Template       *AssessmentTemplate
	Answers        AnswerSet
	OverallScore   int
	CompletedAt    time.Time
	CategoryScores []CategoryScore
	Risk           RiskLevel
}

// ReportInputFromResult builds a report input from a stored result.
func ReportInputFromResult(t *AssessmentTemplate, r *AssessmentResult) ReportInput {
	risk, ok := LevelForTier(r.RiskTier)
	if !ok {
		risk = Classify(r.OverallScore)
	}
	return ReportInput{
		Template:       t,
		Answers:        r.Answers,
		OverallScore:   r.OverallScore,
		CompletedAt:    r.CompletedAt,
		CategoryScores: r.OrderedCategoryScores(),
		Risk:           risk,
	}
}

// ReportFilename is assessment-results-YYYY-MM-DD.<ext>.
func ReportFilename(completedAt time.Time, format ReportFormat) string {
	return "assessment-results-" + completedAt.Format("2006-01-02") + "." + string(format)
}

// ResolveAnswer renders the stored answer for q as display text.
func ResolveAnswer(q Question, answers AnswerSet) string {
	a, ok := answers[q.ID]
	if !ok {
		return NotAnswered
	}
	switch q.Type {
	case QuestionScale:
		if a.Kind != AnswerNumber {
			return NotAnswered
		}
		for _, o := range q.Options {
			if o.Value.IsNum && o.Value.Num == a.Number {
				return o.Label
			}
		}
		return NotAnswered
	case QuestionMultiple:
		if a.Kind != AnswerChoices || len(a.Choices) == 0 {
			return NotAnswered
		}
		return strings.Join(a.Choices, ", ")
	default:
		if a.Kind != AnswerText || a.Text == "" {
			return NotAnswered
		}
		return a.Text
	}
}

type reportRow struct {
	Question string
	Answer   string
}

type reportView struct {
	Title          string
	Description    string
	Date           string
	OverallScore   int
	Risk           RiskLevel
	CategoryScores []CategoryScore
	Rows           []reportRow
}

func buildReportView(in ReportInput) reportView {
	v := reportView{
		Date:           in.CompletedAt.Format("January 2, 2006"),
		OverallScore:   in.OverallScore,
		Risk:           in.Risk,
		CategoryScores: in.CategoryScores,
	}
	if in.Template != nil {
		v.Title = in.Template.Title
		v.Description = in.Template.Description
		for _, q := range in.Template.Questions {
			v.Rows = append(v.Rows, reportRow{Question: q.Text, Answer: ResolveAnswer(q, in.Answers)})
		}
	}
	return v
}

var reportHTML = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} - Results {{.Date}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1f2937; margin: 2rem auto; max-width: 48rem; }
h1 { font-size: 1.5rem; margin-bottom: 0.25rem; }
.meta { color: #4b5563; }
.risk { display: inline-block; padding: 0.25rem 0.75rem; border-radius: 9999px; font-weight: bold; }
.risk-red { background: #fee2e2; color: #b91c1c; }
.risk-amber { background: #fef3c7; color: #b45309; }
.risk-green { background: #dcfce7; color: #15803d; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { text-align: left; padding: 0.5rem; border-bottom: 1px solid #e5e7eb; }
.q { font-weight: bold; margin-top: 1rem; }
.a { margin-left: 1rem; }
</style>
</head>
<body>
<h1>{{.Title}} - Results</h1>
<p class="meta">Assessment Date: {{.Date}}</p>
<p class="meta">Overall Score: {{.OverallScore}}%</p>
<p><span class="risk risk-{{.Risk.Color}}">{{.Risk.Label}}</span> {{.Risk.Description}}</p>
{{- if .CategoryScores}}
<h2>Category Scores</h2>
<table>
<tr><th>Category</th><th>Score</th></tr>
{{- range .CategoryScores}}
<tr><td>{{.Category}}</td><td>{{.Score}}%</td></tr>
{{- end}}
</table>
{{- end}}
<h2>Assessment Details</h2>
{{- range .Rows}}
<p class="q">{{.Question}}</p>
<p class="a">Answer: {{.Answer}}</p>
{{- end}}
</body>
</html>
`))

// RenderHTML produces a self-contained HTML report.
func RenderHTML(in ReportInput) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportHTML.Execute(&buf, buildReportView(in)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
