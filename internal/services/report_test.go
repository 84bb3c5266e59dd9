package services

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func reportTemplate() *AssessmentTemplate {
	return &AssessmentTemplate{
		ID:          "adhd",
		Title:       "ADHD Assessment",
		Description: "screening",
		Questions: []Question{
			scaleQ("attention-1", "Attention & Focus"),
			{ID: "situational-1", Text: "Where?", Type: QuestionMultiple, Category: "Situational", Options: []Option{
				{Value: StringValue("school"), Label: "At school"},
				{Value: StringValue("home"), Label: "At home"},
			}},
			{ID: "observation-1", Text: "Describe <triggers>", Type: QuestionText, Category: "Notes"},
		},
	}
}

func TestResolveAnswerZeroIsNotFalsy(t *testing.T) {
	q := scaleQ("attention-1", "Attention")
	assert.Equal(t, "Never", ResolveAnswer(q, AnswerSet{"attention-1": NumberAnswer(0)}))
	assert.Equal(t, "Very Often", ResolveAnswer(q, AnswerSet{"attention-1": NumberAnswer(4)}))
}

func TestResolveAnswerFallbacks(t *testing.T) {
	tmpl := reportTemplate()
	scale, multi, text := tmpl.Questions[0], tmpl.Questions[1], tmpl.Questions[2]

	cases := []struct {
		name    string
		q       Question
		answers AnswerSet
		want    string
	}{
		{"scale absent", scale, AnswerSet{}, NotAnswered},
		{"scale no matching option", scale, AnswerSet{"attention-1": NumberAnswer(9)}, NotAnswered},
		{"scale wrong kind", scale, AnswerSet{"attention-1": TextAnswer("3")}, NotAnswered},
		{"multiple empty", multi, AnswerSet{"situational-1": ChoicesAnswer()}, NotAnswered},
		{"multiple absent", multi, AnswerSet{}, NotAnswered},
		{"multiple joined values", multi, AnswerSet{"situational-1": ChoicesAnswer("school", "home")}, "school, home"},
		{"text absent", text, AnswerSet{}, NotAnswered},
		{"text empty", text, AnswerSet{"observation-1": TextAnswer("")}, NotAnswered},
		{"text raw", text, AnswerSet{"observation-1": TextAnswer("loud rooms")}, "loud rooms"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ResolveAnswer(c.q, c.answers))
		})
	}
}

func TestReportFilename(t *testing.T) {
	at := time.Date(2025, 2, 20, 23, 10, 0, 0, time.UTC)
	assert.Equal(t, "assessment-results-2025-02-20.html", ReportFilename(at, ReportHTML))
	assert.Equal(t, "assessment-results-2025-02-20.pdf", ReportFilename(at, ReportPDF))
	assert.Equal(t, "assessment-results-2025-02-20.xlsx", ReportFilename(at, ReportXLSX))
}

func sampleInput(withCategories bool) ReportInput {
	in := ReportInput{
		Template: reportTemplate(),
		Answers: AnswerSet{
			"attention-1":   NumberAnswer(0),
			"situational-1": ChoicesAnswer(),
			"observation-1": TextAnswer("<b>noise</b>"),
		},
		OverallScore: 0,
		CompletedAt:  time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC),
		Risk:         Classify(0),
	}
	if withCategories {
		in.CategoryScores = []CategoryScore{{Category: "Attention & Focus", Score: 0}}
	}
	return in
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(sampleInput(true))
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "ADHD Assessment - Results")
	assert.Contains(t, html, "Assessment Date: February 20, 2025")
	assert.Contains(t, html, "Overall Score: 0%")
	assert.Contains(t, html, "Low Priority")
	assert.Contains(t, html, "Category Scores")
	assert.Contains(t, html, "Answer: Never")
	assert.Contains(t, html, "Answer: Not answered")
	// answer text is escaped
	assert.Contains(t, html, "&lt;b&gt;noise&lt;/b&gt;")
	assert.NotContains(t, html, "<b>noise</b>")
	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "<link")

	cat := strings.Index(html, "Category Scores")
	details := strings.Index(html, "Assessment Details")
	assert.Less(t, cat, details, "category table precedes details")
}

func TestRenderHTMLOmitsCategorySection(t *testing.T) {
	out, err := RenderHTML(sampleInput(false))
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Category Scores")
	assert.Contains(t, string(out), "Assessment Details")
}

func TestRenderPDF(t *testing.T) {
	out, err := RenderPDF(sampleInput(true))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	long := sampleInput(false)
	for i := 0; i < 60; i++ {
		long.Template.Questions = append(long.Template.Questions, scaleQ("extra-"+strconv.Itoa(i), "More"))
	}
	out, err = RenderPDF(long)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderXLSX(t *testing.T) {
	out, err := RenderXLSX(sampleInput(true))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, answersSheet}, f.GetSheetList())

	v, err := f.GetCellValue(summarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "ADHD Assessment", v)
	v, err = f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
	v, err = f.GetCellValue(summarySheet, "A7")
	require.NoError(t, err)
	assert.Equal(t, "Category", v)

	v, err = f.GetCellValue(answersSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Never", v)
	v, err = f.GetCellValue(answersSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, NotAnswered, v)
}

func TestReportInputFromResultUsesStoredTier(t *testing.T) {
	res := &AssessmentResult{
		OverallScore:   80,
		RiskTier:       RiskHigh,
		CategoryScores: CategoryScoreMap{"A": 80},
		CategoryOrder:  []string{"A"},
		CompletedAt:    time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	in := ReportInputFromResult(reportTemplate(), res)
	assert.Equal(t, "High Priority", in.Risk.Label)
	assert.Equal(t, []CategoryScore{{Category: "A", Score: 80}}, in.CategoryScores)
}
