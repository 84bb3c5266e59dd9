package services

import (
	"math"
	"sort"
)

type AnalyticsStore interface {
	ListResultsByTemplate(templateID string) ([]*AssessmentResult, error)
}

type AnalyticsService struct {
	store     AnalyticsStore
	templates *TemplateService
}

type AnalyticsQuestion struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Text      string `json:"text"`
	Histogram []int  `json:"histogram"` // index = answer value 0..MaxScaleValue
	Total     int    `json:"total"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	TemplateID       string                `json:"template_id"`
	TotalResults     int                   `json:"total_results"`
	MeanOverall      int                   `json:"mean_overall_score"`
	TierDistribution map[RiskTier]int      `json:"tier_distribution"`
	CategoryMeans    []CategoryScore       `json:"category_means"`
	Questions        []AnalyticsQuestion   `json:"questions"`
	Timeseries       []AnalyticsTimeseries `json:"timeseries"`
	Alpha            float64               `json:"alpha"`
	N                int                   `json:"n"`
}

func NewAnalyticsService(store AnalyticsStore, templates *TemplateService) *AnalyticsService {
	return &AnalyticsService{store: store, templates: templates}
}

func (s *AnalyticsService) Summary(templateID string) (*AnalyticsSummary, error) {
	t, err := s.templates.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}
	results, err := s.store.ListResultsByTemplate(t.ID)
	if err != nil {
		return nil, err
	}
	scale := scaleQuestions(t)
	questions, countsByDay := buildAnalyticsQuestions(scale, results)
	matrix, n := buildAlphaMatrix(scale, results)
	return &AnalyticsSummary{
		TemplateID:       t.ID,
		TotalResults:     len(results),
		MeanOverall:      meanOverall(results),
		TierDistribution: tierDistribution(results),
		CategoryMeans:    categoryMeans(t, results),
		Questions:        questions,
		Timeseries:       buildTimeseries(countsByDay),
		Alpha:            CronbachAlpha(matrix),
		N:                n,
	}, nil
}

func scaleQuestions(t *AssessmentTemplate) []Question {
	out := make([]Question, 0, len(t.Questions))
	for _, q := range t.Questions {
		if q.Type == QuestionScale {
			out = append(out, q)
		}
	}
	return out
}

func meanOverall(results []*AssessmentResult) int {
	if len(results) == 0 {
		return 0
	}
	sum := 0
	for _, r := range results {
		sum += r.OverallScore
	}
	return int(math.Floor(float64(sum)/float64(len(results)) + 0.5))
}

func tierDistribution(results []*AssessmentResult) map[RiskTier]int {
	out := map[RiskTier]int{RiskHigh: 0, RiskModerate: 0, RiskLow: 0}
	for _, r := range results {
		out[r.RiskTier]++
	}
	return out
}

// categoryMeans averages each category's percentage over the results that scored it.
func categoryMeans(t *AssessmentTemplate, results []*AssessmentResult) []CategoryScore {
	out := []CategoryScore{}
	for _, g := range GroupByCategory(t) {
		sum, n := 0, 0
		for _, r := range results {
			if v, ok := r.CategoryScores[g.Name]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			continue
		}
		out = append(out, CategoryScore{Category: g.Name, Score: int(math.Floor(float64(sum)/float64(n) + 0.5))})
	}
	return out
}

func buildAnalyticsQuestions(questions []Question, results []*AssessmentResult) ([]AnalyticsQuestion, map[string]int) {
	out := make([]AnalyticsQuestion, 0, len(questions))
	for _, q := range questions {
		cat := q.Category
		if cat == "" {
			cat = DefaultCategory
		}
		out = append(out, AnalyticsQuestion{ID: q.ID, Category: cat, Text: q.Text, Histogram: make([]int, MaxScaleValue+1)})
	}
	countsByDay := map[string]int{}
	for _, r := range results {
		for i := range out {
			v, ok := r.Answers.ScaleValue(out[i].ID)
			if ok && v >= 0 && v <= MaxScaleValue {
				out[i].Histogram[v]++
				out[i].Total++
			}
		}
		countsByDay[r.CompletedAt.UTC().Format("2006-01-02")]++
	}
	return out, countsByDay
}

// buildAlphaMatrix keeps only results that answered every scale question.
func buildAlphaMatrix(questions []Question, results []*AssessmentResult) ([][]float64, int) {
	matrix := make([][]float64, 0, len(results))
	for _, r := range results {
		row := make([]float64, 0, len(questions))
		complete := true
		for _, q := range questions {
			v, ok := r.Answers.ScaleValue(q.ID)
			if !ok {
				complete = false
				break
			}
			row = append(row, float64(v))
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix, len(matrix)
}

func buildTimeseries(counts map[string]int) []AnalyticsTimeseries {
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
