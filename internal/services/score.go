package services

import "math"

// CategoryGroup is one category of a template with its questions, in template order.
type CategoryGroup struct {
	Name      string
	Questions []Question
}

// GroupByCategory partitions questions by category. Groups appear in the order
// their category first occurs; questions without a category land in DefaultCategory.
func GroupByCategory(t *AssessmentTemplate) []CategoryGroup {
	if t == nil {
		return nil
	}
	index := map[string]int{}
	groups := []CategoryGroup{}
	for _, q := range t.Questions {
		name := q.Category
		if name == "" {
			name = DefaultCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, CategoryGroup{Name: name})
		}
		groups[i].Questions = append(groups[i].Questions, q)
	}
	return groups
}

type Scores struct {
	Categories    CategoryScoreMap `json:"category_scores"`
	CategoryOrder []string         `json:"category_order"`
	Overall       int              `json:"overall_score"`
}

// Ordered returns category scores in step order.
func (s Scores) Ordered() []CategoryScore {
	return orderScores(s.Categories, s.CategoryOrder)
}

// Score computes per-category and overall percentages from scale answers.
// Unanswered scale questions count as 0. The overall score is computed from the
// raw totals of every scale question, not from the rounded category percentages.
func Score(t *AssessmentTemplate, answers AnswerSet) Scores {
	out := Scores{Categories: CategoryScoreMap{}, CategoryOrder: []string{}}
	if t == nil {
		return out
	}
	for _, g := range GroupByCategory(t) {
		total, n := sumScale(g.Questions, answers)
		if n == 0 {
			continue
		}
		out.Categories[g.Name] = percent(total, n)
		out.CategoryOrder = append(out.CategoryOrder, g.Name)
	}
	total, n := sumScale(t.Questions, answers)
	if n > 0 {
		out.Overall = percent(total, n)
	}
	return out
}

func sumScale(questions []Question, answers AnswerSet) (total, n int) {
	for _, q := range questions {
		if q.Type != QuestionScale {
			continue
		}
		n++
		if v, ok := answers.ScaleValue(q.ID); ok {
			total += v
		}
	}
	return total, n
}

// percent is round-half-up of 100*total/(MaxScaleValue*n).
func percent(total, n int) int {
	return int(math.Floor(float64(100*total)/float64(MaxScaleValue*n) + 0.5))
}

func orderScores(m CategoryScoreMap, order []string) []CategoryScore {
	if len(m) == 0 {
		return nil
	}
	out := make([]CategoryScore, 0, len(m))
	for _, name := range order {
		if v, ok := m[name]; ok {
			out = append(out, CategoryScore{Category: name, Score: v})
		}
	}
	return out
}
