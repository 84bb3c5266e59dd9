package services

import (
	"reflect"
	"testing"
)

func zeroToFour() []Option {
	return []Option{
		{Value: IntValue(0), Label: "Never"},
		{Value: IntValue(1), Label: "Rarely"},
		{Value: IntValue(2), Label: "Sometimes"},
		{Value: IntValue(3), Label: "Often"},
		{Value: IntValue(4), Label: "Very Often"},
	}
}

func scaleQ(id, category string) Question {
	return Question{ID: id, Text: id + "?", Type: QuestionScale, Category: category, Options: zeroToFour()}
}

func attentionTemplate() *AssessmentTemplate {
	return &AssessmentTemplate{
		ID:    "t1",
		Title: "Attention",
		Questions: []Question{
			scaleQ("a1", "Attention"),
			scaleQ("a2", "Attention"),
			scaleQ("h1", "Hyperactivity"),
			scaleQ("h2", "Hyperactivity"),
		},
	}
}

func TestScoreConcreteScenario(t *testing.T) {
	answers := AnswerSet{
		"a1": NumberAnswer(3),
		"a2": NumberAnswer(2),
		"h1": NumberAnswer(4),
		"h2": NumberAnswer(4),
	}
	got := Score(attentionTemplate(), answers)
	if got.Categories["Attention"] != 63 {
		t.Fatalf("Attention=%d, want 63", got.Categories["Attention"])
	}
	if got.Categories["Hyperactivity"] != 100 {
		t.Fatalf("Hyperactivity=%d, want 100", got.Categories["Hyperactivity"])
	}
	if got.Overall != 81 {
		t.Fatalf("overall=%d, want 81", got.Overall)
	}
	if lvl := Classify(got.Overall); lvl.Tier != RiskHigh {
		t.Fatalf("tier=%s, want high", lvl.Tier)
	}
	if !reflect.DeepEqual(got.CategoryOrder, []string{"Attention", "Hyperactivity"}) {
		t.Fatalf("order=%v", got.CategoryOrder)
	}
}

func TestScoreOverallIsNotMeanOfCategories(t *testing.T) {
	tmpl := &AssessmentTemplate{ID: "t", Questions: []Question{
		scaleQ("a1", "A"),
		scaleQ("b1", "B"),
		scaleQ("b2", "B"),
		scaleQ("b3", "B"),
	}}
	answers := AnswerSet{"a1": NumberAnswer(4), "b1": NumberAnswer(0), "b2": NumberAnswer(0), "b3": NumberAnswer(0)}
	got := Score(tmpl, answers)
	// A=100, B=0; mean would be 50, raw total is 4/16.
	if got.Overall != 25 {
		t.Fatalf("overall=%d, want 25", got.Overall)
	}
}

func TestScoreFormulaScaleOnly(t *testing.T) {
	tmpl := attentionTemplate()
	for a1 := 0; a1 <= 4; a1++ {
		for h2 := 0; h2 <= 4; h2++ {
			answers := AnswerSet{"a1": NumberAnswer(a1), "a2": NumberAnswer(1), "h1": NumberAnswer(2), "h2": NumberAnswer(h2)}
			got := Score(tmpl, answers)
			sum := a1 + 1 + 2 + h2
			want := percent(sum, 4)
			if got.Overall != want {
				t.Fatalf("sum=%d overall=%d want %d", sum, got.Overall, want)
			}
			if got.Overall < 0 || got.Overall > 100 {
				t.Fatalf("overall out of range: %d", got.Overall)
			}
		}
	}
}

func TestPercentRoundsHalfUp(t *testing.T) {
	cases := []struct{ total, n, want int }{
		{1, 8, 3},  // 3.125
		{5, 2, 63}, // 62.5
		{3, 8, 9},  // 9.375
		{0, 3, 0},
		{12, 3, 100},
		{1, 2, 13}, // 12.5
	}
	for _, c := range cases {
		if got := percent(c.total, c.n); got != c.want {
			t.Fatalf("percent(%d,%d)=%d, want %d", c.total, c.n, got, c.want)
		}
	}
}

func TestScoreIdempotent(t *testing.T) {
	tmpl := attentionTemplate()
	answers := AnswerSet{"a1": NumberAnswer(1), "h1": NumberAnswer(3)}
	first := Score(tmpl, answers)
	second := Score(tmpl, answers)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent: %+v vs %+v", first, second)
	}
}

func TestScoreSkipsCategoriesWithoutScaleQuestions(t *testing.T) {
	tmpl := &AssessmentTemplate{ID: "t", Questions: []Question{
		scaleQ("s1", ""),
		{ID: "m1", Type: QuestionMultiple, Category: "Situational", Options: []Option{{Value: StringValue("home"), Label: "At home"}}},
		{ID: "x1", Type: QuestionText, Category: "Notes"},
	}}
	got := Score(tmpl, AnswerSet{"s1": NumberAnswer(2), "m1": ChoicesAnswer("home"), "x1": TextAnswer("hi")})
	if len(got.Categories) != 1 || got.Categories[DefaultCategory] != 50 {
		t.Fatalf("categories=%v", got.Categories)
	}
	if got.Overall != 50 {
		t.Fatalf("overall=%d", got.Overall)
	}
}

func TestScoreNoScaleQuestions(t *testing.T) {
	tmpl := &AssessmentTemplate{ID: "t", Questions: []Question{{ID: "x1", Type: QuestionText}}}
	got := Score(tmpl, AnswerSet{})
	if got.Overall != 0 || len(got.Categories) != 0 || got.Ordered() != nil {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestGroupByCategoryFirstOccurrenceOrder(t *testing.T) {
	tmpl := &AssessmentTemplate{ID: "t", Questions: []Question{
		scaleQ("b1", "B"),
		scaleQ("a1", "A"),
		scaleQ("b2", "B"),
		scaleQ("g1", ""),
	}}
	groups := GroupByCategory(tmpl)
	var names []string
	for _, g := range groups {
		names = append(names, g.Name)
	}
	if !reflect.DeepEqual(names, []string{"B", "A", DefaultCategory}) {
		t.Fatalf("names=%v", names)
	}
	if len(groups[0].Questions) != 2 || groups[0].Questions[1].ID != "b2" {
		t.Fatalf("group B=%+v", groups[0].Questions)
	}
}
