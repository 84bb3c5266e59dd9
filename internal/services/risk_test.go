package services

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  RiskTier
		label string
	}{
		{100, RiskHigh, "High Priority"},
		{75, RiskHigh, "High Priority"},
		{74, RiskModerate, "Moderate Priority"},
		{50, RiskModerate, "Moderate Priority"},
		{49, RiskLow, "Low Priority"},
		{0, RiskLow, "Low Priority"},
		{-5, RiskLow, "Low Priority"},
		{250, RiskHigh, "High Priority"},
	}
	for _, c := range cases {
		got := Classify(c.score)
		if got.Tier != c.want || got.Label != c.label {
			t.Fatalf("Classify(%d)=%+v, want %s/%s", c.score, got, c.want, c.label)
		}
	}
}

func TestClassifyDisplayMetadata(t *testing.T) {
	if got := Classify(80); got.Color != "red" || got.Description != "Immediate professional consultation recommended" {
		t.Fatalf("high=%+v", got)
	}
	if got := Classify(60); got.Color != "amber" || got.Description != "Professional review suggested" {
		t.Fatalf("moderate=%+v", got)
	}
	if got := Classify(10); got.Color != "green" || got.Description != "Continue monitoring and support" {
		t.Fatalf("low=%+v", got)
	}
}

func TestLevelForTier(t *testing.T) {
	if lvl, ok := LevelForTier(RiskModerate); !ok || lvl.Label != "Moderate Priority" {
		t.Fatalf("got %+v %v", lvl, ok)
	}
	if _, ok := LevelForTier("unknown"); ok {
		t.Fatalf("unknown tier should not resolve")
	}
}
