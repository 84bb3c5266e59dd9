package utils

import (
	"reflect"
	"testing"
)

func TestSafeEnv(t *testing.T) {
	const key = "_BRIGHTPATH_TEST_SAFEENV"
	t.Setenv(key, "  ")
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv(key, " value ")
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" http://a.test, ,http://b.test ,")
	want := []string{"http://a.test", "http://b.test"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if SplitList("") != nil {
		t.Fatalf("empty input should give nil")
	}
}
