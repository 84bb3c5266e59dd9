package utils

import "testing"

func TestDetermineLocale(t *testing.T) {
	sup := []string{"en", "es"}
	cases := []struct {
		name, query, accept, want string
	}{
		{"query wins", "es-MX", "en-US,en;q=0.9", "es"},
		{"accept order", "", "en-US,en;q=0.9,es;q=0.8", "en"},
		{"higher q", "", "es;q=0.9,en;q=0.8", "es"},
		{"q zero excluded", "", "es;q=0,en;q=0.1", "en"},
		{"default fallback", "", "fr-FR,de;q=0.9", "en"},
		{"unsupported query ignored", "zh", "es", "es"},
	}
	for _, c := range cases {
		if got := DetermineLocale(c.query, c.accept, sup, "en"); got != c.want {
			t.Fatalf("%s: want %s, got %s", c.name, c.want, got)
		}
	}
}

func TestDetermineLocaleFirstSupportedWhenDefaultUnknown(t *testing.T) {
	if got := DetermineLocale("", "", []string{"es"}, "fr"); got != "es" {
		t.Fatalf("want es, got %s", got)
	}
}
