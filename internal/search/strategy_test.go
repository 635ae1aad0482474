package search

import (
	"net/url"
	"testing"
)

func TestSearchURLDeterministic(t *testing.T) {
	t.Parallel()
	s := NewStrategy("bing", "en-US")
	a := s.SearchURL("weather in Paris")
	b := s.SearchURL("weather in Paris")
	if a != b {
		t.Fatalf("SearchURL not deterministic: %q vs %q", a, b)
	}
}

func TestSearchURLLocaleParams(t *testing.T) {
	t.Parallel()
	s := NewStrategy("bing", "en-US")
	raw := s.SearchURL("golang generics")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("SearchURL returned unparseable URL: %v", err)
	}
	if u.Host != "www.bing.com" {
		t.Fatalf("host = %q, want www.bing.com", u.Host)
	}
	q := u.Query()
	if q.Get("q") != "golang generics" {
		t.Fatalf("q = %q", q.Get("q"))
	}
	if q.Get("setlang") != "en" || q.Get("cc") != "US" {
		t.Fatalf("locale params missing: setlang=%q cc=%q", q.Get("setlang"), q.Get("cc"))
	}
}

func TestCleanQuery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips fillers", in: "find me the latest iPhone 15 specs", want: "iPhone 15 specs"},
		{name: "collapses whitespace", in: "search for   weather   Paris", want: "weather Paris"},
		{name: "keeps bare terms", in: "kubernetes ingress", want: "kubernetes ingress"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanQuery(tt.in); got != tt.want {
				t.Fatalf("CleanQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
