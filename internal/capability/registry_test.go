package capability

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRegistryBuiltins(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	sites := reg.SupportedSites()
	if len(sites) == 0 {
		t.Fatal("expected built-in capabilities")
	}
	if sites[0] != "bing" {
		t.Fatalf("expected bing first for prompt stability, got %v", sites)
	}
	for _, site := range []string{"bing", "github", "youtube", "gsmarena", "accuweather"} {
		card, ok := reg.Card(site)
		if !ok {
			t.Fatalf("missing built-in capability %s", site)
		}
		if card.SearchURL == "" {
			t.Fatalf("capability %s has no search URL", site)
		}
	}
	// extraction-only capabilities register without a search format
	for _, site := range []string{"instagram", "facebook"} {
		if _, ok := reg.Card(site); !ok {
			t.Fatalf("missing built-in capability %s", site)
		}
	}
}

func TestIsSupportedMatchesSubdomains(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry("")
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tests := []struct {
		host string
		want bool
	}{
		{"www.bing.com", true},
		{"github.com", true},
		{"m.youtube.com", true},
		{"www.instagram.com", true},
		{"m.facebook.com", true},
		{"fb.watch", true},
		{"example.com", false},
		{"notgithub.com", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			if got := reg.IsSupported(tt.host); got != tt.want {
				t.Fatalf("IsSupported(%s) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestNewRegistryLoadsDescriptorFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	card := `{"site":"wikipedia","hosts":["wikipedia.org","en.wikipedia.org"],"search_url":"https://en.wikipedia.org/wiki/Special:Search?search=[clean_term]","description":"Encyclopedia search"}`
	if err := os.WriteFile(filepath.Join(dir, "wikipedia.json"), []byte(card), 0o644); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	reg, err := NewRegistry(dir)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, ok := reg.Card("wikipedia"); !ok {
		t.Fatal("descriptor file not loaded")
	}
	if !reg.IsSupported("en.wikipedia.org") {
		t.Fatal("descriptor hosts not registered")
	}

	bad := `{"hosts":["x.org"]}`
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write bad descriptor: %v", err)
	}
	if _, err := NewRegistry(dir); err == nil {
		t.Fatal("expected error for descriptor without site/search_url")
	}
}
