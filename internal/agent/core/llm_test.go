package core

import (
	"testing"

	"github.com/mohammad-safakhou/webscout/config"
)

func TestModelRoutingByPhase(t *testing.T) {
	t.Parallel()

	provider := NewOpenAIProvider(config.LLMProvider{
		Type: "openai",
		Models: map[string]config.LLMModel{
			"fast":    {Name: "gpt-4o-mini"},
			"careful": {Name: "gpt-4o"},
			"thinker": {Name: "o3-mini", Reasoning: true},
		},
	}, config.LLMRoutingConfig{
		Planning:  "fast",
		Decision:  "careful",
		Synthesis: "careful",
		Fallback:  "fast",
	}, nil)

	tests := []struct {
		name     string
		phase    string
		extended bool
		want     string
	}{
		{"planning routes to fast model", "plan", false, "fast"},
		{"decision routes to careful model", "decision", false, "careful"},
		{"synthesis routes to careful model", "synthesis", false, "careful"},
		{"unknown phase falls back", "other", false, "fast"},
		{"extended reasoning overrides routing", "plan", true, "thinker"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, _, err := provider.modelFor(tt.phase, tt.extended)
			if err != nil {
				t.Fatalf("modelFor: %v", err)
			}
			if key != tt.want {
				t.Fatalf("modelFor(%s, %v) = %s, want %s", tt.phase, tt.extended, key, tt.want)
			}
		})
	}
}

func TestModelRoutingMissingRouteFallsThrough(t *testing.T) {
	t.Parallel()

	provider := NewOpenAIProvider(config.LLMProvider{
		Type:   "openai",
		Models: map[string]config.LLMModel{"only": {Name: "gpt-4o-mini"}},
	}, config.LLMRoutingConfig{Planning: "missing"}, nil)

	key, _, err := provider.modelFor("plan", false)
	if err != nil {
		t.Fatalf("modelFor: %v", err)
	}
	if key != "only" {
		t.Fatalf("modelFor must fall through to any configured model, got %s", key)
	}
}
