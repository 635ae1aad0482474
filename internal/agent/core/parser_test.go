package core

import (
	"reflect"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want map[string]interface{}
	}{
		{
			name: "direct parse",
			in:   `{"action":"answer","answer":"Hello!"}`,
			want: map[string]interface{}{"action": "answer", "answer": "Hello!"},
		},
		{
			name: "thinking prefix and trailing text",
			in:   `blah blah {"a":1} trailing`,
			want: map[string]interface{}{"a": float64(1)},
		},
		{
			name: "prefers last parseable block",
			in:   `first {"a":1} then the real one {"b":2} done`,
			want: map[string]interface{}{"b": float64(2)},
		},
		{
			name: "nested object does not shadow parent",
			in:   `thinking... {"action":"deep_dive","meta":{"x":1}}`,
			want: map[string]interface{}{"action": "deep_dive", "meta": map[string]interface{}{"x": float64(1)}},
		},
		{
			name: "no braces",
			in:   "I could not produce JSON for this one.",
			want: nil,
		},
		{
			name: "broken json only",
			in:   `{"action": "answer", `,
			want: nil,
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractJSON(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractJSON(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodePlan(t *testing.T) {
	t.Parallel()

	plan, ok := DecodePlan(`reasoning first... {"action":"search","url":"https://example.com","reasoning":"known site"}`)
	if !ok {
		t.Fatal("expected a plan")
	}
	if plan.Action != "search" || plan.URL != "https://example.com" {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	if _, ok := DecodePlan("no json here"); ok {
		t.Fatal("expected decode failure")
	}
}

func TestDecodeDecision(t *testing.T) {
	t.Parallel()

	decision, ok := DecodeDecision(`{"action":"click","selector":"#expand","reasoning":"content truncated"}`)
	if !ok {
		t.Fatal("expected a decision")
	}
	if decision.Action != "click" || decision.Selector != "#expand" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}
