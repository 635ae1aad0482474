package core

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON object out of unreliable oracle output. Reasoning
// models often prepend free-form thinking before the actual answer, so a
// direct parse is tried first and then every brace-delimited candidate is
// attempted from the last occurrence backward. Returns nil when nothing
// parses; it never returns an error because callers always carry a fallback
// policy.
func ExtractJSON(text string) map[string]interface{} {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var direct map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &direct); err == nil {
		return direct
	}

	// The JSON usually sits at the end of the response, after the thinking
	// text. Scan forward collecting top-level object candidates (braces inside
	// a successful parse are skipped so nested objects never shadow their
	// parent) and keep the last one that parsed.
	var last map[string]interface{}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(trimmed[i:]))
		var candidate map[string]interface{}
		if err := dec.Decode(&candidate); err == nil && candidate != nil {
			last = candidate
			i += int(dec.InputOffset()) - 1
		}
	}
	return last
}

// DecodePlan extracts a Plan from oracle text. ok is false when no JSON
// object could be recovered.
func DecodePlan(text string) (*Plan, bool) {
	obj := ExtractJSON(text)
	if obj == nil {
		return nil, false
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

// DecodeDecision extracts a Decision from oracle text.
func DecodeDecision(text string) (*Decision, bool) {
	obj := ExtractJSON(text)
	if obj == nil {
		return nil, false
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	var decision Decision
	if err := json.Unmarshal(raw, &decision); err != nil {
		return nil, false
	}
	return &decision, true
}
