package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/internal/agent/telemetry"
)

// NewLLMProvider creates an oracle provider based on configuration.
func NewLLMProvider(cfg config.LLMConfig, tel *telemetry.Telemetry) (LLMProvider, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	for _, provider := range cfg.Providers {
		switch provider.Type {
		case "openai":
			return NewOpenAIProvider(provider, cfg.Routing, tel), nil
		default:
			return nil, fmt.Errorf("unsupported LLM provider type: %s", provider.Type)
		}
	}

	return nil, fmt.Errorf("no valid LLM providers found")
}

// OpenAIProvider implements LLMProvider against any OpenAI-compatible chat
// completions endpoint.
type OpenAIProvider struct {
	config    config.LLMProvider
	routing   config.LLMRoutingConfig
	telemetry *telemetry.Telemetry
	client    *http.Client
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg config.LLMProvider, routing config.LLMRoutingConfig, tel *telemetry.Telemetry) *OpenAIProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		config:    cfg,
		routing:   routing,
		telemetry: tel,
		client:    &http.Client{Timeout: timeout},
	}
}

// Complete sends the prompt and returns the raw completion text. When
// useExtendedReasoning is set a reasoning-capable model is preferred, which is
// why callers must tolerate thinking text before the JSON payload.
func (p *OpenAIProvider) Complete(ctx context.Context, phase, prompt string, useExtendedReasoning bool) (string, error) {
	apiKey := p.config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	modelKey, m, err := p.modelFor(phase, useExtendedReasoning)
	if err != nil {
		return "", err
	}
	apiModel := m.APIName
	if apiModel == "" {
		apiModel = m.Name
	}

	type chatMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type chatReq struct {
		Model       string    `json:"model"`
		Messages    []chatMsg `json:"messages"`
		Temperature float64   `json:"temperature,omitempty"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
	}

	body, err := json.Marshal(chatReq{
		Model:       apiModel,
		Messages:    []chatMsg{{Role: "user", Content: prompt}},
		Temperature: m.Temperature,
		MaxTokens:   m.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	baseURL := p.config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OpenAI status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices")
	}

	if p.telemetry != nil {
		inTok := int64(out.Usage.PromptTokens)
		outTok := int64(out.Usage.CompletionTokens)
		cost := float64(inTok)/1000.0*m.CostPer1K + float64(outTok)/1000.0*m.CostPer1KOutput
		p.telemetry.RecordLLMUsage(modelKey, inTok, outTok, cost)
	}

	return out.Choices[0].Message.Content, nil
}

// modelFor picks a configured model: a reasoning-capable one when extended
// reasoning is requested, else the model routed for the phase, else the
// fallback route, else anything configured.
func (p *OpenAIProvider) modelFor(phase string, useExtendedReasoning bool) (string, config.LLMModel, error) {
	if len(p.config.Models) == 0 {
		return "", config.LLMModel{}, fmt.Errorf("no models configured")
	}

	if useExtendedReasoning {
		for key, m := range p.config.Models {
			if m.Reasoning {
				return key, m, nil
			}
		}
	}

	var routed string
	switch phase {
	case "plan":
		routed = p.routing.Planning
	case "decision":
		routed = p.routing.Decision
	case "synthesis":
		routed = p.routing.Synthesis
	}
	for _, key := range []string{routed, p.routing.Fallback} {
		if m, ok := p.config.Models[key]; ok {
			return key, m, nil
		}
	}
	for key, m := range p.config.Models {
		return key, m, nil
	}
	return "", config.LLMModel{}, fmt.Errorf("no models configured")
}
