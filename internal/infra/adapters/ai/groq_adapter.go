package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lms-personalization/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*GroqAdapter)(nil)

// GroqAdapter implements adapter.AIServiceAdapter against Groq's
// OpenAI-compatible gateway. Base URL defaults to
// https://api.groq.com/openai/v1 (configurable); the chat completions path is
// the same as OpenAI's.
type GroqAdapter struct {
	apiKey string
	base   string
	model  string
	client *http.Client
}

func NewGroqAdapter(apiKey, model, base string) (*GroqAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("groq api key empty")
	}
	if model == "" {
		model = "llama3-8b-8192"
	}
	if base == "" {
		base = "https://api.groq.com/openai/v1"
	}
	return &GroqAdapter{
		apiKey: apiKey,
		base:   strings.TrimRight(base, "/"),
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (g *GroqAdapter) ListModels(ctx context.Context) ([]string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, g.base+"/models", nil)
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return []string{g.model}, nil // best-effort, default still works
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return []string{g.model}, nil
	}
	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return []string{g.model}, nil
	}
	out := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		out = append(out, m.ID)
	}
	if len(out) == 0 {
		out = []string{g.model}
	}
	return out, nil
}

func (g *GroqAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	if model == "" {
		model = g.model
	}
	return adapter.ModelInfo{
		Name:        model,
		Description: "Groq OpenAI-compatible model",
		MaxTokens:   0,
		Supports:    []string{"text"},
	}, nil
}

func (g *GroqAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return countTokensApprox("", messages)
}

func (g *GroqAdapter) Generate(ctx context.Context, model string, messages []adapter.Message, params adapter.GenerateParams) (string, adapter.Usage, error) {
	if model == "" {
		model = g.model
	}

	reqBody := struct {
		Model       string            `json:"model"`
		Messages    []adapter.Message `json:"messages"`
		Temperature float64           `json:"temperature,omitempty"`
		MaxTokens   int               `json:"max_tokens,omitempty"`
	}{Model: model, Messages: messages, Temperature: params.Temperature, MaxTokens: params.MaxTokens}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, g.base+"/chat/completions", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", adapter.Usage{}, fmt.Errorf("groq http %d", resp.StatusCode)
	}

	var payload struct {
		Choices []struct {
			Message adapter.Message `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", adapter.Usage{}, err
	}
	usage := adapter.Usage{
		PromptTokens:     payload.Usage.PromptTokens,
		CompletionTokens: payload.Usage.CompletionTokens,
		TotalTokens:      payload.Usage.TotalTokens,
	}
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, usage, nil
		}
	}
	return "", usage, errors.New("no choice content")
}
