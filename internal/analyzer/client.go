package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Request is a single generation call: a system instruction, a user message and
// the sampling profile the calling stage wants.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// Model overrides the provider's default model when non-empty.
	Model string
	// Schema is an optional JSON schema for providers that support constrained output.
	Schema interface{}
}

// Provider is the text generation capability the pipeline stages call.
// Implementations must not keep per-call state, so one Provider can serve
// concurrent requests.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// defaultMaxTokens applies when a Request leaves MaxTokens unset.
const defaultMaxTokens = 4096

// Provider names accepted by NewProvider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderOllama    = "ollama"
	ProviderGemini    = "gemini"
)

// NewProvider creates a Provider from configuration.
// timeoutSec overrides the default HTTP timeout; 0 uses per-provider defaults.
func NewProvider(ctx context.Context, provider, apiKey, model, endpoint string, timeoutSec int) (Provider, error) {
	timeout := func(def time.Duration) time.Duration {
		if timeoutSec > 0 {
			return time.Duration(timeoutSec) * time.Second
		}
		return def
	}

	switch provider {
	case ProviderAnthropic:
		ep := "https://api.anthropic.com/v1"
		if endpoint != "" {
			ep = endpoint
		}
		return &AnthropicProvider{
			apiKey:   apiKey,
			model:    model,
			endpoint: ep,
			client:   &http.Client{Timeout: timeout(120 * time.Second)},
		}, nil
	case ProviderOpenAI, ProviderGroq:
		ep := "https://api.openai.com/v1"
		if provider == ProviderGroq {
			ep = "https://api.groq.com/openai/v1"
		}
		if endpoint != "" {
			ep = endpoint
		}
		return &OpenAIProvider{
			name:     provider,
			apiKey:   apiKey,
			model:    model,
			endpoint: ep,
			client:   &http.Client{Timeout: timeout(120 * time.Second)},
		}, nil
	case ProviderOllama:
		ep := "http://localhost:11434"
		if endpoint != "" {
			ep = endpoint
		}
		return &OllamaProvider{
			model:    model,
			endpoint: ep,
			client:   &http.Client{Timeout: timeout(300 * time.Second)},
		}, nil
	case ProviderGemini:
		return NewGeminiProvider(ctx, apiKey, model, endpoint, timeout(120*time.Second))
	default:
		return nil, fmt.Errorf("unsupported provider: %q", provider)
	}
}

func modelFor(req Request, def string) string {
	if req.Model != "" {
		return req.Model
	}
	return def
}

func maxTokensFor(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}

// postJSON sends body to url and returns the response body of a 200 reply.
func postJSON(ctx context.Context, client *http.Client, name, url string, body interface{}, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s API error %d: %s", name, resp.StatusCode, truncateAPIError(respBody))
	}
	return respBody, nil
}

// --- Anthropic Provider ---

// AnthropicProvider implements the Provider interface for Claude.
type AnthropicProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// Generate calls the Messages API. When the request carries a schema, the
// tool_use mechanism is used to enforce it.
func (p *AnthropicProvider) Generate(ctx context.Context, r Request) (string, error) {
	body := map[string]interface{}{
		"model":       modelFor(r, p.model),
		"max_tokens":  maxTokensFor(r),
		"temperature": r.Temperature,
		"system":      r.System,
		"messages": []map[string]interface{}{
			{"role": "user", "content": r.User},
		},
	}

	if r.Schema != nil {
		body["tools"] = []map[string]interface{}{
			{
				"name":         "record_result",
				"description":  "Record the forensic analysis result as structured JSON",
				"input_schema": r.Schema,
			},
		}
		body["tool_choice"] = map[string]string{"type": "tool", "name": "record_result"}
	}

	respBody, err := postJSON(ctx, p.client, "anthropic", p.endpoint+"/messages", body, map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	// Parse response: handle both text and tool_use content blocks.
	var result struct {
		Content []struct {
			Type  string          `json:"type"`
			Text  string          `json:"text"`
			Input json.RawMessage `json:"input"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("empty response from anthropic")
	}

	// Prefer tool_use block (structured output) over text block.
	for _, block := range result.Content {
		if block.Type == "tool_use" && len(block.Input) > 0 {
			return string(block.Input), nil
		}
	}

	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("no usable content block in anthropic response")
}

// --- OpenAI Provider ---

// OpenAIProvider implements the Provider interface for OpenAI and compatible
// chat completion APIs such as Groq.
type OpenAIProvider struct {
	name     string
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// Generate calls the chat completions endpoint in JSON object mode.
func (p *OpenAIProvider) Generate(ctx context.Context, r Request) (string, error) {
	body := map[string]interface{}{
		"model": modelFor(r, p.model),
		"messages": []map[string]string{
			{"role": "system", "content": r.System},
			{"role": "user", "content": r.User},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     r.Temperature,
		"max_tokens":      maxTokensFor(r),
	}

	name := p.name
	if name == "" {
		name = ProviderOpenAI
	}
	respBody, err := postJSON(ctx, p.client, name, p.endpoint+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	})
	if err != nil {
		return "", err
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", name)
	}

	return result.Choices[0].Message.Content, nil
}

// --- Ollama Provider ---

// OllamaProvider implements the Provider interface for local Ollama.
type OllamaProvider struct {
	model    string
	endpoint string
	client   *http.Client
}

// Generate calls /api/chat with constrained JSON output.
func (p *OllamaProvider) Generate(ctx context.Context, r Request) (string, error) {
	var format interface{} = "json"
	if r.Schema != nil {
		format = r.Schema
	}

	body := map[string]interface{}{
		"model": modelFor(r, p.model),
		"messages": []map[string]string{
			{"role": "system", "content": r.System},
			{"role": "user", "content": r.User},
		},
		"stream": false,
		"format": format,
		"options": map[string]interface{}{
			"temperature": r.Temperature,
			"num_predict": maxTokensFor(r),
		},
	}

	respBody, err := postJSON(ctx, p.client, "ollama", p.endpoint+"/api/chat", body, nil)
	if err != nil {
		return "", err
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	return result.Message.Content, nil
}

// truncateAPIError limits API error response bodies to prevent sensitive information leakage.
// Returns at most 512 bytes of the response for diagnostic purposes.
func truncateAPIError(body []byte) string {
	const maxLen = 512
	if len(body) <= maxLen {
		return string(body)
	}
	return string(body[:maxLen]) + "... (truncated)"
}
