package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface on the official genai client.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini API client. endpoint overrides the API base URL.
func NewGeminiProvider(ctx context.Context, apiKey, model, endpoint string, timeout time.Duration) (*GeminiProvider, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{client: cli, model: model}, nil
}

// Generate requests application/json output with the stage's sampling profile.
// A request schema is sent as the response JSON schema.
func (p *GeminiProvider) Generate(ctx context.Context, r Request) (string, error) {
	temperature := float32(r.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: r.System}}},
		Temperature:       &temperature,
		MaxOutputTokens:   int32(maxTokensFor(r)),
		ResponseMIMEType:  "application/json",
	}
	if r.Schema != nil {
		cfg.ResponseJsonSchema = r.Schema
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: r.User}}}}

	resp, err := p.client.Models.GenerateContent(ctx, modelFor(r, p.model), contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text parts in gemini response")
	}
	return sb.String(), nil
}
