package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.0-flash"

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient returns an unconfigured client when apiKey is empty, so
// the service can still start and answer with the unavailable message.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if apiKey == "" {
		return &GeminiClient{model: model}, nil
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Configured() bool {
	return c != nil && c.client != nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(opts.Temperature)
	if opts.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(opts.MaxOutputTokens)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	return extractText(resp)
}

func (c *GeminiClient) Close() error {
	if c.Configured() {
		return c.client.Close()
	}
	return nil
}

var ErrEmptyResponse = errors.New("llm returned no text")

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", ErrEmptyResponse
	}
	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
