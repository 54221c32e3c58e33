package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// StatusError is a non-2xx reply from an OpenAI-compatible endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm response status %d: %s", e.StatusCode, e.Body)
}

// OpenAICompatibleClient talks to any /chat/completions endpoint.
type OpenAICompatibleClient struct {
	httpClient *http.Client
	cfg        ChatConfig
}

func NewOpenAICompatibleClient(cfg ChatConfig) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		cfg:        cfg,
	}
}

func (c *OpenAICompatibleClient) Configured() bool {
	return c != nil && c.cfg.APIKey != "" && c.cfg.BaseURL != "" && c.cfg.Model != ""
}

func (c *OpenAICompatibleClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	return c.Complete(ctx, []ChatMessage{{Role: "user", Content: prompt}}, opts)
}

func (c *OpenAICompatibleClient) Complete(ctx context.Context, messages []ChatMessage, opts GenerateOptions) (string, error) {
	reqBody := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    messages,
		"stream":      false,
		"temperature": opts.Temperature,
	}
	if opts.MaxOutputTokens > 0 {
		reqBody["max_tokens"] = opts.MaxOutputTokens
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}
