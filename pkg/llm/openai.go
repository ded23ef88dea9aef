package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider speaks the OpenAI-compatible chat completions API. OpenRouter
// and most self-hosted gateways expose the same shape, so this is the base
// remote adapter.
type OpenAIProvider struct {
	client *http.Client
	apiKey string
	apiURL string
}

func NewOpenAIProvider(cfg Config) *OpenAIProvider {
	apiURL := strings.TrimRight(cfg.APIURL, "/")
	if apiURL == "" {
		apiURL = "https://api.openai.com/v1"
	}
	return &OpenAIProvider{
		client: &http.Client{Timeout: 30 * time.Second},
		apiKey: cfg.APIKey,
		apiURL: apiURL,
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	return p.complete(ctx, p.Name(), req)
}

func (p *OpenAIProvider) complete(ctx context.Context, name string, genReq Request) (string, error) {
	if genReq.Model == "" {
		return "", fmt.Errorf("%s: model is required", name)
	}
	if p.apiKey == "" {
		return "", fmt.Errorf("%s: API key is not set", name)
	}

	payload, err := json.Marshal(chatRequest{
		Model:    genReq.Model,
		Messages: genReq.Messages,
	})
	if err != nil {
		return "", fmt.Errorf("%s: marshal request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%s: unexpected status %s: %s", name, resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: response contained no choices", name)
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New(name + ": empty completion")
	}
	return content, nil
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
