package llm

import (
	"context"
	"strings"
)

// OpenRouterProvider routes chat completions through openrouter.ai, which is
// OpenAI-compatible on the wire.
type OpenRouterProvider struct {
	openai *OpenAIProvider
}

func NewOpenRouterProvider(cfg Config) *OpenRouterProvider {
	cfgCopy := cfg
	if strings.TrimSpace(cfgCopy.APIURL) == "" {
		cfgCopy.APIURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		openai: NewOpenAIProvider(cfgCopy),
	}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Generate(ctx context.Context, req Request) (string, error) {
	return p.openai.complete(ctx, p.Name(), req)
}
