package llm

import (
	"fmt"
	"strings"

	"github.com/adrianhensler/botterverse/pkg/config"
)

type Config struct {
	Provider string
	Model    string
	APIKey   string
	APIURL   string
}

// LoadConfig reads the remote provider configuration from LLM_* env vars.
// OPENROUTER_API_KEY is honored as a fallback key source because it is the
// provider most deployments use.
func LoadConfig() Config {
	return Config{
		Provider: config.GetEnv("LLM_PROVIDER", "openrouter"),
		Model:    config.GetEnv("LLM_MODEL", ""),
		APIKey:   config.GetEnv("LLM_API_KEY", config.GetEnv("OPENROUTER_API_KEY", "")),
		APIURL:   config.GetEnv("LLM_API_URL", ""),
	}
}

func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "openrouter":
		return NewOpenRouterProvider(cfg), nil
	case "local", LocalModelName:
		return NewLocalProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
