package llm

import (
	"fmt"
	"strings"
	"time"
)

// FactoryConfig selects and configures a completion provider.
type FactoryConfig struct {
	Provider string // "openai" or "gemini"
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New builds the completion client for the configured provider.
func New(cfg FactoryConfig) (CompletionClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai", "":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown completion provider: %q", cfg.Provider)
	}
}
