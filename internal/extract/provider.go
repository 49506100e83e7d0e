package extract

import (
	"context"
	"fmt"
)

// ProviderConfig selects a model backend.
type ProviderConfig struct {
	Provider string // gemini | openai
	Model    string
	APIKey   string
	BaseURL  string
}

// NewModelClient builds the ModelClient for the configured provider.
func NewModelClient(ctx context.Context, cfg ProviderConfig) (ModelClient, error) {
	switch cfg.Provider {
	case "", "gemini":
		return NewGeminiClient(ctx, cfg.Model)
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("NewModelClient: unsupported provider %q", cfg.Provider)
	}
}
