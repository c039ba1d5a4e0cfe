// Package llm provides a pluggable interface for LLM providers.
package llm

import (
	"context"
	"fmt"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/models"
)

// MaxChatTokens caps output for consumer-style platform queries.
const MaxChatTokens = 1024

// CompletionOptions contains options for completion requests.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	Model       string
	// WebSearch asks providers that support it to ground the answer in live search.
	WebSearch bool
}

// DefaultCompletionOptions returns sensible defaults.
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		MaxTokens:   2048,
		Temperature: 0.0,
	}
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete generates a completion for the given prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// CompleteWithSystem generates a completion with a system prompt.
	CompleteWithSystem(ctx context.Context, system, user string, opts CompletionOptions) (string, error)

	// Name returns the provider name.
	Name() string
}

// NewPlatformProvider builds the provider backing one consumer assistant.
// A missing API key yields a ConfigError.
func NewPlatformProvider(p models.Platform, cfg config.PlatformConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, &models.ConfigError{Setting: fmt.Sprintf("platforms.%s.api_key", p)}
	}
	switch p {
	case models.PlatformChatGPT:
		return NewOpenAIProvider(cfg)
	case models.PlatformPerplexity, models.PlatformGrok, models.PlatformMeta:
		return NewCompatProvider(string(p), cfg)
	case models.PlatformGemini:
		return NewGeminiProvider(cfg)
	case models.PlatformClaude:
		return NewAnthropicProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", p)
	}
}

// NewResearchProvider builds the web-search capable provider used for research
// and weekly scans.
func NewResearchProvider(cfg config.ResearchConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, &models.ConfigError{Setting: "research.api_key"}
	}
	pc := config.PlatformConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL}
	switch cfg.Provider {
	case "anthropic":
		p, err := NewAnthropicProvider(pc)
		if err != nil {
			return nil, err
		}
		p.maxSearches = cfg.MaxSearches
		return p, nil
	case "perplexity":
		if pc.BaseURL == "" {
			pc.BaseURL = perplexityBaseURL
		}
		if pc.Model == "" {
			pc.Model = "sonar-pro"
		}
		return NewCompatProvider("perplexity", pc)
	default:
		return nil, fmt.Errorf("unsupported research provider: %s", cfg.Provider)
	}
}
