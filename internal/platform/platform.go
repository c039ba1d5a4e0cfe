// Package platform queries consumer AI assistants about a company and turns each
// reply into a MentionResult.
package platform

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/parser"
)

// Adapter answers the buyer question for one platform.
type Adapter interface {
	Platform() models.Platform
	Label() string
	Query(ctx context.Context, t models.Triple) models.MentionResult
}

type adapter struct {
	platform models.Platform
	provider llm.Provider
	// initErr is set when the provider could not be built, usually a missing key.
	initErr error
	policy  llm.Policy
}

// NewAdapter wraps provider for platform. A nil provider with initErr produces
// results that carry initErr.
func NewAdapter(p models.Platform, provider llm.Provider, initErr error, policy llm.Policy) Adapter {
	return &adapter{platform: p, provider: provider, initErr: initErr, policy: policy}
}

func (a *adapter) Platform() models.Platform { return a.platform }

func (a *adapter) Label() string { return a.platform.Label() }

// Query never returns an error: failures are reported on the result.
func (a *adapter) Query(ctx context.Context, t models.Triple) models.MentionResult {
	result := models.MentionResult{
		Platform:      a.platform,
		PlatformLabel: a.Label(),
		Competitors:   []string{},
	}

	if err := validate(t); err != nil {
		return failed(result, err)
	}
	if a.initErr != nil {
		return failed(result, a.initErr)
	}
	if a.provider == nil {
		return failed(result, &models.ConfigError{Setting: "platforms." + string(a.platform) + ".api_key"})
	}

	prompt := BuildPrompt(t)
	raw, err := llm.Do(ctx, a.policy, func(ctx context.Context) (string, error) {
		return a.provider.Complete(ctx, prompt, llm.CompletionOptions{MaxTokens: llm.MaxChatTokens, Temperature: 0.3})
	})
	if err != nil {
		log.Warn().Err(err).Str("platform", string(a.platform)).Str("company", t.CompanyName).Msg("platform query failed")
		return failed(result, err)
	}

	parsed := parser.Parse(raw, t.CompanyName)
	result.RawResponse = raw
	result.Mentioned = parsed.Mentioned
	result.Position = parsed.Position
	result.Snippet = parsed.Snippet
	result.Competitors = parsed.Competitors
	return result
}

func failed(r models.MentionResult, err error) models.MentionResult {
	msg := err.Error()
	r.Mentioned = false
	r.Position = nil
	r.Snippet = nil
	r.RawResponse = ""
	r.Error = &msg
	return r
}

func validate(t models.Triple) error {
	switch {
	case strings.TrimSpace(t.CompanyName) == "":
		return &models.ValidationError{Field: "companyName", Msg: "is required"}
	case strings.TrimSpace(t.Category) == "":
		return &models.ValidationError{Field: "category", Msg: "is required"}
	case strings.TrimSpace(t.City) == "":
		return &models.ValidationError{Field: "city", Msg: "is required"}
	}
	return nil
}

// Registry holds one adapter per platform.
type Registry struct {
	adapters map[models.Platform]Adapter
	order    []models.Platform
}

// NewRegistry builds a registry from explicit adapters, kept in presentation order.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[models.Platform]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	for _, p := range models.AllPlatforms {
		if _, ok := r.adapters[p]; ok {
			r.order = append(r.order, p)
		}
	}
	return r
}

// NewRegistryFromConfig builds an adapter for every platform. Platforms without
// an API key are still registered and report a configuration error per query.
func NewRegistryFromConfig(cfg *config.Config, obs llm.CallObserver) *Registry {
	var adapters []Adapter
	for _, p := range models.AllPlatforms {
		provider, err := llm.NewPlatformProvider(p, cfg.Platform(p))
		if err != nil {
			var cfgErr *models.ConfigError
			if errors.As(err, &cfgErr) {
				log.Info().Str("platform", string(p)).Msg("platform disabled: no API key")
			} else {
				log.Error().Err(err).Str("platform", string(p)).Msg("platform init failed")
			}
			adapters = append(adapters, NewAdapter(p, nil, err, llm.ChatPolicy))
			continue
		}
		adapters = append(adapters, NewAdapter(p, llm.Instrument(provider, obs), nil, llm.ChatPolicy))
	}
	return NewRegistry(adapters...)
}

// Get returns the adapter for p.
func (r *Registry) Get(p models.Platform) (Adapter, bool) {
	a, ok := r.adapters[p]
	return a, ok
}

// Platforms lists registered platforms in presentation order.
func (r *Registry) Platforms() []models.Platform {
	out := make([]models.Platform, len(r.order))
	copy(out, r.order)
	return out
}

// QueryAll asks every platform in turn. Calls are sequential.
func (r *Registry) QueryAll(ctx context.Context, t models.Triple) []models.MentionResult {
	results := make([]models.MentionResult, 0, len(r.order))
	for _, p := range r.order {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.adapters[p].Query(ctx, t))
	}
	return results
}

// BestPosition returns the best (lowest) position among results that mention the
// company, and whether any did.
func BestPosition(results []models.MentionResult) (*int, bool) {
	var best *int
	mentioned := false
	for _, r := range results {
		if !r.Mentioned {
			continue
		}
		mentioned = true
		if r.Position != nil && (best == nil || *r.Position < *best) {
			v := *r.Position
			best = &v
		}
	}
	return best, mentioned
}
