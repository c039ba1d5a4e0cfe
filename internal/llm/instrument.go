package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// CallObserver receives one observation per completed provider call.
type CallObserver interface {
	ObserveLLMCall(provider, outcome string)
}

// Outcome labels for CallObserver.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

type instrumented struct {
	Provider
	obs CallObserver
}

// Instrument wraps p so every call is logged at debug level and reported to obs.
func Instrument(p Provider, obs CallObserver) Provider {
	if obs == nil {
		return p
	}
	return &instrumented{Provider: p, obs: obs}
}

func (i *instrumented) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	return i.CompleteWithSystem(ctx, "", prompt, opts)
}

func (i *instrumented) CompleteWithSystem(ctx context.Context, system, user string, opts CompletionOptions) (string, error) {
	start := time.Now()
	out, err := i.Provider.CompleteWithSystem(ctx, system, user, opts)

	outcome := OutcomeOK
	switch {
	case err == nil:
	case IsRateLimited(err):
		outcome = OutcomeRateLimited
	default:
		outcome = OutcomeError
	}
	i.obs.ObserveLLMCall(i.Name(), outcome)

	log.Debug().
		Str("provider", i.Name()).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Bool("web_search", opts.WebSearch).
		Msg("LLM call")

	return out, err
}
