package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Policy governs retries and timeouts for one class of outbound LLM call.
type Policy struct {
	// Base is the first rate-limit back-off; each later one doubles.
	Base time.Duration
	// MaxAttempts bounds total calls made while rate limited.
	MaxAttempts int
	// Timeout applies to each individual call.
	Timeout time.Duration
	// TransientDelay precedes the single retry after a transient network failure.
	TransientDelay time.Duration
	// Sleep waits between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

var (
	// ResearchPolicy applies to web-search research calls.
	ResearchPolicy = Policy{Base: 30 * time.Second, MaxAttempts: 3, Timeout: 60 * time.Second, TransientDelay: 2 * time.Second}
	// ChatPolicy applies to plain chat completions.
	ChatPolicy = Policy{Base: 2 * time.Second, MaxAttempts: 3, Timeout: 15 * time.Second, TransientDelay: 2 * time.Second}
	// SearchChatPolicy applies to chat completions that use web search.
	SearchChatPolicy = Policy{Base: 2 * time.Second, MaxAttempts: 3, Timeout: 60 * time.Second, TransientDelay: 2 * time.Second}
)

// Do runs call under p. Rate limits back off exponentially until MaxAttempts
// calls have been made; a transient failure is retried once after
// TransientDelay; anything else is returned immediately.
func Do[T any](ctx context.Context, p Policy, call func(context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		zero           T
		rateLimited    int
		transientTried bool
	)
	for {
		result, err := attempt(ctx, p.Timeout, call)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}

		switch {
		case IsRateLimited(err):
			rateLimited++
			if rateLimited >= maxAttempts {
				return zero, err
			}
			wait := p.Base << (rateLimited - 1)
			log.Warn().Err(err).Dur("backoff", wait).Int("attempt", rateLimited).Msg("LLM call rate limited")
			if serr := sleep(ctx, wait); serr != nil {
				return zero, err
			}
		case IsTransient(err) && !transientTried:
			transientTried = true
			log.Warn().Err(err).Dur("delay", p.TransientDelay).Msg("transient LLM failure, retrying once")
			if serr := sleep(ctx, p.TransientDelay); serr != nil {
				return zero, err
			}
		default:
			return zero, err
		}
	}
}

func attempt[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := call(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		var zero T
		return zero, &timeoutError{timeout: timeout, err: err}
	}
	return result, err
}

type timeoutError struct {
	timeout time.Duration
	err     error
}

func (e *timeoutError) Error() string   { return "call exceeded " + e.timeout.String() + ": " + e.err.Error() }
func (e *timeoutError) Unwrap() error   { return e.err }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Pacer enforces a pause between sequential work items. Wait blocks until the
// pause since the previous item's Done has elapsed; the first Wait never blocks.
type Pacer interface {
	Wait(ctx context.Context) error
	Done()
}

// NewPacer returns a Pacer with the given gap. A zero interval never waits.
func NewPacer(interval time.Duration) Pacer {
	every := rate.Inf
	if interval > 0 {
		every = rate.Every(interval)
	}
	return &gapPacer{every: every, lim: rate.NewLimiter(every, 1)}
}

type gapPacer struct {
	mu    sync.Mutex
	every rate.Limit
	lim   *rate.Limiter
}

func (p *gapPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	lim := p.lim
	p.mu.Unlock()
	return lim.Wait(ctx)
}

// Done spends the single slot now, so the next Wait sees a full gap however
// long the item took.
func (p *gapPacer) Done() {
	lim := rate.NewLimiter(p.every, 1)
	lim.Allow()
	p.mu.Lock()
	p.lim = lim
	p.mu.Unlock()
}
