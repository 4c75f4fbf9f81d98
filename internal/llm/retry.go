package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/quizzly/internal/logger"
)

// RetryProvider retries transport failures with capped exponential
// backoff. Content problems go back to the caller untouched.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    *logger.Logger
}

// RetryOption customises a RetryProvider.
type RetryOption func(*RetryProvider)

// RetryLogger reports each retry on log.
func RetryLogger(log *logger.Logger) RetryOption {
	return func(r *RetryProvider) {
		if log != nil {
			r.log = log.With("component", "llm-retry")
		}
	}
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig, opts ...RetryOption) Provider {
	r := &RetryProvider{inner: p, config: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	for n := 1; ; n++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if n >= attempts || !retryable(err) {
			return nil, err
		}

		wait := r.delay(n, err)
		// Give up now if the wait would outlast the deadline.
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= wait {
			return nil, err
		}
		r.log.Info("retrying model call",
			append(CallFrom(ctx).logFields(), "try", n, "wait_ms", wait.Milliseconds(), "error", err)...)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether another try could succeed. Errors that carry
// a model reply are final, as are cancellation and rejected credentials.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var (
		auth   *ErrUnauthorized
		maxTok *ErrMaxTokensExceeded
		inv    *ErrInvalidResponse
	)
	return !errors.As(err, &auth) && !errors.As(err, &maxTok) && !errors.As(err, &inv)
}

// delay is the wait before try n+1. A provider's Retry-After wins;
// otherwise the wait grows from InitialWait by Multiplier, capped at
// MaxWait, and half of it is randomised.
func (r *RetryProvider) delay(n int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	base := float64(r.config.InitialWait) * math.Pow(max(r.config.Multiplier, 1), float64(n-1))
	if r.config.MaxWait > 0 {
		base = math.Min(base, float64(r.config.MaxWait))
	}
	if base <= 0 {
		return 0
	}
	return time.Duration(base/2 + rand.Float64()*base/2)
}
