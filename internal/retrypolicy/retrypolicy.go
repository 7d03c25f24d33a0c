// Package retrypolicy implements the None/Fixed/Linear/Exponential retry
// policies named in spec.md §6/§5, backed by cenkalti/backoff/v5 the way
// the wider retrieval pack leans on real backoff libraries rather than
// hand-rolled sleep loops.
package retrypolicy

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Kind is one of the four configured retry policies.
type Kind string

const (
	None        Kind = "None"
	Fixed       Kind = "Fixed"
	Linear      Kind = "Linear"
	Exponential Kind = "Exponential"
)

// Policy configures retry behavior for one class of external call
// (embedding generation, LLM completion, store access).
type Policy struct {
	Kind           Kind
	MaxAttempts    int
	InitialDelay   time.Duration
	MinInterval    time.Duration // carried with the policy; Do does not apply it
}

// DefaultPolicy mirrors spec.md §6 defaults.
func DefaultPolicy() Policy {
	return Policy{
		Kind:         Exponential,
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
	}
}

// RateLimited is implemented by errors that mark themselves as a provider
// rate-limit signal. Do does not consult it; under Kind == None Do makes
// exactly one attempt whatever isRetryable returns.
type RateLimited interface {
	RateLimited() bool
}

// Do executes fn under p's policy. fn returns (done, error) pairs via the
// standard error return; a nil error means success. isRetryable decides
// whether a non-nil error should be retried at all — when nil, every
// error is retried up to MaxAttempts.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error), isRetryable func(error) bool) (T, error) {
	var zero T
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	b := p.backoffAlgorithm()

	op := func() (T, error) {
		v, err := fn(ctx)
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return zero, backoff.Permanent(err)
		}
		return v, err
	}

	if p.Kind == None {
		return fn(ctx)
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	)
}

func (p Policy) backoffAlgorithm() backoff.BackOff {
	delay := p.InitialDelay
	if delay <= 0 {
		delay = time.Second
	}
	switch p.Kind {
	case Fixed:
		return &constantBackoff{delay: delay}
	case Linear:
		return &linearBackoff{base: delay}
	case Exponential:
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = delay
		return eb
	default:
		return &constantBackoff{delay: delay}
	}
}

type constantBackoff struct{ delay time.Duration }

func (c *constantBackoff) NextBackOff() time.Duration { return c.delay }

type linearBackoff struct {
	base    time.Duration
	attempt int
}

func (l *linearBackoff) NextBackOff() time.Duration {
	l.attempt++
	return l.base * time.Duration(l.attempt)
}
