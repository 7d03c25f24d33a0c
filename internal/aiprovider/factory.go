package aiprovider

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
)

// Factory owns a primary provider plus an optional fallback chain,
// replacing the teacher's global client constants (OllamaBaseURL, etc.)
// with constructor-injected configuration per SPEC_FULL.md's "global
// singletons become constructor-injected config" design note.
type Factory struct {
	providers       []Provider
	enableFallback  bool
	retry           retrypolicy.Policy
	logger          *zap.Logger
}

// NewFactory builds a Factory. providers[0] is primary; the rest are tried
// in order only when enableFallback is true and a call on a prior
// provider exhausts its retry policy.
func NewFactory(providers []Provider, enableFallback bool, retry retrypolicy.Policy, logger *zap.Logger) *Factory {
	return &Factory{providers: providers, enableFallback: enableFallback, retry: retry, logger: logger}
}

// Primary returns the configured provider actually reported in
// RagResponse.Configuration (spec.md §7).
func (f *Factory) Primary() Provider {
	if len(f.providers) == 0 {
		return nil
	}
	return f.providers[0]
}

// GenerateText dispatches to the primary provider, retrying per policy,
// then falling through the configured chain when EnableFallbackProviders
// is set.
func (f *Factory) GenerateText(ctx context.Context, prompt string, cfg GenerationConfig) (string, error) {
	return callWithFallback(f, ctx, func(p Provider) (string, error) {
		return retrypolicy.Do(ctx, f.retry, func(ctx context.Context) (string, error) {
			return p.GenerateText(ctx, prompt, cfg)
		}, nil)
	})
}

// GenerateEmbedding dispatches identically to GenerateText.
func (f *Factory) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return callWithFallback(f, ctx, func(p Provider) ([]float32, error) {
		return retrypolicy.Do(ctx, f.retry, func(ctx context.Context) ([]float32, error) {
			return p.GenerateEmbedding(ctx, text)
		}, nil)
	})
}

// callWithFallback is a free function (not a method) so it can be generic
// over the result type without Go's lack of generic methods.
func callWithFallback[T any](f *Factory, ctx context.Context, call func(Provider) (T, error)) (T, error) {
	var zero T
	if len(f.providers) == 0 {
		return zero, fmt.Errorf("%w: no AI providers configured", ragerr.ErrInvalidConfiguration)
	}
	var lastErr error
	limit := 1
	if f.enableFallback {
		limit = len(f.providers)
	}
	for i := 0; i < limit; i++ {
		p := f.providers[i]
		v, err := call(p)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if f.logger != nil {
			f.logger.Warn("ai provider call failed",
				zap.String("provider", string(p.Kind())),
				zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("%w", ragerr.ErrCancelled)
		default:
		}
	}
	return zero, fmt.Errorf("%w: %v", ragerr.ErrProviderUnavailable, lastErr)
}
