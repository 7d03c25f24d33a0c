// Package embeddings implements the Embedding Client of spec.md §2: wraps
// an aiprovider.Provider to produce fixed-dim vectors, batched,
// rate-limited, and retrying. Grounded on
// go-enhanced-rag-service/embedding_service.go's batch/cache/retry shape
// and unified-rag-service's generateEmbeddingViaOllama, generalized behind
// the aiprovider.Provider interface instead of a single hardcoded Ollama
// client.
package embeddings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
	"github.com/smartrag/smartrag-core/internal/tracing"
)

// Client batches embedding requests up to BatchSize and enforces
// MinInterval between provider calls (spec.md §5 "Token-bucket-style
// minimum interval").
type Client struct {
	provider  *aiprovider.Factory
	logger    *zap.Logger
	retry     retrypolicy.Policy
	batchSize int

	minInterval time.Duration
	mu          sync.Mutex
	lastCall    time.Time
}

// Config parameterizes a Client.
type Config struct {
	BatchSize   int           // provider-specific cap, default 32
	MinInterval time.Duration // EmbeddingMinIntervalMs, 0 disables
	Retry       retrypolicy.Policy
}

func New(provider *aiprovider.Factory, cfg Config, logger *zap.Logger) *Client {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &Client{
		provider:    provider,
		logger:      logger,
		retry:       cfg.Retry,
		batchSize:   cfg.BatchSize,
		minInterval: cfg.MinInterval,
	}
}

// Embed generates embeddings for texts, batching up to BatchSize at a
// time and honoring MinInterval between provider calls. On partial
// failure within a batch, the whole batch is reported failed —
// individual-item partial success is not surfaced since embeddings must
// align positionally with their source chunks.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := tracing.Start(ctx, "embeddings.embedBatch")
	defer span.End()

	c.throttle()

	results := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w", ragerr.ErrCancelled)
		default:
		}
		vec, err := retrypolicy.Do(ctx, c.retry, func(ctx context.Context) ([]float32, error) {
			c.throttle()
			return c.provider.GenerateEmbedding(ctx, text)
		}, nil)
		if err != nil {
			if c.logger != nil {
				c.logger.Error("embedding generation failed", zap.Error(err))
			}
			return nil, fmt.Errorf("%w: %v", ragerr.ErrProviderUnavailable, err)
		}
		results[i] = vec
	}
	return results, nil
}

// throttle enforces MinInterval by sleeping if the previous call
// happened too recently. A token-bucket of size 1.
func (c *Client) throttle() {
	if c.minInterval <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.lastCall)
	if elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastCall = time.Now()
}
