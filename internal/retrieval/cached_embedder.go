package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/math-agent/backend/internal/metrics"
	"github.com/math-agent/backend/pkg/logger"
	"github.com/math-agent/backend/pkg/utils"
)

const embeddingTTL = 24 * time.Hour

// EmbeddingCache is the slice of the cache client the embedder wrapper
// needs.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

// CachedEmbedder memoizes embeddings in Redis keyed by question hash.
// Cache failures are logged and fall through to the inner embedder.
type CachedEmbedder struct {
	inner Embedder
	cache EmbeddingCache
}

func NewCachedEmbedder(inner Embedder, cache EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := utils.HashString(text)

	vector, found, err := c.cache.GetEmbedding(ctx, key)
	if err != nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
	} else if found {
		metrics.CacheHits.WithLabelValues("embedding").Inc()
		return vector, nil
	}
	metrics.CacheMisses.WithLabelValues("embedding").Inc()

	vector, err = c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetEmbedding(ctx, key, vector, embeddingTTL); err != nil {
		logger.Warn("Embedding cache write failed", zap.Error(err))
	}

	return vector, nil
}
