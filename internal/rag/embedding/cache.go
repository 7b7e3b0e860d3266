package embedding

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/skondray/pmcopilot/pkg/logger_i"
)

// cachedEmbedder wraps another Embedder with a bounded LRU keyed by exact
// text content, so repeated queries and re-ingested chunks never hit the
// provider twice.
type cachedEmbedder struct {
	inner  Embedder
	cache  *lru.Cache[string, []float32]
	logger *logger_i.Logger
}

func Cached(inner Embedder, size int) (Embedder, error) {
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &cachedEmbedder{
		inner:  inner,
		cache:  c,
		logger: logger_i.NewLogger("Embedding Cache"),
	}, nil
}

func (e *cachedEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if v, ok := e.cache.Get(query); ok {
		e.logger.Debug("embedding cache hit")
		return v, nil
	}
	v, err := e.inner.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	e.cache.Add(query, v)
	return v, nil
}

func (e *cachedEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	results := make([][]float32, len(chunks))

	// Only the texts we have never seen go to the provider
	var missing []string
	var missingAt []int
	for i, text := range chunks {
		if v, ok := e.cache.Get(text); ok {
			results[i] = v
			continue
		}
		missing = append(missing, text)
		missingAt = append(missingAt, i)
	}

	if len(missing) == 0 {
		e.logger.Debug("whole batch served from cache", "size", len(chunks))
		return results, nil
	}

	fetched, err := e.inner.BatchEmbedding(ctx, missing)
	if err != nil {
		return nil, err
	}

	for j, v := range fetched {
		results[missingAt[j]] = v
		e.cache.Add(missing[j], v)
	}
	return results, nil
}
