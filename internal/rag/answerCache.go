package rag

import (
	"context"
	"time"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/metrics"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
	"github.com/skondray/pmcopilot/pkg/logger_i"
)

// AnswerCache stores finished answers keyed by the question embedding, in a
// collection of its own on whatever backend the engine is running. A lookup
// is a top-1 query with a strict cutoff so only near-identical questions hit.
type AnswerCache struct {
	store  vectorDB.Store
	cutoff float32
	logger *logger_i.Logger
}

func NewAnswerCache(store vectorDB.Store) *AnswerCache {
	return &AnswerCache{
		store:  store,
		cutoff: config.CacheSimilarityCutoff,
		logger: logger_i.NewLogger("AnswerCache"),
	}
}

func (c *AnswerCache) Init(ctx context.Context) {
	err := c.store.CreateCollection(ctx, config.AnswerCacheName, config.EmbeddingDimensionality)
	if err != nil {
		c.logger.Error("Answer cache collection creation failed", "error", err)
	}
}

func (c *AnswerCache) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	loggr := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	results, err := c.store.Query(ctx, config.AnswerCacheName, queryVector, 1, false)
	if err != nil {
		loggr.Error("Cache Query failed", "error", err)
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}

	loggr.Debug("Found cached candidate", "semantic similarity score", results[0].Score)
	if results[0].Score < c.cutoff {
		return "", false, nil
	}

	answer, ok := results[0].Metadata["answer"].(string)
	if !ok {
		return "", false, nil
	}
	loggr.Info("---------------cache hit---------------------")
	metrics.IncrementAnswerCacheHits()
	return answer, true, nil
}

func (c *AnswerCache) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	loggr := c.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	loggr.Debug("Saving answer to cache")
	_, err := c.store.Upsert(ctx, config.AnswerCacheName, []vectorDB.Record{
		{
			Id:     id,
			Vector: vector,
			Metadata: map[string]any{
				"answer":    answer,
				"timestamp": time.Now().Unix(),
			},
		},
	})
	if err != nil {
		loggr.Error("Saving answer to cache failed", "error", err)
	}
	return err
}
