package openaiEmbedding

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/customHttpClient"
	"github.com/skondray/pmcopilot/internal/rag/embedding"
	"github.com/skondray/pmcopilot/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
}

func GetOpenAIEmbeddingClient(modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		newOpenAIEmbedder(modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return &client{api: embeddingClient.api, model: embeddingClient.model}
}

func newOpenAIEmbedder(modelName string, apikey string) {
	if apikey == "" {
		logger.Error("OpenAI API key is empty")
		return
	}
	c := openai.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.NewPooledClient()),
	)
	embeddingClient = &client{api: c, model: modelName}
	logger.Debug("OpenAI embedding model name: " + modelName)
	logger.Info("OpenAI embedding client created")
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// BatchEmbedding embeds every text in order, splitting over-limit batches
// internally and reassembling results so vectors[i] always belongs to
// chunks[i]. One failed provider call fails the whole batch.
func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.With("trace Id", ctx.Value(config.TRACE_ID_KEY))

	results := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += config.EmbeddingMaxBatchSize {
		end := start + config.EmbeddingMaxBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		vectors, err := c.doCall(ctx, chunks[start:end])
		if err != nil {
			if doRetry(err, log) {
				time.Sleep(5 * time.Second)
				log.Debug("Retrying in 5 seconds")
				vectors, err = c.doCall(ctx, chunks[start:end])
			}
			if err != nil {
				log.Error("Error getting embeddings from OpenAI", "error", err.Error())
				return nil, &embedding.ProviderError{Provider: "openai", Err: err}
			}
		}
		results = append(results, vectors...)
	}

	if len(results) != len(chunks) {
		log.Error("Embedding count mismatch", "want", len(chunks), "got", len(results))
		return nil, &embedding.ProviderError{Provider: "openai", Err: errors.New("provider returned wrong number of embeddings")}
	}
	return results, nil
}

func (c *client) doCall(ctx context.Context, texts []string) ([][]float32, error) {
	res, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(config.EmbeddingDimensionality)),
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(res.Data))
	for _, d := range res.Data {
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}

func doRetry(err error, log *logger_i.Logger) bool {
	var apierr *openai.Error
	if errors.As(err, &apierr) && apierr.StatusCode == http.StatusTooManyRequests {
		log.Error("Rate limit hit! ", "error", err)
		return true
	}
	return false
}
