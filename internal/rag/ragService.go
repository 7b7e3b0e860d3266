package rag

import (
	"context"
	"errors"
	"time"

	"github.com/skondray/pmcopilot/internal/adapter/utils"
	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/domain/jobModel"
	"github.com/skondray/pmcopilot/internal/metrics"
	"github.com/skondray/pmcopilot/internal/rag/embedding"
	"github.com/skondray/pmcopilot/internal/rag/llm"
	"github.com/skondray/pmcopilot/internal/rag/tracker"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
	"github.com/skondray/pmcopilot/pkg/logger_i"
)

/*
ARCHITECTURE NOTE: OPAQUE INTERFACE PATTERN
---------------------------------------------------------

1. Service (Interface):
  - Real work happens down low bruh
  - This is the PUBLIC contract.
  - It defines the "behavior" (what the worker and handlers can do).
  - We expose this to keep callers decoupled from our specific logic.

2. service (Private Struct):
  - down low stuff
  - This is the PRIVATE implementation.
  - It holds the "state" (vector store, embedder, LLM client, tracker).
  - It is lowercase to prevent external packages from accessing our
    internal dependencies directly.

3. Pointer Receiver (*service):
  - By defining methods on (*service), the struct IMPLICITLY satisfies
    the Service interface.
  - if it quacks like a duck, -it's a duck (Duck Typing)

4. Dependency Injection (NewService):
  - This constructor links the private struct to the public interface.
  - It allows us to swap real DBs for mocks during testing without
    changing the worker's code.
*/

// ErrDuplicateDocument is returned when a documentId is ingested twice.
// Callers delete the old document first if they want to re-ingest.
var ErrDuplicateDocument = errors.New("document already ingested")

// Match is one retrieved passage, already filtered by the score threshold.
type Match struct {
	Id       string
	Text     string
	Score    float32
	Metadata map[string]any
}

// Service is the retrieval engine surface. Worker and handlers only call
// this - they don't need to know the vector backend or the LLM.
type Service interface {
	ProcessRequest(ctx context.Context, job jobModel.Job, messageHistory []string) jobModel.Job
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
	Search(ctx context.Context, query string, topK int, threshold float32) ([]Match, error)
	DeleteDocument(ctx context.Context, documentId string) error
	Documents(ctx context.Context) ([]tracker.DocumentRecord, error)
	Stats(ctx context.Context) (tracker.Stats, error)
}

type service struct {
	store       vectorDB.Store
	llmProvider llm.Provider
	embedder    embedding.Embedder
	tracker     *tracker.Tracker
	cache       *AnswerCache
	logger      *logger_i.Logger
}

// NewService constructor
func NewService(store vectorDB.Store, llmProvider llm.Provider, em embedding.Embedder, tr *tracker.Tracker) Service {
	s := &service{
		store:       store,
		llmProvider: llmProvider,
		embedder:    em,
		tracker:     tr,
		cache:       NewAnswerCache(store),
		logger:      logger_i.NewLogger("RAG Service :"),
	}
	go s.cache.Init(context.Background())
	return s
}

func (s *service) ProcessRequest(ctx context.Context, jobt jobModel.Job, messageHistory []string) jobModel.Job {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", jobt.Id)

	processContext, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	jobt.CurrentStep = jobModel.RAGCall

	// Embedding
	queryVector, err := s.executeEmbeddingStep(processContext, inMethodLogger, &jobt)
	if err != nil {
		return s.jobError(jobt, err, "EMBEDDING_FAILURE", true)
	}

	// Cache Check
	cachedAnswer, found := s.executeCacheCheckStep(ctx, inMethodLogger, &jobt, queryVector)
	if found {
		return returnOutput(jobt, cachedAnswer)
	}

	// Vector DB Search
	matches, err := s.executeVectorSearchStep(processContext, inMethodLogger, &jobt, queryVector)
	if err != nil {
		return s.jobError(jobt, err, "VECTOR_DB_FAILURE", true)
	}

	// LLM Generation
	answer, err := s.executeLLMStep(processContext, inMethodLogger, &jobt, matches, messageHistory)
	if err != nil {
		return s.jobError(jobt, err, "LLM_GENERATION_FAILURE", true)
	}

	//Background Cache Save
	go func() {
		if err := s.cache.SaveToCache(ctx, utils.GetNewUUID(), queryVector, answer); err != nil {
			s.logger.Error("Failed to save to cache")
		}
	}()

	return returnOutput(jobt, answer)
}

// Search embeds the query and returns the top matches above the threshold.
// A question nothing in the knowledge base covers yields an empty slice,
// not an error.
func (s *service) Search(ctx context.Context, query string, topK int, threshold float32) ([]Match, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if topK <= 0 {
		topK = config.DefaultSearchTopK
	}

	queryVector, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.store.Query(ctx, config.KnowledgeBaseName, queryVector, topK, false)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		if r.Score < threshold {
			continue
		}
		text, _ := r.Metadata["text"].(string)
		matches = append(matches, Match{
			Id:       r.Id,
			Text:     text,
			Score:    r.Score,
			Metadata: r.Metadata,
		})
	}
	log.Debug("Search finished", "candidates", len(results), "matches", len(matches))
	return matches, nil
}

// DeleteDocument removes a document's chunks from the knowledge base and
// drops its tracking record. Unknown ids are a no-op.
func (s *service) DeleteDocument(ctx context.Context, documentId string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", documentId)

	record, found, err := s.tracker.GetDocument(ctx, documentId)
	if err != nil {
		return err
	}
	if !found {
		log.Warn("delete requested for unknown document")
		return nil
	}

	for _, chunkId := range record.ChunkIds {
		if err := s.store.DeleteVector(ctx, config.KnowledgeBaseName, chunkId); err != nil {
			if errors.Is(err, vectorDB.ErrCollectionNotFound) {
				break
			}
			return err
		}
	}

	_, err = s.tracker.RemoveDocument(ctx, documentId)
	if err != nil {
		return err
	}
	log.Info("Document deleted", "chunks removed", len(record.ChunkIds))
	return nil
}

func (s *service) Documents(ctx context.Context) ([]tracker.DocumentRecord, error) {
	return s.tracker.GetAllDocuments(ctx)
}

func (s *service) Stats(ctx context.Context) (tracker.Stats, error) {
	return s.tracker.GetStats(ctx)
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("Document_ingestion", time.Since(start)) }()

	j, err := s.processDocumentIngestion(ctx, job)
	if err != nil {
		canRetry := !errors.Is(err, ErrDuplicateDocument)
		return s.jobError(j, err, "INGESTION_FAILURE", canRetry)
	}
	return j
}
