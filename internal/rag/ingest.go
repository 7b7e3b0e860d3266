package rag

import (
	"context"
	"fmt"
	"os"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/domain/jobModel"
	"github.com/skondray/pmcopilot/internal/metrics"
	"github.com/skondray/pmcopilot/internal/rag/chunker"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
)

// processDocumentIngestion runs the chunk -> embed -> upsert -> track
// pipeline for one uploaded plain-text document. The chunk id scheme
// "{documentId}-chunk-{index}" is what later ties a tracked document back
// to its vectors for deletion.
func (s *service) processDocumentIngestion(ctx context.Context, job jobModel.Job) (jobModel.Job, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "JobId", job.Id)

	documentId := job.JobPayload.DocumentId
	docName := job.JobPayload.IngestFileName
	docPath := job.JobPayload.IngestURL

	log.Debug("Processing document", "filename", docName, "documentId", documentId)
	job.CurrentStep = jobModel.IngestProcessing

	_, found, err := s.tracker.GetDocument(ctx, documentId)
	if err != nil {
		job.Status = jobModel.JobStatusError
		return job, err
	}
	if found {
		log.Error("Duplicate documentId", "documentId", documentId)
		job.Status = jobModel.JobStatusError
		job.Error.Message = "documentId already ingested, delete it first"
		return job, ErrDuplicateDocument
	}

	content, err := os.ReadFile(docPath)
	if err != nil {
		log.Error("Error reading document content", "error", err)
		job.Status = jobModel.JobStatusError
		job.Error.Message = "Error extracting document content"
		return job, err
	}

	pieces, err := chunker.Chunk(string(content), chunker.Options{
		MaxSize: config.DefaultChunkMaxSize,
		Overlap: config.DefaultChunkOverlap,
	})
	if err != nil {
		log.Error("Error chunking document", "error", err)
		job.Status = jobModel.JobStatusError
		return job, err
	}
	log.Debug("Processing document", "Number of chunks: ", len(pieces))

	err = s.store.CreateCollection(ctx, config.KnowledgeBaseName, config.EmbeddingDimensionality)
	if err != nil {
		log.Error("Error creating collection", "error", err)
		job.Status = jobModel.JobStatusError
		return job, err
	}

	chunkIds, err := s.batchIngest(ctx, documentId, docName, pieces)
	if err != nil {
		log.Error("Error processing document", "error", err)
		job.Status = jobModel.JobStatusError
		return job, err
	}

	// Vectors are in; a lost tracking write would orphan them, so the
	// write gets one retry before the job is failed.
	err = s.tracker.AddDocument(ctx, documentId, docName, len(pieces), chunkIds)
	if err != nil {
		log.Warn("Tracking write failed, retrying once", "error", err)
		err = s.tracker.AddDocument(ctx, documentId, docName, len(pieces), chunkIds)
	}
	if err != nil {
		job.Status = jobModel.JobStatusError
		return job, err
	}

	if err := os.Remove(docPath); err != nil {
		log.Error("Error removing file", "error", err)
	}

	metrics.AddIngestedChunks(len(pieces))
	job.JobPayload.ChunkCount = len(pieces)
	job.Status = jobModel.JobStatusComplete
	return job, nil
}

// batchIngest embeds the pieces in bounded batches and upserts them with
// their text and provenance in the payload. Returns the chunk ids in piece
// order.
func (s *service) batchIngest(ctx context.Context, documentId string, docName string, pieces []chunker.Piece) ([]string, error) {
	batchSize := config.EmbeddingMaxBatchSize
	chunkIds := make([]string, 0, len(pieces))

	for i := 0; i < len(pieces); i += batchSize {
		end := i + batchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		currentBatch := pieces[i:end]

		texts := make([]string, 0, len(currentBatch))
		for _, p := range currentBatch {
			texts = append(texts, p.Text)
		}

		vectors, err := s.embedder.BatchEmbedding(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding batch failed: %w", err)
		}
		if len(vectors) != len(currentBatch) {
			return nil, fmt.Errorf("embedding batch returned %d vectors for %d chunks", len(vectors), len(currentBatch))
		}

		records := make([]vectorDB.Record, 0, len(currentBatch))
		for j, p := range currentBatch {
			records = append(records, vectorDB.Record{
				Id:     fmt.Sprintf("%s-chunk-%d", documentId, p.Index),
				Vector: vectors[j],
				Metadata: map[string]any{
					"text":         p.Text,
					"documentId":   documentId,
					"chunkIndex":   p.Index,
					"source":       config.KnowledgeBaseName,
					"originalName": docName,
				},
			})
		}

		ids, err := s.store.Upsert(ctx, config.KnowledgeBaseName, records)
		if err != nil {
			return nil, fmt.Errorf("upserting batch failed: %w", err)
		}
		chunkIds = append(chunkIds, ids...)
	}

	return chunkIds, nil
}
