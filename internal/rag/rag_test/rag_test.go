package rag_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/domain/jobModel"
	"github.com/skondray/pmcopilot/internal/rag"
	"github.com/skondray/pmcopilot/internal/rag/tracker"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
)

func newTestService(store *MockStore, llm *MockLLM, embedder *MockEmbedder) rag.Service {
	return rag.NewService(store, llm, embedder, tracker.NewTracker(&memorySnapshotStore{}))
}

func knowledgeBaseResults() []vectorDB.QueryResult {
	return []vectorDB.QueryResult{
		{
			Id:    "doc-1-chunk-0",
			Score: 0.9,
			Metadata: map[string]any{
				"text":         "PTO requests need manager approval",
				"source":       config.KnowledgeBaseName,
				"originalName": "hr-policy.txt",
			},
		},
	}
}

func TestProcessRequest_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		setupMocks     func(e *MockEmbedder, v *MockStore, l *MockLLM)
		expectedStatus jobModel.JobStatus
		expectedAnswer string
		expectedErr    string
	}{
		{
			name: "Success_Full_Flow",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, collection string, vec []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
					if collection == config.AnswerCacheName {
						return nil, nil
					}
					return knowledgeBaseResults(), nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "final answer",
		},
		{
			name: "Success_Cache_Hit",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, collection string, vec []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
					if collection == config.AnswerCacheName {
						return []vectorDB.QueryResult{
							{Id: "cached", Score: 0.99, Metadata: map[string]any{"answer": "cached answer"}},
						}, nil
					}
					t.Error("knowledge base queried despite cache hit")
					return nil, nil
				}
			},
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "cached answer",
		},
		{
			name: "Cache_Below_Cutoff_Falls_Through",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, collection string, vec []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
					if collection == config.AnswerCacheName {
						return []vectorDB.QueryResult{
							{Id: "cached", Score: 0.8, Metadata: map[string]any{"answer": "stale answer"}},
						}, nil
					}
					return knowledgeBaseResults(), nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "fresh answer", nil
				}
			},
			expectedStatus: jobModel.JobStatusQueued,
			expectedAnswer: "fresh answer",
		},
		{
			name: "Failure_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "EMBEDDING_FAILURE",
		},
		{
			name: "Failure_Vector_Search",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, collection string, vec []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
					if collection == config.AnswerCacheName {
						return nil, nil
					}
					return nil, errors.New("db timeout")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "VECTOR_DB_FAILURE",
		},
		{
			name: "Failure_LLM_Generation",
			setupMocks: func(e *MockEmbedder, v *MockStore, l *MockLLM) {
				v.OnQuery = func(ctx context.Context, collection string, vec []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
					if collection == config.AnswerCacheName {
						return nil, nil
					}
					return knowledgeBaseResults(), nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStatus: jobModel.JobStatusError,
			expectedErr:    "LLM_GENERATION_FAILURE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mStore := &MockStore{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mStore, mLLM)

			s := newTestService(mStore, mLLM, mEmbed)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			job := jobModel.Job{
				Id:     "test-job",
				Status: jobModel.JobStatusQueued,
				JobPayload: jobModel.JobPayload{
					Question: "what is the PTO policy?",
				},
			}

			result := s.ProcessRequest(ctx, job, []string{})

			if result.Status != tt.expectedStatus {
				t.Errorf("Status got %v, want %v", result.Status, tt.expectedStatus)
			}

			if tt.expectedAnswer != "" && result.JobPayload.Answer != tt.expectedAnswer {
				t.Errorf("Answer got %s, want %s", result.JobPayload.Answer, tt.expectedAnswer)
			}

			if tt.expectedErr != "" && result.Error.Code != http.StatusInternalServerError {
				t.Errorf("Error Code got %d, want %s", result.Error.Code, tt.expectedErr)
			}
		})
	}
}

func TestProcessRequest_SourcesCarriedToPayload(t *testing.T) {
	mStore := &MockStore{
		OnQuery: func(ctx context.Context, collection string, vec []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
			if collection == config.AnswerCacheName {
				return nil, nil
			}
			return knowledgeBaseResults(), nil
		},
	}
	s := newTestService(mStore, &MockLLM{}, &MockEmbedder{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	result := s.ProcessRequest(ctx, jobModel.Job{
		Id:         "test-job",
		Status:     jobModel.JobStatusQueued,
		JobPayload: jobModel.JobPayload{Question: "who approves PTO?"},
	}, nil)

	if len(result.JobPayload.Sources) != 1 || result.JobPayload.Sources[0] != "hr-policy.txt" {
		t.Errorf("Sources got %v, want [hr-policy.txt]", result.JobPayload.Sources)
	}
}

func TestSearch_ThresholdAndAlignment(t *testing.T) {
	mStore := &MockStore{
		OnQuery: func(ctx context.Context, collection string, vec []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
			return []vectorDB.QueryResult{
				{Id: "a", Score: 0.9, Metadata: map[string]any{"text": "strong match"}},
				{Id: "b", Score: 0.5, Metadata: map[string]any{"text": "weak match"}},
				{Id: "c", Score: 0.2, Metadata: map[string]any{"text": "noise"}},
			}, nil
		},
	}
	s := newTestService(mStore, &MockLLM{}, &MockEmbedder{})

	matches, err := s.Search(context.Background(), "query", 3, 0.4)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches above threshold, got %d", len(matches))
	}
	if matches[0].Id != "a" || matches[0].Text != "strong match" || matches[0].Score != 0.9 {
		t.Errorf("first match misaligned: %+v", matches[0])
	}
	if matches[1].Id != "b" || matches[1].Text != "weak match" {
		t.Errorf("second match misaligned: %+v", matches[1])
	}
}

func TestSearch_NoMatchesIsNotAnError(t *testing.T) {
	s := newTestService(&MockStore{}, &MockLLM{}, &MockEmbedder{})

	matches, err := s.Search(context.Background(), "unrelated question", 3, 0.3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func writeIngestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing ingest file: %v", err)
	}
	return path
}

func ingestJob(documentId string, path string) jobModel.Job {
	return jobModel.Job{
		Id:      "job-" + documentId,
		JobType: jobModel.JobTypeIngest,
		Status:  jobModel.JobStatusQueued,
		JobPayload: jobModel.JobPayload{
			DocumentId:     documentId,
			IngestFileName: "handbook.txt",
			IngestURL:      path,
		},
	}
}

func TestIngestDocument_Success(t *testing.T) {
	var upserted []vectorDB.Record
	mStore := &MockStore{
		OnUpsert: func(ctx context.Context, collection string, records []vectorDB.Record) ([]string, error) {
			if collection != config.KnowledgeBaseName {
				t.Errorf("upsert went to %s", collection)
			}
			upserted = append(upserted, records...)
			ids := make([]string, len(records))
			for i, r := range records {
				ids[i] = r.Id
			}
			return ids, nil
		},
	}
	s := newTestService(mStore, &MockLLM{}, &MockEmbedder{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "ingest-trace")
	path := writeIngestFile(t, "remote work requires team lead signoff")

	result := s.IngestDocument(ctx, ingestJob("doc-1", path))

	if result.Status != jobModel.JobStatusComplete {
		t.Fatalf("Status got %v, want Complete (error: %+v)", result.Status, result.Error)
	}
	if result.JobPayload.ChunkCount != 1 {
		t.Errorf("ChunkCount got %d, want 1", result.JobPayload.ChunkCount)
	}
	if len(upserted) != 1 || upserted[0].Id != "doc-1-chunk-0" {
		t.Errorf("upserted records wrong: %+v", upserted)
	}
	if upserted[0].Metadata["documentId"] != "doc-1" || upserted[0].Metadata["originalName"] != "handbook.txt" {
		t.Errorf("chunk metadata wrong: %+v", upserted[0].Metadata)
	}
	if upserted[0].Metadata["source"] != config.KnowledgeBaseName {
		t.Errorf("source metadata got %v, want the collection name", upserted[0].Metadata["source"])
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("uploaded file not cleaned up after ingestion")
	}

	docs, err := s.Documents(ctx)
	if err != nil {
		t.Fatalf("Documents failed: %v", err)
	}
	if len(docs) != 1 || docs[0].DocumentId != "doc-1" {
		t.Errorf("tracker state wrong: %+v", docs)
	}
}

func TestIngestDocument_DuplicateRejected(t *testing.T) {
	s := newTestService(&MockStore{}, &MockLLM{}, &MockEmbedder{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "dup-trace")

	first := s.IngestDocument(ctx, ingestJob("doc-1", writeIngestFile(t, "original content")))
	if first.Status != jobModel.JobStatusComplete {
		t.Fatalf("first ingest failed: %+v", first.Error)
	}

	second := s.IngestDocument(ctx, ingestJob("doc-1", writeIngestFile(t, "replacement content")))
	if second.Status != jobModel.JobStatusError {
		t.Fatal("duplicate documentId accepted")
	}
	if second.Error.Retry {
		t.Error("duplicate rejection should not be retryable")
	}
}

func TestIngestDocument_Failures(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(e *MockEmbedder, v *MockStore)
	}{
		{
			name: "Failure_Collection_Creation",
			setupMocks: func(e *MockEmbedder, v *MockStore) {
				v.OnCreateCollection = func(ctx context.Context, collection string, dimension int) error {
					return errors.New("connection refused")
				}
			},
		},
		{
			name: "Failure_Batch_Embedding",
			setupMocks: func(e *MockEmbedder, v *MockStore) {
				e.OnBatchEmbedding = func(ctx context.Context, texts []string) ([][]float32, error) {
					return nil, errors.New("api limit")
				}
			},
		},
		{
			name: "Failure_Batch_Upsert",
			setupMocks: func(e *MockEmbedder, v *MockStore) {
				v.OnUpsert = func(ctx context.Context, collection string, records []vectorDB.Record) ([]string, error) {
					return nil, errors.New("disk full")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mStore := &MockStore{}
			tt.setupMocks(mEmbed, mStore)

			s := newTestService(mStore, &MockLLM{}, mEmbed)
			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "fail-trace")

			result := s.IngestDocument(ctx, ingestJob("doc-x", writeIngestFile(t, "some text")))
			if result.Status != jobModel.JobStatusError {
				t.Errorf("Status got %v, want Error", result.Status)
			}
			if result.Error.Code != http.StatusInternalServerError {
				t.Errorf("Error code got %d", result.Error.Code)
			}
		})
	}
}

func TestDeleteDocument_RemovesOnlyItsChunks(t *testing.T) {
	var deleted []string
	mStore := &MockStore{
		OnDeleteVector: func(ctx context.Context, collection string, id string) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	s := newTestService(mStore, &MockLLM{}, &MockEmbedder{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "del-trace")

	s.IngestDocument(ctx, ingestJob("keep", writeIngestFile(t, "keep me around")))
	s.IngestDocument(ctx, ingestJob("drop", writeIngestFile(t, "drop me entirely")))

	if err := s.DeleteDocument(ctx, "drop"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	for _, id := range deleted {
		if id == "keep-chunk-0" {
			t.Error("deletion touched another document's chunks")
		}
	}
	if len(deleted) != 1 || deleted[0] != "drop-chunk-0" {
		t.Errorf("deleted ids wrong: %v", deleted)
	}

	docs, _ := s.Documents(ctx)
	if len(docs) != 1 || docs[0].DocumentId != "keep" {
		t.Errorf("tracker state after delete wrong: %+v", docs)
	}

	stats, _ := s.Stats(ctx)
	if stats.TotalDocuments != 1 || stats.TotalChunks != 1 {
		t.Errorf("stats after delete wrong: %+v", stats)
	}
}

func TestDeleteDocument_UnknownIsNoOp(t *testing.T) {
	s := newTestService(&MockStore{}, &MockLLM{}, &MockEmbedder{})
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "del-trace")

	if err := s.DeleteDocument(ctx, "never-ingested"); err != nil {
		t.Errorf("unknown document delete should be a no-op, got %v", err)
	}
}
