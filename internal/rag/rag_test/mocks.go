package rag_test

import (
	"context"

	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
)

// MockStore implements vectorDB.Store
type MockStore struct {
	// Control fields to simulate different behaviors
	OnCreateCollection func(ctx context.Context, collection string, dimension int) error
	OnUpsert           func(ctx context.Context, collection string, records []vectorDB.Record) ([]string, error)
	OnQuery            func(ctx context.Context, collection string, vector []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error)
	OnDeleteVector     func(ctx context.Context, collection string, id string) error
}

func (m *MockStore) CreateCollection(ctx context.Context, collection string, dimension int) error {
	if m.OnCreateCollection != nil {
		return m.OnCreateCollection(ctx, collection, dimension)
	}
	return nil
}

func (m *MockStore) Upsert(ctx context.Context, collection string, records []vectorDB.Record) ([]string, error) {
	if m.OnUpsert != nil {
		return m.OnUpsert(ctx, collection, records)
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.Id
	}
	return ids, nil
}

func (m *MockStore) Query(ctx context.Context, collection string, vector []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
	if m.OnQuery != nil {
		return m.OnQuery(ctx, collection, vector, topK, includeVector)
	}
	return nil, nil
}

func (m *MockStore) UpdateVector(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error {
	return nil
}

func (m *MockStore) DeleteVector(ctx context.Context, collection string, id string) error {
	if m.OnDeleteVector != nil {
		return m.OnDeleteVector(ctx, collection, id)
	}
	return nil
}

func (m *MockStore) DeleteCollection(ctx context.Context, collection string) error {
	return nil
}

func (m *MockStore) Describe(ctx context.Context, collection string) (vectorDB.CollectionInfo, error) {
	return vectorDB.CollectionInfo{}, nil
}

func (m *MockStore) ListCollections(ctx context.Context) ([]string, error) {
	return nil, nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, texts)
	}
	// Return dummy vectors matching batch size
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1}
	}
	return vectors, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, query string, matches []string, history []string) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, q string, mth []string, hist []string) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, mth, hist)
	}
	return "mocked llm response", nil
}

// memorySnapshotStore backs the tracker in tests.
type memorySnapshotStore struct {
	data []byte
}

func (m *memorySnapshotStore) Load(ctx context.Context) ([]byte, bool, error) {
	if m.data == nil {
		return nil, false, nil
	}
	return m.data, true, nil
}

func (m *memorySnapshotStore) Save(ctx context.Context, data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}
