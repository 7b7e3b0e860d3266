package embedding

import (
	"context"
	"errors"
	"testing"
)

type countingEmbedder struct {
	calls     int
	textsSeen []string
	fail      bool
}

func (m *countingEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	v, err := m.BatchEmbedding(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (m *countingEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	m.calls++
	if m.fail {
		return nil, &ProviderError{Provider: "test", Err: errors.New("down")}
	}
	m.textsSeen = append(m.textsSeen, chunks...)
	out := make([][]float32, len(chunks))
	for i, c := range chunks {
		out[i] = []float32{float32(len(c))}
	}
	return out, nil
}

func TestCached_RepeatQueryHitsCache(t *testing.T) {
	inner := &countingEmbedder{}
	e, err := Cached(inner, 16)
	if err != nil {
		t.Fatalf("Cached failed: %v", err)
	}

	ctx := context.Background()
	first, err := e.GetEmbedding(ctx, "who approves budgets?")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	second, _ := e.GetEmbedding(ctx, "who approves budgets?")

	if inner.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", inner.calls)
	}
	if first[0] != second[0] {
		t.Errorf("cache returned a different vector")
	}
}

func TestCached_BatchOnlyFetchesMissing(t *testing.T) {
	inner := &countingEmbedder{}
	e, _ := Cached(inner, 16)
	ctx := context.Background()

	if _, err := e.BatchEmbedding(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("first batch failed: %v", err)
	}

	vectors, err := e.BatchEmbedding(ctx, []string{"b", "c", "a"})
	if err != nil {
		t.Fatalf("second batch failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", inner.calls)
	}
	// Only "c" should have gone out on the second call
	if len(inner.textsSeen) != 3 || inner.textsSeen[2] != "c" {
		t.Errorf("provider saw unexpected texts: %v", inner.textsSeen)
	}
	// Order preserved regardless of cache hits
	if vectors[0][0] != 1 || vectors[1][0] != 1 || vectors[2][0] != 1 {
		t.Errorf("vectors misaligned: %v", vectors)
	}
}

func TestCached_ProviderFailurePropagates(t *testing.T) {
	inner := &countingEmbedder{fail: true}
	e, _ := Cached(inner, 16)

	_, err := e.BatchEmbedding(context.Background(), []string{"x"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Errorf("expected ProviderError, got %v", err)
	}
}
