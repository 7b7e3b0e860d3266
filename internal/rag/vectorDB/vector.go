package vectorDB

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/skondray/pmcopilot/pkg/logger_i"
)

var (
	ErrStorageUnavailable = errors.New("vector storage is not initialized or unreachable")
	ErrCollectionNotFound = errors.New("collection does not exist")
)

// Record is one stored chunk: id, vector and opaque metadata.
type Record struct {
	Id       string         `json:"id"`
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata"`
}

type QueryResult struct {
	Id       string
	Score    float32
	Metadata map[string]any
	Vector   []float32
}

type CollectionInfo struct {
	Dimension int
	Count     int
	Metric    string
}

// Store is the backend-agnostic contract both the local file backend and
// the qdrant backend satisfy. Ingestion and search code never learns which
// one it is talking to.
type Store interface {
	CreateCollection(ctx context.Context, collection string, dimension int) error
	Upsert(ctx context.Context, collection string, records []Record) ([]string, error)
	Query(ctx context.Context, collection string, vector []float32, topK int, includeVector bool) ([]QueryResult, error)
	UpdateVector(ctx context.Context, collection string, id string, vector []float32, metadata map[string]any) error
	DeleteVector(ctx context.Context, collection string, id string) error
	DeleteCollection(ctx context.Context, collection string) error
	Describe(ctx context.Context, collection string) (CollectionInfo, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|). The second return is false
// when the inputs are absent, length-mismatched or zero-magnitude, in which
// case the score is 0 - a degraded record, not an error.
func CosineSimilarity(a, b []float32) (float32, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0, false
	}
	return float32(dot / (math.Sqrt(magA) * math.Sqrt(magB))), true
}

// BruteForceRank scores every record against the query vector, sorts by
// score descending and slices top-K. The local backend queries with it and
// the qdrant backend falls back to it, so both produce identical rankings
// for the same stored vectors.
func BruteForceRank(queryVector []float32, records []Record, topK int, includeVector bool, log *logger_i.Logger) []QueryResult {
	results := make([]QueryResult, 0, len(records))
	for _, r := range records {
		score, ok := CosineSimilarity(queryVector, r.Vector)
		if !ok && log != nil {
			log.Warn("degraded similarity, scoring 0", "id", r.Id, "queryDim", len(queryVector), "recordDim", len(r.Vector))
		}
		res := QueryResult{Id: r.Id, Score: score, Metadata: r.Metadata}
		if includeVector {
			res.Vector = r.Vector
		}
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && topK < len(results) {
		results = results[:topK]
	}
	return results
}

// GenerateId fills in ids for records that arrive without one.
func GenerateId(collection string, index int) string {
	return fmt.Sprintf("%s-%d-%d", collection, time.Now().UnixMilli(), index)
}
