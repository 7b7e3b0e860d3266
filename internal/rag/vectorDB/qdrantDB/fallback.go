package qdrantDB

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
)

// bruteForceQuery fetches every point in the collection and ranks it with
// the same cosine routine the local backend uses. This is what keeps the
// remote backend correct before the native vector index is provisioned.
func (s *Store) bruteForceQuery(ctx context.Context, collection string, vector []float32, topK int, includeVector bool) ([]vectorDB.QueryResult, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: collection,
		Limit:          qdrant.PtrOf(uint32(config.QdrantFallbackScanLimit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fallback scroll failed: %v", vectorDB.ErrStorageUnavailable, err)
	}

	records := make([]vectorDB.Record, 0, len(points))
	for _, p := range points {
		var vec []float32
		if v := p.Vectors.GetVector(); v != nil {
			vec = v.Data
		}
		records = append(records, pointToRecord(p.Payload, vec))
	}

	return vectorDB.BruteForceRank(vector, records, topK, includeVector, logger), nil
}

// pointToRecord recovers the logical record from a scrolled point: the id
// comes back out of the payload, everything else becomes metadata.
func pointToRecord(payload map[string]*qdrant.Value, vector []float32) vectorDB.Record {
	return vectorDB.Record{
		Id:       payload[recordIdKey].GetStringValue(),
		Vector:   vector,
		Metadata: payloadToMetadata(payload),
	}
}

func payloadToMetadata(payload map[string]*qdrant.Value) map[string]any {
	metadata := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == recordIdKey {
			continue
		}
		metadata[k] = valueToAny(v)
	}
	return metadata
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := make([]any, 0, len(kind.ListValue.GetValues()))
		for _, item := range kind.ListValue.GetValues() {
			items = append(items, valueToAny(item))
		}
		return items
	default:
		return nil
	}
}
