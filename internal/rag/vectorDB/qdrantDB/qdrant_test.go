package qdrantDB

import (
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/skondray/pmcopilot/internal/config"
	"github.com/skondray/pmcopilot/internal/rag/vectorDB"
)

func TestPointToRecord_RecoversLogicalId(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		recordIdKey:    "doc-1-chunk-4",
		"text":         "expense reports are due Friday",
		"documentId":   "doc-1",
		"source":       config.KnowledgeBaseName,
		"originalName": "finance.txt",
	})

	record := pointToRecord(payload, []float32{0.1, 0.2})

	if record.Id != "doc-1-chunk-4" {
		t.Errorf("Id got %q, want the logical chunk id", record.Id)
	}
	if _, present := record.Metadata[recordIdKey]; present {
		t.Error("point id key leaked into metadata")
	}
	if record.Metadata["text"] != "expense reports are due Friday" {
		t.Errorf("text metadata lost: %+v", record.Metadata)
	}
	if record.Metadata["documentId"] != "doc-1" || record.Metadata["originalName"] != "finance.txt" {
		t.Errorf("provenance metadata lost: %+v", record.Metadata)
	}
	if len(record.Vector) != 2 {
		t.Errorf("vector not carried: %v", record.Vector)
	}
}

func TestPointToRecord_NilVectorScoresZeroInRanking(t *testing.T) {
	healthy := pointToRecord(qdrant.NewValueMap(map[string]any{recordIdKey: "a", "text": "aligned"}), []float32{1, 0})
	degraded := pointToRecord(qdrant.NewValueMap(map[string]any{recordIdKey: "b", "text": "vector missing"}), nil)

	results := vectorDB.BruteForceRank([]float32{1, 0}, []vectorDB.Record{degraded, healthy}, 2, false, nil)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Id != "a" || results[0].Score < 0.99 {
		t.Errorf("healthy record not ranked first: %+v", results[0])
	}
	if results[1].Id != "b" || results[1].Score != 0 {
		t.Errorf("degraded record should score 0, got %+v", results[1])
	}
}

func TestValueToAny_Kinds(t *testing.T) {
	list := &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{
		Values: []*qdrant.Value{
			{Kind: &qdrant.Value_StringValue{StringValue: "x"}},
			{Kind: &qdrant.Value_IntegerValue{IntegerValue: 7}},
		},
	}}}

	items, ok := valueToAny(list).([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("list conversion wrong: %v", items)
	}
	if items[0] != "x" || items[1] != int64(7) {
		t.Errorf("list elements wrong: %v", items)
	}

	if v := valueToAny(&qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: 0.5}}); v != 0.5 {
		t.Errorf("double conversion got %v", v)
	}
	if v := valueToAny(&qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: true}}); v != true {
		t.Errorf("bool conversion got %v", v)
	}
}

func TestPointId_DeterministicPerLogicalId(t *testing.T) {
	a := pointId("doc-1-chunk-0")
	if a != pointId("doc-1-chunk-0") {
		t.Error("same logical id produced different point ids")
	}
	if a == pointId("doc-1-chunk-1") {
		t.Error("distinct logical ids collided")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("point id is not a valid uuid: %v", err)
	}
}
