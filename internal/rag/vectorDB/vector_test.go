package vectorDB

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
		degraded bool
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0, false},
		{"Opposite", []float32{1, 0}, []float32{-1, 0}, -1.0, false},
		{"Orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0, false},
		{"Length_Mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0, true},
		{"Empty", nil, nil, 0.0, true},
		{"Zero_Magnitude", []float32{0, 0}, []float32{1, 2}, 0.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, ok := CosineSimilarity(tt.a, tt.b)
			if ok == tt.degraded {
				t.Errorf("degraded flag wrong: ok=%v", ok)
			}
			if math.Abs(float64(score-tt.expected)) > 1e-5 {
				t.Errorf("score got %f, want %f", score, tt.expected)
			}
		})
	}
}

func TestBruteForceRank_OrderAndTruncation(t *testing.T) {
	query := []float32{1, 0}
	records := []Record{
		{Id: "far", Vector: []float32{0, 1}},
		{Id: "near", Vector: []float32{1, 0.01}},
		{Id: "exact", Vector: []float32{2, 0}}, //same direction, different magnitude
		{Id: "broken", Vector: []float32{1}},   //dimension mismatch scores 0
	}

	results := BruteForceRank(query, records, 2, false, nil)

	if len(results) != 2 {
		t.Fatalf("expected topK=2 results, got %d", len(results))
	}
	if results[0].Id != "exact" {
		t.Errorf("top result got %s, want exact", results[0].Id)
	}
	if results[0].Score < 0.999 {
		t.Errorf("self-direction score got %f, want ~1.0", results[0].Score)
	}
	if results[1].Id != "near" {
		t.Errorf("second result got %s, want near", results[1].Id)
	}
}

func TestBruteForceRank_IncludeVector(t *testing.T) {
	records := []Record{{Id: "a", Vector: []float32{1, 2}}}

	with := BruteForceRank([]float32{1, 2}, records, 1, true, nil)
	without := BruteForceRank([]float32{1, 2}, records, 1, false, nil)

	if with[0].Vector == nil {
		t.Error("vector missing when includeVector=true")
	}
	if without[0].Vector != nil {
		t.Error("vector leaked when includeVector=false")
	}
}
