package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestChunk_ConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"Zero_MaxSize", Options{MaxSize: 0, Overlap: 0}},
		{"Negative_Overlap", Options{MaxSize: 100, Overlap: -1}},
		{"Overlap_Equals_MaxSize", Options{MaxSize: 50, Overlap: 50}},
		{"Overlap_Exceeds_MaxSize", Options{MaxSize: 50, Overlap: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Chunk("some text", tt.opts)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestChunk_EmptyText(t *testing.T) {
	_, err := Chunk("   \n  ", Options{MaxSize: 100, Overlap: 10})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	text := "Short note about standups."
	pieces, err := Chunk(text, Options{MaxSize: 100, Overlap: 10})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece, got %d", len(pieces))
	}
	if pieces[0].Text != text || pieces[0].Index != 0 {
		t.Errorf("piece mismatch: %+v", pieces[0])
	}
}

func TestChunk_LongTextOverlapAndOrder(t *testing.T) {
	text := "Budget approvals under $5,000 need team-lead sign-off. Approvals between $5,000 and $50,000 require department-head and finance sign-off."
	pieces, err := Chunk(text, Options{MaxSize: 60, Overlap: 10})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) < 2 || len(pieces) > 3 {
		t.Errorf("expected 2-3 pieces for this text, got %d", len(pieces))
	}
	for i, p := range pieces {
		if p.Index != i {
			t.Errorf("piece %d carries index %d", i, p.Index)
		}
		if len(p.Text) > 60 {
			t.Errorf("piece %d exceeds max size: %d chars", i, len(p.Text))
		}
	}
	// Every word of the source must land in some piece
	joined := strings.Join([]string{pieces[0].Text, pieces[len(pieces)-1].Text}, " ")
	if !strings.Contains(joined, "team-lead") || !strings.Contains(joined, "finance") {
		t.Errorf("coverage gap across pieces: %q", joined)
	}
}

func TestChunk_OverlapCarryStaysWithinMaxSize(t *testing.T) {
	lineA := strings.Repeat("a", 28)
	lineB := strings.Repeat("b", 28)
	lineC := strings.Repeat("c", 28)
	text := strings.Join([]string{lineA, lineB, lineC}, "\n")

	pieces, err := Chunk(text, Options{MaxSize: 40, Overlap: 10})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	for i, p := range pieces {
		if len(p.Text) > 40 {
			t.Errorf("piece %d exceeds max size after overlap carry: %d chars", i, len(p.Text))
		}
	}
	if len(pieces) < 2 {
		t.Fatalf("expected the text to split, got %d piece(s)", len(pieces))
	}
	if !strings.HasPrefix(pieces[1].Text, strings.Repeat("a", 10)) {
		t.Errorf("piece 1 does not start with the previous piece's tail: %q", pieces[1].Text)
	}
}

func TestChunk_OversizedCarryIsDropped(t *testing.T) {
	// parts wide enough that tail + separator + part would breach the
	// limit, so the carry has to be given up
	lineA := strings.Repeat("a", 30)
	lineB := strings.Repeat("b", 30)
	text := lineA + "\n" + lineB

	pieces, err := Chunk(text, Options{MaxSize: 40, Overlap: 10})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	for i, p := range pieces {
		if len(p.Text) > 40 {
			t.Errorf("piece %d exceeds max size: %d chars", i, len(p.Text))
		}
	}
	if len(pieces) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(pieces))
	}
	if strings.Contains(pieces[1].Text, "a") {
		t.Errorf("carry survived even though it could not fit: %q", pieces[1].Text)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("The sprint review happens every other Thursday. ", 20)
	opts := Options{MaxSize: 120, Overlap: 20}

	first, err := Chunk(text, opts)
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	second, _ := Chunk(text, opts)

	if len(first) != len(second) {
		t.Fatalf("piece counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("piece %d differs between runs", i)
		}
	}
}

func TestChunk_HardCutNoSeparators(t *testing.T) {
	text := strings.Repeat("a", 250)
	pieces, err := Chunk(text, Options{MaxSize: 100, Overlap: 10})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(pieces) < 3 {
		t.Errorf("expected at least 3 pieces from hard cut, got %d", len(pieces))
	}
	total := 0
	for _, p := range pieces {
		total += len(p.Text)
	}
	if total < 250 {
		t.Errorf("hard cut dropped characters: covered %d of 250", total)
	}
}
