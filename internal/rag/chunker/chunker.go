package chunker

import (
	"errors"
	"strings"
)

var (
	ErrInvalidConfig = errors.New("chunker: overlap must be smaller than max size and both must be positive")
	ErrEmptyDocument = errors.New("chunker: document text is empty")
)

type Options struct {
	MaxSize int //max characters per chunk
	Overlap int //characters shared between consecutive chunks
}

// Piece is one bounded span of the document, in document order.
type Piece struct {
	Text  string
	Index int
}

// Chunk splits text into bounded, overlapping pieces. It prefers to cut on
// paragraph, line and sentence boundaries before falling back to hard cuts.
// Pure function - same input, same pieces.
func Chunk(text string, opts Options) ([]Piece, error) {
	if opts.MaxSize <= 0 || opts.Overlap < 0 || opts.Overlap >= opts.MaxSize {
		return nil, ErrInvalidConfig
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	parts := split(text, opts.MaxSize, opts.Overlap)

	pieces := make([]Piece, 0, len(parts))
	for i, p := range parts {
		pieces = append(pieces, Piece{Text: p, Index: i})
	}
	return pieces, nil
}

func split(text string, limit int, overlap int) []string {
	// If text is already small enough, just return it
	if len(text) <= limit {
		return []string{text}
	}

	// Separators ordered from "best" to "worst" for semantic meaning
	separators := []string{"\n\n", "\n", ". ", " "}

	var splitChar string
	found := false
	for _, s := range separators {
		if strings.Contains(text, s) {
			splitChar = s
			found = true
			break
		}
	}

	if !found {
		return hardCut(text, limit, overlap)
	}

	var chunks []string
	parts := strings.Split(text, splitChar)
	var currentChunk strings.Builder

	for _, part := range parts {
		// If adding the part exceeds the limit
		if currentChunk.Len()+len(part)+len(splitChar) > limit {
			if currentChunk.Len() > 0 {
				chunks = append(chunks, currentChunk.String())
			}

			// Start the next chunk with the tail of the previous one,
			// unless carrying it would push the next part over the limit
			overlapContent := ""
			if currentChunk.Len() > overlap {
				overlapContent = currentChunk.String()[currentChunk.Len()-overlap:]
			}
			if len(overlapContent)+len(splitChar)+len(part) > limit {
				overlapContent = ""
			}

			currentChunk.Reset()
			currentChunk.WriteString(overlapContent)
		}

		if currentChunk.Len() > 0 {
			currentChunk.WriteString(splitChar)
		}
		// A single oversized part still needs cutting
		if len(part) > limit {
			for _, piece := range hardCut(part, limit, overlap) {
				if currentChunk.Len() > 0 {
					chunks = append(chunks, currentChunk.String())
					currentChunk.Reset()
				}
				currentChunk.WriteString(piece)
			}
			continue
		}
		currentChunk.WriteString(part)
	}

	if currentChunk.Len() > 0 {
		chunks = append(chunks, currentChunk.String())
	}

	return chunks
}

func hardCut(text string, limit int, overlap int) []string {
	var chunks []string
	step := limit - overlap
	for start := 0; start < len(text); start += step {
		end := start + limit
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
