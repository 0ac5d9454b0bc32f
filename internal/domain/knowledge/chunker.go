// Package knowledge implements the documentation route: markdown ingestion,
// an in-memory vector index, and retrieval-grounded answer synthesis.
package knowledge

import "strings"

// Chunking defaults. Adjacent chunks of the same source share
// DefaultOverlap units at their boundary.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 350
)

// SplitText splits text into slices of at most chunkSize units, advancing by
// (chunkSize - overlap) units between chunks. A unit is a whitespace-separated
// word (strings.Fields).
//
// Rules:
//   - Empty or whitespace-only input returns nil.
//   - Text shorter than chunkSize returns a single chunk equal to the full text.
//   - overlap must be < chunkSize; if not, overlap is clamped to chunkSize-1.
func SplitText(text string, chunkSize, overlap int) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	if len(tokens) <= chunkSize {
		return []string{strings.Join(tokens, " ")}
	}

	stride := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(tokens); start += stride {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[start:end], " "))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
