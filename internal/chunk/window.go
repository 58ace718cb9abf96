// Package chunk implements the Chunker & Embedder Client (component B):
// splitting cleaned text into overlapping token windows and calling
// out to the embedding service to vectorize each one.
package chunk

import (
	"strings"

	"github.com/archivist-labs/archivist-core/internal/core/domain"
)

// Window size and overlap, in whitespace-delimited tokens.
const (
	WindowSize    = 512
	WindowOverlap = 50
)

// Window splits cleaned text into contiguous, overlapping token
// windows. A "token" is a whitespace-delimited word. Windows slide by
// (WindowSize - WindowOverlap) tokens; the final window holds whatever
// remains. Window is pure and deterministic.
func Window(text string) []domain.Chunk {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	if len(tokens) <= WindowSize {
		return []domain.Chunk{{ChunkIndex: 0, Text: strings.Join(tokens, " ")}}
	}

	stride := WindowSize - WindowOverlap
	var chunks []domain.Chunk
	for start := 0; start < len(tokens); start += stride {
		end := start + WindowSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, domain.Chunk{
			ChunkIndex: len(chunks),
			Text:       strings.Join(tokens[start:end], " "),
		})

		if end == len(tokens) {
			break
		}
	}
	return chunks
}
