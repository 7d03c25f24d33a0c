// Package chunking implements the Chunker of spec.md §4.2: splits
// extracted text into overlapping chunks on sentence boundaries where
// possible, recording char offsets into the source text. Adapted from
// unified-rag-service/rag_implementations.go's createOverlappingChunks and
// document-chunker/main.go's chunking request shape, generalized from a
// single legal-domain strategy into the spec's size-budget contract.
package chunking

import (
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// sentenceBoundary matches ., !, ?, and the Unicode Arabic/Urdu question
// mark as chunk-split candidates (spec.md §4.2).
var sentenceBoundary = regexp.MustCompile(`[.!?؟]`)

// Chunk splits text into an ordered sequence of ragtypes.Chunk, preferring
// sentence boundaries, with overlap bytes duplicated between adjacent
// chunks. documentID and docType are stamped onto every produced chunk;
// the header chunk (index 0) gets no special treatment here — the scoring
// engine applies the chunk-0 preference at query time.
func Chunk(documentID, text string, minSize, maxSize, overlap int, docType ragtypes.DocumentType) []ragtypes.Chunk {
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	if minSize <= 0 || minSize > maxSize {
		minSize = maxSize / 10
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []ragtypes.Chunk
	pos := 0
	idx := 0
	now := time.Now()

	for pos < len(runes) {
		end := pos + maxSize
		if end > len(runes) {
			end = len(runes)
		} else {
			end = preferSentenceBoundary(runes, pos, end, minSize)
		}
		if end <= pos {
			end = pos + 1
		}

		chunks = append(chunks, ragtypes.Chunk{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			ChunkIndex:    idx,
			Content:       string(runes[pos:end]),
			StartPosition: pos,
			EndPosition:   end,
			CreatedAt:     now,
			DocType:       docType,
		})
		idx++

		if end >= len(runes) {
			break
		}
		next := end - overlap
		if next <= pos {
			next = end
		}
		pos = next
	}

	return chunks
}

// preferSentenceBoundary looks backward from the hard cut point `end` for
// the last sentence terminator at or after `start+minSize`, so chunks
// don't end mid-sentence when a natural break is available. If no
// terminator is found past minSize, the hard cut at `end` (maxSize window)
// is used, which also handles the "single sentence exceeds maxSize" edge
// case by falling back to a fixed-size window.
func preferSentenceBoundary(runes []rune, start, end, minSize int) int {
	lowerBound := start + minSize
	if lowerBound >= end {
		return end
	}
	lastTerminator := -1
	for i := lowerBound; i < end; i++ {
		if sentenceBoundary.MatchString(string(runes[i])) {
			lastTerminator = i
		}
	}
	if lastTerminator == -1 {
		return end
	}
	// +1 to include the terminator itself in the chunk.
	return lastTerminator + 1
}
