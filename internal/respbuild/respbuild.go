// Package respbuild implements the Response Builder & Location Metadata
// component of spec.md §4.10: per-source location strings (including
// audio timestamp ranges) and the missing-data detector that vetoes
// otherwise-high-confidence document answers. Grounded on
// document-chunker's char-offset chunk metadata and go-chat-service's
// audio-segment timestamp formatting.
package respbuild

import (
	"fmt"
	"strings"

	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// BuildLocation formats the location string for a chunk-backed source
// (spec.md §4.10): "Chunk #{i+1} | Characters {start}-{end}", optionally
// with an audio-timestamp segment, followed by " | Source: {fileName}".
func BuildLocation(doc ragtypes.Document, chunk ragtypes.Chunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chunk #%d | Characters %d-%d", chunk.ChunkIndex+1, chunk.StartPosition, chunk.EndPosition)

	if segs := doc.AudioSegments(); len(segs) > 0 {
		if start, end, ok := audioRangeForChunk(segs, chunk, doc.Content); ok {
			b.WriteString(" | Audio ")
			b.WriteString(formatTimestamp(start))
			b.WriteString(" - ")
			b.WriteString(formatTimestamp(end))
		}
	}

	fmt.Fprintf(&b, " | Source: %s", doc.FileName)
	return b.String()
}

// audioRangeForChunk finds the audio segments overlapping chunk's char
// range and returns their combined [start,end] timestamp. Segments
// lacking char mappings fall back to substring-matching the chunk's
// normalized content against each segment's normalized text.
func audioRangeForChunk(segs []ragtypes.AudioSegment, chunk ragtypes.Chunk, docContent string) (float64, float64, bool) {
	n := normalize.New("")
	var matched []ragtypes.AudioSegment
	for _, s := range segs {
		if s.HasCharMapping {
			if overlaps(s.StartCharIndex, s.EndCharIndex, chunk.StartPosition, chunk.EndPosition) {
				matched = append(matched, s)
			}
			continue
		}
		normalizedChunk := n.Normalize(chunk.Content)
		normalizedSeg := s.NormalizedText
		if normalizedSeg == "" {
			normalizedSeg = n.Normalize(s.Text)
		}
		if normalizedSeg != "" && strings.Contains(normalizedChunk, normalizedSeg) {
			matched = append(matched, s)
		}
	}
	if len(matched) == 0 {
		return 0, 0, false
	}
	start := matched[0].Start
	end := matched[len(matched)-1].End
	return start, end, true
}

func overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// formatTimestamp renders seconds as HH:MM:SS, or MM:SS when under an
// hour (spec.md §4.10).
func formatTimestamp(totalSeconds float64) string {
	total := int(totalSeconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

const noAnswerMarker = "[NO_ANSWER_FOUND]"

// IsMissing implements the missing-data detector of spec.md §4.10: an
// answer is "missing" if it contains the literal marker, parrots the
// query without adding document-derived tokens, or is textually closer to
// the query than to the sources it's supposedly drawn from.
func IsMissing(query, answer, sourcesText string) bool {
	if strings.Contains(answer, noAnswerMarker) {
		return true
	}
	if answer == "" {
		return true
	}
	n := normalize.New("")
	if parrotsQuery(n, query, answer) {
		return true
	}
	if sourcesText != "" && cosineToQueryExceedsToSources(n, query, answer, sourcesText) {
		return true
	}
	return false
}

// parrotsQuery reports whether answer's token set is a subset of query's
// token set — i.e. the answer adds nothing beyond restating the question.
func parrotsQuery(n *normalize.Normalizer, query, answer string) bool {
	queryWords := tokenSet(n, query)
	answerWords := tokenSet(n, answer)
	if len(answerWords) == 0 {
		return true
	}
	for w := range answerWords {
		if !queryWords[w] {
			return false
		}
	}
	return true
}

func tokenSet(n *normalize.Normalizer, text string) map[string]bool {
	out := map[string]bool{}
	for _, t := range n.Tokenize(text) {
		out[t.Lower] = true
	}
	return out
}

// cosineToQueryExceedsToSources approximates "cosine similarity" with a
// bag-of-words Jaccard overlap (jaccard below), avoiding
// a second embedding call purely to veto an answer.
func cosineToQueryExceedsToSources(n *normalize.Normalizer, query, answer, sourcesText string) bool {
	toQuery := jaccard(n, answer, query)
	toSources := jaccard(n, answer, sourcesText)
	return toQuery > toSources
}

func jaccard(n *normalize.Normalizer, a, b string) float64 {
	setA := tokenSet(n, a)
	setB := tokenSet(n, b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
