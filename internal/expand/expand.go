// Package expand implements the Context Expander of spec.md §4.5: given a
// set of scored candidate chunks, pull in neighboring chunks from the same
// document so the response builder and merger see enough surrounding text
// to answer, and bound the final context to a byte budget. Grounded on
// document-chunker's window-merge pass over adjacent chunk indices and
// go-enhanced-rag-service's context-budget truncation loop.
package expand

import (
	"regexp"
	"sort"
	"strings"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

const (
	comprehensiveWindow = 8
	numericSmallSetWindow = 10
	imageHeaderMaxWindow  = 40
	smallCandidateWindow  = 3
	defaultWindow         = 3

	smallCandidateSetSize = 3
	imageHeaderMaxLen     = 500
)

var (
	questionMark   = regexp.MustCompile(`\?`)
	listIndicator  = regexp.MustCompile(`(?i)\b(list|enumerate|all of|each of)\b`)
	numericCurrency = regexp.MustCompile(`[$€£¥]\s*\d|\d+\s*[$€£¥]|\d+[.,]\d+`)
	howWhatQuery    = regexp.MustCompile(`(?i)\b(how|what)\b.*\b(and|or)\b`)
	numericValue    = regexp.MustCompile(`\d`)
)

// SelectWindow picks the expansion window for one query against the full
// candidate set, per spec.md §4.5's ordered rules. found is the chunk the
// window is centered on.
func SelectWindow(query string, candidates []ragtypes.Chunk, found ragtypes.Chunk) int {
	if isImageHeaderChunk(found) {
		return imageHeaderMaxWindow
	}
	if isComprehensiveQuery(query) {
		return comprehensiveWindow
	}
	if isNumericAnswerQuery(query) && len(candidates) <= smallCandidateSetSize {
		return numericSmallSetWindow
	}
	if len(candidates) <= smallCandidateSetSize {
		return smallCandidateWindow
	}
	return defaultWindow
}

func isComprehensiveQuery(query string) bool {
	return questionMark.MatchString(query) || listIndicator.MatchString(query) ||
		numericCurrency.MatchString(query) || howWhatQuery.MatchString(query)
}

func isNumericAnswerQuery(query string) bool {
	return numericValue.MatchString(query)
}

func isImageHeaderChunk(c ragtypes.Chunk) bool {
	return c.IsHeaderChunk() && c.DocType == ragtypes.DocumentTypeImage &&
		len(c.Content) < imageHeaderMaxLen && !numericValue.MatchString(c.Content)
}

// Expand returns found's chunks plus every chunk from the same document
// (looked up in allChunks, which must contain the full chunk set for every
// document referenced by found) whose ChunkIndex falls within window of
// found's ChunkIndex. Expand is idempotent: expanding an already-expanded
// result with the same window and full chunk set yields the same set.
func Expand(found []ragtypes.Chunk, allChunks map[string][]ragtypes.Chunk, window int) []ragtypes.Chunk {
	included := map[string]ragtypes.Chunk{}
	for _, f := range found {
		docChunks := allChunks[f.DocumentID]
		lo, hi := f.ChunkIndex-window, f.ChunkIndex+window
		for _, c := range docChunks {
			if c.ChunkIndex >= lo && c.ChunkIndex <= hi {
				if existing, ok := included[c.ID]; !ok || existing.RelevanceScore < c.RelevanceScore {
					included[c.ID] = c
				}
			}
		}
		// found chunk itself may not have had its index resolvable to a
		// neighbor if allChunks lacks an entry for its document (e.g.
		// tests that pass found directly); ensure it's always present.
		if _, ok := included[f.ID]; !ok {
			included[f.ID] = f
		}
	}

	out := make([]ragtypes.Chunk, 0, len(included))
	for _, c := range included {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out
}

// BuildLimitedContext concatenates chunks in the given order (never
// re-sorted), joined by "\n\n", stopping once maxBytes would be exceeded.
// A final partial chunk is included only if at least 100 bytes of budget
// remain when it's reached.
func BuildLimitedContext(chunks []ragtypes.Chunk, maxBytes int) string {
	const minPartialBytes = 100

	var b strings.Builder
	remaining := maxBytes
	for i, c := range chunks {
		sep := ""
		if i > 0 {
			sep = "\n\n"
		}
		need := len(sep) + len(c.Content)
		if need <= remaining {
			b.WriteString(sep)
			b.WriteString(c.Content)
			remaining -= need
			continue
		}
		if remaining-len(sep) >= minPartialBytes {
			b.WriteString(sep)
			b.WriteString(c.Content[:remaining-len(sep)])
		}
		break
	}
	return b.String()
}
