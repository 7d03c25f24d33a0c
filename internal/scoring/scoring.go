// Package scoring implements the Hybrid Scoring & Retrieval Engine of
// spec.md §4.4: dense vector similarity combined with keyword/phrase
// scoring, document-level aggregation, and filename/entity-match
// prioritization. Grounded on unified-rag-service's hybrid SQL scoring
// expression (0.7/0.3 weighting of vector distance + ts_rank) and
// andevellicus-stats-agent's rag/query_hybrid.go candidate-merge shape,
// generalized to the exact 0.8/0.2 weighting and chunk-0 bonus spec.md
// requires.
package scoring

import (
	"sort"
	"strings"

	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

const (
	semanticWeight = 0.8
	keywordWeight  = 0.2

	// headerChunkBonus is the chunk-0 filename-match multiplier (capped
	// at 1.0 overall).
	headerChunkBonus = 1.2

	// phraseBonus/uniqueWordBonus are the keyword-score bonuses of
	// spec.md §4.4 step 2.
	phraseBonus     = 0.15
	uniqueWordBonus = 0.1

	// TopNChunksPerDocument bounds document-level aggregation.
	TopNChunksPerDocument = 5

	// StrongDocumentMatchThreshold is compared against a document's
	// aggregate: the sum of its top TopNChunksPerDocument chunk scores
	// (each capped at 1.0 after the chunk-0 bonus, so at most 5.0) plus
	// one point per query word found in no other document's chunks.
	StrongDocumentMatchThreshold = 4.8

	// relevanceFloor filters chunks with RelevanceScore below this
	// before returning (spec.md §4.4 edge cases).
	relevanceFloor = 0.1

	// relevantDocumentRatio: documents within this fraction of the top
	// aggregate score are kept as "relevant" alongside the top document.
	relevantDocumentRatio = 0.8
)

// Engine scores candidate chunks for one query. It is stateless and safe
// for concurrent use; normalize.Normalizer instances are cheap to share.
type Engine struct {
	normalizer *normalize.Normalizer
}

func New(normalizer *normalize.Normalizer) *Engine {
	return &Engine{normalizer: normalizer}
}

// The chunk-0 entity-match bonus reads the owning document's file name
// from Chunk.FileName rather than making a store round-trip; callers
// populate Chunk.FileName ahead of time (docstore does this when it
// returns search results).

// Score computes RelevanceScore for every candidate chunk against query,
// using queryEmbedding for the semantic term (nil/empty falls back to
// keyword-only per spec.md §4.4). Chunks below relevanceFloor are
// dropped. The returned slice is not sorted; callers needing document
// aggregation should call AggregateByDocument.
func (e *Engine) Score(query string, queryEmbedding []float32, candidates []ragtypes.Chunk) []ragtypes.Chunk {
	if len(candidates) == 0 {
		return nil
	}

	queryTokens := e.normalizer.Tokenize(query)
	queryWords := make([]string, 0, len(queryTokens))
	seen := map[string]bool{}
	for _, t := range queryTokens {
		if !seen[t.Lower] {
			seen[t.Lower] = true
			queryWords = append(queryWords, t.Lower)
		}
	}
	phrases := e.normalizer.Phrases(query, 2)
	entities := e.normalizer.ExtractEntityCandidates(query)

	// uniqueAcrossDocuments: a query word is "unique" to a document if
	// it appears in exactly one distinct documentId among candidates.
	wordDocCount := map[string]map[string]bool{}
	for _, c := range candidates {
		lowerContent := strings.ToLower(c.Content)
		for _, w := range queryWords {
			if strings.Contains(lowerContent, w) {
				if wordDocCount[w] == nil {
					wordDocCount[w] = map[string]bool{}
				}
				wordDocCount[w][c.DocumentID] = true
			}
		}
	}

	out := make([]ragtypes.Chunk, 0, len(candidates))
	for _, c := range candidates {
		s := Cosine(queryEmbedding, c.Embedding)
		k := e.keywordScore(c, queryWords, phrases, wordDocCount)

		score := semanticWeight*s + keywordWeight*k

		if c.IsHeaderChunk() && fileNameMatchesEntity(c.FileName, entities) {
			score *= headerChunkBonus
			if score > 1.0 {
				score = 1.0
			}
		}

		if score < relevanceFloor {
			continue
		}
		out = append(out, c.WithScore(score))
	}
	return out
}

func (e *Engine) keywordScore(c ragtypes.Chunk, queryWords, phrases []string, wordDocCount map[string]map[string]bool) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	lowerContent := strings.ToLower(c.Content)

	matched := 0
	for _, w := range queryWords {
		if strings.Contains(lowerContent, w) {
			matched++
		}
	}
	jaccard := float64(matched) / float64(len(queryWords))

	var bonus float64
	for _, p := range phrases {
		if strings.Contains(lowerContent, p) {
			bonus += phraseBonus
		}
	}
	for _, w := range queryWords {
		if docs := wordDocCount[w]; len(docs) == 1 && docs[c.DocumentID] {
			bonus += uniqueWordBonus
		}
	}

	k := jaccard + bonus
	if k > 1 {
		k = 1
	}
	return k
}

func fileNameMatchesEntity(fileName string, entities []string) bool {
	if fileName == "" {
		return false
	}
	lower := strings.ToLower(fileName)
	for _, e := range entities {
		if strings.Contains(lower, strings.ToLower(e)) {
			return true
		}
	}
	return false
}

// DocumentAggregate is the per-document rollup used for strategy routing
// and the DocumentOnly short-circuit.
type DocumentAggregate struct {
	DocumentID    string
	AggregateScore float64
	ChunkCount    int
	Chunks        []ragtypes.Chunk
}

// AggregateByDocument groups scored chunks by DocumentID, sums the top-N
// (TopNChunksPerDocument) scores per document, and adds a unique-keyword
// bonus. Ties break by higher aggregate, then fewer chunks, then
// lexicographic documentId (spec.md §4.4).
func (e *Engine) AggregateByDocument(query string, scored []ragtypes.Chunk) []DocumentAggregate {
	if len(scored) == 0 {
		return nil
	}
	queryTokens := e.normalizer.Tokenize(query)
	queryWords := map[string]bool{}
	for _, t := range queryTokens {
		queryWords[t.Lower] = true
	}

	byDoc := map[string][]ragtypes.Chunk{}
	for _, c := range scored {
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	// unique-keyword bonus: count query words that appear in exactly one
	// document's chunks among all scored candidates.
	wordDocs := map[string]map[string]bool{}
	for doc, chunks := range byDoc {
		for w := range queryWords {
			for _, c := range chunks {
				if strings.Contains(strings.ToLower(c.Content), w) {
					if wordDocs[w] == nil {
						wordDocs[w] = map[string]bool{}
					}
					wordDocs[w][doc] = true
					break
				}
			}
		}
	}

	aggregates := make([]DocumentAggregate, 0, len(byDoc))
	for doc, chunks := range byDoc {
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].RelevanceScore > chunks[j].RelevanceScore })
		top := chunks
		if len(top) > TopNChunksPerDocument {
			top = top[:TopNChunksPerDocument]
		}
		var sum float64
		for _, c := range top {
			sum += c.RelevanceScore
		}
		uniqueBonus := 0
		for w, docs := range wordDocs {
			_ = w
			if len(docs) == 1 && docs[doc] {
				uniqueBonus++
			}
		}
		aggregates = append(aggregates, DocumentAggregate{
			DocumentID:     doc,
			AggregateScore: sum + float64(uniqueBonus),
			ChunkCount:     len(chunks),
			Chunks:         chunks,
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		a, b := aggregates[i], aggregates[j]
		if a.AggregateScore != b.AggregateScore {
			return a.AggregateScore > b.AggregateScore
		}
		if a.ChunkCount != b.ChunkCount {
			return a.ChunkCount < b.ChunkCount
		}
		return a.DocumentID < b.DocumentID
	})
	return aggregates
}

// IsStrongMatch reports whether the top-ranked aggregate clears
// StrongDocumentMatchThreshold.
func IsStrongMatch(aggregates []DocumentAggregate) bool {
	return len(aggregates) > 0 && aggregates[0].AggregateScore >= StrongDocumentMatchThreshold
}

// RelevantDocuments keeps the top-scoring document and any other document
// whose aggregate is within relevantDocumentRatio of the top score.
func RelevantDocuments(aggregates []DocumentAggregate) []DocumentAggregate {
	if len(aggregates) == 0 {
		return nil
	}
	top := aggregates[0].AggregateScore
	cutoff := top * relevantDocumentRatio
	out := make([]DocumentAggregate, 0, len(aggregates))
	for _, a := range aggregates {
		if a.AggregateScore >= cutoff {
			out = append(out, a)
		}
	}
	return out
}
