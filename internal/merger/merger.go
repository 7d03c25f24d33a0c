// Package merger implements the Result Merger of spec.md §4.9: combines
// the document-only answer (if strong), per-database result sets, and
// conversation history into one RagResponse. Grounded on
// unified-rag-service's retrieveSimilarChunks + generateEmbeddingViaOllama
// call chain (build context, call the LLM once, shape the response),
// generalized to also render DB row tables into the merge prompt.
package merger

import (
	"context"
	"fmt"
	"strings"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/dbexec"
	"github.com/smartrag/smartrag-core/internal/respbuild"
	"github.com/smartrag/smartrag-core/internal/scoring"
	"github.com/smartrag/smartrag-core/internal/tracing"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// DocumentAnswer is the already-assembled document-side result, built by
// the router from the context expander and respbuild.
type DocumentAnswer struct {
	Answer     string
	Aggregates []scoring.DocumentAggregate
	Sources    []ragtypes.SearchSource
}

// Merger produces the final RagResponse for one query.
type Merger struct {
	provider aiprovider.Factory
}

func New(provider *aiprovider.Factory) *Merger {
	return &Merger{provider: *provider}
}

// Merge implements spec.md §4.9's algorithm: prefer a strong, non-missing
// document answer; otherwise invoke the LLM with a merge prompt over
// conversation history, document context, and per-DB tables.
func (m *Merger) Merge(ctx context.Context, query string, history []ragtypes.Turn, doc *DocumentAnswer, dbResults []dbexec.Result, cfg ragtypes.ResponseConfiguration) (ragtypes.RagResponse, error) {
	ctx, span := tracing.Start(ctx, "merger.Merge")
	defer span.End()

	resp := ragtypes.RagResponse{Query: query, Configuration: cfg}

	strongDocumentAnswer := doc != nil && scoring.IsStrongMatch(doc.Aggregates) && !respbuild.IsMissing(query, doc.Answer, allRelevantContent(doc.Sources))

	if strongDocumentAnswer {
		resp.Answer = doc.Answer
		resp.Sources = append(resp.Sources, doc.Sources...)
		resp.Sources = append(resp.Sources, dbSourcesMatchingEntities(query, dbResults)...)
		return resp, nil
	}

	prompt := buildMergePrompt(query, history, doc, dbResults)
	answer, err := m.provider.GenerateText(ctx, prompt, aiprovider.GenerationConfig{MaxTokens: 1500, Temperature: 0.2})
	if err != nil {
		return ragtypes.RagResponse{}, err
	}
	resp.Answer = answer

	if doc != nil {
		resp.Sources = append(resp.Sources, doc.Sources...)
	}
	resp.Sources = append(resp.Sources, allDBSources(dbResults)...)
	return resp, nil
}

func buildMergePrompt(query string, history []ragtypes.Turn, doc *DocumentAnswer, dbResults []dbexec.Result) string {
	var b strings.Builder
	b.WriteString("Answer the user's question using only the context provided below.\n\n")
	if len(history) > 0 {
		b.WriteString("Conversation history:\n")
		for _, t := range history {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", t.Question, t.Answer)
		}
		b.WriteString("\n")
	}
	if doc != nil && doc.Answer != "" {
		b.WriteString("Document context:\n")
		b.WriteString(doc.Answer)
		b.WriteString("\n\n")
	}
	for _, r := range dbResults {
		if r.Err != nil || len(r.Rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "Database %s results (%s):\n", r.DatabaseID, strings.Join(r.Columns, ", "))
		for i, row := range r.Rows {
			fmt.Fprintf(&b, "Row %d: %v\n", i+1, row)
		}
		b.WriteString("\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

func allRelevantContent(sources []ragtypes.SearchSource) string {
	var b strings.Builder
	for _, s := range sources {
		b.WriteString(s.RelevantContent)
		b.WriteString(" ")
	}
	return b.String()
}

func allDBSources(results []dbexec.Result) []ragtypes.SearchSource {
	var out []ragtypes.SearchSource
	for _, r := range results {
		out = append(out, dbRowSources(r)...)
	}
	return out
}

func dbSourcesMatchingEntities(query string, results []dbexec.Result) []ragtypes.SearchSource {
	lowerQuery := strings.ToLower(query)
	var out []ragtypes.SearchSource
	for _, r := range results {
		for i, row := range r.Rows {
			matched := false
			for _, v := range row {
				if s, ok := v.(string); ok && s != "" && strings.Contains(lowerQuery, strings.ToLower(s)) {
					matched = true
					break
				}
			}
			if matched {
				out = append(out, rowToSource(r, i))
			}
		}
	}
	return out
}

func dbRowSources(r dbexec.Result) []ragtypes.SearchSource {
	if r.Err != nil {
		return []ragtypes.SearchSource{{
			SourceType:      ragtypes.SourceSystem,
			DatabaseID:      r.DatabaseID,
			RelevantContent: fmt.Sprintf("database %s query failed", r.DatabaseID),
		}}
	}
	out := make([]ragtypes.SearchSource, 0, len(r.Rows))
	for i := range r.Rows {
		out = append(out, rowToSource(r, i))
	}
	return out
}

func rowToSource(r dbexec.Result, rowIndex int) ragtypes.SearchSource {
	n := rowIndex
	return ragtypes.SearchSource{
		SourceType:      ragtypes.SourceDatabase,
		DatabaseID:      r.DatabaseID,
		ExecutedQuery:   r.ExecutedQuery,
		RowNumber:       &n,
		RelevantContent: fmt.Sprintf("%v", r.Rows[rowIndex]),
	}
}
