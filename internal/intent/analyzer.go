package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/tracing"
	"github.com/smartrag/smartrag-core/internal/xjson"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// DatabaseSummary describes one configured database for prompt
// construction: name plus a terse schema summary (table: columns).
type DatabaseSummary struct {
	ID     string
	Name   string
	Schema string
}

// Analyzer produces a QueryIntent for a (tag-stripped) query against the
// set of currently available databases.
type Analyzer struct {
	provider aiprovider.Provider
	logger   *zap.Logger
}

func New(provider aiprovider.Provider, logger *zap.Logger) *Analyzer {
	return &Analyzer{provider: provider, logger: logger}
}

// llmIntent mirrors the JSON shape requested of the model; kept separate
// from ragtypes.QueryIntent so a malformed response can't silently
// populate a Strategy or GeneratedQuery field the analyzer shouldn't set.
type llmIntent struct {
	Understanding   string `json:"understanding"`
	DatabaseQueries []struct {
		DatabaseID      string              `json:"databaseId"`
		DatabaseName    string              `json:"databaseName"`
		Purpose         string              `json:"purpose"`
		RequiredTables  []string            `json:"requiredTables"`
		RequiredColumns map[string][]string `json:"requiredColumns"`
		Priority        int                 `json:"priority"`
	} `json:"databaseQueries"`
	Confidence                float64 `json:"confidence"`
	RequiresCrossDatabaseJoin bool    `json:"requiresCrossDatabaseJoin"`
	Reasoning                 string  `json:"reasoning"`
}

// Analyze calls the provider to classify query's database intent. On any
// analyzer failure (transport error or unparsable response) it degrades to
// the spec's documented default: confidence 0, no database queries, so
// downstream routing falls through to DocumentOnly (spec.md §4.6).
func (a *Analyzer) Analyze(ctx context.Context, query string, databases []DatabaseSummary) *ragtypes.QueryIntent {
	ctx, span := tracing.Start(ctx, "intent.Analyze")
	defer span.End()

	base := &ragtypes.QueryIntent{OriginalQuery: query, Confidence: 0}

	if a.provider == nil || len(databases) == 0 {
		return base
	}

	prompt := buildPrompt(query, databases)
	text, err := a.provider.GenerateText(ctx, prompt, aiprovider.GenerationConfig{MaxTokens: 800, Temperature: 0.1})
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("intent analyzer unreachable, defaulting to document-only", zap.Error(err))
		}
		return base
	}

	var parsed llmIntent
	if err := xjson.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		if a.logger != nil {
			a.logger.Warn("intent analyzer response unparsable, defaulting to document-only", zap.Error(err))
		}
		return base
	}

	out := &ragtypes.QueryIntent{
		OriginalQuery:             query,
		Understanding:             parsed.Understanding,
		Confidence:                parsed.Confidence,
		RequiresCrossDatabaseJoin: parsed.RequiresCrossDatabaseJoin,
		Reasoning:                 parsed.Reasoning,
	}
	for _, q := range parsed.DatabaseQueries {
		out.DatabaseQueries = append(out.DatabaseQueries, ragtypes.DatabaseQueryIntent{
			DatabaseID:      q.DatabaseID,
			DatabaseName:    q.DatabaseName,
			RequiredTables:  q.RequiredTables,
			RequiredColumns: q.RequiredColumns,
			Purpose:         q.Purpose,
			Priority:        q.Priority,
		})
	}
	return out
}

func buildPrompt(query string, databases []DatabaseSummary) string {
	var b strings.Builder
	b.WriteString("You are a query intent classifier for a retrieval system. ")
	b.WriteString("Given the user query and the available databases below, decide which databases (if any) ")
	b.WriteString("must be queried to answer it, and your confidence that database queries alone suffice.\n\n")
	b.WriteString("Available databases:\n")
	for _, d := range databases {
		fmt.Fprintf(&b, "- %s (%s): %s\n", d.Name, d.ID, d.Schema)
	}
	b.WriteString("\nQuery: ")
	b.WriteString(query)
	b.WriteString("\n\nRespond with a single JSON object: {\"understanding\":...,\"databaseQueries\":")
	b.WriteString("[{\"databaseId\":...,\"databaseName\":...,\"purpose\":...,\"requiredTables\":[...],")
	b.WriteString("\"requiredColumns\":{...},\"priority\":...}],\"confidence\":0.0-1.0,")
	b.WriteString("\"requiresCrossDatabaseJoin\":bool,\"reasoning\":...}")
	return b.String()
}

// extractJSON trims leading/trailing prose some providers wrap the JSON
// object in, taking the substring between the first '{' and the last '}'.
func extractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return text
	}
	return text[start : end+1]
}
