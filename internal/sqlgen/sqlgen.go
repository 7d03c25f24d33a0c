// Package sqlgen implements the SQL Generator & Validator of spec.md §4.7:
// dialect-pluggable prompt construction and a syntax/injection validator
// shared across dialects. Grounded on unified-rag-service's
// generateEmbeddingViaOllama prompt-construction shape (build prompt,
// POST, parse) applied here to SQL generation, and on the gorm dialect
// driver set in go.mod (sqlite/mysql/postgres/sqlserver) for the dialect
// enumeration this package routes on.
package sqlgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// DatabaseType is one of the four dialects spec.md §4.7 names.
type DatabaseType string

const (
	SQLite     DatabaseType = "SQLite"
	SQLServer  DatabaseType = "SQLServer"
	MySQL      DatabaseType = "MySQL"
	PostgreSQL DatabaseType = "PostgreSQL"
)

// DialectStrategy owns how one dialect describes schema in prompts and
// which syntax is valid for it.
type DialectStrategy interface {
	DatabaseType() DatabaseType
	DescribeSchema(tables []TableSchema) string
	PaginationClause(limit int) string
	// ForbiddenConstructs lists substrings belonging to other dialects'
	// pagination syntax that must not appear in this dialect's
	// output (e.g. "TOP " and "FETCH FIRST" are forbidden in PostgreSQL).
	ForbiddenConstructs() []string
}

// TableSchema is a terse table/column summary used in generation prompts.
type TableSchema struct {
	Name    string
	Columns []string
}

// Generator produces and validates a generatedQuery for one
// DatabaseQueryIntent, retrying once on validation failure per spec.md
// §4.7.
type Generator struct {
	provider  aiprovider.Provider
	dialects  map[DatabaseType]DialectStrategy
}

func New(provider aiprovider.Provider, dialects ...DialectStrategy) *Generator {
	g := &Generator{provider: provider, dialects: map[DatabaseType]DialectStrategy{}}
	for _, d := range dialects {
		g.dialects[d.DatabaseType()] = d
	}
	return g
}

// Generate builds and validates SQL for intent against dbType's schema.
// On a second validation failure it returns ragerr.ErrSqlGenerationFailed
// annotated with the dialect name (spec.md §7).
func (g *Generator) Generate(ctx context.Context, dbType DatabaseType, intent ragtypes.DatabaseQueryIntent, schema []TableSchema) (string, error) {
	strategy, ok := g.dialects[dbType]
	if !ok {
		return "", fmt.Errorf("%w: no dialect strategy registered for %s", ragerr.ErrInvalidConfiguration, dbType)
	}

	prompt := g.buildPrompt(strategy, intent, schema, false)
	query, err := g.provider.GenerateText(ctx, prompt, aiprovider.GenerationConfig{MaxTokens: 500, Temperature: 0})
	if err != nil {
		return "", ragerr.WithDialect(string(dbType))
	}
	query = extractSQL(query)

	if err := Validate(query, strategy); err == nil {
		return query, nil
	}

	// One retry with explicit English-only guidance (spec.md §4.7).
	retryPrompt := g.buildPrompt(strategy, intent, schema, true)
	query, err = g.provider.GenerateText(ctx, retryPrompt, aiprovider.GenerationConfig{MaxTokens: 500, Temperature: 0})
	if err != nil {
		return "", ragerr.WithDialect(string(dbType))
	}
	query = extractSQL(query)
	if err := Validate(query, strategy); err != nil {
		return "", ragerr.WithDialect(string(dbType))
	}
	return query, nil
}

func (g *Generator) buildPrompt(strategy DialectStrategy, intent ragtypes.DatabaseQueryIntent, schema []TableSchema, englishOnlyGuidance bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a single %s SQL query. ", strategy.DatabaseType())
	b.WriteString(strategy.DescribeSchema(schema))
	fmt.Fprintf(&b, "\nPurpose: %s\n", intent.Purpose)
	if len(intent.RequiredTables) > 0 {
		fmt.Fprintf(&b, "Required tables: %s\n", strings.Join(intent.RequiredTables, ", "))
	}
	b.WriteString("Respond with exactly one SQL statement and no commentary.")
	if englishOnlyGuidance {
		b.WriteString(" Use English SQL keywords and ASCII identifiers only.")
	}
	return b.String()
}

// extractSQL trims code fences and leading/trailing prose some providers
// wrap SQL in.
func extractSQL(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```sql")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

var (
	nonASCIIIdentifier = regexp.MustCompile(`[^\x00-\x7F]`)
	multiStatement     = regexp.MustCompile(`;\s*\S`)
	nonEnglishKeywords = []string{"abfrage", "запрос", "requête", "consulta", "询问"}
)

// Validate rejects query per spec.md §4.7's ordered checks: non-ASCII
// identifiers, non-English SQL keywords, wrong-dialect constructs,
// unbalanced parentheses/quotes, and multiple statements.
func Validate(query string, strategy DialectStrategy) error {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return fmt.Errorf("%w: empty generated query", ragerr.ErrInvalidInput)
	}
	if nonASCIIIdentifier.MatchString(trimmed) {
		return fmt.Errorf("%w: non-ASCII characters in generated SQL", ragerr.ErrSqlGenerationFailed)
	}
	lower := strings.ToLower(trimmed)
	for _, kw := range nonEnglishKeywords {
		if strings.Contains(lower, kw) {
			return fmt.Errorf("%w: non-English SQL keyword %q", ragerr.ErrSqlGenerationFailed, kw)
		}
	}
	for _, forbidden := range strategy.ForbiddenConstructs() {
		if strings.Contains(lower, strings.ToLower(forbidden)) {
			return fmt.Errorf("%w: construct %q not valid for %s", ragerr.ErrSqlGenerationFailed, forbidden, strategy.DatabaseType())
		}
	}
	if !balanced(trimmed, '(', ')') {
		return fmt.Errorf("%w: unbalanced parentheses", ragerr.ErrSqlGenerationFailed)
	}
	if strings.Count(trimmed, "'")%2 != 0 {
		return fmt.Errorf("%w: unbalanced quotes", ragerr.ErrSqlGenerationFailed)
	}
	body := strings.TrimRight(trimmed, "; \t\n")
	if multiStatement.MatchString(body) {
		return fmt.Errorf("%w: multiple statements not permitted", ragerr.ErrSqlGenerationFailed)
	}
	return nil
}

func balanced(s string, open, close rune) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case open:
			depth++
		case close:
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
