package sqlgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func TestValidateRejectsNonASCII(t *testing.T) {
	err := Validate("SELECT * FROM órdenes", NewPostgresDialect())
	assert.ErrorContains(t, err, "non-ASCII")
}

func TestValidateRejectsNonEnglishKeyword(t *testing.T) {
	err := Validate("abfrage * von orders", NewPostgresDialect())
	assert.Error(t, err)
}

func TestValidateRejectsWrongDialectConstruct(t *testing.T) {
	err := Validate("SELECT TOP 10 * FROM orders", NewPostgresDialect())
	assert.Error(t, err)
	assert.NoError(t, Validate("SELECT TOP 10 * FROM orders", NewSQLServerDialect()))
}

func TestValidateRejectsUnbalancedParens(t *testing.T) {
	err := Validate("SELECT * FROM orders WHERE (id = 1", NewSQLiteDialect())
	assert.Error(t, err)
}

func TestValidateRejectsMultipleStatements(t *testing.T) {
	err := Validate("SELECT 1; DROP TABLE orders", NewSQLiteDialect())
	assert.Error(t, err)
}

func TestValidateAcceptsSingleTrailingSemicolon(t *testing.T) {
	err := Validate("SELECT * FROM orders;", NewSQLiteDialect())
	assert.NoError(t, err)
}

type stubProvider struct{ responses []string }

func (s *stubProvider) Kind() aiprovider.Kind { return aiprovider.Custom }
func (s *stubProvider) GenerateText(ctx context.Context, prompt string, cfg aiprovider.GenerationConfig) (string, error) {
	r := s.responses[0]
	s.responses = s.responses[1:]
	return r, nil
}
func (s *stubProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func TestGenerateSucceedsFirstTry(t *testing.T) {
	p := &stubProvider{responses: []string{"```sql\nSELECT * FROM orders LIMIT 10\n```"}}
	g := New(p, NewSQLiteDialect())
	q, err := g.Generate(context.Background(), SQLite, ragtypes.DatabaseQueryIntent{Purpose: "count orders"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders LIMIT 10", q)
}

func TestGenerateRetriesOnceThenFails(t *testing.T) {
	p := &stubProvider{responses: []string{"TOP 10 * FROM orders", "TOP 10 * FROM orders"}}
	g := New(p, NewPostgresDialect())
	_, err := g.Generate(context.Background(), PostgreSQL, ragtypes.DatabaseQueryIntent{Purpose: "count orders"}, nil)
	assert.Error(t, err)
}

func TestGenerateUnknownDialect(t *testing.T) {
	p := &stubProvider{}
	g := New(p)
	_, err := g.Generate(context.Background(), MySQL, ragtypes.DatabaseQueryIntent{}, nil)
	assert.Error(t, err)
}
