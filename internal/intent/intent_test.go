package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func TestParseTagsStripsAndExtracts(t *testing.T) {
	tags, stripped := ParseTags("show me revenue -db -lang:fr for last quarter")
	assert.True(t, tags.DatabaseOnly)
	assert.Equal(t, "fr", tags.PreferredLanguage)
	assert.False(t, tags.DocumentOnly)
	assert.Equal(t, "show me revenue for last quarter", stripped)
}

func TestParseTagsAllModes(t *testing.T) {
	tags, stripped := ParseTags("-d -a -i -mcp describe this")
	assert.True(t, tags.DocumentOnly)
	assert.True(t, tags.Audio)
	assert.True(t, tags.Image)
	assert.True(t, tags.MCP)
	assert.Equal(t, "describe this", stripped)
}

func TestStrategyFromConfidence(t *testing.T) {
	assert.Equal(t, ragtypes.StrategyDatabaseOnly, StrategyFromConfidence(&ragtypes.QueryIntent{
		Confidence:      0.9,
		DatabaseQueries: []ragtypes.DatabaseQueryIntent{{DatabaseID: "d1"}},
	}))
	assert.Equal(t, ragtypes.StrategyDocumentOnly, StrategyFromConfidence(&ragtypes.QueryIntent{Confidence: 0.9}))
	assert.Equal(t, ragtypes.StrategyHybrid, StrategyFromConfidence(&ragtypes.QueryIntent{Confidence: 0.5}))
	assert.Equal(t, ragtypes.StrategyDocumentOnly, StrategyFromConfidence(&ragtypes.QueryIntent{Confidence: 0.1}))
	assert.Equal(t, ragtypes.StrategyDocumentOnly, StrategyFromConfidence(nil))
}

type failingProvider struct{}

func (failingProvider) Kind() aiprovider.Kind { return aiprovider.Custom }
func (failingProvider) GenerateText(ctx context.Context, prompt string, cfg aiprovider.GenerationConfig) (string, error) {
	return "", errors.New("unreachable")
}
func (failingProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("unreachable")
}

func TestAnalyzeDegradesOnProviderFailure(t *testing.T) {
	a := New(failingProvider{}, nil)
	got := a.Analyze(context.Background(), "how many orders", []DatabaseSummary{{ID: "d1", Name: "orders"}})
	require.NotNil(t, got)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Empty(t, got.DatabaseQueries)
}

type jsonProvider struct{ body string }

func (jsonProvider) Kind() aiprovider.Kind { return aiprovider.Custom }
func (p jsonProvider) GenerateText(ctx context.Context, prompt string, cfg aiprovider.GenerationConfig) (string, error) {
	return p.body, nil
}
func (jsonProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func TestAnalyzeParsesWrappedJSON(t *testing.T) {
	body := "Sure, here you go:\n```json\n" +
		`{"understanding":"wants order totals","databaseQueries":[{"databaseId":"d1","databaseName":"orders","purpose":"sum totals","requiredTables":["orders"],"priority":1}],"confidence":0.85,"requiresCrossDatabaseJoin":false,"reasoning":"single table aggregate"}` +
		"\n```"
	a := New(jsonProvider{body: body}, nil)
	got := a.Analyze(context.Background(), "total orders", []DatabaseSummary{{ID: "d1", Name: "orders"}})
	require.Len(t, got.DatabaseQueries, 1)
	assert.Equal(t, "orders", got.DatabaseQueries[0].DatabaseName)
	assert.InDelta(t, 0.85, got.Confidence, 1e-9)
}

func TestAnalyzeNoDatabasesConfigured(t *testing.T) {
	a := New(jsonProvider{body: "{}"}, nil)
	got := a.Analyze(context.Background(), "hello", nil)
	assert.Equal(t, 0.0, got.Confidence)
}
