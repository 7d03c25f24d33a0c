package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 1000, cfg.MaxChunkSize)
	assert.Equal(t, 100, cfg.MinChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 3, cfg.MaxRetryAttempts)
	assert.True(t, cfg.Features.EnableDocumentSearch)
	assert.True(t, cfg.EnableAutoSchemaAnalysis)
	assert.Equal(t, 60, cfg.DefaultSchemaRefreshIntervalMinutes)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("SMARTRAG_MAX_CHUNK_SIZE", "2000")
	t.Setenv("SMARTRAG_ENABLE_FALLBACK_PROVIDERS", "true")
	cfg := Load()
	assert.Equal(t, 2000, cfg.MaxChunkSize)
	assert.True(t, cfg.EnableFallbackProviders)
}

func TestParseDatabaseConnections(t *testing.T) {
	t.Setenv("SMARTRAG_DATABASE_CONNECTIONS", "d1:orders:PostgreSQL:postgres://host/db,d2:billing:SQLite:./billing.db")
	cfg := Load()
	if assert.Len(t, cfg.DatabaseConnections, 2) {
		assert.Equal(t, "d1", cfg.DatabaseConnections[0].ID)
		assert.Equal(t, "SQLite", cfg.DatabaseConnections[1].Type)
	}
}

func TestRetryPolicyConfig(t *testing.T) {
	cfg := Load()
	p := cfg.RetryPolicyConfig()
	assert.Equal(t, cfg.MaxRetryAttempts, p.MaxAttempts)
}
