// Package config loads the external configuration of spec.md §6 from
// environment variables, grounded on legal-gateway/main.go's getEnv
// helper pattern (check os.Getenv, fall back to a default) applied
// uniformly across every SmartRAG-specific setting instead of one-off
// inline lookups.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/convstore"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
)

// Features mirrors spec.md §6's Features.* block, all true by default.
type Features struct {
	EnableDocumentSearch bool
	EnableDatabaseSearch bool
	EnableAudioParsing   bool
	EnableImageParsing   bool
}

// DatabaseConnection is one entry of the DatabaseConnections list.
type DatabaseConnection struct {
	ID   string
	Name string
	Type string // SQLite|SQLServer|MySQL|PostgreSQL
	DSN  string
}

// Config is every value named in spec.md §6, loaded once at process
// startup.
type Config struct {
	AIProvider       aiprovider.Kind
	AIBaseURL        string
	AIAPIKey         string
	AIEmbedModel     string

	StorageProvider             string
	ConversationStorageProvider convstore.StorageProvider

	MaxChunkSize  int
	MinChunkSize  int
	ChunkOverlap  int

	MaxRetryAttempts        int
	RetryDelayMs            int
	RetryPolicy             retrypolicy.Kind
	EnableFallbackProviders bool

	DatabaseConnections []DatabaseConnection

	EnableAutoSchemaAnalysis            bool
	EnablePeriodicSchemaRefresh         bool
	DefaultSchemaRefreshIntervalMinutes int

	DBQueryCacheRedisAddr  string
	DBQueryCacheTTLMinutes int

	Features Features

	EmbeddingMinIntervalMs int

	LokiEndpoint string
	ServiceName  string
	Development  bool
}

// Load reads Config from the environment, applying spec.md §6's defaults
// for every unset variable.
func Load() Config {
	return Config{
		AIProvider:   aiprovider.Kind(getEnv("SMARTRAG_AI_PROVIDER", string(aiprovider.OpenAI))),
		AIBaseURL:    getEnv("SMARTRAG_AI_BASE_URL", "http://localhost:11434"),
		AIAPIKey:     getEnv("SMARTRAG_AI_API_KEY", ""),
		AIEmbedModel: getEnv("SMARTRAG_AI_EMBED_MODEL", "nomic-embed-text"),

		StorageProvider:             getEnv("SMARTRAG_STORAGE_PROVIDER", "InMemory"),
		ConversationStorageProvider: convstore.StorageProvider(getEnv("SMARTRAG_CONVERSATION_STORAGE_PROVIDER", getEnv("SMARTRAG_STORAGE_PROVIDER", "InMemory"))),

		MaxChunkSize: getEnvInt("SMARTRAG_MAX_CHUNK_SIZE", 1000),
		MinChunkSize: getEnvInt("SMARTRAG_MIN_CHUNK_SIZE", 100),
		ChunkOverlap: getEnvInt("SMARTRAG_CHUNK_OVERLAP", 200),

		MaxRetryAttempts:        getEnvInt("SMARTRAG_MAX_RETRY_ATTEMPTS", 3),
		RetryDelayMs:            getEnvInt("SMARTRAG_RETRY_DELAY_MS", 1000),
		RetryPolicy:             retrypolicy.Kind(getEnv("SMARTRAG_RETRY_POLICY", string(retrypolicy.Exponential))),
		EnableFallbackProviders: getEnvBool("SMARTRAG_ENABLE_FALLBACK_PROVIDERS", false),

		DatabaseConnections: parseDatabaseConnections(getEnv("SMARTRAG_DATABASE_CONNECTIONS", "")),

		EnableAutoSchemaAnalysis:            getEnvBool("SMARTRAG_ENABLE_AUTO_SCHEMA_ANALYSIS", true),
		EnablePeriodicSchemaRefresh:         getEnvBool("SMARTRAG_ENABLE_PERIODIC_SCHEMA_REFRESH", true),
		DefaultSchemaRefreshIntervalMinutes: getEnvInt("SMARTRAG_SCHEMA_REFRESH_INTERVAL_MINUTES", 60),

		DBQueryCacheRedisAddr:  getEnv("SMARTRAG_DB_QUERY_CACHE_REDIS_ADDR", ""),
		DBQueryCacheTTLMinutes: getEnvInt("SMARTRAG_DB_QUERY_CACHE_TTL_MINUTES", 30),

		Features: Features{
			EnableDocumentSearch: getEnvBool("SMARTRAG_FEATURE_DOCUMENT_SEARCH", true),
			EnableDatabaseSearch: getEnvBool("SMARTRAG_FEATURE_DATABASE_SEARCH", true),
			EnableAudioParsing:   getEnvBool("SMARTRAG_FEATURE_AUDIO_PARSING", true),
			EnableImageParsing:   getEnvBool("SMARTRAG_FEATURE_IMAGE_PARSING", true),
		},

		EmbeddingMinIntervalMs: getEnvInt("SMARTRAG_EMBEDDING_MIN_INTERVAL_MS", 0),

		LokiEndpoint: getEnv("SMARTRAG_LOKI_ENDPOINT", ""),
		ServiceName:  getEnv("SMARTRAG_SERVICE_NAME", "smartragd"),
		Development:  getEnvBool("SMARTRAG_DEVELOPMENT", false),
	}
}

// RetryPolicyConfig converts Config's flat retry fields into a
// retrypolicy.Policy.
func (c Config) RetryPolicyConfig() retrypolicy.Policy {
	return retrypolicy.Policy{
		Kind:         c.RetryPolicy,
		MaxAttempts:  c.MaxRetryAttempts,
		InitialDelay: time.Duration(c.RetryDelayMs) * time.Millisecond,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return b
}

// parseDatabaseConnections parses "id:name:type:dsn,id2:name2:type2:dsn2".
func parseDatabaseConnections(raw string) []DatabaseConnection {
	if raw == "" {
		return nil
	}
	var out []DatabaseConnection
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(entry, ":", 4)
		if len(parts) != 4 {
			continue
		}
		out = append(out, DatabaseConnection{ID: parts[0], Name: parts[1], Type: parts[2], DSN: parts[3]})
	}
	return out
}
