package convstore

import (
	"go.uber.org/zap"
)

// StorageProvider mirrors the ConversationStorageProvider configuration
// values of spec.md §6.
type StorageProvider string

const (
	ProviderRedis      StorageProvider = "Redis"
	ProviderSQLite     StorageProvider = "SQLite"
	ProviderFileSystem StorageProvider = "FileSystem"
	ProviderInMemory   StorageProvider = "InMemory"
	ProviderQdrant     StorageProvider = "Qdrant"
)

// ResolveProvider applies Open Question (a) of SPEC_FULL.md §C: Qdrant is
// a document vector store, not a conversation log, so a
// ConversationStorageProvider of Qdrant (set explicitly, or inherited by
// defaulting to StorageProvider per spec.md §6) silently falls back to
// InMemory with a one-time warning instead of failing configuration
// validation.
func ResolveProvider(configured StorageProvider, logger *zap.Logger) StorageProvider {
	if configured == ProviderQdrant {
		if logger != nil {
			logger.Warn("conversation storage provider Qdrant cannot back conversations, falling back to InMemory")
		}
		return ProviderInMemory
	}
	if configured == "" {
		return ProviderInMemory
	}
	return configured
}
