// Command smartragd is the SmartRAG HTTP daemon: it wires every internal
// collaborator together and exposes them over the REST surface described
// in spec.md §9. Grounded on unified-rag-service/main.go's main(), which
// built one gin.Engine, registered a CORS middleware and an /api/v1
// route group, and started listening — generalized here from a
// hardcoded Postgres+Ollama+MinIO wiring into config-driven collaborator
// selection.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/config"
	"github.com/smartrag/smartrag-core/internal/convstore"
	"github.com/smartrag/smartrag-core/internal/dbexec"
	"github.com/smartrag/smartrag-core/internal/docstore"
	"github.com/smartrag/smartrag-core/internal/embeddings"
	"github.com/smartrag/smartrag-core/internal/intent"
	"github.com/smartrag/smartrag-core/internal/logging"
	"github.com/smartrag/smartrag-core/internal/merger"
	"github.com/smartrag/smartrag-core/internal/metrics"
	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/internal/orchestrator"
	"github.com/smartrag/smartrag-core/internal/router"
	"github.com/smartrag/smartrag-core/internal/schemasync"
	"github.com/smartrag/smartrag-core/internal/scoring"
	"github.com/smartrag/smartrag-core/internal/sqlgen"
	"github.com/smartrag/smartrag-core/internal/tracing"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(logging.Options{
		Development:  cfg.Development,
		ServiceName:  cfg.ServiceName,
		LokiEndpoint: cfg.LokiEndpoint,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName)
	if err != nil {
		logger.Warn("tracing initialization failed, continuing without it", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	orch, reg := buildOrchestrator(ctx, cfg, logger)
	reg.StartupTimestamp.Set(float64(time.Now().Unix()))

	gin.SetMode(gin.ReleaseMode)
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), corsMiddleware())

	srv := &server{orch: orch}
	api := engine.Group("/api/v1")
	{
		api.POST("/documents/upload", srv.uploadDocument)
		api.POST("/rag/query", srv.query)
		api.GET("/rag/query/stream", srv.streamQuery)
	}
	engine.GET("/health", srv.health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer := &http.Server{Addr: ":8090", Handler: engine}
	go func() {
		logger.Info("smartragd listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// corsMiddleware mirrors unified-rag-service/main.go's inline
// Access-Control-Allow-Origin middleware.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// buildOrchestrator constructs every collaborator named in SPEC_FULL.md's
// DOMAIN STACK and AMBIENT STACK sections from cfg, choosing concrete
// backends per cfg.StorageProvider / cfg.ConversationStorageProvider.
func buildOrchestrator(ctx context.Context, cfg config.Config, logger *zap.Logger) (*orchestrator.Orchestrator, *metrics.Registry) {
	reg := metrics.New()
	reg.MustRegister(prometheus.DefaultRegisterer)

	retry := cfg.RetryPolicyConfig()

	primary := aiprovider.NewHTTPProvider(cfg.AIProvider, cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIEmbedModel)
	providerFactory := aiprovider.NewFactory([]aiprovider.Provider{primary}, cfg.EnableFallbackProviders, retry, logger)

	embedClient := embeddings.New(providerFactory, embeddings.Config{
		MinInterval: time.Duration(cfg.EmbeddingMinIntervalMs) * time.Millisecond,
		Retry:       retry,
	}, logger)

	normalizer := normalize.New("$")

	docs := buildDocRepository(ctx, cfg, logger)
	convs := buildConvRepository(ctx, cfg, logger)

	scorer := scoring.New(normalizer)
	analyzer := intent.New(primary, logger)
	sqlGen := sqlgen.New(primary,
		sqlgen.NewSQLiteDialect(), sqlgen.NewPostgresDialect(),
		sqlgen.NewMySQLDialect(), sqlgen.NewSQLServerDialect())

	databases, dbExecutor := buildDatabases(cfg, logger)
	mergerImpl := merger.New(providerFactory)

	r := router.New(router.Config{
		Docs:       docs,
		Embedder:   embedClient,
		Scorer:     scorer,
		Analyzer:   analyzer,
		SQLGen:     sqlGen,
		DBExec:     dbExecutor,
		Merger:     mergerImpl,
		Normalizer: normalizer,
		Databases:  databases,
		Logger:     logger,
		ResponseConfiguration: ragtypes.ResponseConfiguration{
			AIProvider:      string(cfg.AIProvider),
			StorageProvider: cfg.StorageProvider,
			Model:           cfg.AIEmbedModel,
		},
	})

	orch := orchestrator.New(orchestrator.Config{
		Docs: docs, Convs: convs, Embedder: embedClient, Normalizer: normalizer,
		Router: r, Metrics: reg, Logger: logger,
		MinChunkSize: cfg.MinChunkSize, MaxChunkSize: cfg.MaxChunkSize, ChunkOverlap: cfg.ChunkOverlap,
	})
	return orch, reg
}

func buildDocRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) docstore.Repository {
	if cfg.StorageProvider != "Postgres" {
		return docstore.NewInMemory()
	}
	dsn := firstDatabaseDSN(cfg, "PostgreSQL")
	if dsn == "" {
		logger.Warn("StorageProvider=Postgres but no PostgreSQL connection configured, using InMemory")
		return docstore.NewInMemory()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Warn("failed to connect document store to Postgres, using InMemory", zap.Error(err))
		return docstore.NewInMemory()
	}
	return docstore.NewPostgres(pool, cfg.RetryPolicyConfig(), logger)
}

func buildConvRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) convstore.Repository {
	switch convstore.ResolveProvider(cfg.ConversationStorageProvider, logger) {
	case convstore.ProviderRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.AIBaseURL})
		return convstore.NewRedis(client)
	case convstore.ProviderSQLite:
		db, err := gorm.Open(sqlite.Open("smartrag_conversations.db"), &gorm.Config{})
		if err != nil {
			logger.Warn("failed to open SQLite conversation store, using InMemory", zap.Error(err))
			return convstore.NewInMemory()
		}
		store, err := convstore.NewSQLite(db)
		if err != nil {
			logger.Warn("failed to migrate SQLite conversation store, using InMemory", zap.Error(err))
			return convstore.NewInMemory()
		}
		return store
	case convstore.ProviderFileSystem:
		store, err := convstore.NewFileSystem("./smartrag-conversations")
		if err != nil {
			logger.Warn("failed to open filesystem conversation store, using InMemory", zap.Error(err))
			return convstore.NewInMemory()
		}
		return store
	default:
		return convstore.NewInMemory()
	}
}

// buildDatabases opens every configured database connection and returns
// the executor Router dispatches generated SQL through. When
// cfg.DBQueryCacheRedisAddr is set, the plain Executor is wrapped in a
// Redis-backed CachedExecutor (spec.md §4.8's optional query cache);
// otherwise it's used bare.
func buildDatabases(cfg config.Config, logger *zap.Logger) ([]router.DatabaseConfig, dbexec.Execer) {
	var configs []router.DatabaseConfig
	var databases []*dbexec.Database
	for _, c := range cfg.DatabaseConnections {
		conn, err := sql.Open(driverNameFor(c.Type), c.DSN)
		if err != nil {
			logger.Warn("failed to open configured database, skipping", zap.String("id", c.ID), zap.Error(err))
			continue
		}
		databases = append(databases, &dbexec.Database{ID: c.ID, Name: c.Name, Conn: conn})

		dbCfg := router.DatabaseConfig{ID: c.ID, Name: c.Name, Type: sqlgen.DatabaseType(c.Type)}
		if cfg.EnableAutoSchemaAnalysis {
			schema, err := schemasync.Discover(dbCfg.Type, c.DSN)
			if err != nil {
				logger.Warn("schema discovery failed, SQL generation will see no schema", zap.String("id", c.ID), zap.Error(err))
			} else {
				dbCfg.Schema = schema
			}
		}
		configs = append(configs, dbCfg)
	}
	executor := dbexec.New(databases, dbexec.DefaultLimits(), 4, logger)
	if cfg.DBQueryCacheRedisAddr == "" {
		return configs, executor
	}
	cacheClient := redis.NewClient(&redis.Options{Addr: cfg.DBQueryCacheRedisAddr})
	cache := dbexec.NewQueryCache(cacheClient, time.Duration(cfg.DBQueryCacheTTLMinutes)*time.Minute)
	return configs, dbexec.NewCached(executor, cache)
}

func driverNameFor(dbType string) string {
	switch dbType {
	case "PostgreSQL":
		return "pgx"
	case "MySQL":
		return "mysql"
	case "SQLServer":
		return "sqlserver"
	default:
		return "sqlite3"
	}
}

func firstDatabaseDSN(cfg config.Config, dbType string) string {
	for _, c := range cfg.DatabaseConnections {
		if c.Type == dbType {
			return c.DSN
		}
	}
	return ""
}
