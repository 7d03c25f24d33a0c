// Package dbexec implements the DB Query Executor of spec.md §4.8: one
// pooled connection per configured database, hard row and time limits,
// sensitive-column sanitization, and parallel per-DB execution with
// per-DB error isolation. Limits.StreamingBatchSize and
// Limits.MaxMemoryThresholdMB are carried but not enforced: Execute scans
// rows one at a time into memory and stops only at MaxRowsPerQuery. Grounded on unified-rag-service's pgxpool usage
// for the connection-pooling shape and generalized to the
// database/sql+gorm-dialect-driver set (sqlite/mysql/postgres/sqlserver)
// so Execute works across every configured DatabaseType.
package dbexec

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/tracing"
)

// Limits bounds one Execute call (spec.md §4.8 defaults in parens).
type Limits struct {
	MaxRowsPerQuery       int           // 1000
	QueryTimeout          time.Duration // 30s
	StreamingBatchSize    int           // 1000
	MaxMemoryThresholdMB  int           // 500
}

func DefaultLimits() Limits {
	return Limits{
		MaxRowsPerQuery:      1000,
		QueryTimeout:         30 * time.Second,
		StreamingBatchSize:   1000,
		MaxMemoryThresholdMB: 500,
	}
}

// Database is one configured, pooled connection the executor dispatches
// generated SQL against.
type Database struct {
	ID                string
	Name              string
	Conn              *sql.DB
	SensitiveColumns   []*regexp.Regexp
}

// Result is Execute's per-database contract (spec.md §4.8).
type Result struct {
	DatabaseID    string
	Rows          []map[string]any
	Columns       []string
	ExecutedQuery string
	RowsTruncated bool
	Err           error
}

// Executor runs generated SQL against configured databases.
type Executor struct {
	databases map[string]*Database
	limits    Limits
	maxParallel int
	logger    *zap.Logger
}

func New(databases []*Database, limits Limits, maxParallel int, logger *zap.Logger) *Executor {
	if maxParallel <= 0 {
		maxParallel = 3
	}
	byID := make(map[string]*Database, len(databases))
	for _, d := range databases {
		byID[d.ID] = d
	}
	return &Executor{databases: byID, limits: limits, maxParallel: maxParallel, logger: logger}
}

// Execute runs one query against one configured database, applying row
// limits and sensitive-column sanitization before returning. Errors never
// include connection strings (spec.md §7): the returned error wraps only
// ragerr.ErrSqlExecutionFailed; neither the driver's message nor the
// query text is included.
func (e *Executor) Execute(ctx context.Context, databaseID, query string) Result {
	ctx, span := tracing.Start(ctx, "dbexec.Execute")
	defer span.End()

	db, ok := e.databases[databaseID]
	if !ok {
		return Result{DatabaseID: databaseID, Err: fmt.Errorf("%w: unknown database %s", ragerr.ErrInvalidConfiguration, databaseID)}
	}

	ctx, cancel := context.WithTimeout(ctx, e.limits.QueryTimeout)
	defer cancel()

	rows, err := db.Conn.QueryContext(ctx, query)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("query execution failed", zap.String("database", databaseID))
		}
		return Result{DatabaseID: databaseID, ExecutedQuery: query, Err: fmt.Errorf("%w", ragerr.ErrSqlExecutionFailed)}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return Result{DatabaseID: databaseID, ExecutedQuery: query, Err: fmt.Errorf("%w", ragerr.ErrSqlExecutionFailed)}
	}

	var out []map[string]any
	truncated := false
	for rows.Next() {
		if len(out) >= e.limits.MaxRowsPerQuery {
			truncated = true
			break
		}
		rowVals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range rowVals {
			ptrs[i] = &rowVals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Result{DatabaseID: databaseID, ExecutedQuery: query, Err: fmt.Errorf("%w", ragerr.ErrSqlExecutionFailed)}
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = sanitize(col, rowVals[i], db.SensitiveColumns)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return Result{DatabaseID: databaseID, ExecutedQuery: query, Err: fmt.Errorf("%w", ragerr.ErrSqlExecutionFailed)}
	}

	return Result{
		DatabaseID:    databaseID,
		Rows:          out,
		Columns:       cols,
		ExecutedQuery: query,
		RowsTruncated: truncated,
	}
}

// ExecuteMany runs one query per (databaseID, query) pair concurrently,
// bounded by maxParallel via errgroup.SetLimit. A single database's
// failure is captured in its own Result.Err and never aborts the others
// (spec.md §4.8 "a single DB failure does not fail the batch").
func (e *Executor) ExecuteMany(ctx context.Context, queries map[string]string) []Result {
	results := make([]Result, len(queries))
	i := 0
	idx := make(map[string]int, len(queries))
	for databaseID := range queries {
		idx[databaseID] = i
		i++
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel)
	for databaseID, query := range queries {
		databaseID, query := databaseID, query
		g.Go(func() error {
			results[idx[databaseID]] = e.Execute(gctx, databaseID, query)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func sanitize(column string, value any, patterns []*regexp.Regexp) any {
	for _, p := range patterns {
		if p.MatchString(column) {
			return "[REDACTED]"
		}
	}
	return value
}
