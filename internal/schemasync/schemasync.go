// Package schemasync implements spec.md §6's EnableAutoSchemaAnalysis:
// introspecting a configured database's tables/columns so the SQL
// Coordinator can describe real schema to the LLM instead of requiring
// it to be hand-maintained. Grounded on gorm's migrator interface, the
// same ORM the teacher's go.mod already carries a driver for per SQL
// dialect (go-enhanced-rag-service/memory_engine.go uses gorm for its
// own table), generalized here from one fixed model to dialect-generic
// introspection across all four configured database types.
package schemasync

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/smartrag/smartrag-core/internal/sqlgen"
)

// Discover opens dsn with the gorm dialector matching dbType and reads
// every user table's column list via gorm's Migrator, returning one
// sqlgen.TableSchema per table. The connection is closed before Discover
// returns. cmd/smartragd calls it once per configured database at
// startup; nothing re-runs it on DefaultSchemaRefreshIntervalMinutes.
func Discover(dbType sqlgen.DatabaseType, dsn string) ([]sqlgen.TableSchema, error) {
	dialector, err := dialectorFor(dbType, dsn)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("schemasync: open %s: %w", dbType, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("schemasync: underlying conn: %w", err)
	}
	defer sqlDB.Close()

	migrator := db.Migrator()
	names, err := migrator.GetTables()
	if err != nil {
		return nil, fmt.Errorf("schemasync: list tables: %w", err)
	}

	tables := make([]sqlgen.TableSchema, 0, len(names))
	for _, name := range names {
		types, err := migrator.ColumnTypes(name)
		if err != nil {
			continue
		}
		cols := make([]string, 0, len(types))
		for _, t := range types {
			cols = append(cols, t.Name())
		}
		tables = append(tables, sqlgen.TableSchema{Name: name, Columns: cols})
	}
	return tables, nil
}

func dialectorFor(dbType sqlgen.DatabaseType, dsn string) (gorm.Dialector, error) {
	switch dbType {
	case sqlgen.PostgreSQL:
		return postgres.Open(dsn), nil
	case sqlgen.MySQL:
		return mysql.Open(dsn), nil
	case sqlgen.SQLServer:
		return sqlserver.Open(dsn), nil
	case sqlgen.SQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("schemasync: unsupported database type %q", dbType)
	}
}
