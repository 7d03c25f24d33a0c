package sqlgen

import (
	"fmt"
	"strings"
)

// sqliteDialect, postgresDialect, mysqlDialect, and sqlServerDialect are
// grounded on the four gorm dialect drivers wired into go.mod
// (gorm.io/driver/{sqlite,postgres,mysql,sqlserver}); each one's
// pagination clause mirrors what that driver actually emits.

type sqliteDialect struct{}

func NewSQLiteDialect() DialectStrategy { return sqliteDialect{} }

func (sqliteDialect) DatabaseType() DatabaseType { return SQLite }

func (sqliteDialect) DescribeSchema(tables []TableSchema) string { return describeSchema(tables) }

func (sqliteDialect) PaginationClause(limit int) string { return fmt.Sprintf("LIMIT %d", limit) }

func (sqliteDialect) ForbiddenConstructs() []string {
	return []string{"TOP ", "FETCH FIRST", "OFFSET FETCH"}
}

type postgresDialect struct{}

func NewPostgresDialect() DialectStrategy { return postgresDialect{} }

func (postgresDialect) DatabaseType() DatabaseType { return PostgreSQL }

func (postgresDialect) DescribeSchema(tables []TableSchema) string { return describeSchema(tables) }

func (postgresDialect) PaginationClause(limit int) string { return fmt.Sprintf("LIMIT %d", limit) }

func (postgresDialect) ForbiddenConstructs() []string {
	return []string{"TOP ", "FETCH FIRST"}
}

type mysqlDialect struct{}

func NewMySQLDialect() DialectStrategy { return mysqlDialect{} }

func (mysqlDialect) DatabaseType() DatabaseType { return MySQL }

func (mysqlDialect) DescribeSchema(tables []TableSchema) string { return describeSchema(tables) }

func (mysqlDialect) PaginationClause(limit int) string { return fmt.Sprintf("LIMIT %d", limit) }

func (mysqlDialect) ForbiddenConstructs() []string {
	return []string{"TOP ", "FETCH FIRST"}
}

type sqlServerDialect struct{}

func NewSQLServerDialect() DialectStrategy { return sqlServerDialect{} }

func (sqlServerDialect) DatabaseType() DatabaseType { return SQLServer }

func (sqlServerDialect) DescribeSchema(tables []TableSchema) string { return describeSchema(tables) }

func (sqlServerDialect) PaginationClause(limit int) string { return fmt.Sprintf("TOP %d", limit) }

func (sqlServerDialect) ForbiddenConstructs() []string {
	return []string{"LIMIT "}
}

func describeSchema(tables []TableSchema) string {
	var b strings.Builder
	b.WriteString("Schema:\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "- %s(%s)\n", t.Name, strings.Join(t.Columns, ", "))
	}
	return b.String()
}
