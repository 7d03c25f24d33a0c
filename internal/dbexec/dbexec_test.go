package dbexec

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT, ssn TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO customers (name, ssn) VALUES ('alice','111-22-3333'),('bob','444-55-6666')`)
	require.NoError(t, err)
	return db
}

func TestExecuteReturnsRows(t *testing.T) {
	db := openTestDB(t)
	exec := New([]*Database{{ID: "d1", Conn: db}}, DefaultLimits(), 3, nil)

	res := exec.Execute(context.Background(), "d1", "SELECT id, name, ssn FROM customers ORDER BY id")
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "alice", res.Rows[0]["name"])
}

func TestExecuteSanitizesSensitiveColumns(t *testing.T) {
	db := openTestDB(t)
	exec := New([]*Database{{ID: "d1", Conn: db, SensitiveColumns: []*regexp.Regexp{regexp.MustCompile(`(?i)ssn`)}}}, DefaultLimits(), 3, nil)

	res := exec.Execute(context.Background(), "d1", "SELECT id, name, ssn FROM customers ORDER BY id")
	require.NoError(t, res.Err)
	assert.Equal(t, "[REDACTED]", res.Rows[0]["ssn"])
	assert.Equal(t, "alice", res.Rows[0]["name"])
}

func TestExecuteUnknownDatabase(t *testing.T) {
	exec := New(nil, DefaultLimits(), 3, nil)
	res := exec.Execute(context.Background(), "missing", "SELECT 1")
	assert.Error(t, res.Err)
}

func TestExecuteRowLimitTruncates(t *testing.T) {
	db := openTestDB(t)
	limits := DefaultLimits()
	limits.MaxRowsPerQuery = 1
	exec := New([]*Database{{ID: "d1", Conn: db}}, limits, 3, nil)

	res := exec.Execute(context.Background(), "d1", "SELECT id FROM customers ORDER BY id")
	require.NoError(t, res.Err)
	assert.Len(t, res.Rows, 1)
	assert.True(t, res.RowsTruncated)
}

func TestExecuteManyIsolatesPerDBFailure(t *testing.T) {
	good := openTestDB(t)
	bad := openTestDB(t)
	bad.Close() // force failures on "bad"

	exec := New([]*Database{{ID: "good", Conn: good}, {ID: "bad", Conn: bad}}, DefaultLimits(), 3, nil)
	results := exec.ExecuteMany(context.Background(), map[string]string{
		"good": "SELECT id FROM customers",
		"bad":  "SELECT id FROM customers",
	})
	require.Len(t, results, 2)

	byID := map[string]Result{}
	for _, r := range results {
		byID[r.DatabaseID] = r
	}
	assert.NoError(t, byID["good"].Err)
	assert.Error(t, byID["bad"].Err)
}
