package ragtypes

// DatabaseQueryIntent describes one database the analyzer believes must be
// consulted to answer a query.
type DatabaseQueryIntent struct {
	DatabaseID      string              `json:"databaseId"`
	DatabaseName    string              `json:"databaseName"`
	RequiredTables  []string            `json:"requiredTables"`
	RequiredColumns map[string][]string `json:"requiredColumns,omitempty"`
	GeneratedQuery  string              `json:"generatedQuery,omitempty"`
	Purpose         string              `json:"purpose"`
	Priority        int                 `json:"priority"`
}

// QueryIntent is the analyzer's structured hypothesis about which data
// sources a query needs.
type QueryIntent struct {
	OriginalQuery           string                `json:"originalQuery"`
	Understanding           string                `json:"understanding"`
	DatabaseQueries         []DatabaseQueryIntent `json:"databaseQueries"`
	Confidence              float64               `json:"confidence"`
	RequiresCrossDatabaseJoin bool                `json:"requiresCrossDatabaseJoin"`
	Reasoning               string                `json:"reasoning"`
}

// HasDatabaseQueries reports whether the analyzer found at least one
// database worth querying.
func (q *QueryIntent) HasDatabaseQueries() bool {
	return q != nil && len(q.DatabaseQueries) > 0
}

// Tags is the parsed set of directive tokens stripped from a raw query
// string (spec.md §4.6, §6).
type Tags struct {
	DocumentOnly     bool
	DatabaseOnly     bool
	Audio            bool
	Image            bool
	MCP              bool
	PreferredLanguage string
}

// Strategy is the execution path chosen for a query.
type Strategy string

const (
	StrategyDocumentOnly Strategy = "DocumentOnly"
	StrategyDatabaseOnly Strategy = "DatabaseOnly"
	StrategyHybrid       Strategy = "Hybrid"
)
