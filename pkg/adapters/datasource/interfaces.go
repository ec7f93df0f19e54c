package datasource

import "context"

// DefaultQueryLimit is the row bound applied to ad-hoc SQL when the caller
// does not specify one. Chart queries carry their own LIMIT from the
// builder and pass 0 here to skip wrapping.
const DefaultQueryLimit = 1000

// ConnectionTester tests database connectivity.
// Each implementation owns its connection and must be closed when done.
type ConnectionTester interface {
	// TestConnection verifies the database is reachable with valid credentials.
	// Returns nil if connection is healthy, error otherwise.
	TestConnection(ctx context.Context) error

	// Close releases the database connection.
	Close() error
}

// QueryExecutor executes SQL against a configured database.
//
// When limit > 0 the statement is wrapped with a dialect-specific bound:
//   - PostgreSQL: SELECT * FROM (query) AS limited LIMIT n
//   - SQL Server: SELECT TOP (n) * FROM (query) AS limited
//
// When limit <= 0 the statement runs unmodified. Wrapping an already
// limited query composes to the smaller of the two bounds.
//
// Each implementation owns its session and must be closed when done;
// the underlying pool is shared and managed by the ConnectionManager.
type QueryExecutor interface {
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryResult, error)
	Close() error
}

// ColumnInfo describes a result column with database-agnostic type information.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"` // Database type name (e.g., "TEXT", "INT4", "VARCHAR")
}

// QueryResult holds a materialized tabular result. Rows are positional
// tuples in column order; the struct is never mutated after it is built.
type QueryResult struct {
	Columns  []ColumnInfo `json:"columns"`
	Rows     [][]any      `json:"rows"`
	RowCount int          `json:"row_count"`
}

// ColumnNames returns the result column names in order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}
