package mssql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
)

// QueryExecutor provides SQL Server query execution.
type QueryExecutor struct {
	db      *sql.DB
	ownedDB bool
}

// NewQueryExecutor creates a SQL Server query executor using the connection manager.
func NewQueryExecutor(ctx context.Context, cfg *Config, connMgr *datasource.ConnectionManager, databaseID uuid.UUID) (*QueryExecutor, error) {
	adapter, err := NewAdapter(ctx, cfg, connMgr, databaseID)
	if err != nil {
		return nil, err
	}

	return &QueryExecutor{
		db:      adapter.DB(),
		ownedDB: adapter.ownedDB,
	}, nil
}

// NewQueryExecutorWithDB wraps an existing *sql.DB. The caller retains
// ownership of the connection.
func NewQueryExecutorWithDB(db *sql.DB) *QueryExecutor {
	return &QueryExecutor{db: db}
}

// Query runs a SQL query and returns the results. When limit > 0 the query
// is wrapped in a limiting subselect using SQL Server's TOP clause; the
// inner SQL is never modified.
func (e *QueryExecutor) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryResult, error) {
	queryToRun := sqlQuery
	if limit > 0 {
		queryToRun = fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS limited_query", limit, sqlQuery)
	}

	rows, err := e.db.QueryContext(ctx, queryToRun)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	columns := make([]datasource.ColumnInfo, len(columnNames))
	for i, colName := range columnNames {
		columns[i] = datasource.ColumnInfo{
			Name: colName,
			Type: mapSQLServerType(columnTypes[i].DatabaseTypeName()),
		}
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i := range values {
			// The driver returns []byte for text columns; convert to string
			if b, ok := values[i].([]byte); ok && isStringType(columnTypes[i].DatabaseTypeName()) {
				values[i] = string(b)
			}
		}
		resultRows = append(resultRows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &datasource.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// QuoteIdentifier safely quotes a SQL identifier using SQL Server's
// square bracket syntax: [name]
func (e *QueryExecutor) QuoteIdentifier(name string) string {
	return quoteName(name)
}

// Close releases the adapter (but NOT the DB if managed).
func (e *QueryExecutor) Close() error {
	if e.ownedDB && e.db != nil {
		return e.db.Close()
	}
	// Managed connections are closed by the connection manager's TTL cleanup.
	return nil
}

// Ensure QueryExecutor implements datasource.QueryExecutor at compile time.
var _ datasource.QueryExecutor = (*QueryExecutor)(nil)
