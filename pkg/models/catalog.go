package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Database represents a configured connection to a relational backend.
// The Config map holds driver-specific connection details (host, port,
// credentials); its structure varies by Type.
type Database struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"` // "postgres", "mssql"
	Config       map[string]any `json:"config"`
	CacheTimeout int            `json:"cache_timeout,omitempty"` // seconds, 0 = engine default
}

// Table describes one queryable table exposed as a chart datasource.
type Table struct {
	ID         uuid.UUID `json:"id"`
	DatabaseID uuid.UUID `json:"database_id"`
	Name       string    `json:"name"`
	Schema     string    `json:"schema,omitempty"`
	Columns    []Column  `json:"columns"`
}

// Column describes a table column and its chart-facing flags.
// Expression, when set, is a raw SQL override used in place of the column
// name when the column is selected (computed columns).
type Column struct {
	Name       string `json:"name"`
	Type       string `json:"type"` // "DATE", "VARCHAR", "DECIMAL", ...
	IsDatetime bool   `json:"is_dttm,omitempty"`
	Groupby    bool   `json:"groupby"`
	Filterable bool   `json:"filterable"`
	Expression string `json:"expression,omitempty"`
}

// QualifiedName returns the schema-qualified table name for FROM clauses.
func (t *Table) QualifiedName() string {
	if t.Schema != "" {
		return t.Schema + "." + t.Name
	}
	return t.Name
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Validate checks the table invariants: non-empty name, unique column names.
func (t *Table) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("table %s: name is required", t.ID)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, col := range t.Columns {
		if col.Name == "" {
			return fmt.Errorf("table %s: column name is required", t.Name)
		}
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("table %s: duplicate column %q", t.Name, col.Name)
		}
		seen[col.Name] = struct{}{}
	}
	return nil
}
