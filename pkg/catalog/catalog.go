// Package catalog holds the in-memory description of queryable databases
// and tables. It is read-mostly: loaded at startup (or on an external
// schema-refresh trigger) and consulted on every chart request.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/songo-bi/songo-engine/pkg/apperrors"
	"github.com/songo-bi/songo-engine/pkg/models"
)

// SchemaProvider resolves a chart datasource ID to its table descriptor.
type SchemaProvider interface {
	Table(ctx context.Context, tableID uuid.UUID) (*models.Table, error)
}

// ConnectionProvider resolves a database ID to its connection definition.
type ConnectionProvider interface {
	Database(ctx context.Context, databaseID uuid.UUID) (*models.Database, error)
}

// Catalog is a concurrent-safe registry of databases and tables.
type Catalog struct {
	mu        sync.RWMutex
	databases map[uuid.UUID]*models.Database
	tables    map[uuid.UUID]*models.Table
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		databases: make(map[uuid.UUID]*models.Database),
		tables:    make(map[uuid.UUID]*models.Table),
	}
}

// RegisterDatabase adds or replaces a database connection definition.
func (c *Catalog) RegisterDatabase(db *models.Database) error {
	if db.ID == uuid.Nil {
		return fmt.Errorf("database %q: id is required", db.Name)
	}
	if strings.TrimSpace(db.Name) == "" {
		return fmt.Errorf("database %s: name is required", db.ID)
	}
	if db.Type == "" {
		return fmt.Errorf("database %q: type is required", db.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.databases[db.ID] = db
	return nil
}

// RegisterTable adds or replaces a table descriptor. The owning database
// must already be registered.
func (c *Catalog) RegisterTable(table *models.Table) error {
	if table.ID == uuid.Nil {
		return fmt.Errorf("table %q: id is required", table.Name)
	}
	if err := table.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.databases[table.DatabaseID]; !ok {
		return fmt.Errorf("table %q references unknown database %s", table.Name, table.DatabaseID)
	}
	c.tables[table.ID] = table
	return nil
}

// Database returns the connection definition for the given ID.
func (c *Catalog) Database(_ context.Context, databaseID uuid.UUID) (*models.Database, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	db, ok := c.databases[databaseID]
	if !ok {
		return nil, fmt.Errorf("database %s: %w", databaseID, apperrors.ErrNotFound)
	}
	return db, nil
}

// Table returns the table descriptor for the given ID.
func (c *Catalog) Table(_ context.Context, tableID uuid.UUID) (*models.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	table, ok := c.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("table %s: %w", tableID, apperrors.ErrNotFound)
	}
	return table, nil
}

// Tables returns all registered table descriptors, ordered by name.
func (c *Catalog) Tables() []*models.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tables := make([]*models.Table, 0, len(c.tables))
	for _, t := range c.tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables
}

// ReplaceTables swaps every table of the given database in one step.
// Used by schema-refresh cycles so readers never observe a half-applied
// refresh.
func (c *Catalog) ReplaceTables(databaseID uuid.UUID, tables []*models.Table) error {
	for _, t := range tables {
		if t.DatabaseID != databaseID {
			return fmt.Errorf("table %q belongs to database %s, not %s", t.Name, t.DatabaseID, databaseID)
		}
		if t.ID == uuid.Nil {
			return fmt.Errorf("table %q: id is required", t.Name)
		}
		if err := t.Validate(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.databases[databaseID]; !ok {
		return fmt.Errorf("unknown database %s", databaseID)
	}
	for id, t := range c.tables {
		if t.DatabaseID == databaseID {
			delete(c.tables, id)
		}
	}
	for _, t := range tables {
		c.tables[t.ID] = t
	}
	return nil
}

// Ensure Catalog satisfies both provider interfaces at compile time.
var (
	_ SchemaProvider     = (*Catalog)(nil)
	_ ConnectionProvider = (*Catalog)(nil)
)
