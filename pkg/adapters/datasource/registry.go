package datasource

import (
	"context"
	"sync"

	"github.com/songo-bi/songo-engine/pkg/models"
)

// AdapterInfo describes a registered adapter for discovery endpoints.
type AdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "mssql"
	DisplayName string `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string `json:"description"`

	// SupportsLimitClause reports whether the dialect accepts a trailing
	// LIMIT clause. Dialects without one (SQL Server) rely on the
	// executor's limit wrapping instead.
	SupportsLimitClause bool `json:"supports_limit_clause"`
}

// AdapterRegistration contains info + factories for creating adapters.
// Factories receive the database definition and the shared connection
// manager so sessions come from the per-database cached pool.
type AdapterRegistration struct {
	Info            AdapterInfo
	TesterFactory   func(ctx context.Context, db *models.Database, connMgr *ConnectionManager) (ConnectionTester, error)
	ExecutorFactory func(ctx context.Context, db *models.Database, connMgr *ConnectionManager) (QueryExecutor, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterRegistration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg AdapterRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// RegisteredAdapters returns info for all registered adapters.
func RegisteredAdapters() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// GetTesterFactory returns the connection tester factory for a database type.
// Returns nil if the type is not registered.
func GetTesterFactory(dbType string) func(ctx context.Context, db *models.Database, connMgr *ConnectionManager) (ConnectionTester, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dbType]; ok {
		return reg.TesterFactory
	}
	return nil
}

// GetExecutorFactory returns the query executor factory for a database type.
// Returns nil if the type is not registered.
func GetExecutorFactory(dbType string) func(ctx context.Context, db *models.Database, connMgr *ConnectionManager) (QueryExecutor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dbType]; ok {
		return reg.ExecutorFactory
	}
	return nil
}

// SupportsLimitClause reports whether dbType's dialect accepts a trailing
// LIMIT clause. Unregistered types default to true; executor creation fails
// for them anyway.
func SupportsLimitClause(dbType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if reg, ok := registry[dbType]; ok {
		return reg.Info.SupportsLimitClause
	}
	return true
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dbType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dbType]
	return ok
}
