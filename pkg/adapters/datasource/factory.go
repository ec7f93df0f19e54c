package datasource

import (
	"context"
	"fmt"

	"github.com/songo-bi/songo-engine/pkg/apperrors"
	"github.com/songo-bi/songo-engine/pkg/models"
)

// AdapterFactory creates adapters from the registry.
type AdapterFactory interface {
	// NewConnectionTester creates a connection tester for the given database.
	NewConnectionTester(ctx context.Context, db *models.Database) (ConnectionTester, error)

	// NewQueryExecutor creates a query executor for the given database.
	NewQueryExecutor(ctx context.Context, db *models.Database) (QueryExecutor, error)

	// ListTypes returns info for all registered adapter types.
	ListTypes() []AdapterInfo

	// SupportsLimitClause reports whether the dialect for the given
	// database type accepts a trailing LIMIT clause.
	SupportsLimitClause(dbType string) bool
}

type registryFactory struct {
	connMgr *ConnectionManager
}

// NewAdapterFactory returns a factory that uses the global registry.
func NewAdapterFactory(connMgr *ConnectionManager) AdapterFactory {
	return &registryFactory{
		connMgr: connMgr,
	}
}

func (f *registryFactory) NewConnectionTester(ctx context.Context, db *models.Database) (ConnectionTester, error) {
	factory := GetTesterFactory(db.Type)
	if factory == nil {
		return nil, fmt.Errorf("unsupported database type %q: %w", db.Type, apperrors.ErrConnectionUnavailable)
	}
	return factory(ctx, db, f.connMgr)
}

func (f *registryFactory) NewQueryExecutor(ctx context.Context, db *models.Database) (QueryExecutor, error) {
	factory := GetExecutorFactory(db.Type)
	if factory == nil {
		return nil, fmt.Errorf("unsupported database type %q: %w", db.Type, apperrors.ErrConnectionUnavailable)
	}
	return factory(ctx, db, f.connMgr)
}

func (f *registryFactory) ListTypes() []AdapterInfo {
	return RegisteredAdapters()
}

func (f *registryFactory) SupportsLimitClause(dbType string) bool {
	return SupportsLimitClause(dbType)
}

// Ensure registryFactory implements AdapterFactory at compile time.
var _ AdapterFactory = (*registryFactory)(nil)
