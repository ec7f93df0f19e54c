package postgres

import (
	"context"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
	"github.com/songo-bi/songo-engine/pkg/models"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:                "postgres",
			DisplayName:         "PostgreSQL",
			Description:         "Connect to PostgreSQL 12+, Aurora PostgreSQL, Supabase",
			SupportsLimitClause: true,
		},
		TesterFactory: func(ctx context.Context, db *models.Database, connMgr *datasource.ConnectionManager) (datasource.ConnectionTester, error) {
			cfg, err := FromMap(db.Config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, connMgr, db.ID)
		},
		ExecutorFactory: func(ctx context.Context, db *models.Database, connMgr *datasource.ConnectionManager) (datasource.QueryExecutor, error) {
			cfg, err := FromMap(db.Config)
			if err != nil {
				return nil, err
			}
			return NewQueryExecutor(ctx, cfg, connMgr, db.ID)
		},
	})
}
