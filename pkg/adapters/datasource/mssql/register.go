package mssql

import (
	"context"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
	"github.com/songo-bi/songo-engine/pkg/models"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "mssql",
			DisplayName: "Microsoft SQL Server",
			Description: "Connect to SQL Server 2017+, Azure SQL Database",
			// T-SQL has no LIMIT clause; the executor's TOP wrapper
			// bounds chart queries instead.
			SupportsLimitClause: false,
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
