package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
)

// Adapter provides SQL Server connectivity checks.
type Adapter struct {
	config  *Config
	db      *sql.DB
	ownedDB bool // true if we opened the DB (for tests or direct instantiation)
}

// buildConnectionString builds a sqlserver:// URL with proper escaping.
// Username and password must be URL-escaped to handle special characters.
func buildConnectionString(cfg *Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		query.Encode(),
	)
}

// openDB opens a SQL Server connection without pooling management.
func openDB(cfg *Config) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlserver connection: %w", err)
	}
	return db, nil
}

// NewAdapter creates a SQL Server connection tester using the connection manager.
// If connMgr is nil, opens an unmanaged connection (for tests or direct instantiation).
func NewAdapter(ctx context.Context, cfg *Config, connMgr *datasource.ConnectionManager, databaseID uuid.UUID) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if connMgr == nil {
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connection test failed: %w", err)
		}

		return &Adapter{
			config:  cfg,
			db:      db,
			ownedDB: true,
		}, nil
	}

	connector, err := connMgr.GetOrCreate(ctx, databaseID, func(ctx context.Context, poolCfg datasource.PoolConfig) (datasource.PoolConnector, error) {
		db, err := openDB(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connection test failed: %w", err)
		}
		return datasource.NewSQLPool(db, "mssql", poolCfg), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get pooled connection: %w", err)
	}

	db, err := datasource.SQLPool(connector)
	if err != nil {
		return nil, fmt.Errorf("failed to extract mssql db: %w", err)
	}

	return &Adapter{
		config:  cfg,
		db:      db,
		ownedDB: false,
	}, nil
}

// TestConnection verifies the database is reachable with valid credentials.
func (a *Adapter) TestConnection(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var result int
	if err := a.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	return nil
}

// Close releases the adapter (but NOT the DB if managed).
func (a *Adapter) Close() error {
	if a.ownedDB && a.db != nil {
		return a.db.Close()
	}
	// Managed connections are closed by the connection manager's TTL cleanup.
	return nil
}

// DB returns the underlying *sql.DB for use by the query executor.
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// Ensure Adapter implements ConnectionTester at compile time.
var _ datasource.ConnectionTester = (*Adapter)(nil)
