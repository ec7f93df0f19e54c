package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolConnector abstracts a connection pool across database drivers so the
// connection manager can cache pgx pools and database/sql pools uniformly.
type PoolConnector interface {
	// Ping verifies the connection is alive
	Ping(ctx context.Context) error

	// Close closes all connections in the pool
	Close() error

	// Type returns the database type for logging/stats
	Type() string
}

// PoolConfig holds per-pool sizing applied when a pool is created.
type PoolConfig struct {
	MaxConns    int32
	MinConns    int32
	MaxIdleTime time.Duration
}

// NewPostgresPool creates a pgx connection pool wrapped as a PoolConnector.
func NewPostgresPool(ctx context.Context, connString string, cfg PoolConfig) (PoolConnector, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnIdleTime = cfg.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	return &postgresPool{pool: pool}, nil
}

// PostgresPool extracts the underlying *pgxpool.Pool from a PoolConnector.
func PostgresPool(connector PoolConnector) (*pgxpool.Pool, error) {
	wrapper, ok := connector.(*postgresPool)
	if !ok {
		return nil, fmt.Errorf("connector is not a postgres pool")
	}
	return wrapper.pool, nil
}

type postgresPool struct {
	pool *pgxpool.Pool
}

func (w *postgresPool) Ping(ctx context.Context) error { return w.pool.Ping(ctx) }

func (w *postgresPool) Close() error {
	w.pool.Close()
	return nil
}

func (w *postgresPool) Type() string { return "postgres" }

// NewSQLPool wraps a database/sql pool (used by the mssql adapter, which
// handles its own driver registration) as a PoolConnector.
func NewSQLPool(db *sql.DB, dbType string, cfg PoolConfig) PoolConnector {
	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)
	return &sqlPool{db: db, dbType: dbType}
}

// SQLPool extracts the underlying *sql.DB from a PoolConnector.
func SQLPool(connector PoolConnector) (*sql.DB, error) {
	wrapper, ok := connector.(*sqlPool)
	if !ok {
		return nil, fmt.Errorf("connector is not a database/sql pool")
	}
	return wrapper.db, nil
}

type sqlPool struct {
	db     *sql.DB
	dbType string
}

func (w *sqlPool) Ping(ctx context.Context) error { return w.db.PingContext(ctx) }

func (w *sqlPool) Close() error { return w.db.Close() }

func (w *sqlPool) Type() string { return w.dbType }
