package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/songo-bi/songo-engine/pkg/adapters/datasource"
	_ "github.com/songo-bi/songo-engine/pkg/adapters/datasource/mssql"
	_ "github.com/songo-bi/songo-engine/pkg/adapters/datasource/postgres"
	"github.com/songo-bi/songo-engine/pkg/cache"
	"github.com/songo-bi/songo-engine/pkg/catalog"
	"github.com/songo-bi/songo-engine/pkg/config"
	"github.com/songo-bi/songo-engine/pkg/handlers"
	"github.com/songo-bi/songo-engine/pkg/middleware"
	"github.com/songo-bi/songo-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// Log startup configuration
	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Catalog: %s", cfg.CatalogPath)
	if cfg.Cache.RedisHost != "" {
		log.Printf("  Cache: redis %s:%d", cfg.Cache.RedisHost, cfg.Cache.RedisPort)
	} else {
		log.Printf("  Cache: in-process memory")
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	connMgr := datasource.NewConnectionManager(datasource.ConnectionManagerConfig{
		TTLMinutes:   cfg.Datasource.ConnectionTTLMinutes,
		PoolMaxConns: cfg.Datasource.PoolMaxConns,
		PoolMinConns: cfg.Datasource.PoolMinConns,
	}, logger)
	defer func() { _ = connMgr.Close() }()

	store := newCacheStore(cfg, logger)
	defer func() { _ = store.Close() }()

	dataService := services.NewDataService(
		cat,
		cat,
		datasource.NewAdapterFactory(connMgr),
		cache.NewMemoizer(store, logger),
		logger,
	)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChartDataHandler(dataService, logger).RegisterRoutes(mux)
	handlers.NewSQLLabHandler(dataService, logger).RegisterRoutes(mux)
	handlers.NewTablesHandler(cat, dataService, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.RequestLogger(logger)(mux)

	log.Printf("Starting songo-engine on %s (version: %s)", cfg.Addr(), cfg.Version)
	if err := http.ListenAndServe(cfg.Addr(), handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newCacheStore picks the configured cache backend. A Redis that cannot be
// reached at startup degrades to the in-process memory store rather than
// failing the boot.
func newCacheStore(cfg *config.Config, logger *zap.Logger) cache.Store {
	if cfg.Cache.RedisHost == "" {
		return cache.NewMemoryStore(cfg.Cache.DefaultTTL())
	}

	store, err := cache.NewRedisStore(cache.RedisConfig{
		Host:     cfg.Cache.RedisHost,
		Port:     cfg.Cache.RedisPort,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	}, cfg.Cache.DefaultTTL(), logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to memory cache", zap.Error(err))
		return cache.NewMemoryStore(cfg.Cache.DefaultTTL())
	}
	return store
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
