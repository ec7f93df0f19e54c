package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for songo-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8088"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// CatalogPath points at the YAML file describing databases and tables.
	CatalogPath string `yaml:"catalog_path" env:"CATALOG_PATH" env-default:"catalog.yaml"`

	// Cache configuration
	Cache CacheConfig `yaml:"cache"`

	// Datasource connection management configuration
	Datasource DatasourceConfig `yaml:"datasource"`
}

// CacheConfig holds query result cache settings. When RedisHost is empty the
// engine falls back to the in-process memory store.
type CacheConfig struct {
	RedisHost     string `yaml:"redis_host" env:"CACHE_REDIS_HOST" env-default:""`
	RedisPort     int    `yaml:"redis_port" env:"CACHE_REDIS_PORT" env-default:"6379"`
	RedisPassword string `yaml:"-" env:"CACHE_REDIS_PASSWORD"` // Secret - not in YAML
	RedisDB       int    `yaml:"redis_db" env:"CACHE_REDIS_DB" env-default:"0"`
	// DefaultTTLSeconds applies to databases without an explicit cache_timeout.
	DefaultTTLSeconds int `yaml:"default_ttl_seconds" env:"CACHE_DEFAULT_TTL_SECONDS" env-default:"300"`
}

// DefaultTTL returns the default cache TTL as a duration.
func (c *CacheConfig) DefaultTTL() time.Duration {
	return time.Duration(c.DefaultTTLSeconds) * time.Second
}

// DatasourceConfig holds datasource connection management settings.
type DatasourceConfig struct {
	// ConnectionTTLMinutes is how long idle datasource connections are kept alive.
	ConnectionTTLMinutes int `yaml:"connection_ttl_minutes" env:"DATASOURCE_CONNECTION_TTL_MINUTES" env-default:"5"`
	// PoolMaxConns is the maximum number of connections per datasource pool.
	PoolMaxConns int32 `yaml:"pool_max_conns" env:"DATASOURCE_POOL_MAX_CONNS" env-default:"10"`
	// PoolMinConns is the minimum number of connections per datasource pool.
	PoolMinConns int32 `yaml:"pool_min_conns" env:"DATASOURCE_POOL_MIN_CONNS" env-default:"1"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// If config.yaml does not exist, environment variables and defaults are used.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment configuration: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("catalog_path is required")
	}
	if c.Cache.DefaultTTLSeconds < 0 {
		return fmt.Errorf("cache default_ttl_seconds must not be negative")
	}
	if c.Datasource.PoolMinConns > c.Datasource.PoolMaxConns {
		return fmt.Errorf("datasource pool_min_conns must not exceed pool_max_conns")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}
