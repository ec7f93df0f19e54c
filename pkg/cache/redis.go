package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStore is a Store backed by Redis, for deployments where multiple
// engine instances should share cached chart data.
type RedisStore struct {
	client     *redis.Client
	logger     *zap.Logger
	defaultTTL time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
// defaultTTL <= 0 falls back to DefaultTTL.
func NewRedisStore(cfg RedisConfig, defaultTTL time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("redis cache initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return &RedisStore{
		client:     client,
		logger:     logger,
		defaultTTL: defaultTTL,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		s.logger.Warn("redis get error", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.Warn("redis set error", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("redis delete error", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
