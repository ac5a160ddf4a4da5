package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/geocoder89/marketplace/internal/config"
)

type RedisStore struct {
	redisdb *redis.Client
	ttl     time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) *RedisStore {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &RedisStore{redisdb: redisdb, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.redisdb.Get(ctx, key).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte) error {
	return s.redisdb.Set(ctx, key, val, s.ttl).Err()
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	return s.redisdb.Incr(ctx, key).Result()
}

func (s *RedisStore) Counter(ctx context.Context, key string) (int64, error) {
	n, err := s.redisdb.Get(ctx, key).Int64()

	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return n, err
}

// Ping checks redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redisdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.redisdb.Close()
}

// NewStore picks redis when an address is configured, otherwise an in-process
// Memory. shared reports whether other processes see the same generation
// counter, which is what cross-process invalidation needs.
func NewStore(cfg config.RedisConfig, ttl time.Duration) (store Store, shared bool) {
	if cfg.Addr == "" {
		return NewMemory(ttl), false
	}

	return NewRedisStore(cfg, ttl), true
}
