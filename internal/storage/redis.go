package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/log"
)

var (
	cacheOnce sync.Once
	cache     *redis.Client
)

func NewCacheClient(c context.Context, config config.Cache) *redis.Client {
	cacheOnce.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyTag, "main NewCacheClient").
			Logger()

		logger = logger.With().Str(log.KeyProcess, "initializing redis client").Logger()
		logger.Info().Msg("initializing redis client")
		cache = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", config.Host, config.Port),
			Password: config.Password,
			DB:       config.Database,
		})
		logger.Info().Msg("initialized redis client")

		logger = logger.With().Str(log.KeyProcess, "initializing redis otel tracing").Logger()
		logger.Info().Msg("initializing redis otel tracing")
		err := redisotel.InstrumentTracing(cache, redisotel.WithAttributes(semconv.DBSystemRedis))
		if err != nil {
			err = fmt.Errorf("failed initializing otel redis tracing with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("initialized redis otel tracing")

		logger = logger.With().Str(log.KeyProcess, "pinging connection to redis").Logger()
		logger.Info().Msg("pinging connection to redis")
		err = cache.Ping(c).Err()
		if err != nil {
			err = fmt.Errorf("failed pinging redis with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("pinged connection to redis")
	})
	return cache
}

// RedisStore keeps per-device state server-side behind the same Store
// contract as the file backend.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(c context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(c, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed reading key=%s with error=%w", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(c context.Context, key string, value []byte) error {
	err := s.client.Set(c, key, value, 0).Err()
	if err != nil {
		return fmt.Errorf("failed writing key=%s with error=%w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(c context.Context, key string) error {
	err := s.client.Del(c, key).Err()
	if err != nil {
		return fmt.Errorf("failed deleting key=%s with error=%w", key, err)
	}
	return nil
}
