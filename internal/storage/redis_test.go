package storage

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedisStore(t *testing.T) *RedisStore {
	c := context.Background()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := redisContainer.Terminate(context.Background()); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	})

	redisConnStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}

	redisOpt, err := redis.ParseURL(redisConnStr)
	if err != nil {
		t.Fatalf("failed parsing redis connection string with error: %s", err)
	}

	redisClient := redis.NewClient(redisOpt)
	if err = redisClient.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis client with error: %s", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	return NewRedisStore(redisClient)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := setupRedisStore(t)
	c := context.Background()

	require.NoError(t, store.Set(c, "storefront:cart", []byte(`{"lines":[]}`)))

	value, err := store.Get(c, "storefront:cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"lines":[]}`, string(value))
}

func TestRedisStoreMissingKey(t *testing.T) {
	store := setupRedisStore(t)

	_, err := store.Get(context.Background(), "storefront:cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestRedisStoreDelete(t *testing.T) {
	store := setupRedisStore(t)
	c := context.Background()

	require.NoError(t, store.Set(c, "storefront:cart", []byte(`{}`)))
	require.NoError(t, store.Delete(c, "storefront:cart"))

	_, err := store.Get(c, "storefront:cart")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
