//go:build integration

package containers

import (
	"context"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"reseller/internal/platform/config"
	platformredis "reseller/internal/platform/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer backs the availability cache and mock registrar state
// suites. The connection goes through the same constructor the binaries use.
type RedisContainer struct {
	URL    string
	Client *platformredis.Client
}

// NewRedisContainer starts a server and connects to it.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		t.Fatalf("start %s: %v", redisImage, err)
	}
	url, err := ctr.ConnectionString(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}
	rc, err := platformredis.New(ctx, config.Redis{URL: url})
	if err != nil {
		_ = ctr.Terminate(ctx)
		t.Fatalf("connect redis: %v", err)
	}
	return &RedisContainer{URL: url, Client: rc}
}

// Raw is the go-redis client the cache and mock state are built on.
func (r *RedisContainer) Raw() *goredis.Client {
	return r.Client.Client
}

// Reset empties the database. Suites call it from SetupTest.
func (r *RedisContainer) Reset(ctx context.Context) error {
	return r.Client.FlushDB(ctx).Err()
}
