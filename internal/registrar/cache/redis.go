package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reseller/internal/registrar"
)

const defaultPrefix = "reseller:availability:"

// Redis shares availability answers between processes.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis builds a redis cache. An empty prefix uses the default key space.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

func (c *Redis) Get(ctx context.Context, registrarName, domain string) (*registrar.Availability, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key(registrarName, domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read availability: %w", err)
	}
	var a registrar.Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("decode availability: %w", err)
	}
	return &a, true, nil
}

func (c *Redis) Set(ctx context.Context, registrarName, domain string, a *registrar.Availability, ttl time.Duration) error {
	if a == nil || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key(registrarName, domain), raw, ttl).Err(); err != nil {
		return fmt.Errorf("write availability: %w", err)
	}
	return nil
}

var _ registrar.AvailabilityCache = (*Redis)(nil)
