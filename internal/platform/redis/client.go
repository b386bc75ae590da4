// Package redis connects the shared Redis instance that backs the registrar
// availability cache and the mock registrar state.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"reseller/internal/platform/config"
)

// Client is the process-wide connection. Callers needing raw commands use the
// embedded go-redis client.
type Client struct {
	*goredis.Client
	addr string
}

// New dials and pings Redis. A nil client and nil error mean Redis is not
// configured.
func New(ctx context.Context, cfg config.Redis) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb, addr: opts.Addr}, nil
}

// Options parses the URL and applies the non-zero pool and timeout settings
// on top of the go-redis defaults.
func Options(cfg config.Redis) (*goredis.Options, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.MinIdleConns = cfg.MinIdleConns
	overrideInt(&opts.PoolSize, cfg.PoolSize)
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func overrideInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

// Addr is the host:port the client dialled.
func (c *Client) Addr() string {
	return c.addr
}

// Health pings the server; it is registered as the "redis" dependency check.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", c.addr, err)
	}
	return nil
}
