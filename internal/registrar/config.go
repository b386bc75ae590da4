package registrar

import (
	"context"
	"time"
)

// Config is a configured registrar account. Credentials are sealed and only
// opened by the factory when it builds a client.
type Config struct {
	ID          int64
	Name        string
	Slug        string
	ClientClass string
	Credentials []byte
	IsActive    bool
	IsDefault   bool
	LastSyncAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists registrar configurations. At most one configuration is the
// default; SetDefault swaps it atomically.
type Store interface {
	Create(ctx context.Context, c *Config) error
	Get(ctx context.Context, id int64) (*Config, error)
	GetBySlug(ctx context.Context, slug string) (*Config, error)
	// GetDefault returns sentinel.ErrNotFound when no default is set.
	GetDefault(ctx context.Context) (*Config, error)
	List(ctx context.Context, activeOnly bool) ([]*Config, error)
	SetDefault(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	UpdateCredentials(ctx context.Context, id int64, sealed []byte) error
	TouchLastSync(ctx context.Context, id int64, at time.Time) error
}
