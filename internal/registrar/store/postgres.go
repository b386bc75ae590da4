package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reseller/internal/platform/postgres"
	"reseller/internal/registrar"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/platform/tx"
)

const configColumns = `id, name, slug, client_class, credentials, is_active, is_default, last_sync_at, created_at, updated_at`

// Postgres persists registrar configurations in the registrars table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, c *registrar.Config) error {
	if err := validate(c); err != nil {
		return err
	}
	c.Slug = strings.ToLower(c.Slug)
	return tx.Run(ctx, s.pool, func(ctx context.Context) error {
		q := tx.QuerierFor(ctx, s.pool)
		if c.IsDefault {
			if _, err := q.Exec(ctx, `UPDATE registrars SET is_default = FALSE, updated_at = NOW() WHERE is_default`); err != nil {
				return fmt.Errorf("clear default registrar: %w", err)
			}
		}
		var row pgx.Row
		explicitID := c.ID != 0
		if explicitID {
			row = q.QueryRow(ctx, `
				INSERT INTO registrars (id, name, slug, client_class, credentials, is_active, is_default)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING id, created_at, updated_at`,
				c.ID, c.Name, c.Slug, c.ClientClass, c.Credentials, c.IsActive, c.IsDefault)
		} else {
			row = q.QueryRow(ctx, `
				INSERT INTO registrars (name, slug, client_class, credentials, is_active, is_default)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id, created_at, updated_at`,
				c.Name, c.Slug, c.ClientClass, c.Credentials, c.IsActive, c.IsDefault)
		}
		if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			if postgres.IsUniqueViolation(err) {
				return fmt.Errorf("registrar %s: %w", c.Slug, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert registrar: %w", err)
		}
		if explicitID {
			if _, err := q.Exec(ctx, `SELECT setval(pg_get_serial_sequence('registrars', 'id'), (SELECT MAX(id) FROM registrars))`); err != nil {
				return fmt.Errorf("advance registrar sequence: %w", err)
			}
		}
		return nil
	})
}

func (s *Postgres) Get(ctx context.Context, id int64) (*registrar.Config, error) {
	return s.one(ctx, fmt.Sprintf("registrar %d", id), `SELECT `+configColumns+` FROM registrars WHERE id = $1`, id)
}

func (s *Postgres) GetBySlug(ctx context.Context, slug string) (*registrar.Config, error) {
	slug = strings.ToLower(slug)
	return s.one(ctx, "registrar "+slug, `SELECT `+configColumns+` FROM registrars WHERE slug = $1`, slug)
}

func (s *Postgres) GetDefault(ctx context.Context) (*registrar.Config, error) {
	return s.one(ctx, "default registrar", `SELECT `+configColumns+` FROM registrars WHERE is_default LIMIT 1`)
}

func (s *Postgres) one(ctx context.Context, what, query string, args ...any) (*registrar.Config, error) {
	c, err := scanConfig(tx.QuerierFor(ctx, s.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", what, err)
	}
	return c, nil
}

func (s *Postgres) List(ctx context.Context, activeOnly bool) ([]*registrar.Config, error) {
	rows, err := tx.QuerierFor(ctx, s.pool).Query(ctx,
		`SELECT `+configColumns+` FROM registrars WHERE NOT $1::boolean OR is_active ORDER BY id`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list registrars: %w", err)
	}
	defer rows.Close()
	out := make([]*registrar.Config, 0)
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registrar: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list registrars: %w", err)
	}
	return out, nil
}

// SetDefault clears the current default and sets the new one in a single
// transaction, so readers never observe two defaults.
func (s *Postgres) SetDefault(ctx context.Context, id int64) error {
	return tx.Run(ctx, s.pool, func(ctx context.Context) error {
		q := tx.QuerierFor(ctx, s.pool)
		var active bool
		err := q.QueryRow(ctx, `SELECT is_active FROM registrars WHERE id = $1 FOR UPDATE`, id).Scan(&active)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("registrar %d: %w", id, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock registrar: %w", err)
		}
		if !active {
			return fmt.Errorf("registrar %d is inactive: %w", id, sentinel.ErrInvalidState)
		}
		if _, err := q.Exec(ctx, `UPDATE registrars SET is_default = FALSE, updated_at = NOW() WHERE is_default AND id <> $1`, id); err != nil {
			return fmt.Errorf("clear default registrar: %w", err)
		}
		if _, err := q.Exec(ctx, `UPDATE registrars SET is_default = TRUE, updated_at = NOW() WHERE id = $1`, id); err != nil {
			return fmt.Errorf("set default registrar: %w", err)
		}
		return nil
	})
}

func (s *Postgres) SetActive(ctx context.Context, id int64, active bool) error {
	return s.exec(ctx, id, `UPDATE registrars SET is_active = $2, is_default = is_default AND $2, updated_at = NOW() WHERE id = $1`, active)
}

func (s *Postgres) UpdateCredentials(ctx context.Context, id int64, sealed []byte) error {
	return s.exec(ctx, id, `UPDATE registrars SET credentials = $2, updated_at = NOW() WHERE id = $1`, sealed)
}

func (s *Postgres) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	return s.exec(ctx, id, `UPDATE registrars SET last_sync_at = $2, updated_at = NOW() WHERE id = $1`, at.UTC())
}

func (s *Postgres) exec(ctx context.Context, id int64, query string, arg any) error {
	tag, err := tx.QuerierFor(ctx, s.pool).Exec(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("update registrar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("registrar %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func scanConfig(row pgx.Row) (*registrar.Config, error) {
	var c registrar.Config
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.ClientClass, &c.Credentials,
		&c.IsActive, &c.IsDefault, &c.LastSyncAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

var _ registrar.Store = (*Postgres)(nil)
