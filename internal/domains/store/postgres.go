package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"reseller/internal/domains"
	"reseller/internal/lifecycle"
	"reseller/internal/platform/postgres"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/platform/tx"
	"reseller/pkg/requestcontext"
)

const domainColumns = `id, partner_id, client_id, registrar_id, tld_id, name, status,
	registered_at, expires_at, auto_renew, last_synced_at, sync_metadata,
	transfer_initiated_at, transfer_status_message, deleted_at, created_at, updated_at`

// Postgres persists domains in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, d *domains.Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	meta, err := json.Marshal(metadataOrEmpty(d.SyncMetadata))
	if err != nil {
		return fmt.Errorf("encode sync metadata: %w", err)
	}
	now := requestcontext.Now(ctx)
	_, err = tx.QuerierFor(ctx, s.pool).Exec(ctx, `
		INSERT INTO domains (`+domainColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NULL, $15, $15)`,
		uuid.UUID(d.ID), uuid.UUID(d.PartnerID), clientUUID(d.ClientID), d.RegistrarID, d.TldID,
		strings.ToLower(d.Name), string(d.Status), d.RegisteredAt, d.ExpiresAt, d.AutoRenew,
		d.LastSyncedAt, meta, d.TransferInitiatedAt, d.TransferStatusMessage, now,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("domain %s: %w", d.Name, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert domain: %w", err)
	}
	d.CreatedAt, d.UpdatedAt = now, now
	return nil
}

func (s *Postgres) Get(ctx context.Context, domainID id.DomainID) (*domains.Domain, error) {
	row := tx.QuerierFor(ctx, s.pool).QueryRow(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE id = $1 AND deleted_at IS NULL`, uuid.UUID(domainID))
	d, err := scanDomain(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("domain %s: %w", domainID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get domain: %w", err)
	}
	return d, nil
}

func (s *Postgres) GetByName(ctx context.Context, name string) (*domains.Domain, error) {
	row := tx.QuerierFor(ctx, s.pool).QueryRow(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE name = $1 AND deleted_at IS NULL`, strings.ToLower(name))
	d, err := scanDomain(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("domain %s: %w", name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get domain by name: %w", err)
	}
	return d, nil
}

func (s *Postgres) List(ctx context.Context, f domains.Filter) ([]*domains.Domain, error) {
	query, args := buildListQuery(f)
	rows, err := tx.QuerierFor(ctx, s.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	out := make([]*domains.Domain, 0)
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	return out, nil
}

func buildListQuery(f domains.Filter) (string, []any) {
	var (
		where = []string{"deleted_at IS NULL"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.PartnerID != nil {
		where = append(where, "partner_id = "+arg(uuid.UUID(*f.PartnerID)))
	}
	if f.RegistrarID != 0 {
		where = append(where, "registrar_id = "+arg(f.RegistrarID))
	}
	if len(f.Statuses) > 0 {
		where = append(where, "status = ANY("+arg(pq.Array(statusStrings(f.Statuses)))+"::text[])")
	}
	if f.AutoRenew != nil {
		where = append(where, "auto_renew = "+arg(*f.AutoRenew))
	}
	if f.ExpiresBefore != nil {
		where = append(where, "expires_at <= "+arg(f.ExpiresBefore.UTC()))
	}
	if f.ExpiresAfter != nil {
		where = append(where, "expires_at >= "+arg(f.ExpiresAfter.UTC()))
	}
	if f.SyncedBefore != nil {
		where = append(where, "(last_synced_at IS NULL OR last_synced_at < "+arg(f.SyncedBefore.UTC())+")")
	}
	query := `SELECT ` + domainColumns + ` FROM domains WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY expires_at ASC NULLS LAST, name ASC`
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	return query, args
}

func (s *Postgres) Update(ctx context.Context, d *domains.Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	meta, err := json.Marshal(metadataOrEmpty(d.SyncMetadata))
	if err != nil {
		return fmt.Errorf("encode sync metadata: %w", err)
	}
	now := requestcontext.Now(ctx)
	tag, err := tx.QuerierFor(ctx, s.pool).Exec(ctx, `
		UPDATE domains SET
			client_id = $2, registrar_id = $3, tld_id = $4, status = $5,
			registered_at = $6, expires_at = $7, auto_renew = $8, last_synced_at = $9,
			sync_metadata = $10, transfer_initiated_at = $11, transfer_status_message = $12,
			updated_at = $13
		WHERE id = $1 AND deleted_at IS NULL`,
		uuid.UUID(d.ID), clientUUID(d.ClientID), d.RegistrarID, d.TldID, string(d.Status),
		d.RegisteredAt, d.ExpiresAt, d.AutoRenew, d.LastSyncedAt,
		meta, d.TransferInitiatedAt, d.TransferStatusMessage, now,
	)
	if err != nil {
		return fmt.Errorf("update domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("domain %s: %w", d.ID, sentinel.ErrNotFound)
	}
	d.UpdatedAt = now
	return nil
}

func (s *Postgres) SoftDelete(ctx context.Context, domainID id.DomainID, at time.Time) error {
	tag, err := tx.QuerierFor(ctx, s.pool).Exec(ctx,
		`UPDATE domains SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		uuid.UUID(domainID), at.UTC())
	if err != nil {
		return fmt.Errorf("delete domain: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("domain %s: %w", domainID, sentinel.ErrNotFound)
	}
	return nil
}

func scanDomain(row pgx.Row) (*domains.Domain, error) {
	var (
		d         domains.Domain
		domainID  uuid.UUID
		partnerID uuid.UUID
		clientID  *uuid.UUID
		status    string
		meta      []byte
	)
	err := row.Scan(
		&domainID, &partnerID, &clientID, &d.RegistrarID, &d.TldID, &d.Name, &status,
		&d.RegisteredAt, &d.ExpiresAt, &d.AutoRenew, &d.LastSyncedAt, &meta,
		&d.TransferInitiatedAt, &d.TransferStatusMessage, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ID = id.DomainID(domainID)
	d.PartnerID = id.PartnerID(partnerID)
	if clientID != nil {
		c := id.ClientID(*clientID)
		d.ClientID = &c
	}
	st, err := lifecycle.Parse(status)
	if err != nil {
		return nil, err
	}
	d.Status = st
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &d.SyncMetadata); err != nil {
			return nil, fmt.Errorf("decode sync metadata: %w", err)
		}
	}
	return &d, nil
}

func clientUUID(c *id.ClientID) *uuid.UUID {
	if c == nil {
		return nil
	}
	u := uuid.UUID(*c)
	return &u
}

func metadataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

var _ domains.Store = (*Postgres)(nil)
