package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reseller/internal/platform/postgres"
	"reseller/internal/pricing"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/platform/tx"
)

const tldColumns = `id, registrar_id, extension, min_years, max_years, supports_dns, supports_privacy, is_active`

// Postgres persists pricing data. tld_prices is insert-only.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) PriceHistory(ctx context.Context, tldID int64, action pricing.Action, years int) ([]pricing.TldPrice, error) {
	rows, err := tx.QuerierFor(ctx, s.pool).Query(ctx, `
		SELECT id, tld_id, action, years, price, effective_date, created_at
		FROM tld_prices
		WHERE tld_id = $1 AND action = $2 AND years = $3
		ORDER BY effective_date, id`, tldID, string(action), years)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()

	var out []pricing.TldPrice
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Postgres) LatestPrice(ctx context.Context, tldID int64, action pricing.Action, years int, at time.Time) (*pricing.TldPrice, error) {
	row := tx.QuerierFor(ctx, s.pool).QueryRow(ctx, `
		SELECT id, tld_id, action, years, price, effective_date, created_at
		FROM tld_prices
		WHERE tld_id = $1 AND action = $2 AND years = $3 AND effective_date <= $4
		ORDER BY effective_date DESC, id DESC
		LIMIT 1`, tldID, string(action), years, pricing.DateOf(at))
	p, err := scanPrice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("price tld=%d %s %dy: %w", tldID, action, years, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("load latest price: %w", err)
	}
	return p, nil
}

func (s *Postgres) AppendPrice(ctx context.Context, p *pricing.TldPrice) error {
	if err := validatePrice(p); err != nil {
		return err
	}
	p.EffectiveDate = pricing.DateOf(p.EffectiveDate)
	err := tx.QuerierFor(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO tld_prices (tld_id, action, years, price, effective_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		p.TldID, string(p.Action), p.Years, p.Price, p.EffectiveDate,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("append price: %w", err)
	}
	return nil
}

func (s *Postgres) ListRules(ctx context.Context, partnerID id.PartnerID) ([]pricing.Rule, error) {
	rows, err := tx.QuerierFor(ctx, s.pool).Query(ctx, `
		SELECT id, partner_id, tld_id, years, markup_type, markup_value
		FROM partner_pricing_rules
		WHERE partner_id = $1
		ORDER BY id`, uuid.UUID(partnerID))
	if err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	defer rows.Close()

	var out []pricing.Rule
	for rows.Next() {
		var (
			r       pricing.Rule
			partner uuid.UUID
			markup  string
		)
		if err := rows.Scan(&r.ID, &partner, &r.TldID, &r.Years, &markup, &r.MarkupValue); err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		r.PartnerID = id.PartnerID(partner)
		r.MarkupType = pricing.MarkupType(markup)
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRule upserts on the (partner, tld, years) scope.
func (s *Postgres) SaveRule(ctx context.Context, r *pricing.Rule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	err := tx.QuerierFor(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO partner_pricing_rules (partner_id, tld_id, years, markup_type, markup_value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (partner_id, (COALESCE(tld_id, 0)), (COALESCE(years, 0)))
		DO UPDATE SET markup_type = EXCLUDED.markup_type, markup_value = EXCLUDED.markup_value
		RETURNING id`,
		uuid.UUID(r.PartnerID), r.TldID, r.Years, string(r.MarkupType), r.MarkupValue,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("save pricing rule: %w", err)
	}
	return nil
}

func (s *Postgres) CreateTld(ctx context.Context, t *pricing.Tld) error {
	t.Extension = normalizeExtension(t.Extension)
	q := tx.QuerierFor(ctx, s.pool)
	var err error
	if t.ID != 0 {
		_, err = q.Exec(ctx, `
			INSERT INTO tlds (`+tldColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.RegistrarID, t.Extension, t.MinYears, t.MaxYears, t.SupportsDNS, t.SupportsPrivacy, t.IsActive)
	} else {
		err = q.QueryRow(ctx, `
			INSERT INTO tlds (registrar_id, extension, min_years, max_years, supports_dns, supports_privacy, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			t.RegistrarID, t.Extension, t.MinYears, t.MaxYears, t.SupportsDNS, t.SupportsPrivacy, t.IsActive,
		).Scan(&t.ID)
	}
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("tld .%s: %w", t.Extension, sentinel.ErrConflict)
		}
		return fmt.Errorf("create tld: %w", err)
	}
	return nil
}

func (s *Postgres) FindTld(ctx context.Context, tldID int64) (*pricing.Tld, error) {
	row := tx.QuerierFor(ctx, s.pool).QueryRow(ctx, `SELECT `+tldColumns+` FROM tlds WHERE id = $1`, tldID)
	t, err := scanTld(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tld %d: %w", tldID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find tld: %w", err)
	}
	return t, nil
}

func (s *Postgres) FindTldByExtension(ctx context.Context, registrarID int64, extension string) (*pricing.Tld, error) {
	ext := normalizeExtension(extension)
	row := tx.QuerierFor(ctx, s.pool).QueryRow(ctx,
		`SELECT `+tldColumns+` FROM tlds WHERE registrar_id = $1 AND extension = $2`, registrarID, ext)
	t, err := scanTld(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tld .%s: %w", ext, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find tld: %w", err)
	}
	return t, nil
}

func (s *Postgres) ListActiveTlds(ctx context.Context, registrarID int64) ([]*pricing.Tld, error) {
	rows, err := tx.QuerierFor(ctx, s.pool).Query(ctx, `
		SELECT `+tldColumns+` FROM tlds
		WHERE is_active AND ($1::bigint = 0 OR registrar_id = $1::bigint)
		ORDER BY id`, registrarID)
	if err != nil {
		return nil, fmt.Errorf("list tlds: %w", err)
	}
	defer rows.Close()

	var out []*pricing.Tld
	for rows.Next() {
		t, err := scanTld(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tld: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanPrice(row pgx.Row) (*pricing.TldPrice, error) {
	var (
		p      pricing.TldPrice
		action string
	)
	if err := row.Scan(&p.ID, &p.TldID, &action, &p.Years, &p.Price, &p.EffectiveDate, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Action = pricing.Action(action)
	p.EffectiveDate = pricing.DateOf(p.EffectiveDate)
	return &p, nil
}

func scanTld(row pgx.Row) (*pricing.Tld, error) {
	var t pricing.Tld
	err := row.Scan(&t.ID, &t.RegistrarID, &t.Extension, &t.MinYears, &t.MaxYears, &t.SupportsDNS, &t.SupportsPrivacy, &t.IsActive)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var _ pricing.Store = (*Postgres)(nil)
