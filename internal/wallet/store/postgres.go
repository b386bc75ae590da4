package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"reseller/internal/platform/postgres"
	"reseller/internal/wallet"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/platform/tx"
)

const balanceQuery = `
	SELECT COALESCE(SUM(CASE WHEN type = 'debit' THEN -amount ELSE amount END), 0)
	FROM wallet_transactions WHERE wallet_id = $1`

// Postgres persists the ledger. Appends lock the wallet row with
// SELECT ... FOR UPDATE, so balance check and insert are one unit.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	err := tx.QuerierFor(ctx, s.pool).QueryRow(ctx, `
		INSERT INTO wallets (id, partner_id, currency, low_balance_threshold)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		uuid.UUID(w.ID), uuid.UUID(w.PartnerID), w.Currency, w.LowBalanceThreshold,
	).Scan(&w.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("wallet for partner %s: %w", w.PartnerID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create wallet: %w", err)
	}
	return nil
}

func (s *Postgres) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	return s.getWallet(ctx, tx.QuerierFor(ctx, s.pool), `WHERE id = $1`, uuid.UUID(walletID))
}

func (s *Postgres) GetWalletByPartner(ctx context.Context, partnerID id.PartnerID) (*wallet.Wallet, error) {
	return s.getWallet(ctx, tx.QuerierFor(ctx, s.pool), `WHERE partner_id = $1`, uuid.UUID(partnerID))
}

func (s *Postgres) getWallet(ctx context.Context, q tx.Querier, where string, arg any) (*wallet.Wallet, error) {
	var (
		w         wallet.Wallet
		walletID  uuid.UUID
		partnerID uuid.UUID
	)
	err := q.QueryRow(ctx, `
		SELECT id, partner_id, currency, low_balance_threshold, created_at
		FROM wallets `+where, arg,
	).Scan(&walletID, &partnerID, &w.Currency, &w.LowBalanceThreshold, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("wallet %v: %w", arg, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	w.ID = id.WalletID(walletID)
	w.PartnerID = id.PartnerID(partnerID)
	return &w, nil
}

func (s *Postgres) Balance(ctx context.Context, walletID id.WalletID) (decimal.Decimal, error) {
	q := tx.QuerierFor(ctx, s.pool)
	if _, err := s.getWallet(ctx, q, `WHERE id = $1`, uuid.UUID(walletID)); err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	if err := q.QueryRow(ctx, balanceQuery, uuid.UUID(walletID)).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("sum wallet balance: %w", err)
	}
	return balance, nil
}

func (s *Postgres) ListTransactions(ctx context.Context, walletID id.WalletID, limit int) ([]*wallet.Transaction, error) {
	q := tx.QuerierFor(ctx, s.pool)
	if _, err := s.getWallet(ctx, q, `WHERE id = $1`, uuid.UUID(walletID)); err != nil {
		return nil, err
	}
	query := `
		SELECT id, wallet_id, type, amount, description, reference_type, reference_id, created_at
		FROM wallet_transactions WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{uuid.UUID(walletID)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	var out []*wallet.Transaction
	for rows.Next() {
		var (
			t      wallet.Transaction
			txID   uuid.UUID
			wID    uuid.UUID
			txType string
		)
		if err := rows.Scan(&txID, &wID, &txType, &t.Amount, &t.Description, &t.ReferenceType, &t.ReferenceID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wallet transaction: %w", err)
		}
		t.ID = id.TransactionID(txID)
		t.WalletID = id.WalletID(wID)
		t.Type = wallet.TransactionType(txType)
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *Postgres) Append(ctx context.Context, walletID id.WalletID, build wallet.BuildFunc) (*wallet.Transaction, error) {
	var posted *wallet.Transaction
	err := tx.Run(ctx, s.pool, func(ctx context.Context) error {
		q := tx.QuerierFor(ctx, s.pool)
		w, err := s.getWallet(ctx, q, `WHERE id = $1 FOR UPDATE`, uuid.UUID(walletID))
		if err != nil {
			return err
		}
		var balance decimal.Decimal
		if err := q.QueryRow(ctx, balanceQuery, uuid.UUID(walletID)).Scan(&balance); err != nil {
			return fmt.Errorf("sum wallet balance: %w", err)
		}
		t, err := build(w, balance)
		if err != nil {
			return err
		}
		if err := validate(t); err != nil {
			return err
		}
		t.WalletID = walletID
		err = q.QueryRow(ctx, `
			INSERT INTO wallet_transactions (id, wallet_id, type, amount, description, reference_type, reference_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
			RETURNING created_at`,
			uuid.UUID(t.ID), uuid.UUID(walletID), string(t.Type), t.Amount,
			t.Description, t.ReferenceType, t.ReferenceID, nullTime(t),
		).Scan(&t.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert wallet transaction: %w", err)
		}
		t.BalanceAfter = balance.Add(t.Signed())
		posted = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posted, nil
}

// Amend attempts an in-place update. The append-only trigger rejects it and
// the rejection surfaces as sentinel.ErrImmutable.
func (s *Postgres) Amend(ctx context.Context, txID id.TransactionID, description string) error {
	tag, err := tx.QuerierFor(ctx, s.pool).Exec(ctx,
		`UPDATE wallet_transactions SET description = $2 WHERE id = $1`, uuid.UUID(txID), description)
	if err != nil {
		if postgres.IsAppendOnlyViolation(err) {
			return fmt.Errorf("transaction %s: %w", txID, sentinel.ErrImmutable)
		}
		return fmt.Errorf("amend wallet transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", txID, sentinel.ErrNotFound)
	}
	return nil
}

func nullTime(t *wallet.Transaction) any {
	if t.CreatedAt.IsZero() {
		return nil
	}
	return t.CreatedAt
}

var _ wallet.Store = (*Postgres)(nil)
