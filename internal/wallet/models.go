// Package wallet implements the partner prepaid balance as an append-only
// ledger. The balance is always derived from the transaction rows and never
// stored.
package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	id "reseller/pkg/domain"
)

type TransactionType string

const (
	TypeCredit     TransactionType = "credit"
	TypeDebit      TransactionType = "debit"
	TypeRefund     TransactionType = "refund"
	TypeAdjustment TransactionType = "adjustment"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeCredit, TypeDebit, TypeRefund, TypeAdjustment:
		return true
	}
	return false
}

// Wallet is one partner's prepaid account.
type Wallet struct {
	ID                  id.WalletID
	PartnerID           id.PartnerID
	Currency            string
	LowBalanceThreshold decimal.Decimal
	CreatedAt           time.Time
}

// Transaction is an immutable ledger row. Amount is positive for credit,
// debit and refund; adjustments carry their own sign.
type Transaction struct {
	ID            id.TransactionID
	WalletID      id.WalletID
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	ReferenceType string
	ReferenceID   string
	CreatedAt     time.Time
	// BalanceAfter is filled when the row is posted; it is not persisted.
	BalanceAfter decimal.Decimal
}

// Signed returns the row's effect on the balance.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Balance folds a ledger into a balance.
func Balance(txs []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Signed())
	}
	return total
}

// Entry describes a posting requested by a caller.
type Entry struct {
	Amount        decimal.Decimal
	Description   string
	ReferenceType string
	ReferenceID   string
	// AllowNegative lets a debit overdraw the wallet.
	AllowNegative bool
}

// BuildFunc receives the wallet and its balance while the wallet is locked
// and returns the row to insert, or an error to abort without writing.
type BuildFunc func(w *Wallet, balance decimal.Decimal) (*Transaction, error)

// Store persists wallets and ledger rows. Transactions can only be appended.
type Store interface {
	CreateWallet(ctx context.Context, w *Wallet) error
	GetWallet(ctx context.Context, walletID id.WalletID) (*Wallet, error)
	GetWalletByPartner(ctx context.Context, partnerID id.PartnerID) (*Wallet, error)
	Balance(ctx context.Context, walletID id.WalletID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, walletID id.WalletID, limit int) ([]*Transaction, error)
	// Append serialises with every other Append on the same wallet.
	Append(ctx context.Context, walletID id.WalletID, build BuildFunc) (*Transaction, error)
}
