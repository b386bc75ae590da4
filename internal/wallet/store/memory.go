// Package store implements wallet.Store in memory and in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"reseller/internal/wallet"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
)

// InMemory keeps the ledger in process. Appends to one wallet are serialised
// by a per-wallet mutex; different wallets proceed in parallel.
type InMemory struct {
	mu      sync.RWMutex
	wallets map[id.WalletID]*wallet.Wallet
	ledger  map[id.WalletID][]*wallet.Transaction
	locks   map[id.WalletID]*sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{
		wallets: make(map[id.WalletID]*wallet.Wallet),
		ledger:  make(map[id.WalletID][]*wallet.Transaction),
		locks:   make(map[id.WalletID]*sync.Mutex),
	}
}

func (s *InMemory) CreateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[w.ID]; ok {
		return fmt.Errorf("wallet %s: %w", w.ID, sentinel.ErrConflict)
	}
	for _, existing := range s.wallets {
		if existing.PartnerID == w.PartnerID {
			return fmt.Errorf("wallet for partner %s: %w", w.PartnerID, sentinel.ErrConflict)
		}
	}
	c := *w
	s.wallets[w.ID] = &c
	s.locks[w.ID] = &sync.Mutex{}
	return nil
}

func (s *InMemory) GetWallet(_ context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return nil, fmt.Errorf("wallet %s: %w", walletID, sentinel.ErrNotFound)
	}
	c := *w
	return &c, nil
}

func (s *InMemory) GetWalletByPartner(_ context.Context, partnerID id.PartnerID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wallets {
		if w.PartnerID == partnerID {
			c := *w
			return &c, nil
		}
	}
	return nil, fmt.Errorf("wallet for partner %s: %w", partnerID, sentinel.ErrNotFound)
}

func (s *InMemory) Balance(_ context.Context, walletID id.WalletID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.wallets[walletID]; !ok {
		return decimal.Zero, fmt.Errorf("wallet %s: %w", walletID, sentinel.ErrNotFound)
	}
	return wallet.Balance(s.ledger[walletID]), nil
}

func (s *InMemory) ListTransactions(_ context.Context, walletID id.WalletID, limit int) ([]*wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.wallets[walletID]; !ok {
		return nil, fmt.Errorf("wallet %s: %w", walletID, sentinel.ErrNotFound)
	}
	rows := s.ledger[walletID]
	out := make([]*wallet.Transaction, 0, len(rows))
	for _, t := range slices.Backward(rows) {
		c := *t
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemory) Append(ctx context.Context, walletID id.WalletID, build wallet.BuildFunc) (*wallet.Transaction, error) {
	s.mu.RLock()
	lock, ok := s.locks[walletID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("wallet %s: %w", walletID, sentinel.ErrNotFound)
	}

	lock.Lock()
	defer lock.Unlock()

	w, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	balance, err := s.Balance(ctx, walletID)
	if err != nil {
		return nil, err
	}
	t, err := build(w, balance)
	if err != nil {
		return nil, err
	}
	if err := validate(t); err != nil {
		return nil, err
	}
	t.WalletID = walletID
	t.BalanceAfter = balance.Add(t.Signed())

	row := *t
	s.mu.Lock()
	s.ledger[walletID] = append(s.ledger[walletID], &row)
	s.mu.Unlock()
	return t, nil
}

// Amend always fails: posted rows are immutable. Corrections are new
// adjustment rows.
func (s *InMemory) Amend(_ context.Context, txID id.TransactionID, _ string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rows := range s.ledger {
		for _, t := range rows {
			if t.ID == txID {
				return fmt.Errorf("transaction %s: %w", txID, sentinel.ErrImmutable)
			}
		}
	}
	return fmt.Errorf("transaction %s: %w", txID, sentinel.ErrNotFound)
}

func validate(t *wallet.Transaction) error {
	switch {
	case t == nil:
		return fmt.Errorf("transaction is required")
	case !t.Type.Valid():
		return fmt.Errorf("unknown transaction type %q", t.Type)
	case t.Type == wallet.TypeAdjustment && t.Amount.IsZero():
		return fmt.Errorf("adjustment amount must not be zero")
	case t.Type != wallet.TypeAdjustment && !t.Amount.IsPositive():
		return fmt.Errorf("%s amount must be positive", t.Type)
	}
	return nil
}

var _ wallet.Store = (*InMemory)(nil)
