package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"reseller/internal/wallet"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
)

var errInsufficient = errors.New("insufficient")

type LedgerStoreSuite struct {
	suite.Suite
	store  *InMemory
	ctx    context.Context
	wallet *wallet.Wallet
}

func TestLedgerStoreSuite(t *testing.T) {
	suite.Run(t, new(LedgerStoreSuite))
}

func (s *LedgerStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.wallet = &wallet.Wallet{ID: id.NewWalletID(), PartnerID: id.PartnerID(uuid.New()), Currency: "USD"}
	s.Require().NoError(s.store.CreateWallet(s.ctx, s.wallet))
}

func (s *LedgerStoreSuite) post(typ wallet.TransactionType, amount string) (*wallet.Transaction, error) {
	return s.store.Append(s.ctx, s.wallet.ID, func(_ *wallet.Wallet, balance decimal.Decimal) (*wallet.Transaction, error) {
		amt := decimal.RequireFromString(amount)
		if typ == wallet.TypeDebit && balance.LessThan(amt) {
			return nil, errInsufficient
		}
		return &wallet.Transaction{ID: id.NewTransactionID(), Type: typ, Amount: amt}, nil
	})
}

// TestConcurrentDebits verifies that two debits racing for a balance that
// covers only one of them result in exactly one success.
func (s *LedgerStoreSuite) TestConcurrentDebits() {
	_, err := s.post(wallet.TypeCredit, "10.00")
	s.Require().NoError(err)

	const racers = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		start     = make(chan struct{})
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.post(wallet.TypeDebit, "10.00"); err == nil {
				successes.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	balance, err := s.store.Balance(s.ctx, s.wallet.ID)
	s.Require().NoError(err)
	s.True(balance.IsZero())
}

// TestAppendOnly verifies posted rows cannot be changed.
func (s *LedgerStoreSuite) TestAppendOnly() {
	t, err := s.post(wallet.TypeCredit, "5.00")
	s.Require().NoError(err)

	s.ErrorIs(s.store.Amend(s.ctx, t.ID, "edited"), sentinel.ErrImmutable)
	s.ErrorIs(s.store.Amend(s.ctx, id.NewTransactionID(), "edited"), sentinel.ErrNotFound)

	s.Run("returned rows are copies", func() {
		t.Amount = decimal.NewFromInt(1000)
		balance, err := s.store.Balance(s.ctx, s.wallet.ID)
		s.Require().NoError(err)
		s.Equal("5.00", balance.StringFixed(2))
	})
}

// TestRowValidation verifies the store refuses malformed rows.
func (s *LedgerStoreSuite) TestRowValidation() {
	_, err := s.post(wallet.TypeCredit, "0")
	s.Error(err)
	_, err = s.post(wallet.TransactionType("bonus"), "1.00")
	s.Error(err)
	_, err = s.post(wallet.TypeAdjustment, "-4.00")
	s.NoError(err)

	balance, err := s.store.Balance(s.ctx, s.wallet.ID)
	s.Require().NoError(err)
	s.Equal("-4.00", balance.StringFixed(2))
}

func (s *LedgerStoreSuite) TestOneWalletPerPartner() {
	dup := &wallet.Wallet{ID: id.NewWalletID(), PartnerID: s.wallet.PartnerID}
	s.ErrorIs(s.store.CreateWallet(s.ctx, dup), sentinel.ErrConflict)
	_, err := s.store.Append(s.ctx, id.NewWalletID(), nil)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
