//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"reseller/internal/platform/postgres"
	"reseller/internal/wallet"
	"reseller/internal/wallet/store"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	service  *wallet.Service
	wallet   *wallet.Wallet
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
	var err error
	s.service, err = wallet.New(s.store)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "wallet_transactions", "wallets"))
	var err error
	s.wallet, err = s.service.Open(ctx, id.PartnerID(uuid.New()), "USD", decimal.Zero)
	s.Require().NoError(err)
}

// TestConcurrentDebits verifies the row lock lets exactly one of many
// competing debits through when the balance covers only one.
func (s *PostgresStoreSuite) TestConcurrentDebits() {
	ctx := context.Background()
	_, err := s.service.Credit(ctx, s.wallet.ID, wallet.Entry{Amount: decimal.NewFromInt(10)})
	s.Require().NoError(err)

	const racers = 10
	var (
		wg           sync.WaitGroup
		successes    atomic.Int32
		insufficient atomic.Int32
		start        = make(chan struct{})
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := s.service.Debit(ctx, s.wallet.ID, wallet.Entry{Amount: decimal.NewFromInt(10)})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, wallet.ErrInsufficientFunds):
				insufficient.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(racers-1), insufficient.Load())
	balance, err := s.service.Balance(ctx, s.wallet.ID)
	s.Require().NoError(err)
	s.True(balance.IsZero())
}

// TestTriggerRejectsMutation verifies UPDATE and DELETE fail at the database.
func (s *PostgresStoreSuite) TestTriggerRejectsMutation() {
	ctx := context.Background()
	t, err := s.service.Credit(ctx, s.wallet.ID, wallet.Entry{Amount: decimal.NewFromInt(5), Description: "top-up"})
	s.Require().NoError(err)

	s.ErrorIs(s.store.Amend(ctx, t.ID, "edited"), sentinel.ErrImmutable)

	_, err = s.postgres.Exec(ctx, `DELETE FROM wallet_transactions WHERE id = $1`, uuid.UUID(t.ID))
	s.Require().Error(err)
	s.True(postgres.IsAppendOnlyViolation(err))

	history, err := s.service.History(ctx, s.wallet.ID, 0)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("top-up", history[0].Description)
}

// TestCheckConstraint verifies non-adjustment rows must be positive.
func (s *PostgresStoreSuite) TestCheckConstraint() {
	ctx := context.Background()
	_, err := s.postgres.Exec(ctx, `
		INSERT INTO wallet_transactions (id, wallet_id, type, amount) VALUES ($1, $2, 'credit', -1)`,
		uuid.New(), uuid.UUID(s.wallet.ID))
	s.Error(err)
}
