package mock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"reseller/internal/registrar"
	"reseller/internal/registrar/contract"
	"reseller/internal/registrar/mock"
)

func TestMockConformsToContract(t *testing.T) {
	s := &contract.Suite{
		Client: mock.New("mock", mock.NewMemoryState()),
		Domain: "contract-example.com",
		TLD:    "com",
	}
	s.Run(t)
}

func TestMockErrorContract(t *testing.T) {
	c := mock.New("mock", mock.NewMemoryState())
	tests := []contract.ErrorContractTest{
		{
			Name: "taken domain cannot be registered",
			Call: func(ctx context.Context) error {
				_, err := c.Register(ctx, registrar.RegisterParams{
					Domain: "taken-example.com", Years: 1,
					Contacts: registrar.Contacts{Registrant: contract.Registrant()},
				})
				return err
			},
			ExpectedError: registrar.ErrorBusiness,
			ExpectedRetry: false,
		},
		{
			Name: "injected outage is retryable",
			Call: func(ctx context.Context) error {
				if err := c.FailNext(ctx, "get_pricing", registrar.ErrorOutage); err != nil {
					return nil
				}
				_, err := c.GetPricing(ctx, "com")
				return err
			},
			ExpectedError: registrar.ErrorOutage,
			ExpectedRetry: true,
		},
		{
			Name: "renew of unknown domain",
			Call: func(ctx context.Context) error {
				_, err := c.Renew(ctx, "unknown.com", 1)
				return err
			},
			ExpectedError: registrar.ErrorNotFound,
			ExpectedRetry: false,
		},
	}
	for i := range tests {
		tests[i].Run(t)
	}
}

// =============================================================================
// Mock Registrar Behavior Suite
// =============================================================================
// Justification: jobs tests and local environments rely on the mock's hooks
// behaving deterministically.

type MockSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	client *mock.Client
}

func TestMockSuite(t *testing.T) {
	suite.Run(t, new(MockSuite))
}

func (s *MockSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	s.client = mock.New("mock", mock.NewMemoryState(), mock.WithClock(func() time.Time { return s.now }))
}

func (s *MockSuite) TestAvailabilityPrefixes() {
	res, err := s.client.CheckAvailability(s.ctx, "taken-shop.com")
	s.Require().NoError(err)
	s.False(res.Data.Available)

	res, err = s.client.CheckAvailability(s.ctx, "premium-shop.com")
	s.Require().NoError(err)
	s.True(res.Data.Available)
	s.True(res.Data.Premium)
	s.Require().NotNil(res.Data.PremiumPrice)
	s.Equal("499.00", res.Data.PremiumPrice.StringFixed(2))
}

func (s *MockSuite) TestFailNextAffectsOneCall() {
	s.Require().NoError(s.client.FailNext(s.ctx, "check_availability", registrar.ErrorRateLimited))

	_, err := s.client.CheckAvailability(s.ctx, "shop.com")
	s.Equal(registrar.ErrorRateLimited, registrar.CategoryOf(err))

	res, err := s.client.CheckAvailability(s.ctx, "shop.com")
	s.Require().NoError(err)
	s.True(res.Success)
}

func (s *MockSuite) TestTransferLifecycle() {
	_, err := s.client.Transfer(s.ctx, "moving.com", "invalid")
	s.Equal(registrar.ErrorBusiness, registrar.CategoryOf(err))

	req, err := s.client.Transfer(s.ctx, "moving.com", "EPP-OK")
	s.Require().NoError(err)
	s.Equal("pending", req.Data.Status)
	s.NotEmpty(req.Data.TransferID)

	s.now = s.now.Add(48 * time.Hour)
	s.Require().NoError(s.client.SetTransferStatus(s.ctx, "moving.com", "completed", "approved by losing registrar"))

	st, err := s.client.GetTransferStatus(s.ctx, "moving.com")
	s.Require().NoError(err)
	s.Equal("completed", st.Data.Status)
	s.Equal("approved by losing registrar", st.Data.Message)
	s.True(st.Data.UpdatedAt.Equal(s.now))

	info, err := s.client.GetInfo(s.ctx, "moving.com")
	s.Require().NoError(err)
	s.Equal("active", info.Data.Status)
}

func (s *MockSuite) TestTransferStatusRequiresTransfer() {
	s.Require().NoError(s.client.Seed(s.ctx, mock.Record{Domain: "static.com", ExpiresAt: s.now.AddDate(1, 0, 0)}))
	_, err := s.client.GetTransferStatus(s.ctx, "static.com")
	s.Equal(registrar.ErrorNotFound, registrar.CategoryOf(err))
}

func (s *MockSuite) TestSeededStatusIsReported() {
	expires := s.now.AddDate(0, 0, -3)
	s.Require().NoError(s.client.Seed(s.ctx, mock.Record{Domain: "Lapsed.com", Status: "expired", ExpiresAt: expires}))

	info, err := s.client.GetInfo(s.ctx, "lapsed.com")
	s.Require().NoError(err)
	s.Equal("expired", info.Data.Status)
	s.True(info.Data.ExpiresAt.Equal(expires))
}

func (s *MockSuite) TestPricingDefaultsAndOverrides() {
	res, err := s.client.GetPricing(s.ctx, ".com")
	s.Require().NoError(err)
	s.Len(res.Data, 7)
	s.Equal("10.99", res.Data[0].Amount.StringFixed(2))

	override := []registrar.Price{{TLD: "com", Action: "renew", Years: 1, Amount: decimal.RequireFromString("13.50")}}
	s.Require().NoError(s.client.SetPrices(s.ctx, "COM", override))

	res, err = s.client.GetPricing(s.ctx, "com")
	s.Require().NoError(err)
	s.Require().Len(res.Data, 1)
	s.Equal("13.50", res.Data[0].Amount.StringFixed(2))
}

func (s *MockSuite) TestConcurrentRenewalsAllExtend() {
	expires := s.now.AddDate(0, 1, 0)
	s.Require().NoError(s.client.Seed(s.ctx, mock.Record{Domain: "busy.com", ExpiresAt: expires}))

	const renewals = 12
	errs := make(chan error, renewals)
	var wg sync.WaitGroup
	for range renewals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.client.Renew(s.ctx, "busy.com", 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	info, err := s.client.GetInfo(s.ctx, "busy.com")
	s.Require().NoError(err)
	s.True(info.Data.ExpiresAt.Equal(expires.AddDate(renewals, 0, 0)), "got %s", info.Data.ExpiresAt)
}

func (s *MockSuite) TestConcurrentRegistrationHasOneWinner() {
	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.client.Register(s.ctx, registrar.RegisterParams{
				Domain: "race.com", Years: 1,
				Contacts: registrar.Contacts{Registrant: contract.Registrant()},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
			continue
		}
		s.Equal(registrar.ErrorBusiness, registrar.CategoryOf(err))
	}
	s.Equal(1, won)
}

func (s *MockSuite) TestRejectedRenewalLeavesRecordUntouched() {
	expires := s.now.AddDate(0, 2, 0)
	s.Require().NoError(s.client.Seed(s.ctx, mock.Record{Domain: "gone.com", Status: "transferred_away", ExpiresAt: expires}))

	_, err := s.client.Renew(s.ctx, "gone.com", 1)
	s.Equal(registrar.ErrorBusiness, registrar.CategoryOf(err))

	info, err := s.client.GetInfo(s.ctx, "gone.com")
	s.Require().NoError(err)
	s.Equal("transferred_away", info.Data.Status)
	s.True(info.Data.ExpiresAt.Equal(expires))
}
