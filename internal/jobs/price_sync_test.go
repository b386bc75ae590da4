package jobs_test

import (
	"time"

	"reseller/internal/jobs"
	"reseller/internal/notify"
	"reseller/internal/pricing"
	"reseller/internal/registrar"
	"reseller/internal/registrar/mock"
)

// =============================================================================
// Price sync
// =============================================================================

func (s *JobsSuite) priceSync() *jobs.PriceSync {
	job, err := jobs.NewPriceSync(s.registrars, s.prices, s.options()...)
	s.Require().NoError(err)
	return job
}

func (s *JobsSuite) latest(action pricing.Action, years int) string {
	p, err := s.prices.LatestPrice(s.ctx, s.tld.ID, action, years, s.now)
	s.Require().NoError(err)
	return p.Price.StringFixed(2)
}

func (s *JobsSuite) TestPriceSyncAppendsNewPrices() {
	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Succeeded)
	s.Equal("com", res.Items[0].TLD)
	s.Equal(len(mock.DefaultPrices("com")), res.Counters[jobs.CounterNew])
	s.Equal("10.99", s.latest(pricing.ActionRenew, 1))
	s.Equal("21.98", s.latest(pricing.ActionRegister, 2))
	s.Contains(s.registrars.touched, registrarID)
	s.Equal([]notify.EventType{notify.EventRegistrarPriceChange}, s.eventTypes())
}

func (s *JobsSuite) TestPriceSyncIsIdempotent() {
	_, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{})
	s.Require().NoError(err)
	s.events = nil

	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Unchanged)
	s.Equal(len(mock.DefaultPrices("com")), res.Counters[jobs.CounterUnchanged])
	s.Zero(res.Counters[jobs.CounterNew])
	s.Empty(s.events)
	history, err := s.prices.PriceHistory(s.ctx, s.tld.ID, pricing.ActionRenew, 1)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *JobsSuite) TestPriceSyncRecordsChangedPrice() {
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	s.Require().NoError(s.registrar.SetPrices(s.ctx, "com", []registrar.Price{
		{TLD: "com", Action: "renew", Years: 1, Amount: money("12.49"), Currency: "USD"},
	}))

	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{RegistrarID: registrarID})
	s.Require().NoError(err)

	s.Equal(1, res.Counters[jobs.CounterUpdated])
	s.Equal("12.49", s.latest(pricing.ActionRenew, 1))
	history, err := s.prices.PriceHistory(s.ctx, s.tld.ID, pricing.ActionRenew, 1)
	s.Require().NoError(err)
	s.Len(history, 2, "history is appended, never rewritten")
	s.Require().Len(s.events, 1)
	changes, ok := s.events[0].Payload["changes"].([]map[string]any)
	s.Require().True(ok)
	s.Equal("10.99", changes[0]["previous"])
}

func (s *JobsSuite) TestPriceSyncDryRun() {
	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{DryRun: true})
	s.Require().NoError(err)

	s.True(res.DryRun)
	s.Equal(len(mock.DefaultPrices("com")), res.Counters[jobs.CounterNew])
	_, err = s.prices.LatestPrice(s.ctx, s.tld.ID, pricing.ActionRenew, 1, s.now)
	s.Error(err)
	s.Empty(s.registrars.touched)
	s.Empty(s.events)
}

func (s *JobsSuite) TestPriceSyncSkipsUnusableRows() {
	s.Require().NoError(s.registrar.SetPrices(s.ctx, "com", []registrar.Price{
		{TLD: "com", Action: "restore", Years: 1, Amount: money("80.00")},
		{TLD: "com", Action: "renew", Years: 20, Amount: money("200.00")},
		{TLD: "com", Action: "renew", Years: 1, Amount: money("0")},
	}))

	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Failed)
	s.Equal(3, res.Counters[jobs.CounterErrored])
	s.Equal(string(registrar.ErrorBadData), res.Items[0].ErrorCategory)
}

func (s *JobsSuite) TestPriceSyncRegistrarFailure() {
	s.Require().NoError(s.registrar.FailNext(s.ctx, "get_pricing", registrar.ErrorRateLimited))

	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Failed)
	s.Equal(string(registrar.ErrorRateLimited), res.Items[0].ErrorCategory)
	s.Empty(s.registrars.touched)
}

func (s *JobsSuite) TestPriceSyncScopesToRegistrar() {
	other := &pricing.Tld{RegistrarID: 2, Extension: "io", MinYears: 1, MaxYears: 10, IsActive: true}
	s.Require().NoError(s.prices.CreateTld(s.ctx, other))
	s.registrars.clients[2] = mock.New("otherreg", mock.NewMemoryState(), mock.WithClock(func() time.Time { return s.now }))

	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{RegistrarID: registrarID})
	s.Require().NoError(err)
	s.Require().Equal(1, res.Total)
	s.Equal("com", res.Items[0].TLD)

	res, err = s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{})
	s.Require().NoError(err)
	s.Equal(2, res.Total)
	s.Zero(res.Failed)
}

func (s *JobsSuite) TestPriceSyncSkipsInactiveRegistrars() {
	retired := &pricing.Tld{RegistrarID: 2, Extension: "io", MinYears: 1, MaxYears: 10, IsActive: true}
	s.Require().NoError(s.prices.CreateTld(s.ctx, retired))
	s.registrars.clients[2] = mock.New("retiredreg", mock.NewMemoryState())
	s.registrars.inactive = map[int64]bool{2: true}

	res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{})
	s.Require().NoError(err)
	s.Require().Equal(1, res.Total)
	s.Equal("com", res.Items[0].TLD)
	s.Zero(res.Failed)

	s.Run("naming the inactive registrar reports it", func() {
		res, err := s.priceSync().Run(s.ctx, jobs.PriceSyncOptions{RegistrarID: 2})
		s.Require().NoError(err)
		s.Equal(1, res.Failed)
		s.Equal("registrar_config", res.Items[0].ErrorCategory)
	})
}
