package jobs_test

import (
	"context"
	"slices"

	"reseller/internal/domains"
	"reseller/internal/jobs"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	"reseller/internal/pricing"
	"reseller/internal/registrar"
	"reseller/internal/wallet"
)

// =============================================================================
// Renewal
// =============================================================================

func (s *JobsSuite) renewal() *jobs.Renewal {
	job, err := jobs.NewRenewal(s.domains, s.registrars, s.engine, s.ledger, s.options()...)
	s.Require().NoError(err)
	return job
}

func (s *JobsSuite) TestRenewalSelection() {
	s.credit("100.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	s.seedDomain("soon.com", lifecycle.StatusActive, s.days(5), true, "active")
	s.seedDomain("manual.com", lifecycle.StatusActive, s.days(2), false, "active")
	s.seedDomain("held.com", lifecycle.StatusSuspended, s.days(2), true, "client_hold")
	s.seedDomain("later.com", lifecycle.StatusActive, s.days(60), true, "active")

	s.Run("lead window shorter than expiry selects nothing", func() {
		res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{LeadDays: 3, DryRun: true})
		s.Require().NoError(err)
		s.Equal(0, res.Total)
	})

	s.Run("lead window covering expiry selects auto-renew renewable domains only", func() {
		res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{LeadDays: 7, DryRun: true})
		s.Require().NoError(err)
		s.Require().Equal(1, res.Total)
		s.Equal("soon.com", res.Items[0].Domain)
	})

	s.Run("negative lead days rejected", func() {
		_, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{LeadDays: -1})
		s.Error(err)
	})

	s.Run("years outside the registrar range rejected", func() {
		_, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{Years: 11})
		s.True(registrar.IsValidationError(err))
	})
}

func (s *JobsSuite) TestRenewalChargesAndExtends() {
	s.credit("50.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	d := s.seedDomain("renew-me.com", lifecycle.StatusActive, s.days(5), true, "active")

	res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Succeeded)
	s.Equal("10.99", res.Items[0].Amount)
	s.Equal(lifecycle.StatusActive, res.Items[0].To)
	s.Equal("39.01", s.balance())

	got := s.reload(d)
	s.Equal(d.ExpiresAt.AddDate(1, 0, 0), got.ExpiresAt.UTC())
	s.Equal(lifecycle.StatusActive, got.Status)
	s.Equal([]notify.EventType{notify.EventDomainRenewed}, s.eventTypes())
	s.Equal("renew-me.com", s.events[0].Payload["domain"])
}

func (s *JobsSuite) TestRenewalRecoversGracePeriodDomain() {
	s.credit("50.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	d := s.seedDomain("late.com", lifecycle.StatusGracePeriod, s.days(-10), true, "autorenew_grace")

	res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Succeeded)
	s.Equal(lifecycle.StatusGracePeriod, res.Items[0].From)
	s.Equal(lifecycle.StatusActive, s.reload(d).Status)
}

func (s *JobsSuite) TestRenewalInsufficientFunds() {
	s.credit("5.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	d := s.seedDomain("broke.com", lifecycle.StatusActive, s.days(5), true, "active")

	res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Failed)
	s.Equal("insufficient_funds", res.Items[0].ErrorCategory)
	s.Equal("5.00", s.balance(), "nothing charged")
	s.Equal(d.ExpiresAt.UTC(), s.reload(d).ExpiresAt.UTC())
	s.Equal([]notify.EventType{notify.EventDomainRenewalFailed}, s.eventTypes())
}

func (s *JobsSuite) TestRenewalRegistrarFailureRefunds() {
	s.credit("50.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	d := s.seedDomain("flaky.com", lifecycle.StatusActive, s.days(5), true, "active")
	s.Require().NoError(s.registrar.FailNext(s.ctx, "renew", registrar.ErrorOutage))

	res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Failed)
	s.Equal(string(registrar.ErrorOutage), res.Items[0].ErrorCategory)
	s.Equal("charge refunded", res.Items[0].Message)
	s.Equal("50.00", s.balance())

	txs, err := s.ledger.History(s.ctx, s.wallet.ID, 10)
	s.Require().NoError(err)
	s.Require().Len(txs, 3)
	s.Equal(wallet.TypeRefund, txs[0].Type)
	s.Equal(wallet.TypeDebit, txs[1].Type)
	s.Equal(txs[1].ID.String(), txs[0].ReferenceID)

	s.Equal(d.ExpiresAt.UTC(), s.reload(d).ExpiresAt.UTC())
	s.Equal([]notify.EventType{notify.EventDomainRenewalFailed}, s.eventTypes())
}

func (s *JobsSuite) TestRenewalDryRun() {
	s.credit("50.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	d := s.seedDomain("preview.com", lifecycle.StatusActive, s.days(5), true, "active")

	res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{DryRun: true})
	s.Require().NoError(err)

	s.True(res.DryRun)
	s.Equal(1, res.Unchanged)
	s.Equal("10.99", res.Items[0].Amount)
	s.Equal("50.00", s.balance())
	s.Equal(d.ExpiresAt.UTC(), s.reload(d).ExpiresAt.UTC())
	s.Empty(s.events)
}

func (s *JobsSuite) TestRenewalDryRunSelectsWhatARealRunRenews() {
	s.credit("100.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	seeded := []*domains.Domain{
		s.seedDomain("soon.com", lifecycle.StatusActive, s.days(5), true, "active"),
		s.seedDomain("late.com", lifecycle.StatusGracePeriod, s.days(-10), true, "autorenew_grace"),
		s.seedDomain("manual.com", lifecycle.StatusActive, s.days(2), false, "active"),
		s.seedDomain("held.com", lifecycle.StatusSuspended, s.days(2), true, "client_hold"),
		s.seedDomain("later.com", lifecycle.StatusActive, s.days(60), true, "active"),
	}
	names := func(res *jobs.Result) []string {
		out := make([]string, 0, len(res.Items))
		for _, it := range res.Items {
			out = append(out, it.Domain)
		}
		slices.Sort(out)
		return out
	}

	preview, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{LeadDays: 7, DryRun: true})
	s.Require().NoError(err)
	s.Equal(preview.Total, preview.Unchanged)
	for _, d := range seeded {
		got := s.reload(d)
		s.Equal(d.Status, got.Status, d.Name)
		s.Equal(d.ExpiresAt.UTC(), got.ExpiresAt.UTC(), d.Name)
	}
	s.Equal("100.00", s.balance())

	renewed, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{LeadDays: 7})
	s.Require().NoError(err)
	s.Equal(renewed.Total, renewed.Succeeded)

	s.Equal([]string{"late.com", "soon.com"}, names(preview))
	s.Equal(names(preview), names(renewed))
}

func (s *JobsSuite) TestRenewalItemFailuresDoNotAbortBatch() {
	s.credit("50.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	net := &pricing.Tld{RegistrarID: registrarID, Extension: "net", MinYears: 1, MaxYears: 10, IsActive: true}
	s.Require().NoError(s.prices.CreateTld(s.ctx, net))

	unpriced := s.seedDomain("unpriced.net", lifecycle.StatusActive, s.days(1), true, "active")
	unpriced.TldID = net.ID
	s.Require().NoError(s.domains.Update(s.ctx, unpriced))
	s.seedDomain("priced.com", lifecycle.StatusActive, s.days(2), true, "active")

	res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{})
	s.Require().NoError(err)

	s.Require().Equal(2, res.Total)
	s.Equal("unpriced.net", res.Items[0].Domain)
	s.Equal(jobs.OutcomeFailed, res.Items[0].Outcome)
	s.Equal("no_price", res.Items[0].ErrorCategory)
	s.Equal(jobs.OutcomeSucceeded, res.Items[1].Outcome)
	s.Equal("39.01", s.balance())
}

func (s *JobsSuite) TestRenewalUnknownRegistrar() {
	s.credit("50.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	d := s.seedDomain("orphan.com", lifecycle.StatusActive, s.days(1), true, "active")
	d.RegistrarID = 99
	s.Require().NoError(s.domains.Update(s.ctx, d))

	res, err := s.renewal().Run(s.ctx, jobs.RenewalOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Failed)
	s.Equal("registrar_config", res.Items[0].ErrorCategory)
	s.Equal("50.00", s.balance())
}

func (s *JobsSuite) TestRenewalStopsOnCancellation() {
	s.credit("50.00")
	s.setPrice(s.tld, pricing.ActionRenew, 1, "10.99")
	s.seedDomain("one.com", lifecycle.StatusActive, s.days(1), true, "active")
	s.seedDomain("two.com", lifecycle.StatusActive, s.days(2), true, "active")

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	res, err := s.renewal().Run(ctx, jobs.RenewalOptions{})
	s.Require().NoError(err)

	s.True(res.Interrupted)
	s.Equal(2, res.Total)
	s.Empty(res.Items)
	s.Equal("50.00", s.balance())
}
