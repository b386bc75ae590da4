package jobs_test

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"reseller/internal/jobs"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	"reseller/internal/registrar"
	registrarmocks "reseller/internal/registrar/mocks"
)

// =============================================================================
// Status sync
// =============================================================================

func (s *JobsSuite) statusSync(extra ...jobs.Option) *jobs.StatusSync {
	job, err := jobs.NewStatusSync(s.domains, s.registrars, s.options(extra...)...)
	s.Require().NoError(err)
	return job
}

func (s *JobsSuite) TestStatusSyncAppliesRegistrarStatus() {
	d := s.seedDomain("drifted.com", lifecycle.StatusActive, s.days(-40), false, "redemption_period")

	res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Succeeded)
	s.Equal(lifecycle.StatusActive, res.Items[0].From)
	s.Equal(lifecycle.StatusRedemption, res.Items[0].To)

	got := s.reload(d)
	s.Equal(lifecycle.StatusRedemption, got.Status)
	s.Require().NotNil(got.LastSyncedAt)
	s.Equal(s.now, got.LastSyncedAt.UTC())
	s.Equal("redemption_period", got.SyncMetadata["registrar_status"])
	s.Equal([]notify.EventType{notify.EventDomainStatusChanged}, s.eventTypes())
	s.Equal("redemption", s.events[0].Payload["to"])
}

func (s *JobsSuite) TestStatusSyncFreshness() {
	d := s.seedDomain("fresh.com", lifecycle.StatusActive, s.days(90), false, "active")
	recent := s.now.Add(-time.Hour)
	d.LastSyncedAt = &recent
	s.Require().NoError(s.domains.Update(s.ctx, d))

	s.Run("recently synced domains are skipped", func() {
		res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{})
		s.Require().NoError(err)
		s.Equal(0, res.Total)
	})

	s.Run("shorter freshness window makes the domain stale", func() {
		res, err := s.statusSync(jobs.WithSyncFreshness(30*time.Minute)).Run(s.ctx, jobs.SyncOptions{})
		s.Require().NoError(err)
		s.Equal(1, res.Total)
	})

	s.Run("force polls regardless of freshness", func() {
		res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{Force: true})
		s.Require().NoError(err)
		s.Require().Equal(1, res.Total)
		s.Equal(jobs.OutcomeUnchanged, res.Items[0].Outcome)
	})
}

func (s *JobsSuite) TestStatusSyncExpiryWindow() {
	s.seedDomain("near.com", lifecycle.StatusActive, s.days(10), false, "active")
	s.seedDomain("far.com", lifecycle.StatusActive, s.days(200), false, "active")

	res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{ExpiryWindowDays: 30})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Total)
	s.Equal("near.com", res.Items[0].Domain)

	_, err = s.statusSync().Run(s.ctx, jobs.SyncOptions{ExpiryWindowDays: -1})
	s.Error(err)
}

func (s *JobsSuite) TestStatusSyncUnknownStatusFallsBackToExpiry() {
	d := s.seedDomain("odd.com", lifecycle.StatusActive, s.days(-10), false, "some-new-state")

	res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Succeeded)
	s.Contains(res.Items[0].Message, "some-new-state")
	s.Equal(lifecycle.StatusGracePeriod, s.reload(d).Status)
}

func (s *JobsSuite) TestStatusSyncFallbackReadsExpiredFirst() {
	d := s.seedDomain("lapsed.com", lifecycle.StatusActive, s.now.Add(-6*time.Hour), false, "quarantined")

	res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Succeeded)
	s.Equal(lifecycle.StatusActive, res.Items[0].From)
	s.Equal(lifecycle.StatusExpired, res.Items[0].To)
	s.Equal(lifecycle.StatusExpired, s.reload(d).Status)
}

func (s *JobsSuite) TestStatusSyncUpdatesExpiry() {
	d := s.seedDomain("extended.com", lifecycle.StatusActive, s.days(20), false, "active")
	renewedElsewhere := s.days(385)
	s.Require().NoError(s.registrar.Seed(s.ctx, mockRecord("extended.com", "active", renewedElsewhere)))

	res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Succeeded)
	s.Equal("expiry updated", res.Items[0].Message)
	s.Equal(renewedElsewhere, s.reload(d).ExpiresAt.UTC())
	s.Empty(s.events)
}

func (s *JobsSuite) TestStatusSyncRejectsIllegalTransition() {
	d := s.seedDomain("gone.com", lifecycle.StatusExpired, s.days(-100), false, "transferred_away")

	res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Failed)
	s.Equal("invalid_transition", res.Items[0].ErrorCategory)
	got := s.reload(d)
	s.Equal(lifecycle.StatusExpired, got.Status)
	s.Nil(got.LastSyncedAt)
}

func (s *JobsSuite) TestStatusSyncRegistrarErrorIsPerItem() {
	s.seedDomain("slow.com", lifecycle.StatusActive, s.days(5), false, "active")
	s.seedDomain("ok.com", lifecycle.StatusActive, s.days(6), false, "active")
	s.Require().NoError(s.registrar.FailNext(s.ctx, "get_info", registrar.ErrorTimeout))

	res, err := s.statusSync().Run(s.ctx, jobs.SyncOptions{})
	s.Require().NoError(err)

	s.Require().Equal(2, res.Total)
	s.Equal(string(registrar.ErrorTimeout), res.Items[0].ErrorCategory)
	s.Equal(jobs.OutcomeUnchanged, res.Items[1].Outcome)
}

func (s *JobsSuite) TestStatusSyncCancellationBetweenItems() {
	client := registrarmocks.NewMockClient(s.ctrl)
	s.registrars.clients[registrarID] = client
	s.seedDomain("first.com", lifecycle.StatusActive, s.days(1), false, "active")
	s.seedDomain("second.com", lifecycle.StatusActive, s.days(2), false, "active")

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	expires := s.days(1)
	client.EXPECT().GetInfo(gomock.Any(), "first.com").DoAndReturn(
		func(context.Context, string) (*registrar.Result[registrar.DomainInfo], error) {
			cancel()
			return registrar.OK("stub", registrar.DomainInfo{Domain: "first.com", Status: "active", ExpiresAt: &expires}, ""), nil
		})

	res, err := s.statusSync(jobs.WithItemDelay(time.Hour)).Run(ctx, jobs.SyncOptions{})
	s.Require().NoError(err)

	s.True(res.Interrupted)
	s.Equal(2, res.Total)
	s.Len(res.Items, 1)
}
