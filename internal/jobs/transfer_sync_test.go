package jobs_test

import (
	"time"

	"reseller/internal/domains"
	"reseller/internal/jobs"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	"reseller/internal/registrar/mock"
)

// =============================================================================
// Transfer sync
// =============================================================================

func (s *JobsSuite) transferSync() *jobs.TransferSync {
	job, err := jobs.NewTransferSync(s.domains, s.registrars, s.options()...)
	s.Require().NoError(err)
	return job
}

// seedTransfer records an inbound transfer started initiatedDaysAgo, with the
// registrar reporting transferStatus.
func (s *JobsSuite) seedTransfer(name string, stored lifecycle.Status, initiatedDaysAgo int, transferStatus, message string) *domains.Domain {
	d := s.seedDomain(name, stored, s.days(200), false, "pending_transfer")
	initiated := s.days(-initiatedDaysAgo)
	d.TransferInitiatedAt = &initiated
	s.Require().NoError(s.domains.Update(s.ctx, d))
	if transferStatus != "" {
		s.Require().NoError(s.registrar.SetTransferStatus(s.ctx, name, transferStatus, message))
	}
	return d
}

func (s *JobsSuite) TestTransferSyncOutcomes() {
	completed := s.seedTransfer("done.com", lifecycle.StatusPendingTransfer, 2, "completed", "")
	failed := s.seedTransfer("nope.com", lifecycle.StatusTransferInProgress, 2, "rejected", "losing registrar declined")
	moving := s.seedTransfer("moving.com", lifecycle.StatusPendingTransfer, 1, "in_progress", "")
	waiting := s.seedTransfer("waiting.com", lifecycle.StatusPendingTransfer, 1, "pending", "")

	res, err := s.transferSync().Run(s.ctx, jobs.TransferOptions{})
	s.Require().NoError(err)
	s.Equal(4, res.Total)
	s.Equal(3, res.Succeeded)
	s.Equal(1, res.Unchanged)

	s.Run("completed transfers settle as active", func() {
		s.Equal(lifecycle.StatusActive, s.reload(completed).Status)
	})

	s.Run("failed transfers keep the registrar message", func() {
		got := s.reload(failed)
		s.Equal(lifecycle.StatusTransferFailed, got.Status)
		s.Equal("losing registrar declined", got.TransferStatusMessage)
	})

	s.Run("intermediate progress is recorded", func() {
		s.Equal(lifecycle.StatusTransferInProgress, s.reload(moving).Status)
	})

	s.Run("unchanged transfers are only stamped", func() {
		got := s.reload(waiting)
		s.Equal(lifecycle.StatusPendingTransfer, got.Status)
		s.Require().NotNil(got.LastSyncedAt)
	})

	s.Run("only terminal outcomes notify", func() {
		s.ElementsMatch([]notify.EventType{notify.EventTransferCompleted, notify.EventTransferFailed}, s.eventTypes())
	})
}

func (s *JobsSuite) TestTransferSyncIgnoresStaleEarlierStage() {
	d := s.seedTransfer("ahead.com", lifecycle.StatusTransferApproved, 1, "pending", "")

	res, err := s.transferSync().Run(s.ctx, jobs.TransferOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Unchanged)
	s.Equal(lifecycle.StatusTransferApproved, s.reload(d).Status)
}

func (s *JobsSuite) TestTransferSyncConfirmsOwnershipAfterWindow() {
	d := s.seedTransfer("quiet.com", lifecycle.StatusPendingTransfer, 8, "pending", "")
	newExpiry := s.days(400)
	s.Require().NoError(s.registrar.Seed(s.ctx, mock.Record{
		Domain:         "quiet.com",
		Status:         "active",
		ExpiresAt:      newExpiry,
		TransferStatus: "pending",
	}))

	res, err := s.transferSync().Run(s.ctx, jobs.TransferOptions{CompletionWindow: 7 * 24 * time.Hour})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Succeeded)
	got := s.reload(d)
	s.Equal(lifecycle.StatusActive, got.Status)
	s.Equal(newExpiry, got.ExpiresAt.UTC())
	s.Equal("ownership confirmed after transfer window", got.TransferStatusMessage)
	s.Equal([]notify.EventType{notify.EventTransferCompleted}, s.eventTypes())
}

func (s *JobsSuite) TestTransferSyncWithinWindowWaits() {
	d := s.seedTransfer("patient.com", lifecycle.StatusPendingTransfer, 3, "pending", "")

	res, err := s.transferSync().Run(s.ctx, jobs.TransferOptions{})
	s.Require().NoError(err)

	s.Equal(1, res.Unchanged)
	s.Equal(lifecycle.StatusPendingTransfer, s.reload(d).Status)
	s.Empty(s.events)
}

func (s *JobsSuite) TestTransferSyncMissingTransferFails() {
	s.seedTransfer("unknown.com", lifecycle.StatusPendingTransfer, 1, "", "")

	res, err := s.transferSync().Run(s.ctx, jobs.TransferOptions{})
	s.Require().NoError(err)

	s.Require().Equal(1, res.Failed)
	s.Equal("not_found", res.Items[0].ErrorCategory)
}
