package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StatusSuite struct {
	suite.Suite
	now time.Time
}

func TestStatusSuite(t *testing.T) {
	suite.Run(t, new(StatusSuite))
}

func (s *StatusSuite) SetupTest() {
	s.now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

// =============================================================================
// Classification
// =============================================================================

func (s *StatusSuite) TestClassification() {
	s.Run("thirteen statuses all valid", func() {
		s.Len(All(), 13)
		for _, st := range All() {
			s.True(st.Valid(), st)
		}
		s.False(Status("parked").Valid())
	})

	s.Run("renewable set", func() {
		for _, st := range All() {
			want := st == StatusActive || st == StatusGracePeriod || st == StatusRedemption
			s.Equal(want, st.IsRenewable(), st)
		}
	})

	s.Run("transferring and cancellable sets", func() {
		s.True(StatusTransferApproved.IsTransferring())
		s.False(StatusTransferApproved.IsTransferCancellable())
		s.True(StatusPendingTransfer.IsTransferCancellable())
		s.False(StatusTransferCompleted.IsTransferring())
		s.True(StatusTransferCompleted.IsTerminalTransfer())
	})

	s.Run("only pending registration may omit expiry", func() {
		for _, st := range All() {
			s.Equal(st != StatusPendingRegistration, st.RequiresExpiry(), st)
		}
	})
}

// =============================================================================
// Transitions
// =============================================================================

func (s *StatusSuite) TestTransitions() {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPendingRegistration, StatusActive, true},
		{StatusActive, StatusExpired, true},
		{StatusExpired, StatusGracePeriod, true},
		{StatusGracePeriod, StatusRedemption, true},
		{StatusRedemption, StatusActive, true},
		{StatusActive, StatusPendingTransfer, true},
		{StatusPendingTransfer, StatusTransferCompleted, true},
		{StatusTransferApproved, StatusTransferCancelled, false},
		{StatusTransferredOut, StatusActive, false},
		{StatusTransferCompleted, StatusPendingTransfer, false},
		{StatusActive, StatusActive, true},
	}
	for _, tc := range cases {
		s.Run(string(tc.from)+"->"+string(tc.to), func() {
			s.Equal(tc.ok, CanTransition(tc.from, tc.to))
			got, err := Transition(tc.from, tc.to)
			if tc.ok {
				s.Require().NoError(err)
				s.Equal(tc.to, got)
				return
			}
			var te *TransitionError
			s.Require().ErrorAs(err, &te)
			s.Equal(tc.from, got)
		})
	}

	s.Run("unknown target rejected", func() {
		_, err := Transition(StatusActive, Status("parked"))
		s.Error(err)
	})
}

// =============================================================================
// Effective status
// =============================================================================

func (s *StatusSuite) TestEffective() {
	at := func(d time.Duration) *time.Time {
		t := s.now.Add(d)
		return &t
	}
	day := 24 * time.Hour

	s.Run("active before expiry", func() {
		s.Equal(StatusActive, Effective(StatusActive, at(5*day), s.now, DefaultWindows))
	})
	s.Run("expired first after expiry", func() {
		s.Equal(StatusExpired, Effective(StatusActive, at(-time.Hour), s.now, DefaultWindows))
		s.Equal(StatusExpired, Effective(StatusActive, at(-23*time.Hour), s.now, DefaultWindows))
	})
	s.Run("grace after the expired day", func() {
		s.Equal(StatusGracePeriod, Effective(StatusActive, at(-2*day), s.now, DefaultWindows))
		s.Equal(StatusGracePeriod, Effective(StatusExpired, at(-30*day), s.now, DefaultWindows))
	})
	s.Run("redemption after grace", func() {
		s.Equal(StatusRedemption, Effective(StatusActive, at(-45*day), s.now, DefaultWindows))
		s.Equal(StatusRedemption, Effective(StatusGracePeriod, at(-75*day), s.now, DefaultWindows))
	})
	s.Run("path is ordered as time passes", func() {
		var seen []Status
		for _, hours := range []int{-24, 1, 48, 24 * 40, 24 * 90} {
			st := Effective(StatusActive, at(-time.Duration(hours)*time.Hour), s.now, DefaultWindows)
			if len(seen) == 0 || seen[len(seen)-1] != st {
				seen = append(seen, st)
			}
		}
		s.Equal([]Status{StatusActive, StatusExpired, StatusGracePeriod, StatusRedemption}, seen)
	})
	s.Run("renewed domain reads active again", func() {
		s.Equal(StatusActive, Effective(StatusExpired, at(300*day), s.now, DefaultWindows))
	})
	s.Run("never moves backwards", func() {
		s.Equal(StatusRedemption, Effective(StatusRedemption, at(-time.Hour), s.now, DefaultWindows))
		s.Equal(StatusGracePeriod, Effective(StatusGracePeriod, at(-time.Hour), s.now, DefaultWindows))
	})
	s.Run("non expiry states unchanged", func() {
		s.Equal(StatusSuspended, Effective(StatusSuspended, at(-90*day), s.now, DefaultWindows))
		s.Equal(StatusPendingTransfer, Effective(StatusPendingTransfer, at(-90*day), s.now, DefaultWindows))
	})
	s.Run("missing expiry unchanged", func() {
		s.Equal(StatusPendingRegistration, Effective(StatusPendingRegistration, nil, s.now, DefaultWindows))
	})
	s.Run("non UTC clock compared in UTC", func() {
		loc := time.FixedZone("UTC+10", 10*60*60)
		exp := s.now.Add(time.Hour)
		s.Equal(StatusActive, Effective(StatusActive, &exp, s.now.In(loc), DefaultWindows))
	})
}

func TestNeedsSync(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	old := now.Add(-7 * time.Hour)
	fresh := now.Add(-time.Hour)

	assert.True(t, NeedsSync(nil, now, DefaultSyncFreshness))
	assert.True(t, NeedsSync(&old, now, DefaultSyncFreshness))
	assert.False(t, NeedsSync(&fresh, now, DefaultSyncFreshness))
	assert.False(t, NeedsSync(&fresh, now, 0), "zero window falls back to default")
}

func TestFromRegistrar(t *testing.T) {
	cases := map[string]Status{
		"active":          StatusActive,
		"OK":              StatusActive,
		"Grace-Period":    StatusGracePeriod,
		"redemption":      StatusRedemption,
		"clientHold":      StatusSuspended,
		"transferred_out": StatusTransferredOut,
		"pendingDelete":   "",
	}
	for in, want := range cases {
		got, ok := FromRegistrar(in)
		if want == "" {
			assert.False(t, ok, in)
			continue
		}
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestTransferOutcome(t *testing.T) {
	got, ok := TransferOutcome("Completed")
	require.True(t, ok)
	assert.Equal(t, StatusTransferCompleted, got)

	got, ok = TransferOutcome("canceled")
	require.True(t, ok)
	assert.Equal(t, StatusTransferCancelled, got)

	_, ok = TransferOutcome("mystery")
	assert.False(t, ok)
}
