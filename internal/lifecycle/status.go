// Package lifecycle defines the closed set of domain states and the legal
// transitions between them.
//
// The state machine holds no timers. Expiry-driven states are either computed
// at read time with Effective, or written explicitly by the status sync job.
package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPendingRegistration Status = "pending_registration"
	StatusActive              Status = "active"
	StatusExpired             Status = "expired"
	StatusGracePeriod         Status = "grace_period"
	StatusRedemption          Status = "redemption"
	StatusSuspended           Status = "suspended"
	StatusTransferredOut      Status = "transferred_out"
	StatusPendingTransfer     Status = "pending_transfer"
	StatusTransferInProgress  Status = "transfer_in_progress"
	StatusTransferApproved    Status = "transfer_approved"
	StatusTransferCompleted   Status = "transfer_completed"
	StatusTransferFailed      Status = "transfer_failed"
	StatusTransferCancelled   Status = "transfer_cancelled"
)

// DefaultSyncFreshness is how long a sync result is trusted before the
// domain is polled again.
const DefaultSyncFreshness = 6 * time.Hour

var all = []Status{
	StatusPendingRegistration,
	StatusActive,
	StatusExpired,
	StatusGracePeriod,
	StatusRedemption,
	StatusSuspended,
	StatusTransferredOut,
	StatusPendingTransfer,
	StatusTransferInProgress,
	StatusTransferApproved,
	StatusTransferCompleted,
	StatusTransferFailed,
	StatusTransferCancelled,
}

// All returns every status in declaration order.
func All() []Status {
	out := make([]Status, len(all))
	copy(out, all)
	return out
}

// Parse validates a stored status string.
func Parse(s string) (Status, error) {
	st := Status(strings.TrimSpace(s))
	if !st.Valid() {
		return "", fmt.Errorf("unknown domain status %q", s)
	}
	return st, nil
}

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	for _, st := range all {
		if st == s {
			return true
		}
	}
	return false
}

func (s Status) IsRenewable() bool {
	return s == StatusActive || s == StatusGracePeriod || s == StatusRedemption
}

func (s Status) IsTransferring() bool {
	return s == StatusPendingTransfer || s == StatusTransferInProgress || s == StatusTransferApproved
}

func (s Status) IsTransferCancellable() bool {
	return s == StatusPendingTransfer || s == StatusTransferInProgress
}

func (s Status) IsTerminalTransfer() bool {
	return s == StatusTransferCompleted || s == StatusTransferFailed || s == StatusTransferCancelled
}

// RequiresExpiry reports whether a domain in this state must carry expires_at.
func (s Status) RequiresExpiry() bool {
	return s != StatusPendingRegistration
}

// RenewableStatuses, TransferringStatuses are the selection sets used by jobs.
func RenewableStatuses() []Status {
	return []Status{StatusActive, StatusGracePeriod, StatusRedemption}
}

func TransferringStatuses() []Status {
	return []Status{StatusPendingTransfer, StatusTransferInProgress, StatusTransferApproved}
}

// SyncableStatuses are polled by the status sync job.
func SyncableStatuses() []Status {
	return []Status{StatusActive, StatusExpired, StatusGracePeriod, StatusRedemption, StatusSuspended}
}

var transitions = map[Status][]Status{
	StatusPendingRegistration: {StatusActive, StatusSuspended},
	StatusActive:              {StatusExpired, StatusGracePeriod, StatusRedemption, StatusSuspended, StatusTransferredOut, StatusPendingTransfer},
	StatusExpired:             {StatusActive, StatusGracePeriod, StatusRedemption, StatusSuspended},
	StatusGracePeriod:         {StatusActive, StatusRedemption, StatusExpired, StatusSuspended},
	StatusRedemption:          {StatusActive, StatusExpired, StatusSuspended},
	StatusSuspended:           {StatusActive, StatusExpired, StatusGracePeriod, StatusRedemption},
	StatusTransferredOut:      {},
	StatusPendingTransfer:     {StatusTransferInProgress, StatusTransferApproved, StatusTransferCompleted, StatusTransferFailed, StatusTransferCancelled},
	StatusTransferInProgress:  {StatusTransferApproved, StatusTransferCompleted, StatusTransferFailed, StatusTransferCancelled},
	StatusTransferApproved:    {StatusTransferCompleted, StatusTransferFailed},
	StatusTransferCompleted:   {StatusActive},
	StatusTransferFailed:      {StatusPendingTransfer},
	StatusTransferCancelled:   {StatusPendingTransfer},
}

// CanTransition reports whether from → to is legal. Staying in the same
// state is always legal so sync jobs can rewrite metadata idempotently.
func CanTransition(from, to Status) bool {
	if from == to {
		return from.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a move and returns the target status.
func Transition(from, to Status) (Status, error) {
	if !to.Valid() {
		return from, fmt.Errorf("unknown domain status %q", to)
	}
	if !CanTransition(from, to) {
		return from, &TransitionError{From: from, To: to}
	}
	return to, nil
}

// TransitionError reports an illegal state change.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal domain status transition %s -> %s", e.From, e.To)
}

// Windows configures the post-expiry phases. After expires_at a domain is
// expired for Expired, then in grace for Grace, then in redemption until the
// registrar releases it.
type Windows struct {
	Expired    time.Duration
	Grace      time.Duration
	Redemption time.Duration
}

// DefaultWindows: one day expired, then the common gTLD 30 days grace and
// 30 days redemption.
var DefaultWindows = Windows{
	Expired:    24 * time.Hour,
	Grace:      30 * 24 * time.Hour,
	Redemption: 30 * 24 * time.Hour,
}

// Effective computes the read-time status from a stored status and expiry.
// Only the expiry-driven states are derived: a stored active, expired, grace
// or redemption domain advances along active → expired → grace_period →
// redemption as time passes and never moves backwards while still past
// expiry. Every other stored status is returned unchanged. Comparisons are
// made in UTC.
func Effective(stored Status, expiresAt *time.Time, now time.Time, w Windows) Status {
	if expiresAt == nil {
		return stored
	}
	if _, ok := phaseOrder[stored]; !ok {
		return stored
	}
	now = now.UTC()
	exp := expiresAt.UTC()
	if now.Before(exp) {
		return StatusActive
	}
	since := now.Sub(exp)
	switch {
	case since < w.Expired:
		return maxPhase(stored, StatusExpired)
	case since < w.Expired+w.Grace:
		return maxPhase(stored, StatusGracePeriod)
	default:
		return StatusRedemption
	}
}

var phaseOrder = map[Status]int{
	StatusActive:      0,
	StatusExpired:     1,
	StatusGracePeriod: 2,
	StatusRedemption:  3,
}

// maxPhase never moves a stored status backwards along the expiry path.
func maxPhase(stored, computed Status) Status {
	if phaseOrder[stored] > phaseOrder[computed] {
		return stored
	}
	return computed
}

// NeedsSync reports whether a domain should be polled: never synced, or the
// last sync is older than window.
func NeedsSync(lastSynced *time.Time, now time.Time, window time.Duration) bool {
	if lastSynced == nil || lastSynced.IsZero() {
		return true
	}
	if window <= 0 {
		window = DefaultSyncFreshness
	}
	return now.UTC().Sub(lastSynced.UTC()) >= window
}

// FromRegistrar maps a provider status string onto the closed set. Unknown
// strings return false so callers can keep the stored state.
func FromRegistrar(s string) (Status, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if st := Status(norm); st.Valid() {
		return st, true
	}
	switch norm {
	case "ok", "registered", "clienttransferprohibited", "locked":
		return StatusActive, true
	case "grace", "autorenew_grace", "renew_grace":
		return StatusGracePeriod, true
	case "redemption_period", "pending_delete_restorable":
		return StatusRedemption, true
	case "pending_delete", "deleted":
		return StatusExpired, true
	case "hold", "client_hold", "server_hold", "clienthold", "serverhold":
		return StatusSuspended, true
	case "transferred", "transferred_away", "transfer_out":
		return StatusTransferredOut, true
	}
	return "", false
}

// TransferOutcome maps a provider transfer status onto the transfer states.
func TransferOutcome(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "requested", "pending_transfer":
		return StatusPendingTransfer, true
	case "in_progress", "processing", "transfer_in_progress":
		return StatusTransferInProgress, true
	case "approved", "client_approved", "server_approved", "transfer_approved":
		return StatusTransferApproved, true
	case "completed", "complete", "done", "transfer_completed":
		return StatusTransferCompleted, true
	case "failed", "rejected", "client_rejected", "server_rejected", "transfer_failed":
		return StatusTransferFailed, true
	case "cancelled", "canceled", "client_cancelled", "transfer_cancelled":
		return StatusTransferCancelled, true
	}
	return "", false
}
