// Package notify emits business events (renewals, transfer outcomes, low
// balances) for downstream consumers such as mailers and audit sinks.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "reseller/pkg/domain"
	"reseller/pkg/requestcontext"
)

type EventType string

const (
	EventDomainRenewed        EventType = "domain.renewed"
	EventDomainRenewalFailed  EventType = "domain.renewal_failed"
	EventDomainStatusChanged  EventType = "domain.status_changed"
	EventTransferCompleted    EventType = "domain.transfer_completed"
	EventTransferFailed       EventType = "domain.transfer_failed"
	EventWalletLowBalance     EventType = "wallet.low_balance"
	EventRegistrarPriceChange EventType = "registrar.price_changed"
)

// Event is transport-agnostic. Payload values must be JSON encodable.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	PartnerID  string         `json:"partner_id,omitempty"`
	RunID      string         `json:"run_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NewEvent stamps an event with an ID, the context clock and run ID.
func NewEvent(ctx context.Context, typ EventType, partnerID id.PartnerID, payload map[string]any) Event {
	e := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		RunID:      requestcontext.RunID(ctx),
		OccurredAt: requestcontext.Now(ctx),
		Payload:    payload,
	}
	if !partnerID.IsNil() {
		e.PartnerID = partnerID.String()
	}
	return e
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
