// Package domains holds the reseller's record of each registered domain.
package domains

import (
	"context"
	"strings"
	"time"

	"reseller/internal/lifecycle"
	id "reseller/pkg/domain"
	dErrors "reseller/pkg/domain-errors"
)

// Domain is a domain name managed on behalf of a partner's client.
// ExpiresAt is mandatory once the domain leaves pending_registration.
type Domain struct {
	ID                    id.DomainID
	PartnerID             id.PartnerID
	ClientID              *id.ClientID
	RegistrarID           int64
	TldID                 int64
	Name                  string
	Status                lifecycle.Status
	RegisteredAt          *time.Time
	ExpiresAt             *time.Time
	AutoRenew             bool
	LastSyncedAt          *time.Time
	SyncMetadata          map[string]any
	TransferInitiatedAt   *time.Time
	TransferStatusMessage string
	DeletedAt             *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Validate enforces record invariants before persistence.
func (d *Domain) Validate() error {
	if d.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "domain id is required")
	}
	if d.PartnerID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "partner id is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "domain name is required")
	}
	if !d.Status.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown domain status "+string(d.Status))
	}
	if d.Status.RequiresExpiry() && d.ExpiresAt == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "expires_at is required once a domain leaves pending_registration")
	}
	return nil
}

// TLD returns the extension after the first label, without the leading dot.
func (d *Domain) TLD() string {
	if i := strings.IndexByte(d.Name, '.'); i >= 0 {
		return d.Name[i+1:]
	}
	return ""
}

// EffectiveStatus derives the read-time status from the stored one.
func (d *Domain) EffectiveStatus(now time.Time, w lifecycle.Windows) lifecycle.Status {
	return lifecycle.Effective(d.Status, d.ExpiresAt, now, w)
}

// MoveTo applies a legal status change in memory. Callers persist with Update.
func (d *Domain) MoveTo(to lifecycle.Status) error {
	next, err := lifecycle.Transition(d.Status, to)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "status change rejected")
	}
	d.Status = next
	return nil
}

// MarkSynced stamps the sync time and merges provider metadata.
func (d *Domain) MarkSynced(at time.Time, meta map[string]any) {
	t := at.UTC()
	d.LastSyncedAt = &t
	if len(meta) == 0 {
		return
	}
	if d.SyncMetadata == nil {
		d.SyncMetadata = make(map[string]any, len(meta))
	}
	for k, v := range meta {
		d.SyncMetadata[k] = v
	}
}

// Filter selects domains for batch jobs. Zero values mean "no constraint".
type Filter struct {
	PartnerID     *id.PartnerID
	RegistrarID   int64
	Statuses      []lifecycle.Status
	AutoRenew     *bool
	ExpiresBefore *time.Time
	ExpiresAfter  *time.Time
	// SyncedBefore keeps domains never synced or last synced before the cutoff.
	SyncedBefore *time.Time
	Limit        int
}

// Store persists domain records. Soft-deleted rows are invisible to reads.
type Store interface {
	Create(ctx context.Context, d *Domain) error
	Get(ctx context.Context, domainID id.DomainID) (*Domain, error)
	GetByName(ctx context.Context, name string) (*Domain, error)
	List(ctx context.Context, f Filter) ([]*Domain, error)
	Update(ctx context.Context, d *Domain) error
	SoftDelete(ctx context.Context, domainID id.DomainID, at time.Time) error
}
