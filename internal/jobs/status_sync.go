package jobs

import (
	"context"
	"fmt"
	"time"

	"reseller/internal/domains"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	id "reseller/pkg/domain"
	dErrors "reseller/pkg/domain-errors"
	"reseller/pkg/requestcontext"
)

const JobStatusSync = "status_sync"

type SyncOptions struct {
	PartnerID *id.PartnerID
	Limit     int
	// ExpiryWindowDays restricts the run to domains expiring within this many
	// days, including already expired ones. Zero means no restriction.
	ExpiryWindowDays int
	// Force ignores the freshness window and polls every selected domain.
	Force bool
}

// StatusSync reconciles stored domain status and expiry with the registrar.
type StatusSync struct {
	runner
}

func NewStatusSync(store domains.Store, registrars Registrars, opts ...Option) (*StatusSync, error) {
	r, err := newDomainRunner(store, registrars, opts)
	if err != nil {
		return nil, err
	}
	return &StatusSync{runner: r}, nil
}

func (j *StatusSync) Run(ctx context.Context, opts SyncOptions) (*Result, error) {
	if opts.ExpiryWindowDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("expiry window must not be negative, got %d", opts.ExpiryWindowDays))
	}
	ctx, res, span := j.start(ctx, JobStatusSync, false)
	now := requestcontext.Now(ctx).UTC()
	f := domains.Filter{
		PartnerID: opts.PartnerID,
		Statuses:  lifecycle.SyncableStatuses(),
		Limit:     j.limit(opts.Limit),
	}
	if !opts.Force {
		stale := now.Add(-j.freshness)
		f.SyncedBefore = &stale
	}
	if opts.ExpiryWindowDays > 0 {
		until := now.AddDate(0, 0, opts.ExpiryWindowDays)
		f.ExpiresBefore = &until
	}
	candidates, err := j.domains.List(ctx, f)
	if err != nil {
		j.abort(ctx, res, span, err)
		return nil, fmt.Errorf("select domains to sync: %w", err)
	}

	j.each(ctx, res, len(candidates), j.delay, func(ctx context.Context, i int) ItemResult {
		return j.sync(ctx, candidates[i], now)
	})
	j.finish(ctx, res, span)
	return res, nil
}

// sync applies the registrar's view. Unrecognised provider statuses fall back
// to the expiry-derived status so the stored value matches what reads compute.
func (j *StatusSync) sync(ctx context.Context, d *domains.Domain, now time.Time) ItemResult {
	item := itemFor(d)
	client, err := j.client(ctx, d)
	if err != nil {
		return failItem(item, err)
	}
	info, err := client.GetInfo(ctx, d.Name)
	if err != nil {
		return failItem(item, err)
	}

	from := d.Status
	prevExpiry := d.ExpiresAt
	if info.Data.ExpiresAt != nil {
		exp := info.Data.ExpiresAt.UTC()
		d.ExpiresAt = &exp
	}
	target, known := lifecycle.FromRegistrar(info.Data.Status)
	if !known {
		target = d.EffectiveStatus(now, j.windows)
		item.Message = fmt.Sprintf("unrecognised registrar status %q", info.Data.Status)
	}
	if err := d.MoveTo(target); err != nil {
		return failItem(item, err)
	}
	d.MarkSynced(now, map[string]any{
		"registrar_status": info.Data.Status,
		"locked":           info.Data.Locked,
		"auto_renew":       info.Data.AutoRenew,
		"privacy":          info.Data.Privacy,
	})
	if err := j.domains.Update(ctx, d); err != nil {
		return failItem(item, fmt.Errorf("update domain: %w", err))
	}

	item.To = d.Status
	switch {
	case from != d.Status:
		item.Outcome = OutcomeSucceeded
		j.publish(ctx, notify.NewEvent(ctx, notify.EventDomainStatusChanged, d.PartnerID, map[string]any{
			"domain_id":  d.ID.String(),
			"domain":     d.Name,
			"from":       string(from),
			"to":         string(d.Status),
			"expires_at": d.ExpiresAt,
		}))
	case !sameTime(prevExpiry, d.ExpiresAt):
		item.Outcome = OutcomeSucceeded
		if item.Message == "" {
			item.Message = "expiry updated"
		}
	default:
		item.Outcome = OutcomeUnchanged
	}
	return item
}
