package jobs

import (
	"context"
	"fmt"
	"time"

	"reseller/internal/domains"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	"reseller/internal/registrar"
	id "reseller/pkg/domain"
	"reseller/pkg/requestcontext"
)

const JobTransferSync = "transfer_sync"

type TransferOptions struct {
	PartnerID *id.PartnerID
	Limit     int
	// CompletionWindow is how long after initiation an unresolved transfer is
	// checked for ownership. Zero uses the configured default.
	CompletionWindow time.Duration
}

// TransferSync polls in-flight inbound transfers.
type TransferSync struct {
	runner
}

func NewTransferSync(store domains.Store, registrars Registrars, opts ...Option) (*TransferSync, error) {
	r, err := newDomainRunner(store, registrars, opts)
	if err != nil {
		return nil, err
	}
	return &TransferSync{runner: r}, nil
}

func (j *TransferSync) Run(ctx context.Context, opts TransferOptions) (*Result, error) {
	if opts.CompletionWindow <= 0 {
		opts.CompletionWindow = j.transferWindow
	}
	ctx, res, span := j.start(ctx, JobTransferSync, false)
	now := requestcontext.Now(ctx).UTC()
	candidates, err := j.domains.List(ctx, domains.Filter{
		PartnerID: opts.PartnerID,
		Statuses:  lifecycle.TransferringStatuses(),
		Limit:     j.limit(opts.Limit),
	})
	if err != nil {
		j.abort(ctx, res, span, err)
		return nil, fmt.Errorf("select transfers: %w", err)
	}

	j.each(ctx, res, len(candidates), j.delay, func(ctx context.Context, i int) ItemResult {
		return j.poll(ctx, candidates[i], opts.CompletionWindow, now)
	})
	j.finish(ctx, res, span)
	return res, nil
}

func (j *TransferSync) poll(ctx context.Context, d *domains.Domain, window time.Duration, now time.Time) ItemResult {
	item := itemFor(d)
	client, err := j.client(ctx, d)
	if err != nil {
		return failItem(item, err)
	}

	var (
		target  lifecycle.Status
		known   bool
		message string
	)
	status, statusErr := client.GetTransferStatus(ctx, d.Name)
	if statusErr != nil && registrar.CategoryOf(statusErr) != registrar.ErrorNotFound {
		return failItem(item, statusErr)
	}
	if statusErr == nil {
		target, known = lifecycle.TransferOutcome(status.Data.Status)
		message = status.Data.Message
		if !known {
			item.Message = fmt.Sprintf("unrecognised transfer status %q", status.Data.Status)
		}
	}

	overdue := d.TransferInitiatedAt != nil && now.Sub(d.TransferInitiatedAt.UTC()) >= window
	if overdue && (!known || !target.IsTerminalTransfer()) {
		info, err := client.GetInfo(ctx, d.Name)
		if err == nil {
			target, known = lifecycle.StatusTransferCompleted, true
			message = "ownership confirmed after transfer window"
			if info.Data.ExpiresAt != nil {
				exp := info.Data.ExpiresAt.UTC()
				d.ExpiresAt = &exp
			}
		} else if item.Message == "" {
			item.Message = "transfer window elapsed, ownership not confirmed"
		}
	}
	if statusErr != nil && !known {
		return failItem(item, statusErr)
	}

	from := d.Status
	if known && target != from {
		if err := j.apply(d, target); err != nil {
			return failItem(item, err)
		}
	}
	if message != "" {
		d.TransferStatusMessage = message
	}
	d.MarkSynced(now, nil)
	if err := j.domains.Update(ctx, d); err != nil {
		return failItem(item, fmt.Errorf("update domain: %w", err))
	}

	item.To = d.Status
	if from == d.Status {
		item.Outcome = OutcomeUnchanged
		return item
	}
	item.Outcome = OutcomeSucceeded
	j.notifyOutcome(ctx, d, target, message)
	return item
}

// apply moves d towards target. Completed transfers settle as active; a
// provider reporting an earlier non-terminal stage than the stored one is
// ignored.
func (j *TransferSync) apply(d *domains.Domain, target lifecycle.Status) error {
	if !target.IsTerminalTransfer() && !lifecycle.CanTransition(d.Status, target) {
		return nil
	}
	if err := d.MoveTo(target); err != nil {
		return err
	}
	if target == lifecycle.StatusTransferCompleted {
		return d.MoveTo(lifecycle.StatusActive)
	}
	return nil
}

func (j *TransferSync) notifyOutcome(ctx context.Context, d *domains.Domain, target lifecycle.Status, message string) {
	payload := map[string]any{
		"domain_id": d.ID.String(),
		"domain":    d.Name,
		"status":    string(target),
		"message":   message,
	}
	switch target {
	case lifecycle.StatusTransferCompleted:
		payload["expires_at"] = d.ExpiresAt
		j.publish(ctx, notify.NewEvent(ctx, notify.EventTransferCompleted, d.PartnerID, payload))
	case lifecycle.StatusTransferFailed, lifecycle.StatusTransferCancelled:
		j.publish(ctx, notify.NewEvent(ctx, notify.EventTransferFailed, d.PartnerID, payload))
	}
}
