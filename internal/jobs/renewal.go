package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reseller/internal/domains"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	"reseller/internal/pricing"
	"reseller/internal/registrar"
	"reseller/internal/wallet"
	id "reseller/pkg/domain"
	dErrors "reseller/pkg/domain-errors"
	"reseller/pkg/requestcontext"
)

const JobRenewal = "renewal"

// Quoter resolves the partner price for an action.
type Quoter interface {
	QuoteAt(ctx context.Context, partnerID id.PartnerID, tldID int64, action pricing.Action, years int, at time.Time) (*pricing.Quote, error)
}

// Ledger is the slice of the wallet service the renewal job posts through.
type Ledger interface {
	ForPartner(ctx context.Context, partnerID id.PartnerID) (*wallet.Wallet, error)
	Debit(ctx context.Context, walletID id.WalletID, e wallet.Entry) (*wallet.Transaction, error)
	Refund(ctx context.Context, walletID id.WalletID, e wallet.Entry) (*wallet.Transaction, error)
}

type RenewalOptions struct {
	PartnerID *id.PartnerID
	// LeadDays selects domains expiring within this many days. Zero uses the configured default.
	LeadDays int
	// Years is the renewal period. Zero uses the configured default.
	Years  int
	Limit  int
	DryRun bool
}

// Renewal charges partners and renews auto-renew domains nearing expiry.
type Renewal struct {
	runner
	quoter Quoter
	ledger Ledger
}

func NewRenewal(store domains.Store, registrars Registrars, quoter Quoter, ledger Ledger, opts ...Option) (*Renewal, error) {
	r, err := newDomainRunner(store, registrars, opts)
	if err != nil {
		return nil, err
	}
	if quoter == nil {
		return nil, errors.New("pricing engine is required")
	}
	if ledger == nil {
		return nil, errors.New("wallet service is required")
	}
	return &Renewal{runner: r, quoter: quoter, ledger: ledger}, nil
}

// Run renews every renewable, auto-renew domain whose expiry falls on or
// before now plus the lead window. Each domain is quoted, debited, renewed at
// the registrar and updated. A failed registrar renewal refunds the debit.
func (j *Renewal) Run(ctx context.Context, opts RenewalOptions) (*Result, error) {
	if opts.LeadDays < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("lead days must not be negative, got %d", opts.LeadDays))
	}
	if opts.LeadDays == 0 {
		opts.LeadDays = j.leadDays
	}
	if opts.Years == 0 {
		opts.Years = j.renewalYears
	}
	if err := registrar.ValidateYears(opts.Years); err != nil {
		return nil, err
	}

	ctx, res, span := j.start(ctx, JobRenewal, opts.DryRun)
	now := requestcontext.Now(ctx).UTC()
	cutoff := now.AddDate(0, 0, opts.LeadDays)
	autoRenew := true
	candidates, err := j.domains.List(ctx, domains.Filter{
		PartnerID:     opts.PartnerID,
		Statuses:      lifecycle.RenewableStatuses(),
		AutoRenew:     &autoRenew,
		ExpiresBefore: &cutoff,
		Limit:         j.limit(opts.Limit),
	})
	if err != nil {
		j.abort(ctx, res, span, err)
		return nil, fmt.Errorf("select renewal candidates: %w", err)
	}

	delay := j.delay
	if opts.DryRun {
		delay = 0
	}
	j.each(ctx, res, len(candidates), delay, func(ctx context.Context, i int) ItemResult {
		return j.renew(ctx, candidates[i], opts, now)
	})
	j.finish(ctx, res, span)
	return res, nil
}

func (j *Renewal) renew(ctx context.Context, d *domains.Domain, opts RenewalOptions, now time.Time) ItemResult {
	item := itemFor(d)
	quote, err := j.quoter.QuoteAt(ctx, d.PartnerID, d.TldID, pricing.ActionRenew, opts.Years, now)
	if err != nil {
		return failItem(item, fmt.Errorf("quote renewal: %w", err))
	}
	item.Amount = quote.Final.StringFixed(2)
	if opts.DryRun {
		item.Outcome = OutcomeUnchanged
		item.Message = fmt.Sprintf("would renew for %d year(s)", opts.Years)
		return item
	}

	client, err := j.client(ctx, d)
	if err != nil {
		return failItem(item, err)
	}
	w, err := j.ledger.ForPartner(ctx, d.PartnerID)
	if err != nil {
		return failItem(item, fmt.Errorf("load wallet: %w", err))
	}
	debit, err := j.ledger.Debit(ctx, w.ID, wallet.Entry{
		Amount:        quote.Final,
		Description:   fmt.Sprintf("Renewal of %s for %d year(s)", d.Name, opts.Years),
		ReferenceType: "domain_renewal",
		ReferenceID:   d.ID.String(),
	})
	if err != nil {
		j.renewalFailed(ctx, d, opts.Years, err)
		return failItem(item, fmt.Errorf("charge renewal: %w", err))
	}

	renewed, err := client.Renew(ctx, d.Name, opts.Years)
	if err != nil {
		item = failItem(item, err)
		if _, rerr := j.ledger.Refund(ctx, w.ID, wallet.Entry{
			Amount:        quote.Final,
			Description:   fmt.Sprintf("Refund of failed renewal of %s", d.Name),
			ReferenceType: "domain_renewal_refund",
			ReferenceID:   debit.ID.String(),
		}); rerr != nil {
			j.logger.ErrorContext(ctx, "renewal refund failed",
				"domain", d.Name,
				"wallet_id", w.ID.String(),
				"debit_id", debit.ID.String(),
				"amount", quote.Final.StringFixed(2),
				"error", rerr,
			)
			item.Message = "refund failed: " + rerr.Error()
		} else {
			item.Message = "charge refunded"
		}
		j.renewalFailed(ctx, d, opts.Years, err)
		return item
	}

	expiry := renewedExpiry(d, renewed.Data, opts.Years)
	d.ExpiresAt = &expiry
	if err := d.MoveTo(lifecycle.StatusActive); err != nil {
		return failItem(item, err)
	}
	if err := j.domains.Update(ctx, d); err != nil {
		j.logger.ErrorContext(ctx, "domain renewed at registrar but record update failed",
			"domain", d.Name,
			"expires_at", expiry,
			"error", err,
		)
		return failItem(item, fmt.Errorf("update domain: %w", err))
	}

	j.publish(ctx, notify.NewEvent(ctx, notify.EventDomainRenewed, d.PartnerID, map[string]any{
		"domain_id":      d.ID.String(),
		"domain":         d.Name,
		"years":          opts.Years,
		"amount":         quote.Final.StringFixed(2),
		"expires_at":     expiry,
		"transaction_id": debit.ID.String(),
	}))
	item.Outcome = OutcomeSucceeded
	item.To = d.Status
	item.Message = "renewed until " + expiry.Format(time.DateOnly)
	return item
}

func (j *Renewal) renewalFailed(ctx context.Context, d *domains.Domain, years int, cause error) {
	j.publish(ctx, notify.NewEvent(ctx, notify.EventDomainRenewalFailed, d.PartnerID, map[string]any{
		"domain_id":      d.ID.String(),
		"domain":         d.Name,
		"years":          years,
		"reason":         cause.Error(),
		"error_category": classify(cause),
	}))
}

// renewedExpiry prefers the registrar's expiry and otherwise extends the
// stored one by years.
func renewedExpiry(d *domains.Domain, r registrar.Renewal, years int) time.Time {
	if !r.ExpiresAt.IsZero() {
		return r.ExpiresAt.UTC()
	}
	return d.ExpiresAt.UTC().AddDate(years, 0, 0)
}
