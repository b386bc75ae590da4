// Package mock is a deterministic registrar that keeps its state in redis (or
// memory), used for development environments and tests.
//
// Domains whose first label starts with "taken-" are never available and
// "premium-" domains are available at a premium price. Test hooks queue
// failures, move transfers along and override price lists.
package mock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"reseller/internal/registrar"
)

const (
	Class   = "mock"
	version = "mock-1"

	takenPrefix   = "taken-"
	premiumPrefix = "premium-"
)

var premiumPrice = decimal.RequireFromString("499.00")

// defaultBase is the one-year register price per TLD. Renewals cost the
// same and transfers include one year.
var defaultBase = map[string]decimal.Decimal{
	"com": decimal.RequireFromString("10.99"),
	"net": decimal.RequireFromString("12.49"),
	"org": decimal.RequireFromString("11.29"),
	"io":  decimal.RequireFromString("39.00"),
}

var fallbackBase = decimal.RequireFromString("19.99")

type Client struct {
	name  string
	state State
	now   func() time.Time
}

type Option func(*Client)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func New(name string, state State, opts ...Option) *Client {
	if name == "" {
		name = Class
	}
	c := &Client{name: name, state: state, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) clock() time.Time {
	return c.now().UTC().Truncate(time.Second)
}

// FailNext makes the next call of operation fail with category. Operation
// names match the client method names in snake case, e.g. "renew".
func (c *Client) FailNext(ctx context.Context, operation string, category registrar.ErrorCategory) error {
	return c.state.PushFailure(ctx, operation, category)
}

// SetTransferStatus moves an inbound transfer to status.
func (c *Client) SetTransferStatus(ctx context.Context, domain, status, message string) error {
	_, err := c.state.Update(ctx, registrar.NormalizeDomain(domain), func(r *Record, ok bool) (*Record, error) {
		if !ok {
			return nil, fmt.Errorf("mock: no transfer for %s", domain)
		}
		r.TransferStatus = status
		r.TransferMessage = message
		r.TransferUpdatedAt = c.clock()
		if status == "completed" {
			r.Status = "active"
		}
		return r, nil
	})
	return err
}

// SetPrices replaces the price list returned for tld.
func (c *Client) SetPrices(ctx context.Context, tld string, prices []registrar.Price) error {
	return c.state.SetPrices(ctx, normalizeTLD(tld), prices)
}

// Seed stores a domain directly, bypassing registration.
func (c *Client) Seed(ctx context.Context, r Record) error {
	r.Domain = registrar.NormalizeDomain(r.Domain)
	if r.Status == "" {
		r.Status = "active"
	}
	return c.state.Put(ctx, &r)
}

func (c *Client) injected(ctx context.Context, op string) error {
	category, ok, err := c.state.PopFailure(ctx, op)
	if err != nil {
		return registrar.NewProviderError(registrar.ErrorInternal, c.name, op, "state unavailable", err)
	}
	if !ok {
		return nil
	}
	return registrar.NewProviderError(category, c.name, op, "injected failure", nil)
}

func (c *Client) load(ctx context.Context, op, domain string) (*Record, error) {
	if err := c.injected(ctx, op); err != nil {
		return nil, err
	}
	r, ok, err := c.state.Get(ctx, domain)
	if err != nil {
		return nil, registrar.NewProviderError(registrar.ErrorInternal, c.name, op, "state unavailable", err)
	}
	if !ok {
		return nil, registrar.NewProviderError(registrar.ErrorNotFound, c.name, op, "domain "+domain+" not found", nil)
	}
	return r, nil
}

// mutate applies fn to an existing domain record atomically. Provider errors
// from fn pass through; anything else is reported as a state failure.
func (c *Client) mutate(ctx context.Context, op, domain string, fn func(r *Record) error) (*Record, error) {
	if err := c.injected(ctx, op); err != nil {
		return nil, err
	}
	return c.update(ctx, op, domain, func(r *Record, ok bool) (*Record, error) {
		if !ok {
			return nil, registrar.NewProviderError(registrar.ErrorNotFound, c.name, op, "domain "+domain+" not found", nil)
		}
		if err := fn(r); err != nil {
			return nil, err
		}
		return r, nil
	})
}

func (c *Client) update(ctx context.Context, op, domain string, fn UpdateFunc) (*Record, error) {
	r, err := c.state.Update(ctx, domain, fn)
	if err == nil {
		return r, nil
	}
	var perr *registrar.ProviderError
	if errors.As(err, &perr) {
		return nil, perr
	}
	return nil, registrar.NewProviderError(registrar.ErrorInternal, c.name, op, "state unavailable", err)
}

func (c *Client) CheckAvailability(ctx context.Context, domain string) (*registrar.Result[registrar.Availability], error) {
	domain = registrar.NormalizeDomain(domain)
	if err := c.injected(ctx, "check_availability"); err != nil {
		return registrar.Fail[registrar.Availability](c.name, err)
	}
	_, exists, err := c.state.Get(ctx, domain)
	if err != nil {
		return registrar.Fail[registrar.Availability](c.name,
			registrar.NewProviderError(registrar.ErrorInternal, c.name, "check_availability", "state unavailable", err))
	}
	a := registrar.Availability{Domain: domain, Available: !exists && !strings.HasPrefix(domain, takenPrefix)}
	if a.Available && strings.HasPrefix(domain, premiumPrefix) {
		p := premiumPrice
		a.Premium, a.PremiumPrice = true, &p
	}
	return registrar.OK(c.name, a, ""), nil
}

func (c *Client) Register(ctx context.Context, params registrar.RegisterParams) (*registrar.Result[registrar.Registration], error) {
	const op = "register"
	domain := registrar.NormalizeDomain(params.Domain)
	if err := c.injected(ctx, op); err != nil {
		return registrar.Fail[registrar.Registration](c.name, err)
	}
	r, err := c.update(ctx, op, domain, func(_ *Record, exists bool) (*Record, error) {
		if exists || strings.HasPrefix(domain, takenPrefix) {
			return nil, registrar.NewProviderError(registrar.ErrorBusiness, c.name, op, "domain "+domain+" is not available", nil)
		}
		now := c.clock()
		return &Record{
			Domain:       domain,
			Status:       "active",
			RegisteredAt: now,
			ExpiresAt:    now.AddDate(params.Years, 0, 0),
			Nameservers:  params.Nameservers,
			Contacts:     params.Contacts,
			AutoRenew:    params.AutoRenew,
			Privacy:      params.Privacy,
		}, nil
	})
	if err != nil {
		return registrar.Fail[registrar.Registration](c.name, err)
	}
	return registrar.OK(c.name, registrar.Registration{
		Domain:       domain,
		OrderID:      uuid.NewString(),
		RegisteredAt: r.RegisteredAt,
		ExpiresAt:    r.ExpiresAt,
		Nameservers:  r.Nameservers,
	}, "registered"), nil
}

func (c *Client) Renew(ctx context.Context, domain string, years int) (*registrar.Result[registrar.Renewal], error) {
	const op = "renew"
	domain = registrar.NormalizeDomain(domain)
	r, err := c.mutate(ctx, op, domain, func(r *Record) error {
		if r.Status == "transferred_away" {
			return registrar.NewProviderError(registrar.ErrorBusiness, c.name, op, "domain left this registrar", nil)
		}
		r.ExpiresAt = r.ExpiresAt.AddDate(years, 0, 0)
		r.Status = "active"
		return nil
	})
	if err != nil {
		return registrar.Fail[registrar.Renewal](c.name, err)
	}
	return registrar.OK(c.name, registrar.Renewal{
		Domain:    domain,
		Years:     years,
		OrderID:   uuid.NewString(),
		ExpiresAt: r.ExpiresAt,
	}, "renewed"), nil
}

func (c *Client) Transfer(ctx context.Context, domain, authCode string) (*registrar.Result[registrar.TransferRequest], error) {
	const op = "transfer"
	domain = registrar.NormalizeDomain(domain)
	if err := c.injected(ctx, op); err != nil {
		return registrar.Fail[registrar.TransferRequest](c.name, err)
	}
	if strings.EqualFold(authCode, "invalid") {
		return registrar.Fail[registrar.TransferRequest](c.name,
			registrar.NewProviderError(registrar.ErrorBusiness, c.name, op, "auth code rejected", nil))
	}
	r, err := c.update(ctx, op, domain, func(existing *Record, exists bool) (*Record, error) {
		if exists && existing.TransferStatus == "" {
			return nil, registrar.NewProviderError(registrar.ErrorBusiness, c.name, op, "domain already managed here", nil)
		}
		now := c.clock()
		return &Record{
			Domain:            domain,
			Status:            "pending_transfer",
			RegisteredAt:      now,
			ExpiresAt:         now.AddDate(1, 0, 0),
			TransferID:        uuid.NewString(),
			TransferStatus:    "pending",
			TransferUpdatedAt: now,
		}, nil
	})
	if err != nil {
		return registrar.Fail[registrar.TransferRequest](c.name, err)
	}
	return registrar.OK(c.name, registrar.TransferRequest{
		Domain:     domain,
		TransferID: r.TransferID,
		Status:     r.TransferStatus,
	}, "transfer requested"), nil
}

func (c *Client) GetTransferStatus(ctx context.Context, domain string) (*registrar.Result[registrar.TransferStatus], error) {
	const op = "get_transfer_status"
	domain = registrar.NormalizeDomain(domain)
	r, err := c.load(ctx, op, domain)
	if err != nil {
		return registrar.Fail[registrar.TransferStatus](c.name, err)
	}
	if r.TransferStatus == "" {
		return registrar.Fail[registrar.TransferStatus](c.name,
			registrar.NewProviderError(registrar.ErrorNotFound, c.name, op, "no transfer for "+domain, nil))
	}
	return registrar.OK(c.name, registrar.TransferStatus{
		Domain:    domain,
		Status:    r.TransferStatus,
		Message:   r.TransferMessage,
		UpdatedAt: r.TransferUpdatedAt,
	}, ""), nil
}

func (c *Client) UpdateNameservers(ctx context.Context, domain string, nameservers []string) (*registrar.Result[registrar.Nameservers], error) {
	const op = "update_nameservers"
	domain = registrar.NormalizeDomain(domain)
	r, err := c.mutate(ctx, op, domain, func(r *Record) error {
		r.Nameservers = append([]string(nil), nameservers...)
		return nil
	})
	if err != nil {
		return registrar.Fail[registrar.Nameservers](c.name, err)
	}
	return registrar.OK(c.name, registrar.Nameservers{Domain: domain, Nameservers: r.Nameservers}, ""), nil
}

func (c *Client) GetContacts(ctx context.Context, domain string) (*registrar.Result[registrar.Contacts], error) {
	domain = registrar.NormalizeDomain(domain)
	r, err := c.load(ctx, "get_contacts", domain)
	if err != nil {
		return registrar.Fail[registrar.Contacts](c.name, err)
	}
	return registrar.OK(c.name, r.Contacts, ""), nil
}

func (c *Client) UpdateContacts(ctx context.Context, domain string, contacts registrar.Contacts) (*registrar.Result[registrar.Contacts], error) {
	const op = "update_contacts"
	domain = registrar.NormalizeDomain(domain)
	r, err := c.mutate(ctx, op, domain, func(r *Record) error {
		r.Contacts = contacts
		return nil
	})
	if err != nil {
		return registrar.Fail[registrar.Contacts](c.name, err)
	}
	return registrar.OK(c.name, r.Contacts, ""), nil
}

func (c *Client) GetDNSRecords(ctx context.Context, domain string) (*registrar.Result[[]registrar.DNSRecord], error) {
	domain = registrar.NormalizeDomain(domain)
	r, err := c.load(ctx, "get_dns_records", domain)
	if err != nil {
		return registrar.Fail[[]registrar.DNSRecord](c.name, err)
	}
	return registrar.OK(c.name, r.DNS, ""), nil
}

func (c *Client) UpdateDNSRecords(ctx context.Context, domain string, records []registrar.DNSRecord) (*registrar.Result[[]registrar.DNSRecord], error) {
	const op = "update_dns_records"
	domain = registrar.NormalizeDomain(domain)
	r, err := c.mutate(ctx, op, domain, func(r *Record) error {
		r.DNS = make([]registrar.DNSRecord, len(records))
		for i, rec := range records {
			rec.Type = strings.ToUpper(rec.Type)
			r.DNS[i] = rec
		}
		return nil
	})
	if err != nil {
		return registrar.Fail[[]registrar.DNSRecord](c.name, err)
	}
	return registrar.OK(c.name, r.DNS, ""), nil
}

func (c *Client) GetInfo(ctx context.Context, domain string) (*registrar.Result[registrar.DomainInfo], error) {
	domain = registrar.NormalizeDomain(domain)
	r, err := c.load(ctx, "get_info", domain)
	if err != nil {
		return registrar.Fail[registrar.DomainInfo](c.name, err)
	}
	registered, expires := r.RegisteredAt, r.ExpiresAt
	return registrar.OK(c.name, registrar.DomainInfo{
		Domain:       domain,
		Status:       r.Status,
		RegisteredAt: &registered,
		ExpiresAt:    &expires,
		Nameservers:  r.Nameservers,
		Locked:       r.Locked,
		AutoRenew:    r.AutoRenew,
		Privacy:      r.Privacy,
	}, ""), nil
}

func (c *Client) Lock(ctx context.Context, domain string) (*registrar.Result[registrar.LockState], error) {
	return c.setLock(ctx, "lock", domain, true)
}

func (c *Client) Unlock(ctx context.Context, domain string) (*registrar.Result[registrar.LockState], error) {
	return c.setLock(ctx, "unlock", domain, false)
}

func (c *Client) setLock(ctx context.Context, op, domain string, locked bool) (*registrar.Result[registrar.LockState], error) {
	domain = registrar.NormalizeDomain(domain)
	if _, err := c.mutate(ctx, op, domain, func(r *Record) error {
		r.Locked = locked
		return nil
	}); err != nil {
		return registrar.Fail[registrar.LockState](c.name, err)
	}
	return registrar.OK(c.name, registrar.LockState{Domain: domain, Locked: locked}, ""), nil
}

func (c *Client) TestConnection(ctx context.Context) (*registrar.Result[registrar.Connection], error) {
	start := time.Now()
	if err := c.injected(ctx, "test_connection"); err != nil {
		return registrar.Fail[registrar.Connection](c.name, err)
	}
	if _, _, err := c.state.Get(ctx, "ping.invalid"); err != nil {
		return registrar.Fail[registrar.Connection](c.name,
			registrar.NewProviderError(registrar.ErrorOutage, c.name, "test_connection", "state unavailable", err))
	}
	return registrar.OK(c.name, registrar.Connection{Version: version, Latency: time.Since(start)}, ""), nil
}

// GetPricing returns overrides set with SetPrices, otherwise one to three year
// prices derived from the TLD base price.
func (c *Client) GetPricing(ctx context.Context, tld string) (*registrar.Result[[]registrar.Price], error) {
	const op = "get_pricing"
	tld = normalizeTLD(tld)
	if err := c.injected(ctx, op); err != nil {
		return registrar.Fail[[]registrar.Price](c.name, err)
	}
	prices, ok, err := c.state.Prices(ctx, tld)
	if err != nil {
		return registrar.Fail[[]registrar.Price](c.name,
			registrar.NewProviderError(registrar.ErrorInternal, c.name, op, "state unavailable", err))
	}
	if ok {
		return registrar.OK(c.name, prices, ""), nil
	}
	return registrar.OK(c.name, DefaultPrices(tld), ""), nil
}

// DefaultPrices is the price list used when no override is set.
func DefaultPrices(tld string) []registrar.Price {
	tld = normalizeTLD(tld)
	base, ok := defaultBase[tld]
	if !ok {
		base = fallbackBase
	}
	var out []registrar.Price
	for _, action := range []string{"register", "renew", "transfer"} {
		for years := 1; years <= 3; years++ {
			if action == "transfer" && years > 1 {
				break
			}
			out = append(out, registrar.Price{
				TLD:      tld,
				Action:   action,
				Years:    years,
				Amount:   base.Mul(decimal.NewFromInt(int64(years))),
				Currency: "USD",
			})
		}
	}
	return out
}

func normalizeTLD(tld string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tld)), ".")
}

var _ registrar.Client = (*Client)(nil)

// Constructor builds mock clients named after the registrar slug, all sharing
// state.
func Constructor(state State, opts ...Option) func(*registrar.Config, []byte) (registrar.Client, error) {
	return func(cfg *registrar.Config, _ []byte) (registrar.Client, error) {
		return New(cfg.Slug, state, opts...), nil
	}
}
