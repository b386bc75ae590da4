// Package httpapi talks to registrars exposing a JSON-over-HTTP reseller API.
// Every response uses the envelope {"success", "data", "message", "errors"}.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reseller/internal/registrar"
)

const (
	Class = "httpapi"

	AuthAPIKey = "apikey"
	AuthJWT    = "jwt"

	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
	tokenTTL     = 5 * time.Minute
)

// Credentials is the decrypted credential document stored per registrar.
type Credentials struct {
	BaseURL   string `json:"base_url"`
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret,omitempty"`
	AuthMode  string `json:"auth_mode,omitempty"`
}

func (c Credentials) validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.APIKey == "" {
		return errors.New("api_key is required")
	}
	switch c.AuthMode {
	case "", AuthAPIKey:
	case AuthJWT:
		if c.APISecret == "" {
			return errors.New("api_secret is required for jwt auth")
		}
	default:
		return fmt.Errorf("unknown auth_mode %q", c.AuthMode)
	}
	return nil
}

type Client struct {
	name  string
	creds Credentials
	http  *http.Client
	now   func() time.Time
}

type Option func(*Client)

// WithHTTPClient replaces the transport client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func New(name string, creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.validate(); err != nil {
		return nil, fmt.Errorf("httpapi registrar %s: %w", name, err)
	}
	creds.BaseURL = strings.TrimRight(creds.BaseURL, "/")
	c := &Client{
		name:  name,
		creds: creds,
		http:  &http.Client{Timeout: DefaultTimeout},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Constructor builds clients from the opened credential document.
func Constructor(opts ...Option) func(*registrar.Config, []byte) (registrar.Client, error) {
	return func(cfg *registrar.Config, raw []byte) (registrar.Client, error) {
		if len(raw) == 0 {
			return nil, fmt.Errorf("httpapi registrar %s: credentials are required", cfg.Slug)
		}
		var creds Credentials
		if err := json.Unmarshal(raw, &creds); err != nil {
			return nil, fmt.Errorf("httpapi registrar %s: decode credentials: %w", cfg.Slug, err)
		}
		return New(cfg.Slug, creds, opts...)
	}
}

func (c *Client) Name() string {
	return c.name
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

func do[T any](ctx context.Context, c *Client, op, method, path string, body any) (*registrar.Result[T], error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return registrar.Fail[T](c.name, registrar.NewProviderError(registrar.ErrorInternal, c.name, op, "encode request", err))
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.creds.BaseURL+path, reader)
	if err != nil {
		return registrar.Fail[T](c.name, registrar.NewProviderError(registrar.ErrorInternal, c.name, op, "build request", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req); err != nil {
		return registrar.Fail[T](c.name, registrar.NewProviderError(registrar.ErrorAuthentication, c.name, op, "sign request", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return registrar.Fail[T](c.name, c.transportError(op, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return registrar.Fail[T](c.name, c.transportError(op, err))
	}
	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return registrar.Fail[T](c.name, registrar.NewProviderError(statusCategory(resp.StatusCode), c.name, op, msg, nil))
	}
	if decodeErr != nil {
		return registrar.Fail[T](c.name, registrar.NewProviderError(registrar.ErrorBadData, c.name, op, "malformed response", decodeErr))
	}
	if !env.Success {
		msg := env.Message
		if msg == "" && len(env.Errors) > 0 {
			msg = strings.Join(env.Errors, "; ")
		}
		return registrar.Fail[T](c.name, registrar.NewProviderError(registrar.ErrorBusiness, c.name, op, msg, nil))
	}
	var data T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return registrar.Fail[T](c.name, registrar.NewProviderError(registrar.ErrorBadData, c.name, op, "malformed data", err))
		}
	}
	return registrar.OK(c.name, data, env.Message), nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.creds.AuthMode != AuthJWT {
		req.Header.Set("X-API-Key", c.creds.APIKey)
		return nil
	}
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    c.creds.APIKey,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	})
	signed, err := token.SignedString([]byte(c.creds.APISecret))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+signed)
	return nil
}

func (c *Client) transportError(op string, err error) *registrar.ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return registrar.NewProviderError(registrar.ErrorTimeout, c.name, op, "request timed out", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return registrar.NewProviderError(registrar.ErrorTimeout, c.name, op, "request timed out", err)
	}
	return registrar.NewProviderError(registrar.ErrorOutage, c.name, op, "registrar unreachable", err)
}

func statusCategory(code int) registrar.ErrorCategory {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return registrar.ErrorAuthentication
	case code == http.StatusNotFound:
		return registrar.ErrorNotFound
	case code == http.StatusTooManyRequests:
		return registrar.ErrorRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return registrar.ErrorTimeout
	case code >= 500:
		return registrar.ErrorOutage
	case code == http.StatusConflict || code == http.StatusPaymentRequired:
		return registrar.ErrorBusiness
	case code >= 400:
		return registrar.ErrorBadData
	default:
		return registrar.ErrorInternal
	}
}

func domainPath(domain string, suffix ...string) string {
	p := "/domains/" + url.PathEscape(registrar.NormalizeDomain(domain))
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func (c *Client) CheckAvailability(ctx context.Context, domain string) (*registrar.Result[registrar.Availability], error) {
	q := url.Values{"domain": {registrar.NormalizeDomain(domain)}}
	return do[registrar.Availability](ctx, c, "check_availability", http.MethodGet, "/domains/check?"+q.Encode(), nil)
}

func (c *Client) Register(ctx context.Context, params registrar.RegisterParams) (*registrar.Result[registrar.Registration], error) {
	return do[registrar.Registration](ctx, c, "register", http.MethodPost, "/domains", params)
}

func (c *Client) Renew(ctx context.Context, domain string, years int) (*registrar.Result[registrar.Renewal], error) {
	return do[registrar.Renewal](ctx, c, "renew", http.MethodPost, domainPath(domain, "renew"), map[string]int{"years": years})
}

func (c *Client) Transfer(ctx context.Context, domain, authCode string) (*registrar.Result[registrar.TransferRequest], error) {
	body := map[string]string{"domain": registrar.NormalizeDomain(domain), "auth_code": authCode}
	return do[registrar.TransferRequest](ctx, c, "transfer", http.MethodPost, "/transfers", body)
}

func (c *Client) GetTransferStatus(ctx context.Context, domain string) (*registrar.Result[registrar.TransferStatus], error) {
	path := "/transfers/" + url.PathEscape(registrar.NormalizeDomain(domain))
	return do[registrar.TransferStatus](ctx, c, "get_transfer_status", http.MethodGet, path, nil)
}

func (c *Client) UpdateNameservers(ctx context.Context, domain string, nameservers []string) (*registrar.Result[registrar.Nameservers], error) {
	body := map[string][]string{"nameservers": nameservers}
	return do[registrar.Nameservers](ctx, c, "update_nameservers", http.MethodPut, domainPath(domain, "nameservers"), body)
}

func (c *Client) GetContacts(ctx context.Context, domain string) (*registrar.Result[registrar.Contacts], error) {
	return do[registrar.Contacts](ctx, c, "get_contacts", http.MethodGet, domainPath(domain, "contacts"), nil)
}

func (c *Client) UpdateContacts(ctx context.Context, domain string, contacts registrar.Contacts) (*registrar.Result[registrar.Contacts], error) {
	return do[registrar.Contacts](ctx, c, "update_contacts", http.MethodPut, domainPath(domain, "contacts"), contacts)
}

func (c *Client) GetDNSRecords(ctx context.Context, domain string) (*registrar.Result[[]registrar.DNSRecord], error) {
	return do[[]registrar.DNSRecord](ctx, c, "get_dns_records", http.MethodGet, domainPath(domain, "dns"), nil)
}

func (c *Client) UpdateDNSRecords(ctx context.Context, domain string, records []registrar.DNSRecord) (*registrar.Result[[]registrar.DNSRecord], error) {
	body := map[string][]registrar.DNSRecord{"records": records}
	return do[[]registrar.DNSRecord](ctx, c, "update_dns_records", http.MethodPut, domainPath(domain, "dns"), body)
}

func (c *Client) GetInfo(ctx context.Context, domain string) (*registrar.Result[registrar.DomainInfo], error) {
	return do[registrar.DomainInfo](ctx, c, "get_info", http.MethodGet, domainPath(domain), nil)
}

func (c *Client) Lock(ctx context.Context, domain string) (*registrar.Result[registrar.LockState], error) {
	return do[registrar.LockState](ctx, c, "lock", http.MethodPut, domainPath(domain, "lock"), nil)
}

func (c *Client) Unlock(ctx context.Context, domain string) (*registrar.Result[registrar.LockState], error) {
	return do[registrar.LockState](ctx, c, "unlock", http.MethodDelete, domainPath(domain, "lock"), nil)
}

func (c *Client) TestConnection(ctx context.Context) (*registrar.Result[registrar.Connection], error) {
	start := time.Now()
	res, err := do[registrar.Connection](ctx, c, "test_connection", http.MethodGet, "/ping", nil)
	if err == nil {
		res.Data.Latency = time.Since(start)
	}
	return res, err
}

func (c *Client) GetPricing(ctx context.Context, tld string) (*registrar.Result[[]registrar.Price], error) {
	t := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(tld)), ".")
	return do[[]registrar.Price](ctx, c, "get_pricing", http.MethodGet, "/tlds/"+url.PathEscape(t)+"/pricing", nil)
}

var _ registrar.Client = (*Client)(nil)
