// Package registrar defines the uniform contract every domain registrar
// integration implements, plus the validation and error normalisation that
// sit in front of all of them.
package registrar

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=client.go -destination=mocks/mocks.go -package=mocks Client

// Client is implemented once per registrar. Every method returns a Result and
// an error; the error is non-nil exactly when Result.Success is false.
// Implementations must be safe for concurrent use.
type Client interface {
	Name() string
	CheckAvailability(ctx context.Context, domain string) (*Result[Availability], error)
	Register(ctx context.Context, params RegisterParams) (*Result[Registration], error)
	Renew(ctx context.Context, domain string, years int) (*Result[Renewal], error)
	Transfer(ctx context.Context, domain, authCode string) (*Result[TransferRequest], error)
	GetTransferStatus(ctx context.Context, domain string) (*Result[TransferStatus], error)
	UpdateNameservers(ctx context.Context, domain string, nameservers []string) (*Result[Nameservers], error)
	GetContacts(ctx context.Context, domain string) (*Result[Contacts], error)
	UpdateContacts(ctx context.Context, domain string, contacts Contacts) (*Result[Contacts], error)
	GetDNSRecords(ctx context.Context, domain string) (*Result[[]DNSRecord], error)
	UpdateDNSRecords(ctx context.Context, domain string, records []DNSRecord) (*Result[[]DNSRecord], error)
	GetInfo(ctx context.Context, domain string) (*Result[DomainInfo], error)
	Lock(ctx context.Context, domain string) (*Result[LockState], error)
	Unlock(ctx context.Context, domain string) (*Result[LockState], error)
	TestConnection(ctx context.Context) (*Result[Connection], error)
	GetPricing(ctx context.Context, tld string) (*Result[[]Price], error)
}

type Availability struct {
	Domain       string           `json:"domain"`
	Available    bool             `json:"available"`
	Premium      bool             `json:"premium,omitempty"`
	PremiumPrice *decimal.Decimal `json:"premium_price,omitempty"`
}

type Contact struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Organization string `json:"organization,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// Contacts holds the ICANN contact roles. Registrant is mandatory; missing
// roles default to the registrant at the registrar.
type Contacts struct {
	Registrant *Contact `json:"registrant,omitempty"`
	Admin      *Contact `json:"admin,omitempty"`
	Tech       *Contact `json:"tech,omitempty"`
	Billing    *Contact `json:"billing,omitempty"`
}

type RegisterParams struct {
	Domain      string   `json:"domain"`
	Years       int      `json:"years"`
	Nameservers []string `json:"nameservers,omitempty"`
	Contacts    Contacts `json:"contacts"`
	Privacy     bool     `json:"privacy"`
	AutoRenew   bool     `json:"auto_renew"`
}

type Registration struct {
	Domain       string    `json:"domain"`
	OrderID      string    `json:"order_id,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Nameservers  []string  `json:"nameservers,omitempty"`
}

type Renewal struct {
	Domain    string    `json:"domain"`
	Years     int       `json:"years"`
	OrderID   string    `json:"order_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TransferRequest struct {
	Domain     string `json:"domain"`
	TransferID string `json:"transfer_id,omitempty"`
	Status     string `json:"status"`
}

// TransferStatus is the provider's view of an inbound transfer. Status is a
// provider string; lifecycle.TransferOutcome maps it onto domain states.
type TransferStatus struct {
	Domain    string    `json:"domain"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Nameservers struct {
	Domain      string   `json:"domain"`
	Nameservers []string `json:"nameservers"`
}

type DNSRecord struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Value    string `json:"value"`
	TTL      int    `json:"ttl,omitempty"`
	Priority *int   `json:"priority,omitempty"`
}

// DomainInfo is the provider's view of a domain. Status is a provider string;
// lifecycle.FromRegistrar maps it onto domain states.
type DomainInfo struct {
	Domain       string     `json:"domain"`
	Status       string     `json:"status"`
	RegisteredAt *time.Time `json:"registered_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Nameservers  []string   `json:"nameservers,omitempty"`
	Locked       bool       `json:"locked"`
	AutoRenew    bool       `json:"auto_renew"`
	Privacy      bool       `json:"privacy"`
}

type LockState struct {
	Domain string `json:"domain"`
	Locked bool   `json:"locked"`
}

type Connection struct {
	Version string        `json:"version,omitempty"`
	Latency time.Duration `json:"latency"`
}

// Price is one provider list price for a TLD. Action is one of register,
// renew or transfer.
type Price struct {
	TLD      string          `json:"tld"`
	Action   string          `json:"action"`
	Years    int             `json:"years"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}
