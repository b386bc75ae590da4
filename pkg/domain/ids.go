package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "reseller/pkg/domain-errors"
)

// Typed identifiers keep partner, domain, client and wallet IDs from being
// passed in each other's place.
type (
	PartnerID     uuid.UUID
	ClientID      uuid.UUID
	DomainID      uuid.UUID
	WalletID      uuid.UUID
	TransactionID uuid.UUID
)

func (id PartnerID) String() string     { return uuid.UUID(id).String() }
func (id ClientID) String() string      { return uuid.UUID(id).String() }
func (id DomainID) String() string      { return uuid.UUID(id).String() }
func (id WalletID) String() string      { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }

func (id PartnerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DomainID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id WalletID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

func NewDomainID() DomainID           { return DomainID(uuid.New()) }
func NewWalletID() WalletID           { return WalletID(uuid.New()) }
func NewTransactionID() TransactionID { return TransactionID(uuid.New()) }

func ParsePartnerID(s string) (PartnerID, error) {
	u, err := parseUUID(s, "partner_id")
	return PartnerID(u), err
}

func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s, "client_id")
	return ClientID(u), err
}

func ParseDomainID(s string) (DomainID, error) {
	u, err := parseUUID(s, "domain_id")
	return DomainID(u), err
}

func ParseWalletID(s string) (WalletID, error) {
	u, err := parseUUID(s, "wallet_id")
	return WalletID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be the nil UUID")
	}
	return u, nil
}
