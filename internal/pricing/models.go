// Package pricing resolves what a partner pays for a domain action: the
// registrar base price in effect on a date, plus the partner's markup rule.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	id "reseller/pkg/domain"
)

type Action string

const (
	ActionRegister Action = "register"
	ActionRenew    Action = "renew"
	ActionTransfer Action = "transfer"
)

// Actions lists the priced actions in a stable order.
func Actions() []Action {
	return []Action{ActionRegister, ActionRenew, ActionTransfer}
}

func (a Action) Valid() bool {
	return a == ActionRegister || a == ActionRenew || a == ActionTransfer
}

func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown pricing action %q", s)
	}
	return a, nil
}

type MarkupType string

const (
	MarkupFixed      MarkupType = "fixed"
	MarkupPercentage MarkupType = "percentage"
)

func (m MarkupType) Valid() bool {
	return m == MarkupFixed || m == MarkupPercentage
}

// Tld is an extension sold through one registrar.
type Tld struct {
	ID              int64
	RegistrarID     int64
	Extension       string
	MinYears        int
	MaxYears        int
	SupportsDNS     bool
	SupportsPrivacy bool
	IsActive        bool
}

// AllowsYears reports whether the registration period is within the TLD bounds.
func (t *Tld) AllowsYears(years int) bool {
	minYears, maxYears := t.MinYears, t.MaxYears
	if minYears <= 0 {
		minYears = 1
	}
	if maxYears <= 0 {
		maxYears = 10
	}
	return years >= minYears && years <= maxYears
}

// TldPrice is one row of the append-only price history. The active price for
// a date is the row with the latest EffectiveDate not after that date.
type TldPrice struct {
	ID            int64
	TldID         int64
	Action        Action
	Years         int
	Price         decimal.Decimal
	EffectiveDate time.Time
	CreatedAt     time.Time
}

// Rule is a partner markup. Nil TldID or Years means "any".
type Rule struct {
	ID          int64
	PartnerID   id.PartnerID
	TldID       *int64
	Years       *int
	MarkupType  MarkupType
	MarkupValue decimal.Decimal
}

// Quote is a fully resolved price.
type Quote struct {
	TldID  int64
	Action Action
	Years  int
	Base   decimal.Decimal
	Markup decimal.Decimal
	Final  decimal.Decimal
	// Rule is nil when no partner rule matched.
	Rule *Rule
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
