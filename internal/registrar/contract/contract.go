// Package contract holds the conformance checks every registrar provider must
// pass. Provider packages run them from their own tests.
package contract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reseller/internal/registrar"
)

// Suite walks a provider through a full domain lifecycle. Domain must not be
// registered at the provider when Run starts.
type Suite struct {
	Client registrar.Client
	Domain string
	TLD    string
}

// Run executes the lifecycle in order. Later steps depend on earlier ones.
func (s *Suite) Run(t *testing.T) {
	ctx := context.Background()
	name := s.Client.Name()
	require.NotEmpty(t, name, "provider must have a name")

	t.Run("test connection", func(t *testing.T) {
		res, err := s.Client.TestConnection(ctx)
		requireOK(t, name, res, err)
	})

	t.Run("available before registration", func(t *testing.T) {
		res, err := s.Client.CheckAvailability(ctx, s.Domain)
		requireOK(t, name, res, err)
		assert.True(t, res.Data.Available)
	})

	var expires time.Time
	t.Run("register", func(t *testing.T) {
		res, err := s.Client.Register(ctx, registrar.RegisterParams{
			Domain:      s.Domain,
			Years:       1,
			Nameservers: []string{"ns1.example.net", "ns2.example.net"},
			Contacts:    registrar.Contacts{Registrant: Registrant()},
		})
		requireOK(t, name, res, err)
		assert.Equal(t, s.Domain, res.Data.Domain)
		require.False(t, res.Data.ExpiresAt.IsZero(), "registration must report expiry")
		expires = res.Data.ExpiresAt
	})

	t.Run("unavailable after registration", func(t *testing.T) {
		res, err := s.Client.CheckAvailability(ctx, s.Domain)
		requireOK(t, name, res, err)
		assert.False(t, res.Data.Available)
	})

	t.Run("info", func(t *testing.T) {
		res, err := s.Client.GetInfo(ctx, s.Domain)
		requireOK(t, name, res, err)
		assert.NotEmpty(t, res.Data.Status)
		require.NotNil(t, res.Data.ExpiresAt)
		assert.True(t, res.Data.ExpiresAt.Equal(expires))
	})

	t.Run("renew extends expiry", func(t *testing.T) {
		res, err := s.Client.Renew(ctx, s.Domain, 2)
		requireOK(t, name, res, err)
		assert.True(t, res.Data.ExpiresAt.Equal(expires.AddDate(2, 0, 0)),
			"expected %s, got %s", expires.AddDate(2, 0, 0), res.Data.ExpiresAt)
	})

	t.Run("nameservers", func(t *testing.T) {
		ns := []string{"ns1.example.org", "ns2.example.org", "ns3.example.org"}
		res, err := s.Client.UpdateNameservers(ctx, s.Domain, ns)
		requireOK(t, name, res, err)
		assert.Equal(t, ns, res.Data.Nameservers)
	})

	t.Run("contacts", func(t *testing.T) {
		res, err := s.Client.GetContacts(ctx, s.Domain)
		requireOK(t, name, res, err)
		require.NotNil(t, res.Data.Registrant)
		assert.Equal(t, Registrant().Email, res.Data.Registrant.Email)
	})

	t.Run("dns records", func(t *testing.T) {
		prio := 10
		records := []registrar.DNSRecord{
			{Type: "A", Name: "@", Value: "192.0.2.10", TTL: 300},
			{Type: "MX", Name: "@", Value: "mail." + s.Domain, TTL: 300, Priority: &prio},
		}
		_, err := s.Client.UpdateDNSRecords(ctx, s.Domain, records)
		require.NoError(t, err)
		res, err := s.Client.GetDNSRecords(ctx, s.Domain)
		requireOK(t, name, res, err)
		assert.Len(t, res.Data, 2)
	})

	t.Run("lock and unlock", func(t *testing.T) {
		res, err := s.Client.Lock(ctx, s.Domain)
		requireOK(t, name, res, err)
		assert.True(t, res.Data.Locked)
		res, err = s.Client.Unlock(ctx, s.Domain)
		requireOK(t, name, res, err)
		assert.False(t, res.Data.Locked)
	})

	t.Run("pricing", func(t *testing.T) {
		res, err := s.Client.GetPricing(ctx, s.TLD)
		requireOK(t, name, res, err)
		require.NotEmpty(t, res.Data)
		for _, p := range res.Data {
			assert.True(t, p.Amount.IsPositive(), "price for %s %dy must be positive", p.Action, p.Years)
			assert.Contains(t, []string{"register", "renew", "transfer"}, p.Action)
		}
	})

	t.Run("unknown domain is not_found", func(t *testing.T) {
		res, err := s.Client.GetInfo(ctx, "never-registered-"+s.Domain)
		require.Error(t, err)
		require.NotNil(t, res)
		assert.False(t, res.Success)
		assert.Equal(t, registrar.ErrorNotFound, registrar.CategoryOf(err))
	})
}

// Registrant is a complete contact accepted by every provider.
func Registrant() *registrar.Contact {
	return &registrar.Contact{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Phone:      "+44.2071234567",
		Address1:   "12 St James's Square",
		City:       "London",
		PostalCode: "SW1Y 4JH",
		Country:    "GB",
	}
}

func requireOK[T any](t *testing.T, name string, res *registrar.Result[T], err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.Success, "success must be true when error is nil")
	assert.Equal(t, name, res.Registrar)
	assert.False(t, res.Timestamp.IsZero(), "timestamp not set")
}

// ErrorContractTest checks that a failing call follows the error taxonomy.
type ErrorContractTest struct {
	Name          string
	Call          func(ctx context.Context) error
	ExpectedError registrar.ErrorCategory
	ExpectedRetry bool
}

func (ect *ErrorContractTest) Run(t *testing.T) {
	t.Run(ect.Name, func(t *testing.T) {
		err := ect.Call(context.Background())
		require.Error(t, err)
		assert.Equal(t, ect.ExpectedError, registrar.CategoryOf(err))
		assert.Equal(t, ect.ExpectedRetry, registrar.IsRetryable(err))
	})
}
