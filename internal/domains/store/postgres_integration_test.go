//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"reseller/internal/domains"
	"reseller/internal/domains/store"
	"reseller/internal/lifecycle"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	partner  id.PartnerID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "domains", "tld_prices", "tlds", "registrars"))

	_, err := s.postgres.Exec(ctx, `INSERT INTO registrars (id, name, slug, client_class) VALUES (1, 'Mock', 'mock', 'mock')`)
	s.Require().NoError(err)
	_, err = s.postgres.Exec(ctx, `INSERT INTO tlds (id, registrar_id, extension) VALUES (1, 1, 'com')`)
	s.Require().NoError(err)
	s.partner = id.PartnerID(uuid.New())
}

func (s *PostgresStoreSuite) newDomain(name string, expiresIn time.Duration) *domains.Domain {
	exp := time.Now().UTC().Add(expiresIn).Truncate(time.Microsecond)
	return &domains.Domain{
		ID:           id.NewDomainID(),
		PartnerID:    s.partner,
		RegistrarID:  1,
		TldID:        1,
		Name:         name,
		Status:       lifecycle.StatusActive,
		ExpiresAt:    &exp,
		AutoRenew:    true,
		SyncMetadata: map[string]any{"source": "test"},
	}
}

// TestRoundTrip verifies every column survives persistence.
func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	d := s.newDomain("roundtrip.com", 48*time.Hour)
	client := id.ClientID(uuid.New())
	d.ClientID = &client
	s.Require().NoError(s.store.Create(ctx, d))

	got, err := s.store.GetByName(ctx, "roundtrip.com")
	s.Require().NoError(err)
	s.Equal(d.ID, got.ID)
	s.Require().NotNil(got.ClientID)
	s.Equal(client, *got.ClientID)
	s.True(d.ExpiresAt.Equal(*got.ExpiresAt))
	s.Equal("test", got.SyncMetadata["source"])
}

// TestExpiryConstraint verifies the database rejects an active row without expiry
// even when the model check is bypassed.
func (s *PostgresStoreSuite) TestExpiryConstraint() {
	ctx := context.Background()
	_, err := s.postgres.Exec(ctx, `
		INSERT INTO domains (id, partner_id, registrar_id, tld_id, name, status)
		VALUES ($1, $2, 1, 1, 'raw.com', 'active')`, uuid.New(), uuid.UUID(s.partner))
	s.Error(err)
}

// TestListFilter verifies the SQL filter matches the renewal selection.
func (s *PostgresStoreSuite) TestListFilter() {
	ctx := context.Background()
	day := 24 * time.Hour
	soon := s.newDomain("soon.com", 3*day)
	later := s.newDomain("later.com", 20*day)
	manual := s.newDomain("manual.com", 2*day)
	manual.AutoRenew = false
	for _, d := range []*domains.Domain{soon, later, manual} {
		s.Require().NoError(s.store.Create(ctx, d))
	}

	autoRenew := true
	cutoff := time.Now().UTC().Add(7 * day)
	got, err := s.store.List(ctx, domains.Filter{
		PartnerID:     &s.partner,
		Statuses:      lifecycle.RenewableStatuses(),
		AutoRenew:     &autoRenew,
		ExpiresBefore: &cutoff,
		Limit:         10,
	})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("soon.com", got[0].Name)
}

// TestSoftDelete verifies deleted rows disappear and free the name.
func (s *PostgresStoreSuite) TestSoftDelete() {
	ctx := context.Background()
	d := s.newDomain("gone.com", day())
	s.Require().NoError(s.store.Create(ctx, d))
	s.Require().NoError(s.store.SoftDelete(ctx, d.ID, time.Now()))

	_, err := s.store.Get(ctx, d.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.SoftDelete(ctx, d.ID, time.Now()), sentinel.ErrNotFound)
	s.Require().NoError(s.store.Create(ctx, s.newDomain("gone.com", day())))
}

func day() time.Duration { return 24 * time.Hour }
