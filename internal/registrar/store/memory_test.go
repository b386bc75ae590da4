package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reseller/internal/registrar"
	"reseller/pkg/platform/sentinel"
)

// =============================================================================
// Registrar Config Store Test Suite
// =============================================================================
// Justification: the factory trusts the store for the single-default rule and
// for active filtering.

type ConfigStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func TestConfigStoreSuite(t *testing.T) {
	suite.Run(t, new(ConfigStoreSuite))
}

func (s *ConfigStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *ConfigStoreSuite) create(slug string, active, isDefault bool) *registrar.Config {
	c := &registrar.Config{Name: slug, Slug: slug, ClientClass: "mock", IsActive: active, IsDefault: isDefault}
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *ConfigStoreSuite) TestCreateAssignsIDsAndRejectsDuplicateSlug() {
	a := s.create("alpha", true, false)
	b := s.create("beta", true, false)
	s.NotEqual(a.ID, b.ID)

	err := s.store.Create(s.ctx, &registrar.Config{Name: "x", Slug: "ALPHA", ClientClass: "mock"})
	s.ErrorIs(err, sentinel.ErrConflict)

	err = s.store.Create(s.ctx, &registrar.Config{Name: "x", Slug: "gamma"})
	s.Error(err, "client class is required")
}

func (s *ConfigStoreSuite) TestLookups() {
	a := s.create("alpha", true, true)

	got, err := s.store.GetBySlug(s.ctx, "Alpha")
	s.Require().NoError(err)
	s.Equal(a.ID, got.ID)

	_, err = s.store.Get(s.ctx, 99)
	s.ErrorIs(err, sentinel.ErrNotFound)

	def, err := s.store.GetDefault(s.ctx)
	s.Require().NoError(err)
	s.Equal(a.ID, def.ID)
}

func (s *ConfigStoreSuite) TestSingleDefault() {
	a := s.create("alpha", true, true)
	b := s.create("beta", true, true)

	def, err := s.store.GetDefault(s.ctx)
	s.Require().NoError(err)
	s.Equal(b.ID, def.ID, "creating a default replaces the previous one")

	s.Require().NoError(s.store.SetDefault(s.ctx, a.ID))
	all, err := s.store.List(s.ctx, false)
	s.Require().NoError(err)
	defaults := 0
	for _, c := range all {
		if c.IsDefault {
			defaults++
			s.Equal(a.ID, c.ID)
		}
	}
	s.Equal(1, defaults)
}

func (s *ConfigStoreSuite) TestSetDefaultRejectsInactive() {
	c := s.create("sleepy", false, false)
	s.ErrorIs(s.store.SetDefault(s.ctx, c.ID), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.SetDefault(s.ctx, 404), sentinel.ErrNotFound)
}

func (s *ConfigStoreSuite) TestListActiveOnly() {
	s.create("alpha", true, false)
	s.create("beta", false, false)

	active, err := s.store.List(s.ctx, true)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("alpha", active[0].Slug)

	all, err := s.store.List(s.ctx, false)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *ConfigStoreSuite) TestDeactivateDropsDefault() {
	c := s.create("alpha", true, true)
	s.Require().NoError(s.store.SetActive(s.ctx, c.ID, false))
	_, err := s.store.GetDefault(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ConfigStoreSuite) TestCredentialsAndSyncTime() {
	c := s.create("alpha", true, false)
	sealed := []byte{1, 2, 3}
	s.Require().NoError(s.store.UpdateCredentials(s.ctx, c.ID, sealed))
	sealed[0] = 9

	at := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.TouchLastSync(s.ctx, c.ID, at))

	got, err := s.store.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal([]byte{1, 2, 3}, got.Credentials, "stored bytes are copied")
	s.Require().NotNil(got.LastSyncAt)
	s.True(got.LastSyncAt.Equal(at))
}
