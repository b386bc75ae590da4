// Package store implements domains.Store in memory and in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"reseller/internal/domains"
	"reseller/internal/lifecycle"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
)

// InMemory keeps domains in a map for tests and local runs.
type InMemory struct {
	mu      sync.RWMutex
	domains map[id.DomainID]*domains.Domain
}

func NewInMemory() *InMemory {
	return &InMemory{domains: make(map[id.DomainID]*domains.Domain)}
}

func (s *InMemory) Create(_ context.Context, d *domains.Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[d.ID]; ok {
		return fmt.Errorf("domain %s: %w", d.ID, sentinel.ErrConflict)
	}
	for _, existing := range s.domains {
		if existing.DeletedAt == nil && strings.EqualFold(existing.Name, d.Name) {
			return fmt.Errorf("domain name %s: %w", d.Name, sentinel.ErrConflict)
		}
	}
	s.domains[d.ID] = clone(d)
	return nil
}

func (s *InMemory) Get(_ context.Context, domainID id.DomainID) (*domains.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.domains[domainID]
	if !ok || d.DeletedAt != nil {
		return nil, fmt.Errorf("domain %s: %w", domainID, sentinel.ErrNotFound)
	}
	return clone(d), nil
}

func (s *InMemory) GetByName(_ context.Context, name string) (*domains.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.domains {
		if d.DeletedAt == nil && strings.EqualFold(d.Name, name) {
			return clone(d), nil
		}
	}
	return nil, fmt.Errorf("domain %s: %w", name, sentinel.ErrNotFound)
}

func (s *InMemory) List(_ context.Context, f domains.Filter) ([]*domains.Domain, error) {
	s.mu.RLock()
	out := make([]*domains.Domain, 0)
	for _, d := range s.domains {
		if matches(d, f) {
			out = append(out, clone(d))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, compareForBatch)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, d *domains.Domain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.domains[d.ID]
	if !ok || existing.DeletedAt != nil {
		return fmt.Errorf("domain %s: %w", d.ID, sentinel.ErrNotFound)
	}
	s.domains[d.ID] = clone(d)
	return nil
}

func (s *InMemory) SoftDelete(_ context.Context, domainID id.DomainID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.domains[domainID]
	if !ok || d.DeletedAt != nil {
		return fmt.Errorf("domain %s: %w", domainID, sentinel.ErrNotFound)
	}
	t := at.UTC()
	d.DeletedAt = &t
	return nil
}

func matches(d *domains.Domain, f domains.Filter) bool {
	if d.DeletedAt != nil {
		return false
	}
	if f.PartnerID != nil && d.PartnerID != *f.PartnerID {
		return false
	}
	if f.RegistrarID != 0 && d.RegistrarID != f.RegistrarID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, d.Status) {
		return false
	}
	if f.AutoRenew != nil && d.AutoRenew != *f.AutoRenew {
		return false
	}
	if f.ExpiresBefore != nil && (d.ExpiresAt == nil || d.ExpiresAt.After(*f.ExpiresBefore)) {
		return false
	}
	if f.ExpiresAfter != nil && (d.ExpiresAt == nil || d.ExpiresAt.Before(*f.ExpiresAfter)) {
		return false
	}
	if f.SyncedBefore != nil && d.LastSyncedAt != nil && !d.LastSyncedAt.Before(*f.SyncedBefore) {
		return false
	}
	return true
}

// compareForBatch orders soonest expiry first, undated last, then by name.
func compareForBatch(a, b *domains.Domain) int {
	switch {
	case a.ExpiresAt == nil && b.ExpiresAt != nil:
		return 1
	case a.ExpiresAt != nil && b.ExpiresAt == nil:
		return -1
	case a.ExpiresAt != nil && b.ExpiresAt != nil:
		if c := a.ExpiresAt.Compare(*b.ExpiresAt); c != 0 {
			return c
		}
	}
	return strings.Compare(a.Name, b.Name)
}

func clone(d *domains.Domain) *domains.Domain {
	c := *d
	c.SyncMetadata = maps.Clone(d.SyncMetadata)
	c.ClientID = clonePtr(d.ClientID)
	c.RegisteredAt = clonePtr(d.RegisteredAt)
	c.ExpiresAt = clonePtr(d.ExpiresAt)
	c.LastSyncedAt = clonePtr(d.LastSyncedAt)
	c.TransferInitiatedAt = clonePtr(d.TransferInitiatedAt)
	c.DeletedAt = clonePtr(d.DeletedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var _ domains.Store = (*InMemory)(nil)

// statusStrings converts statuses for SQL array parameters.
func statusStrings(in []lifecycle.Status) []string {
	out := make([]string, len(in))
	for i, st := range in {
		out[i] = string(st)
	}
	return out
}
