// Package store implements pricing.Store in memory and in PostgreSQL.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"reseller/internal/pricing"
	id "reseller/pkg/domain"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/requestcontext"
)

type seriesKey struct {
	tldID  int64
	action pricing.Action
	years  int
}

// InMemory keeps pricing data in maps. Price rows are append-only.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	tlds   map[int64]*pricing.Tld
	prices map[seriesKey][]pricing.TldPrice
	rules  map[id.PartnerID][]pricing.Rule
}

func NewInMemory() *InMemory {
	return &InMemory{
		tlds:   make(map[int64]*pricing.Tld),
		prices: make(map[seriesKey][]pricing.TldPrice),
		rules:  make(map[id.PartnerID][]pricing.Rule),
	}
}

func (s *InMemory) seq() int64 {
	s.nextID++
	return s.nextID
}

func (s *InMemory) PriceHistory(_ context.Context, tldID int64, action pricing.Action, years int) ([]pricing.TldPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.prices[seriesKey{tldID, action, years}]), nil
}

func (s *InMemory) LatestPrice(_ context.Context, tldID int64, action pricing.Action, years int, at time.Time) (*pricing.TldPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := pricing.SelectActivePrice(s.prices[seriesKey{tldID, action, years}], at)
	if p == nil {
		return nil, fmt.Errorf("price tld=%d %s %dy: %w", tldID, action, years, sentinel.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (s *InMemory) AppendPrice(ctx context.Context, p *pricing.TldPrice) error {
	if err := validatePrice(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tlds[p.TldID]; !ok {
		return fmt.Errorf("tld %d: %w", p.TldID, sentinel.ErrNotFound)
	}
	p.ID = s.seq()
	p.EffectiveDate = pricing.DateOf(p.EffectiveDate)
	p.CreatedAt = requestcontext.Now(ctx)
	key := seriesKey{p.TldID, p.Action, p.Years}
	s.prices[key] = append(s.prices[key], *p)
	return nil
}

func (s *InMemory) ListRules(_ context.Context, partnerID id.PartnerID) ([]pricing.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rules[partnerID]), nil
}

// SaveRule inserts a rule or replaces the one with the same scope.
func (s *InMemory) SaveRule(_ context.Context, r *pricing.Rule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rules := s.rules[r.PartnerID]
	for i := range rules {
		if sameScope(&rules[i], r) {
			r.ID = rules[i].ID
			rules[i] = *r
			return nil
		}
	}
	r.ID = s.seq()
	s.rules[r.PartnerID] = append(rules, *r)
	return nil
}

func (s *InMemory) CreateTld(_ context.Context, t *pricing.Tld) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ext := normalizeExtension(t.Extension)
	for _, existing := range s.tlds {
		if existing.RegistrarID == t.RegistrarID && existing.Extension == ext {
			return fmt.Errorf("tld .%s: %w", ext, sentinel.ErrConflict)
		}
	}
	if t.ID == 0 {
		t.ID = s.seq()
	} else if t.ID > s.nextID {
		s.nextID = t.ID
	}
	t.Extension = ext
	c := *t
	s.tlds[t.ID] = &c
	return nil
}

func (s *InMemory) FindTld(_ context.Context, tldID int64) (*pricing.Tld, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tlds[tldID]
	if !ok {
		return nil, fmt.Errorf("tld %d: %w", tldID, sentinel.ErrNotFound)
	}
	c := *t
	return &c, nil
}

func (s *InMemory) FindTldByExtension(_ context.Context, registrarID int64, extension string) (*pricing.Tld, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ext := normalizeExtension(extension)
	for _, t := range s.tlds {
		if t.RegistrarID == registrarID && t.Extension == ext {
			c := *t
			return &c, nil
		}
	}
	return nil, fmt.Errorf("tld .%s: %w", ext, sentinel.ErrNotFound)
}

func (s *InMemory) ListActiveTlds(_ context.Context, registrarID int64) ([]*pricing.Tld, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*pricing.Tld, 0)
	for _, t := range s.tlds {
		if t.IsActive && (registrarID == 0 || t.RegistrarID == registrarID) {
			c := *t
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *pricing.Tld) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func sameScope(a, b *pricing.Rule) bool {
	return a.PartnerID == b.PartnerID && eqPtr(a.TldID, b.TldID) && eqPtr(a.Years, b.Years)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func validatePrice(p *pricing.TldPrice) error {
	switch {
	case p == nil:
		return fmt.Errorf("price row is required")
	case !p.Action.Valid():
		return fmt.Errorf("unknown pricing action %q", p.Action)
	case p.Years < 1 || p.Years > 10:
		return fmt.Errorf("years %d outside 1-10", p.Years)
	case p.Price.IsNegative():
		return fmt.Errorf("price must not be negative")
	case p.EffectiveDate.IsZero():
		return fmt.Errorf("effective date is required")
	}
	return nil
}

func validateRule(r *pricing.Rule) error {
	switch {
	case r == nil:
		return fmt.Errorf("pricing rule is required")
	case r.PartnerID.IsNil():
		return fmt.Errorf("partner id is required")
	case !r.MarkupType.Valid():
		return fmt.Errorf("unknown markup type %q", r.MarkupType)
	case r.Years != nil && (*r.Years < 1 || *r.Years > 10):
		return fmt.Errorf("years %d outside 1-10", *r.Years)
	}
	return nil
}

func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

var _ pricing.Store = (*InMemory)(nil)
