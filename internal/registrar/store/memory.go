// Package store persists registrar configurations.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"reseller/internal/registrar"
	"reseller/pkg/platform/sentinel"
	"reseller/pkg/requestcontext"
)

// InMemory is a registrar config store for tests and single-process runs.
type InMemory struct {
	mu      sync.RWMutex
	configs map[int64]*registrar.Config
	nextID  int64
}

func NewInMemory() *InMemory {
	return &InMemory{configs: make(map[int64]*registrar.Config)}
}

func (s *InMemory) Create(ctx context.Context, c *registrar.Config) error {
	if err := validate(c); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slug := strings.ToLower(c.Slug)
	for _, existing := range s.configs {
		if existing.Slug == slug {
			return fmt.Errorf("registrar %s: %w", slug, sentinel.ErrConflict)
		}
	}
	if c.ID == 0 {
		s.nextID++
		c.ID = s.nextID
	} else if c.ID > s.nextID {
		s.nextID = c.ID
	}
	if _, ok := s.configs[c.ID]; ok {
		return fmt.Errorf("registrar %d: %w", c.ID, sentinel.ErrConflict)
	}
	if c.IsDefault {
		for _, existing := range s.configs {
			existing.IsDefault = false
		}
	}
	now := requestcontext.Now(ctx)
	c.Slug = slug
	c.CreatedAt, c.UpdatedAt = now, now
	s.configs[c.ID] = clone(c)
	return nil
}

func (s *InMemory) Get(_ context.Context, id int64) (*registrar.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.configs[id]
	if !ok {
		return nil, fmt.Errorf("registrar %d: %w", id, sentinel.ErrNotFound)
	}
	return clone(c), nil
}

func (s *InMemory) GetBySlug(_ context.Context, slug string) (*registrar.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slug = strings.ToLower(slug)
	for _, c := range s.configs {
		if c.Slug == slug {
			return clone(c), nil
		}
	}
	return nil, fmt.Errorf("registrar %s: %w", slug, sentinel.ErrNotFound)
}

func (s *InMemory) GetDefault(_ context.Context) (*registrar.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.configs {
		if c.IsDefault {
			return clone(c), nil
		}
	}
	return nil, fmt.Errorf("default registrar: %w", sentinel.ErrNotFound)
}

func (s *InMemory) List(_ context.Context, activeOnly bool) ([]*registrar.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*registrar.Config, 0, len(s.configs))
	for _, c := range s.configs {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) SetDefault(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.configs[id]
	if !ok {
		return fmt.Errorf("registrar %d: %w", id, sentinel.ErrNotFound)
	}
	if !target.IsActive {
		return fmt.Errorf("registrar %d is inactive: %w", id, sentinel.ErrInvalidState)
	}
	now := requestcontext.Now(ctx)
	for _, c := range s.configs {
		if c.IsDefault {
			c.IsDefault = false
			c.UpdatedAt = now
		}
	}
	target.IsDefault = true
	target.UpdatedAt = now
	return nil
}

func (s *InMemory) SetActive(ctx context.Context, id int64, active bool) error {
	return s.update(ctx, id, func(c *registrar.Config) {
		c.IsActive = active
		if !active {
			c.IsDefault = false
		}
	})
}

func (s *InMemory) UpdateCredentials(ctx context.Context, id int64, sealed []byte) error {
	return s.update(ctx, id, func(c *registrar.Config) {
		c.Credentials = append([]byte(nil), sealed...)
	})
}

func (s *InMemory) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	return s.update(ctx, id, func(c *registrar.Config) {
		t := at.UTC()
		c.LastSyncAt = &t
	})
}

func (s *InMemory) update(ctx context.Context, id int64, fn func(*registrar.Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[id]
	if !ok {
		return fmt.Errorf("registrar %d: %w", id, sentinel.ErrNotFound)
	}
	fn(c)
	c.UpdatedAt = requestcontext.Now(ctx)
	return nil
}

func validate(c *registrar.Config) error {
	if c == nil {
		return fmt.Errorf("registrar config is required")
	}
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
		return fmt.Errorf("registrar name and slug are required")
	}
	if strings.TrimSpace(c.ClientClass) == "" {
		return fmt.Errorf("registrar %s: client class is required", c.Slug)
	}
	return nil
}

func clone(c *registrar.Config) *registrar.Config {
	out := *c
	out.Credentials = append([]byte(nil), c.Credentials...)
	if c.LastSyncAt != nil {
		t := *c.LastSyncAt
		out.LastSyncAt = &t
	}
	return &out
}

var _ registrar.Store = (*InMemory)(nil)
