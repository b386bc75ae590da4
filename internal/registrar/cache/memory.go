// Package cache holds short-lived registrar availability answers.
package cache

import (
	"context"
	"sync"
	"time"

	"reseller/internal/registrar"
)

type cachedAvailability struct {
	value     registrar.Availability
	expiresAt time.Time
}

// InMemory is a process-local availability cache with per-entry expiry.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]cachedAvailability
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		entries: make(map[string]cachedAvailability),
		now:     time.Now,
	}
}

func (c *InMemory) Get(_ context.Context, registrarName, domain string) (*registrar.Availability, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key(registrarName, domain)]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	v := e.value
	return &v, true, nil
}

func (c *InMemory) Set(_ context.Context, registrarName, domain string, a *registrar.Availability, ttl time.Duration) error {
	if a == nil || ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[key(registrarName, domain)] = cachedAvailability{value: *a, expiresAt: now.Add(ttl)}
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	return nil
}

func key(registrarName, domain string) string {
	return registrarName + ":" + registrar.NormalizeDomain(domain)
}

var _ registrar.AvailabilityCache = (*InMemory)(nil)
