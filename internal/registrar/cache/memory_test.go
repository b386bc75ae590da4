package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reseller/internal/registrar"
)

func TestInMemoryExpiresEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewInMemory()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "mock", "Example.COM.", &registrar.Availability{Domain: "example.com", Available: true}, 5*time.Minute))

	got, ok, err := c.Get(ctx, "mock", "example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Available)

	_, ok, _ = c.Get(ctx, "other", "example.com")
	assert.False(t, ok, "keys are scoped per registrar")

	now = now.Add(5 * time.Minute)
	_, ok, _ = c.Get(ctx, "mock", "example.com")
	assert.False(t, ok, "entry must expire at ttl")
}

func TestInMemoryIgnoresZeroTTL(t *testing.T) {
	c := NewInMemory()
	require.NoError(t, c.Set(context.Background(), "mock", "example.com", &registrar.Availability{}, 0))
	_, ok, _ := c.Get(context.Background(), "mock", "example.com")
	assert.False(t, ok)
}
