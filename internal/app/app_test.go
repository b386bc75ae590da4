package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reseller/internal/jobs"
	"reseller/internal/notify"
	"reseller/internal/platform/config"
	"reseller/internal/pricing"
	"reseller/internal/registrar"
	"reseller/internal/registrar/mock"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Registrar: config.Registrar{
			HTTPTimeout:     time.Second,
			CallTimeout:     time.Second,
			AvailabilityTTL: time.Minute,
			BreakerFailures: 5,
			BreakerCooldown: time.Second,
			MockStatePrefix: "test",
		},
		Jobs: config.Jobs{
			RenewalLeadDays:         7,
			RenewalYears:            1,
			SyncFreshness:           time.Hour,
			TransferCompletionAfter: 24 * time.Hour,
			GracePeriod:             24 * time.Hour,
			RedemptionPeriod:        24 * time.Hour,
			DefaultLimit:            100,
		},
	}
}

// New registers process-wide prometheus collectors, so the package builds
// exactly one App.
func TestNewInMemory(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, nil, "test")
	require.Error(t, err)

	a, err := New(ctx, memoryConfig(), "test", WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	t.Run("backends fall back to memory", func(t *testing.T) {
		assert.Nil(t, a.Pool)
		assert.Nil(t, a.Redis)
		assert.IsType(t, &notify.LogPublisher{}, a.Publisher)
		assert.Empty(t, a.Dependencies())
		assert.Empty(t, a.Check(ctx))
	})

	require.NoError(t, a.RegistrarConfigs.Create(ctx, &registrar.Config{
		Name:        "Mock",
		Slug:        "mock",
		ClientClass: mock.Class,
		IsActive:    true,
		IsDefault:   true,
	}))
	cfg, err := a.RegistrarConfigs.GetBySlug(ctx, "mock")
	require.NoError(t, err)

	t.Run("factory builds registered classes", func(t *testing.T) {
		client, err := a.Registrars.Default(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mock", client.Name())

		health, err := a.Registrars.CheckHealth(ctx)
		require.NoError(t, err)
		require.Len(t, health, 1)
		assert.True(t, health[0].Healthy)
	})

	t.Run("jobs run against the wired stores", func(t *testing.T) {
		require.NoError(t, a.Prices.CreateTld(ctx, &pricing.Tld{
			RegistrarID: cfg.ID, Extension: "com", MinYears: 1, MaxYears: 10, IsActive: true,
		}))

		res, err := a.SyncPrices(ctx, jobs.PriceSyncOptions{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Succeeded)
		assert.Equal(t, len(mock.DefaultPrices("com")), res.Counters[jobs.CounterNew])

		res, err = a.Renew(ctx, jobs.RenewalOptions{})
		require.NoError(t, err)
		assert.Zero(t, res.Total)

		res, err = a.SyncStatus(ctx, jobs.SyncOptions{})
		require.NoError(t, err)
		assert.Zero(t, res.Total)

		res, err = a.SyncTransfers(ctx, jobs.TransferOptions{})
		require.NoError(t, err)
		assert.Zero(t, res.Total)
	})
}

func TestNewRejectsBadCredentialKey(t *testing.T) {
	cfg := memoryConfig()
	cfg.Registrar.CredentialKey = "not-base64!"

	a := &App{Config: cfg, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	_, err := a.newFactory(nil)
	require.Error(t, err)
}
