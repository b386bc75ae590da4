//go:build integration

package mock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reseller/internal/registrar"
	"reseller/internal/registrar/contract"
	"reseller/internal/registrar/mock"
	"reseller/pkg/testutil/containers"
)

func TestRedisBackedMockConformsToContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.Reset(context.Background()))

	s := &contract.Suite{
		Client: mock.New("mock", mock.NewRedisState(rc.Raw(), "test-mockreg")),
		Domain: "redis-contract.net",
		TLD:    "net",
	}
	s.Run(t)
}

func TestRedisStateIsSharedBetweenClients(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.Reset(ctx))

	writer := mock.New("mock", mock.NewRedisState(rc.Raw(), "shared"))
	reader := mock.New("mock", mock.NewRedisState(rc.Raw(), "shared"))

	_, err := writer.Register(ctx, registrar.RegisterParams{
		Domain: "shared.org", Years: 1,
		Contacts: registrar.Contacts{Registrant: contract.Registrant()},
	})
	require.NoError(t, err)

	res, err := reader.CheckAvailability(ctx, "shared.org")
	require.NoError(t, err)
	require.False(t, res.Data.Available)

	require.NoError(t, writer.FailNext(ctx, "renew", registrar.ErrorTimeout))
	_, err = reader.Renew(ctx, "shared.org", 1)
	require.Equal(t, registrar.ErrorTimeout, registrar.CategoryOf(err))
}

func TestRedisStateConcurrentRenewalsAllExtend(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.Reset(ctx))

	expires := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	seed := mock.New("mock", mock.NewRedisState(rc.Raw(), "contended"))
	require.NoError(t, seed.Seed(ctx, mock.Record{Domain: "contended.com", ExpiresAt: expires}))

	// separate clients model separate processes sharing one redis
	const renewals = 6
	errs := make(chan error, renewals)
	var wg sync.WaitGroup
	for range renewals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mock.New("mock", mock.NewRedisState(rc.Raw(), "contended"))
			_, err := c.Renew(ctx, "contended.com", 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	info, err := seed.GetInfo(ctx, "contended.com")
	require.NoError(t, err)
	require.True(t, info.Data.ExpiresAt.Equal(expires.AddDate(renewals, 0, 0)), "got %s", info.Data.ExpiresAt)
}
