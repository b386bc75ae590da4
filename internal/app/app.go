// Package app assembles the stores, registrar factory, services and jobs from
// configuration. Both binaries build their dependency graph through New.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"reseller/internal/domains"
	domainstore "reseller/internal/domains/store"
	"reseller/internal/jobs"
	jobmetrics "reseller/internal/jobs/metrics"
	"reseller/internal/lifecycle"
	"reseller/internal/notify"
	"reseller/internal/platform/config"
	"reseller/internal/platform/logger"
	"reseller/internal/platform/metrics"
	"reseller/internal/platform/postgres"
	platformredis "reseller/internal/platform/redis"
	"reseller/internal/pricing"
	pricingmetrics "reseller/internal/pricing/metrics"
	pricingstore "reseller/internal/pricing/store"
	"reseller/internal/registrar"
	"reseller/internal/registrar/cache"
	"reseller/internal/registrar/credentials"
	"reseller/internal/registrar/factory"
	"reseller/internal/registrar/httpapi"
	registrarmetrics "reseller/internal/registrar/metrics"
	"reseller/internal/registrar/mock"
	registrarstore "reseller/internal/registrar/store"
	"reseller/internal/wallet"
	walletmetrics "reseller/internal/wallet/metrics"
	walletstore "reseller/internal/wallet/store"
)

// App holds the wired process dependencies.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Pool       *pgxpool.Pool
	Redis      *platformredis.Client
	Publisher  notify.Publisher
	Domains    domains.Store
	Prices     pricing.Store
	// RegistrarConfigs is the store behind Registrars.
	RegistrarConfigs registrar.Store
	Registrars       *factory.Factory
	Pricing    *pricing.Engine
	Wallet     *wallet.Service

	Renewal      *jobs.Renewal
	StatusSync   *jobs.StatusSync
	TransferSync *jobs.TransferSync
	PriceSync    *jobs.PriceSync

	checks  map[string]func(context.Context) error
	closers []func()
}

type stores struct {
	registrars registrar.Store
	domains    domains.Store
	prices     pricing.Store
	wallets    wallet.Store
}

type Option func(*App)

// WithLogger replaces the logger built from the log configuration.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// New connects the configured backends and builds every service. An empty
// database URL selects the in-memory stores and an empty redis URL the
// in-memory availability cache and mock registrar state.
func New(ctx context.Context, cfg *config.Config, version string, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	a := &App{
		Config: cfg,
		checks: make(map[string]func(context.Context) error),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = logger.New(cfg.Log.Level, cfg.Log.Format)
	}
	a.Metrics = metrics.New(version)

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	s, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	a.Domains = s.domains
	a.Prices = s.prices
	a.RegistrarConfigs = s.registrars

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		a.Redis = rc
		a.checks["redis"] = rc.Health
		a.closers = append(a.closers, func() { _ = rc.Close() })
	}

	if err := a.openPublisher(ctx); err != nil {
		return err
	}

	if a.Registrars, err = a.newFactory(s.registrars); err != nil {
		return err
	}

	a.Pricing, err = pricing.NewEngine(s.prices,
		pricing.WithLogger(a.Logger),
		pricing.WithMetrics(pricingmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("build pricing engine: %w", err)
	}
	a.Wallet, err = wallet.New(s.wallets,
		wallet.WithLogger(a.Logger),
		wallet.WithPublisher(a.Publisher),
		wallet.WithMetrics(walletmetrics.New()),
	)
	if err != nil {
		return fmt.Errorf("build wallet service: %w", err)
	}

	return a.buildJobs()
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	if cfg.Database.URL == "" {
		a.Logger.WarnContext(ctx, "no database configured, using in-memory stores")
		return stores{
			registrars: registrarstore.NewInMemory(),
			domains:    domainstore.NewInMemory(),
			prices:     pricingstore.NewInMemory(),
			wallets:    walletstore.NewInMemory(),
		}, nil
	}

	pool, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return stores{}, err
	}
	a.Pool = pool
	a.checks["postgres"] = pool.Ping
	a.closers = append(a.closers, pool.Close)

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return stores{}, err
		}
		a.Logger.InfoContext(ctx, "database schema applied")
	}
	return stores{
		registrars: registrarstore.NewPostgres(pool),
		domains:    domainstore.NewPostgres(pool),
		prices:     pricingstore.NewPostgres(pool),
		wallets:    walletstore.NewPostgres(pool),
	}, nil
}

func (a *App) openPublisher(ctx context.Context) error {
	if len(a.Config.Kafka.Brokers) == 0 {
		a.Publisher = notify.NewLogPublisher(a.Logger)
		return nil
	}
	kp, err := notify.NewKafkaPublisher(ctx, a.Config.Kafka, notify.WithKafkaLogger(a.Logger))
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	a.Publisher = kp
	a.checks["kafka"] = kp.Ping
	a.closers = append(a.closers, kp.Close)
	return nil
}

func (a *App) newFactory(store registrar.Store) (*factory.Factory, error) {
	cfg := a.Config.Registrar
	var opts []factory.Option
	if cfg.CredentialKey != "" {
		sealer, err := credentials.NewSealer(cfg.CredentialKey)
		if err != nil {
			return nil, fmt.Errorf("load credential key: %w", err)
		}
		opts = append(opts, factory.WithSealer(sealer))
	}
	opts = append(opts,
		factory.WithLogger(a.Logger),
		factory.WithMetrics(registrarmetrics.New()),
		factory.WithCallTimeout(cfg.CallTimeout),
		factory.WithBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
	)

	var state mock.State = mock.NewMemoryState()
	if a.Redis != nil {
		opts = append(opts, factory.WithAvailabilityCache(cache.NewRedis(a.Redis.Client, cfg.MockStatePrefix+":avail"), cfg.AvailabilityTTL))
		state = mock.NewRedisState(a.Redis.Client, cfg.MockStatePrefix)
	} else {
		opts = append(opts, factory.WithAvailabilityCache(cache.NewInMemory(), cfg.AvailabilityTTL))
	}

	f, err := factory.New(store, opts...)
	if err != nil {
		return nil, fmt.Errorf("build registrar factory: %w", err)
	}
	f.Register(mock.Class, mock.Constructor(state))
	f.Register(httpapi.Class, httpapi.Constructor(httpapi.WithTimeout(cfg.HTTPTimeout)))
	return f, nil
}

func (a *App) buildJobs() error {
	jc := a.Config.Jobs
	common := []jobs.Option{
		jobs.WithLogger(a.Logger),
		jobs.WithPublisher(a.Publisher),
		jobs.WithMetrics(jobmetrics.New()),
		jobs.WithItemDelay(jc.ItemDelay),
		jobs.WithLeadDays(jc.RenewalLeadDays),
		jobs.WithRenewalYears(jc.RenewalYears),
		jobs.WithSyncFreshness(jc.SyncFreshness),
		jobs.WithWindows(lifecycle.Windows{Expired: jc.ExpiredPeriod, Grace: jc.GracePeriod, Redemption: jc.RedemptionPeriod}),
		jobs.WithTransferWindow(jc.TransferCompletionAfter),
		jobs.WithDefaultLimit(jc.DefaultLimit),
	}

	var err error
	if a.Renewal, err = jobs.NewRenewal(a.Domains, a.Registrars, a.Pricing, a.Wallet, common...); err != nil {
		return fmt.Errorf("build renewal job: %w", err)
	}
	if a.StatusSync, err = jobs.NewStatusSync(a.Domains, a.Registrars, common...); err != nil {
		return fmt.Errorf("build status sync job: %w", err)
	}
	if a.TransferSync, err = jobs.NewTransferSync(a.Domains, a.Registrars, common...); err != nil {
		return fmt.Errorf("build transfer sync job: %w", err)
	}
	if a.PriceSync, err = jobs.NewPriceSync(a.Registrars, a.Prices, common...); err != nil {
		return fmt.Errorf("build price sync job: %w", err)
	}
	return nil
}

func (a *App) Renew(ctx context.Context, opts jobs.RenewalOptions) (*jobs.Result, error) {
	return a.Renewal.Run(ctx, opts)
}

func (a *App) SyncStatus(ctx context.Context, opts jobs.SyncOptions) (*jobs.Result, error) {
	return a.StatusSync.Run(ctx, opts)
}

func (a *App) SyncTransfers(ctx context.Context, opts jobs.TransferOptions) (*jobs.Result, error) {
	return a.TransferSync.Run(ctx, opts)
}

func (a *App) SyncPrices(ctx context.Context, opts jobs.PriceSyncOptions) (*jobs.Result, error) {
	return a.PriceSync.Run(ctx, opts)
}

// Check runs the dependency health checks and records each outcome in the
// dependency gauge. The returned map holds the failures only.
func (a *App) Check(ctx context.Context) map[string]error {
	failed := make(map[string]error)
	for name, check := range a.checks {
		err := check(ctx)
		a.Metrics.SetDependencyUp(name, err == nil)
		if err != nil {
			failed[name] = err
		}
	}
	return failed
}

// Dependencies lists the names of the configured backends.
func (a *App) Dependencies() []string {
	out := make([]string, 0, len(a.checks))
	for name := range a.checks {
		out = append(out, name)
	}
	return out
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
