// Package factory builds registrar clients from stored configuration and
// caches them per registrar for the life of the process.
package factory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"reseller/internal/registrar"
	"reseller/internal/registrar/credentials"
	"reseller/internal/registrar/metrics"
	"reseller/pkg/platform/circuit"
	"reseller/pkg/platform/sentinel"
)

var (
	ErrRegistrarNotFound  = errors.New("registrar not found")
	ErrRegistrarInactive  = errors.New("registrar is inactive")
	ErrClassNotFound      = errors.New("registrar client class not registered")
	ErrNoDefaultRegistrar = errors.New("no default registrar configured")
)

// Constructor builds a provider client. creds is the opened credential
// document, or nil when none is stored.
type Constructor func(cfg *registrar.Config, creds []byte) (registrar.Client, error)

type entry struct {
	id     int64
	slug   string
	client registrar.Client
}

// Factory resolves registrars by ID or slug. Clients are built once and then
// shared; concurrent first requests for the same registrar build it once.
type Factory struct {
	store   registrar.Store
	sealer  *credentials.Sealer
	logger  *slog.Logger
	metrics *metrics.Metrics

	cache           registrar.AvailabilityCache
	availabilityTTL time.Duration
	callTimeout     time.Duration
	breakerFailures int
	breakerCooldown time.Duration

	classMu sync.RWMutex
	classes map[string]Constructor

	mu      sync.RWMutex
	clients map[string]*entry
	// gen counts cache clears. A build started before a clear is returned to
	// its callers but never cached.
	gen   uint64
	group singleflight.Group
}

// buildTimeout bounds a shared build. Builds run detached from the first
// caller so its cancellation does not fail the other waiters.
const buildTimeout = 30 * time.Second

type Option func(*Factory)

func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Factory) {
		f.metrics = m
	}
}

// WithSealer sets the key used to open stored credentials.
func WithSealer(s *credentials.Sealer) Option {
	return func(f *Factory) {
		f.sealer = s
	}
}

func WithAvailabilityCache(c registrar.AvailabilityCache, ttl time.Duration) Option {
	return func(f *Factory) {
		f.cache = c
		f.availabilityTTL = ttl
	}
}

func WithCallTimeout(d time.Duration) Option {
	return func(f *Factory) {
		f.callTimeout = d
	}
}

// WithBreaker configures the per-registrar circuit breaker. Zero failures
// disables it.
func WithBreaker(failures int, cooldown time.Duration) Option {
	return func(f *Factory) {
		f.breakerFailures = failures
		f.breakerCooldown = cooldown
	}
}

func New(store registrar.Store, opts ...Option) (*Factory, error) {
	if store == nil {
		return nil, errors.New("registrar store is required")
	}
	f := &Factory{
		store:   store,
		logger:  slog.Default(),
		classes: make(map[string]Constructor),
		clients: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Register makes a client class available. Registering a class twice
// replaces the constructor.
func (f *Factory) Register(class string, ctor Constructor) {
	f.classMu.Lock()
	defer f.classMu.Unlock()
	f.classes[class] = ctor
}

func (f *Factory) constructor(class string) (Constructor, bool) {
	f.classMu.RLock()
	defer f.classMu.RUnlock()
	c, ok := f.classes[class]
	return c, ok
}

func idKey(id int64) string {
	return "id:" + strconv.FormatInt(id, 10)
}

func slugKey(slug string) string {
	return "slug:" + strings.ToLower(slug)
}

// Get returns the client for a registrar ID or slug. Numeric identifiers are
// treated as IDs.
func (f *Factory) Get(ctx context.Context, idOrSlug string) (registrar.Client, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, fmt.Errorf("empty registrar identifier: %w", ErrRegistrarNotFound)
	}
	key := slugKey(idOrSlug)
	id, err := strconv.ParseInt(idOrSlug, 10, 64)
	isID := err == nil
	if isID {
		key = idKey(id)
	}
	c, gen, ok := f.lookup(key)
	if ok {
		return c, nil
	}

	flight := key + "@" + strconv.FormatUint(gen, 10)
	ch := f.group.DoChan(flight, func() (any, error) {
		if c, _, ok := f.lookup(key); ok {
			return c, nil
		}
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		var (
			cfg *registrar.Config
			err error
		)
		if isID {
			cfg, err = f.store.Get(bctx, id)
		} else {
			cfg, err = f.store.GetBySlug(bctx, idOrSlug)
		}
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, fmt.Errorf("registrar %s: %w", idOrSlug, ErrRegistrarNotFound)
			}
			return nil, fmt.Errorf("load registrar %s: %w", idOrSlug, err)
		}
		return f.build(bctx, cfg, gen)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(registrar.Client), nil
	}
}

// GetByID is Get for a numeric registrar ID.
func (f *Factory) GetByID(ctx context.Context, id int64) (registrar.Client, error) {
	return f.Get(ctx, strconv.FormatInt(id, 10))
}

// lookup returns the cached client for key and the clear generation it was
// read under.
func (f *Factory) lookup(key string) (registrar.Client, uint64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.clients[key]
	if !ok {
		return nil, f.gen, false
	}
	return e.client, f.gen, true
}

func (f *Factory) build(ctx context.Context, cfg *registrar.Config, gen uint64) (registrar.Client, error) {
	// Another alias may already have built this registrar.
	if c, _, ok := f.lookup(idKey(cfg.ID)); ok {
		f.remember(&entry{id: cfg.ID, slug: cfg.Slug, client: c}, gen)
		return c, nil
	}
	if !cfg.IsActive {
		return nil, fmt.Errorf("registrar %s: %w", cfg.Slug, ErrRegistrarInactive)
	}
	ctor, ok := f.constructor(cfg.ClientClass)
	if !ok {
		return nil, fmt.Errorf("registrar %s class %q: %w", cfg.Slug, cfg.ClientClass, ErrClassNotFound)
	}
	var creds []byte
	if len(cfg.Credentials) > 0 {
		if f.sealer == nil {
			return nil, fmt.Errorf("registrar %s has credentials but no credential key is configured", cfg.Slug)
		}
		opened, err := f.sealer.Open(cfg.Credentials)
		if err != nil {
			return nil, fmt.Errorf("open credentials for registrar %s: %w", cfg.Slug, err)
		}
		creds = opened
	}
	raw, err := ctor(cfg, creds)
	if err != nil {
		return nil, fmt.Errorf("construct registrar %s: %w", cfg.Slug, err)
	}
	client := f.instrument(raw)
	if !f.remember(&entry{id: cfg.ID, slug: cfg.Slug, client: client}, gen) {
		f.logger.InfoContext(ctx, "registrar cache cleared during build, client not cached",
			"registrar_id", cfg.ID,
			"slug", cfg.Slug,
		)
	}
	f.metrics.IncClientBuilt(cfg.ClientClass)
	f.logger.InfoContext(ctx, "registrar client built",
		"registrar_id", cfg.ID,
		"slug", cfg.Slug,
		"class", cfg.ClientClass,
	)
	return client, nil
}

func (f *Factory) instrument(c registrar.Client) registrar.Client {
	opts := []registrar.InstrumentOption{
		registrar.WithLogger(f.logger),
		registrar.WithMetrics(f.metrics),
		registrar.WithTimeout(f.callTimeout),
	}
	if f.cache != nil {
		opts = append(opts, registrar.WithAvailabilityCache(f.cache, f.availabilityTTL))
	}
	if f.breakerFailures > 0 {
		opts = append(opts, registrar.WithBreaker(circuit.New(c.Name(),
			circuit.WithFailureThreshold(f.breakerFailures),
			circuit.WithCooldown(f.breakerCooldown),
		)))
	}
	return registrar.Instrument(c, opts...)
}

// remember caches e unless the cache was cleared after gen was read.
func (f *Factory) remember(e *entry, gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != gen {
		return false
	}
	f.clients[idKey(e.id)] = e
	f.clients[slugKey(e.slug)] = e
	return true
}

// Default returns the client of the default registrar.
func (f *Factory) Default(ctx context.Context) (registrar.Client, error) {
	cfg, err := f.store.GetDefault(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrNoDefaultRegistrar
		}
		return nil, fmt.Errorf("load default registrar: %w", err)
	}
	return f.GetByID(ctx, cfg.ID)
}

// All returns clients for every active registrar. Registrars that fail to
// build are skipped and their errors joined into the returned error.
func (f *Factory) All(ctx context.Context) ([]registrar.Client, error) {
	cfgs, err := f.store.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list registrars: %w", err)
	}
	out := make([]registrar.Client, 0, len(cfgs))
	var errs []error
	for _, cfg := range cfgs {
		c, err := f.GetByID(ctx, cfg.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, c)
	}
	return out, errors.Join(errs...)
}

// Clear drops the cached client of one registrar under every alias.
func (f *Factory) Clear(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	for k, e := range f.clients {
		if e.id == id {
			delete(f.clients, k)
		}
	}
}

// ClearAll drops every cached client.
func (f *Factory) ClearAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.clients = make(map[string]*entry)
}

// SetDefault makes id the default registrar.
func (f *Factory) SetDefault(ctx context.Context, id int64) error {
	if err := f.store.SetDefault(ctx, id); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return fmt.Errorf("registrar %d: %w", id, ErrRegistrarNotFound)
		case errors.Is(err, sentinel.ErrInvalidState):
			return fmt.Errorf("registrar %d: %w", id, ErrRegistrarInactive)
		default:
			return fmt.Errorf("set default registrar: %w", err)
		}
	}
	f.logger.InfoContext(ctx, "default registrar changed", "registrar_id", id)
	return nil
}

// RotateCredentials seals and stores new credentials, then drops the cached
// client so the next Get builds one with them.
func (f *Factory) RotateCredentials(ctx context.Context, id int64, creds any) error {
	if f.sealer == nil {
		return errors.New("no credential key is configured")
	}
	sealed, err := f.sealer.SealJSON(creds)
	if err != nil {
		return err
	}
	if err := f.store.UpdateCredentials(ctx, id, sealed); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return fmt.Errorf("registrar %d: %w", id, ErrRegistrarNotFound)
		}
		return fmt.Errorf("store credentials: %w", err)
	}
	f.Clear(id)
	f.logger.InfoContext(ctx, "registrar credentials rotated", "registrar_id", id)
	return nil
}

// ActiveRegistrarIDs lists the IDs of the active registrars.
func (f *Factory) ActiveRegistrarIDs(ctx context.Context) ([]int64, error) {
	cfgs, err := f.store.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list registrars: %w", err)
	}
	ids := make([]int64, 0, len(cfgs))
	for _, cfg := range cfgs {
		ids = append(ids, cfg.ID)
	}
	return ids, nil
}

// TouchLastSync records a completed sync for the registrar.
func (f *Factory) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	return f.store.TouchLastSync(ctx, id, at)
}

// Health is the connection check result of one registrar.
type Health struct {
	Registrar string        `json:"registrar"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"latency_ns"`
	Version   string        `json:"version,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// CheckHealth runs TestConnection against every active registrar.
func (f *Factory) CheckHealth(ctx context.Context) ([]Health, error) {
	clients, buildErr := f.All(ctx)
	out := make([]Health, 0, len(clients))
	for _, c := range clients {
		h := Health{Registrar: c.Name()}
		res, err := c.TestConnection(ctx)
		if err != nil {
			h.Error = err.Error()
		} else {
			h.Healthy = true
			h.Latency = res.Data.Latency
			h.Version = res.Data.Version
		}
		out = append(out, h)
	}
	return out, buildErr
}
