package commerce

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/commerce/catalog"
	"github.com/xraph/commerce/coupon"
	"github.com/xraph/commerce/plugin"
	"github.com/xraph/commerce/store"
)

// DefaultMutationRetries is how many times a cart mutation is re-run after
// losing an optimistic-lock race.
const DefaultMutationRetries = 3

// Commerce is the cart and coupon engine.
type Commerce struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	resolver *catalog.Resolver
	coupons  *coupon.Engine

	now       func() time.Time
	retries   int
	autoApply bool
}

// New creates a new Commerce instance.
func New(s store.Store, opts ...Option) *Commerce {
	e := &Commerce{
		store:     s,
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		resolver:  catalog.NewResolver(s),
		now:       time.Now,
		retries:   DefaultMutationRetries,
		autoApply: true,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.coupons = coupon.NewEngine(s,
		coupon.WithClock(e.now),
		coupon.WithCheck(e.plugins.ValidateCoupon),
	)

	return e
}

// Option configures a Commerce instance.
type Option func(*Commerce)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Commerce) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Commerce) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock overrides the time source used for timestamps and coupon windows.
func WithClock(now func() time.Time) Option {
	return func(e *Commerce) {
		e.now = now
	}
}

// WithMutationRetries sets how often a conflicting cart write is retried.
func WithMutationRetries(n int) Option {
	return func(e *Commerce) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// WithAutoApply toggles coupon auto-apply on cart reads.
func WithAutoApply(enabled bool) Option {
	return func(e *Commerce) {
		e.autoApply = enabled
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Commerce) {
		e.plugins.WithTimeout(d)
	}
}

// Store returns the underlying store.
func (e *Commerce) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Commerce) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store and initializes plugins.
func (e *Commerce) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("commerce started",
		"plugins", e.plugins.Count(),
		"mutation_retries", e.retries,
		"auto_apply", e.autoApply,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (e *Commerce) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

func (e *Commerce) clock() time.Time { return e.now().UTC() }
