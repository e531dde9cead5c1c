package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/plugin"
	"github.com/xraph/commerce/store"
)

// Option configures the Commerce Forge extension.
type Option func(*Extension)

// WithStore sets the store for the commerce engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store from a grove database. driver is one of
// DriverPostgres, DriverSQLite or DriverMongo; an empty driver defers to
// the grove_driver config key.
func WithGroveDB(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		if driver != "" {
			e.config.GroveDriver = driver
		}
	}
}

// WithCommerceOption passes a commerce.Option through to the underlying engine.
func WithCommerceOption(opt commerce.Option) Option {
	return func(e *Extension) {
		e.commerceOpts = append(e.commerceOpts, opt)
	}
}

// WithPlugin registers a commerce plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.commerceOpts = append(e.commerceOpts, commerce.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for commerce routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMutationRetries sets how often a conflicting cart write is retried.
func WithMutationRetries(n int) Option {
	return func(e *Extension) { e.config.MutationRetries = n }
}

// WithDisableAutoApply turns off coupon auto-apply on cart reads.
func WithDisableAutoApply() Option {
	return func(e *Extension) { e.config.DisableAutoApply = true }
}

// WithPluginTimeout sets the per-call plugin timeout.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
