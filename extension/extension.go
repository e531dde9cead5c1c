// Package extension provides the Forge extension adapter for Commerce.
//
// It implements the forge.Extension interface to integrate Commerce
// into a Forge application with store selection, DI registration and
// lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.commerce" or "commerce" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/commerce"
	"github.com/xraph/commerce/api"
	"github.com/xraph/commerce/store"
	"github.com/xraph/commerce/store/memory"
	mongostore "github.com/xraph/commerce/store/mongo"
	pgstore "github.com/xraph/commerce/store/postgres"
	sqlitestore "github.com/xraph/commerce/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "commerce"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-tenant cart, coupon and checkout engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Commerce as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *commerce.Commerce
	store        store.Store
	groveDB      *grove.DB
	handler      http.Handler
	commerceOpts []commerce.Option
}

// New creates a new Commerce Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Commerce instance.
// This is nil until Register is called.
func (e *Extension) Engine() *commerce.Commerce { return e.engine }

// Handler returns the HTTP routes mounted under the configured base path,
// or nil when routes are disabled.
func (e *Extension) Handler() http.Handler { return e.handler }

// ResolvedConfig returns the configuration after defaults and file values
// were merged in.
func (e *Extension) ResolvedConfig() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// initializes the commerce engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.build(); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*commerce.Commerce, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}
	return vessel.Provide(fapp.Container(), func() (store.Store, error) {
		return e.store, nil
	})
}

// build resolves the store and constructs the engine and routes.
func (e *Extension) build() error {
	if e.store == nil {
		s, err := e.resolveStore()
		if err != nil {
			return err
		}
		e.store = s
	}

	e.engine = commerce.New(e.store, e.buildCommerceOpts()...)

	if !e.config.DisableRoutes {
		e.handler = e.routes()
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("commerce: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return commerce.ErrStoreNotReady
	}
	return e.store.Ping(ctx)
}

// resolveStore picks the grove backend named by GroveDriver, falling back
// to the in-memory store when no grove database was supplied.
func (e *Extension) resolveStore() (store.Store, error) {
	if e.groveDB == nil {
		return memory.New(), nil
	}
	switch e.config.GroveDriver {
	case DriverPostgres, "postgres":
		return pgstore.New(e.groveDB), nil
	case DriverSQLite:
		return sqlitestore.New(e.groveDB), nil
	case DriverMongo, "mongodb":
		return mongostore.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("commerce: unsupported grove driver %q", e.config.GroveDriver)
	}
}

func (e *Extension) routes() http.Handler {
	h := api.NewHandler(e.engine)
	r := chi.NewRouter()
	r.Route(e.config.BasePath, h.Routes)
	return r
}

// buildCommerceOpts constructs commerce.Option values from the resolved config.
func (e *Extension) buildCommerceOpts() []commerce.Option {
	opts := make([]commerce.Option, 0, len(e.commerceOpts)+3)

	opts = append(opts, commerce.WithMutationRetries(e.config.MutationRetries))
	if e.config.DisableAutoApply {
		opts = append(opts, commerce.WithAutoApply(false))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, commerce.WithPluginTimeout(e.config.PluginTimeout))
	}

	// Append any pass-through commerce options.
	opts = append(opts, e.commerceOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("commerce: configuration is required but not found in config files; " +
				"ensure 'extensions.commerce' or 'commerce' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("commerce: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("mutation_retries", e.config.MutationRetries),
		forge.F("disable_auto_apply", e.config.DisableAutoApply),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("grove_driver", e.config.GroveDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.commerce" first (namespaced pattern).
	if cm.IsSet("extensions.commerce") {
		if err := cm.Bind("extensions.commerce", &cfg); err == nil {
			e.Logger().Debug("commerce: loaded config from file",
				forge.F("key", "extensions.commerce"),
			)
			return cfg, true
		}
		e.Logger().Warn("commerce: failed to bind extensions.commerce config",
			forge.F("error", "bind failed"),
		)
	}

	// Try short "commerce" key.
	if cm.IsSet("commerce") {
		if err := cm.Bind("commerce", &cfg); err == nil {
			e.Logger().Debug("commerce: loaded config from file",
				forge.F("key", "commerce"),
			)
			return cfg, true
		}
		e.Logger().Warn("commerce: failed to bind commerce config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.MutationRetries == 0 {
		cfg.MutationRetries = defaults.MutationRetries
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableAutoApply {
		yamlConfig.DisableAutoApply = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.GroveDriver == "" && programmaticConfig.GroveDriver != "" {
		yamlConfig.GroveDriver = programmaticConfig.GroveDriver
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.MutationRetries == 0 && programmaticConfig.MutationRetries != 0 {
		yamlConfig.MutationRetries = programmaticConfig.MutationRetries
	}
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
