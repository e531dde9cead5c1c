package extension

import "time"

// Grove driver names accepted by Config.GroveDriver.
const (
	DriverPostgres = "pg"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config holds the Commerce extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.commerce" or "commerce" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for commerce routes (default: "/commerce").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// MutationRetries is how often a cart write that lost an optimistic
	// version race is re-run (default: 3).
	MutationRetries int `json:"mutation_retries" mapstructure:"mutation_retries" yaml:"mutation_retries"`

	// DisableAutoApply stops auto-apply coupons from attaching on cart reads.
	DisableAutoApply bool `json:"disable_auto_apply" mapstructure:"disable_auto_apply" yaml:"disable_auto_apply"`

	// PluginTimeout bounds a single plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// GroveDriver selects the store backend built around the grove.DB passed
	// with WithGroveDB: "pg", "sqlite" or "mongo".
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:        "/commerce",
		MutationRetries: 3,
		PluginTimeout:   5 * time.Second,
	}
}
