package extension

import (
	"github.com/xraph/grove"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/token"
)

// Option configures the streampay Forge extension.
type Option func(*Extension)

// WithStore sets the store for the streaming engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTokenService sets the value-transfer collaborator. Without it the
// extension falls back to the in-process memory bank, which is only
// suitable for development and tests.
func WithTokenService(t token.Service) Option {
	return func(e *Extension) {
		e.token = t
	}
}

// WithEngineOption passes a streampay.Option through to the underlying engine.
func WithEngineOption(opt streampay.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a streampay plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, streampay.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithGroveDB sets a grove database for persistence. The extension
// auto-constructs the appropriate store backend (postgres/sqlite/mongo)
// based on the grove driver type. Ignored if WithStore was also given.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}
