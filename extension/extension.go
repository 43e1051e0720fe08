// Package extension provides the Forge extension adapter for streampay.
//
// It implements the forge.Extension interface to integrate streampay
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.streampay" or
// "streampay" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/store/memory"
	mongostore "github.com/xraph/streampay/store/mongo"
	"github.com/xraph/streampay/store/postgres"
	"github.com/xraph/streampay/store/sqlite"
	"github.com/xraph/streampay/token"
	tokenmemory "github.com/xraph/streampay/token/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "streampay"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Escrow-backed payment streaming ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts streampay as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *streampay.Ledger
	store      store.Store
	token      token.Service
	groveDB    *grove.DB
	engineOpts []streampay.Option
}

// New creates a new streampay Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *streampay.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the streaming engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil && e.groveDB != nil {
		s, err := storeForGroveDB(e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// The in-process bank is a development default; production wiring
	// injects a real transfer service via WithTokenService.
	if e.token == nil {
		e.token = tokenmemory.New()
	}

	eng := streampay.New(e.store, e.token, e.engineOpts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*streampay.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("streampay: extension not initialized")
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
		return errors.New("streampay: store not initialized")
	}
	return e.store.Ping(ctx)
}

// storeForGroveDB picks the store backend matching the grove driver.
func storeForGroveDB(db *grove.DB) (store.Store, error) {
	if pg := pgdriver.Unwrap(db); pg != nil {
		return postgres.New(db), nil
	}
	if sdb := sqlitedriver.Unwrap(db); sdb != nil {
		return sqlite.New(db), nil
	}
	if mdb := mongodriver.Unwrap(db); mdb != nil {
		return mongostore.New(db), nil
	}
	return nil, errors.New("streampay: unsupported grove driver")
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("streampay: configuration is required but not found in config files; " +
				"ensure 'extensions.streampay' or 'streampay' key exists in your config")
		}
		e.config = programmaticConfig
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("streampay: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.streampay" first (namespaced pattern).
	if cm.IsSet("extensions.streampay") {
		if err := cm.Bind("extensions.streampay", &cfg); err == nil {
			e.Logger().Debug("streampay: loaded config from file",
				forge.F("key", "extensions.streampay"),
			)
			return cfg, true
		}
		e.Logger().Warn("streampay: failed to bind extensions.streampay config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "streampay" key.
	if cm.IsSet("streampay") {
		if err := cm.Bind("streampay", &cfg); err == nil {
			e.Logger().Debug("streampay: loaded config from file",
				forge.F("key", "streampay"),
			)
			return cfg, true
		}
		e.Logger().Warn("streampay: failed to bind streampay config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations merges YAML config with programmatic options.
// Programmatic bool flags fill gaps the YAML left unset.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	return yamlConfig
}
