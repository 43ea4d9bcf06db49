package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/metrics"
	"github.com/vk/wirestate/internal/registry"
	"github.com/vk/wirestate/internal/server"
	"github.com/vk/wirestate/internal/session"
	"github.com/vk/wirestate/internal/store"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	registry *registry.Registry
	store    *store.Store
	metrics  *metrics.Metrics
	promReg  *prometheus.Registry
	session  *session.Session
	httpSrv  *server.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry, and
// prometheus registry.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all component manifests into the format-agnostic model first.
	model, err := loader.Load(ctx, appConfig.ManifestsPath)
	if err != nil {
		// A failure to load manifests is a fatal startup error.
		panic(fmt.Errorf("failed to load component manifests: %w", err))
	}
	logger.Debug("Manifests loaded and translated into unified model.", "components", len(model.Components))

	// Create and populate the registry with Go handlers and casts.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	reg.PopulateDefinitionsFromModel(model)
	logger.Debug("Registry definitions populated from config model.")

	// Validate the parity between manifests and registered Go code.
	if err := reg.Validate(ctx); err != nil {
		// This is a programmer error (mismatch between code and manifests),
		// so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	st := store.New()
	sess := session.New(reg, st, m)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		loader:   loader,
		registry: reg,
		store:    st,
		metrics:  m,
		promReg:  promReg,
		session:  sess,
		httpSrv:  server.New(sess, m, promReg, logger),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Session returns the application's session. This is primarily for testing.
func (a *App) Session() *session.Session {
	return a.session
}
