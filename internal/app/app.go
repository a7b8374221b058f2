package app

import (
	"io"
	"log/slog"

	"github.com/vk/taskgridgo/internal/config"
	"github.com/vk/taskgridgo/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	loader   config.Loader
	decoder  config.ArgDecoder
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Grid files are not touched here; Run loads them so path problems surface
// as run errors, not construction panics.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, decoder config.ArgDecoder, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All kernel modules registered.", "count", len(modules))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		loader:   loader,
		decoder:  decoder,
		config:   appConfig,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
