package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/specialistvlad/pdfgrid/internal/ctxlog"
	"github.com/specialistvlad/pdfgrid/internal/metrics"
	"github.com/specialistvlad/pdfgrid/internal/registry"
	"github.com/specialistvlad/pdfgrid/modules/http_client"
	"github.com/specialistvlad/pdfgrid/modules/inspect"
	"github.com/specialistvlad/pdfgrid/modules/remote"
	"github.com/specialistvlad/pdfgrid/modules/upload"
)

var (
	// ErrInvalidWorkflow wraps every failure to load, compile or validate a
	// workflow before anything runs.
	ErrInvalidWorkflow = errors.New("invalid workflow")
	// ErrRunFailed is matched by the error of a run in which at least one
	// branch failed, stalled or was cancelled.
	ErrRunFailed = errors.New("workflow run failed")
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	metrics    *metrics.Observer
	httpClient *http.Client
	phase      atomic.Value
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, registry and
// metrics. Without modules, the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	client := http_client.New(cfg.Timeout)
	if len(modules) == 0 {
		modules = coreModules(cfg, client)
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "modules", len(modules), "operation_types", reg.Types())

	return &App{
		ctx:        ctx,
		outW:       outW,
		logger:     logger,
		config:     cfg,
		registry:   reg,
		metrics:    metrics.New(true),
		httpClient: client,
	}
}

// coreModules is the definitive list of all modules that are compiled into
// the pdfgrid binary.
func coreModules(cfg *Config, client *http.Client) []registry.Module {
	return []registry.Module{
		&inspect.Module{},
		&upload.Module{Client: client},
		&remote.Module{BaseURL: cfg.ServiceURL, Client: client},
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the application's metrics observer.
func (a *App) Metrics() *metrics.Observer {
	return a.metrics
}
