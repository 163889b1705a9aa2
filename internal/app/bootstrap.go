package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"awimctl/internal/config"
	"awimctl/internal/server"
	"awimctl/internal/status"
	"awimctl/internal/supervisor"
	"awimctl/internal/tui"
	"awimctl/pkg/logging"
)

// Application bootstraps and runs awimctl: settings store, worker supervisor,
// MCP server and, unless disabled, the dashboard TUI.
type Application struct {
	config *Config

	store *config.Store
	sup   *supervisor.Supervisor
	srv   *server.Server

	logCh <-chan logging.LogEntry
}

// NewApplication creates and initializes a new application instance.
func NewApplication(cfg *Config) (*Application, error) {
	logLevel := logging.LevelInfo
	if cfg.Debug {
		logLevel = logging.LevelDebug
	}

	var logCh <-chan logging.LogEntry
	if cfg.NoTUI {
		logging.InitForCLI(logLevel, os.Stdout)
	} else {
		logCh = logging.InitForTUI(logLevel)
	}

	settingsDir := cfg.SettingsDir
	if settingsDir == "" {
		dir, err := config.DefaultSettingsDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve settings directory: %w", err)
		}
		settingsDir = dir
	}
	store := config.NewStore(settingsDir)
	logging.Info("Bootstrap", "awimctl initialized with %s:%d", store.Current().IP, store.Current().Port)

	sup := supervisor.New(store, status.NewModel(), supervisor.Options{
		WorkerRoot: cfg.WorkerRoot,
	})
	srv := server.New(cfg.Host, cfg.Port, store, sup)

	return &Application{
		config: cfg,
		store:  store,
		sup:    sup,
		srv:    srv,
		logCh:  logCh,
	}, nil
}

// Run executes the application in the appropriate mode. In both modes the
// worker is stopped on the way out so no orphaned awim process survives the
// supervisor.
func (a *Application) Run(ctx context.Context) error {
	if err := a.srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}
	defer func() {
		if err := a.sup.Stop(); err != nil {
			logging.Error("Bootstrap", err, "Failed to stop awim during shutdown")
		}
		if err := a.srv.Stop(context.Background()); err != nil {
			logging.Error("Bootstrap", err, "Failed to stop MCP server during shutdown")
		}
	}()

	logging.Info("Bootstrap", "Host UI endpoint ready at %s", a.srv.Endpoint())

	if a.config.NoTUI {
		return a.runHeadless(ctx)
	}
	return tui.Run(a.sup, a.store, a.logCh)
}

// runHeadless blocks until the context is cancelled or a termination signal
// arrives.
func (a *Application) runHeadless(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logging.Info("Bootstrap", "Received %s, shutting down", sig)
		return nil
	}
}
