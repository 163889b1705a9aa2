package cmd

import (
	"context"
	"fmt"

	"awimctl/internal/app"

	"github.com/spf13/cobra"
)

// serveNoTUI controls whether to run in headless mode (true) or with the
// interactive dashboard (false). Headless mode is what the host plugin
// loader uses; the TUI is for running awimctl by hand.
var serveNoTUI bool

// serveDebug enables verbose logging across the application.
var serveDebug bool

var (
	serveHost        string
	servePort        int
	serveSettingsDir string
	serveWorkerRoot  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the awim supervisor with an interactive dashboard or headless.",
	Long: `Starts the awim worker supervisor and the MCP endpoint the host UI talks to.
It can run in two modes:

1. Interactive TUI Mode (default):
   - Launches a terminal dashboard showing the inferred connection status.
   - Allows starting/stopping the worker and editing the target server.

2. Headless Mode (using --no-tui flag):
   - Runs the supervisor and MCP endpoint in the background until terminated.
   - This is the mode the host plugin loader runs awimctl in.

Settings are persisted to AWIMCTL_SETTINGS_DIR (or ~/.config/awimctl) as
settings.yaml; corrupted or missing fields fall back to defaults.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(serveNoTUI, serveDebug, serveHost, servePort, serveSettingsDir, serveWorkerRoot)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveNoTUI, "no-tui", false, "Disable the dashboard and run headless")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Host to bind the MCP endpoint to")
	serveCmd.Flags().IntVar(&servePort, "port", 8912, "Port for the MCP endpoint")
	serveCmd.Flags().StringVar(&serveSettingsDir, "settings-dir", "", "Directory holding settings.yaml (default: AWIMCTL_SETTINGS_DIR or ~/.config/awimctl)")
	serveCmd.Flags().StringVar(&serveWorkerRoot, "worker-root", "", "Directory the awim binary is resolved against (default: directory of awimctl)")
}
