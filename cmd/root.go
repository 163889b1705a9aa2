package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "awimctl",
	Short: "Supervise the awim network-audio bridge worker",
	Long: `awimctl launches and supervises the awim worker, which bridges audio
between this machine and a remote server. It infers the worker's connection
state from its log output and exposes configuration and lifecycle control to
a host UI over an MCP endpoint.`,
	// SilenceUsage prevents printing the usage message on errors we handle
	// ourselves (bad configuration, failed worker starts).
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "awimctl version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
