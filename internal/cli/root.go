// Package cli implements the reconcile command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/logging"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a withholdings report against an accounting ledger",
	Long: `reconcile matches the entries of two spreadsheets that describe the same
transactions, keyed by a taxpayer identifier and an amount.

Entries with the same identifier and the same amount to the cent are paired
automatically. The rest can be grouped by hand through the HTTP API started
with "reconcile serve".`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reconcile %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file named by --config, falling back to the
// environment when it cannot be read.
func loadConfig() *config.Config {
	cfg := config.LoadOrEnvWithPath(cfgFile)
	if verbose {
		cfg.Observability.Logging.Level = "debug"
	}
	return cfg
}

// newLogger logs to stderr so stdout only carries command output.
func newLogger(cfg *config.Config, system string) *slog.Logger {
	return logging.NewLoggerWithWriter(cfg.Observability.Logging, os.Stderr).With("system", system)
}
