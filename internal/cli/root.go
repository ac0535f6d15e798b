// Package cli contains all commands for userctl
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"user-hub/internal/cli/config"
	"user-hub/internal/cli/output"
	applogger "user-hub/utils/logger"
)

var (
	cfgFile   string
	verbose   bool
	colorMode string
	cfg       *config.Config
	logger    *slog.Logger
	version   = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "userctl",
	Short: "Inspect the signed-in user",
	Long: `userctl resolves the user behind a session cookie pair.

Cookies are read from .userctl.yaml (session.user, session.sig) or from the
USERCTL_SESSION_USER and USERCTL_SESSION_SIG environment variables.

Example usage:
  userctl whoami               # Show the current user
  userctl whoami --json        # Output the identity as JSON
  userctl favorites            # List the user's favorites`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .userctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "color output: auto, always, never")
}

func initConfig(cmd *cobra.Command) error {
	logger = applogger.NewCLI(cmd.ErrOrStderr(), verbose)

	if _, err := output.ParseColorMode(colorMode); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Debug("configuration loaded",
		"whoami", cfg.Endpoints.Whoami,
		"favorites", cfg.Endpoints.Favorites,
		"redis", cfg.Cache.RedisURL != "",
	)

	return nil
}

// ReportError prints a failed command's error to w.
func ReportError(w io.Writer, err error) {
	mode, _ := output.ParseColorMode(colorMode)
	colors := output.ResolveColors(mode, cfg != nil && cfg.Output.Colors)
	output.NewPrinter(io.Discard, w, colors).Error("%v", err)
}

// newPrinter returns a printer bound to cmd's writers.
func newPrinter(cmd *cobra.Command) *output.Printer {
	mode, _ := output.ParseColorMode(colorMode)
	return output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(mode, cfg.Output.Colors))
}
