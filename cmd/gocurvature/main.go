// Command gocurvature computes curvature tensors of predefined spacetimes
// from the command line, over HTTP, or as an MCP server on stdio.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/gocurvature/internal/config"
	"github.com/njchilds90/gocurvature/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// app carries the state shared by every subcommand once the root command
// has run its pre-run hook.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "gocurvature",
		Short: "Symbolic curvature of Schwarzschild, Kerr, Kerr-Newman and FLRW spacetimes",
		Long: `gocurvature derives the Riemann, Ricci and Weyl tensors, the Ricci scalar
and the Kretschmann scalar of a catalog of metrics, exactly and symbolically.

Run "gocurvature serve" for the HTTP API or "gocurvature mcp" for agents.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := logging.New(cfg.Logging, a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			a.logger.Debug("configuration loaded", zap.String("path", a.cfgFile))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.serveCmd(),
		a.mcpCmd(),
		a.computeCmd(),
		a.metricsCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
