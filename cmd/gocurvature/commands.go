package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/gocurvature/internal/catalog"
	"github.com/njchilds90/gocurvature/internal/curvature"
	"github.com/njchilds90/gocurvature/internal/httpapi"
	"github.com/njchilds90/gocurvature/internal/mcptools"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := httpapi.New(httpapi.Options{
				MaxBodyBytes:   a.cfg.Server.MaxBodyBytes,
				ComputeTimeout: a.cfg.Engine.ComputeTimeout.Std(),
				Workers:        a.cfg.Engine.Workers,
				CORSOrigins:    a.cfg.Server.CORSOrigins,
				ReadTimeout:    a.cfg.Server.ReadTimeout.Std(),
				WriteTimeout:   a.cfg.Server.WriteTimeout.Std(),
				Logger:         a.logger,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 0.0.0.0:8081)")
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mcptools.Version = version
			s := mcptools.NewServer(mcptools.Options{
				ComputeTimeout: a.cfg.Engine.ComputeTimeout.Std(),
				Workers:        a.cfg.Engine.Workers,
				Logger:         a.logger,
			})
			a.logger.Info("mcp server starting", zap.String("version", version))
			return server.ServeStdio(s)
		},
	}
}

func (a *app) computeCmd() *cobra.Command {
	var (
		metricName string
		opName     string
		subs       []string
		formatName string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute one curvature quantity and print it",
		Example: `  gocurvature compute --metric Schwarzschild --op kretschmann --subs G=1,c=1
  gocurvature compute --metric FLRW --op ricciScalar --format latex`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metric, err := catalog.Lookup(metricName)
			if err != nil {
				return err
			}
			op, err := curvature.ParseOperation(opName)
			if err != nil {
				return err
			}
			format, err := curvature.ParseFormat(formatName)
			if err != nil {
				return err
			}
			raw, err := curvature.ParseAssignments(subs)
			if err != nil {
				return err
			}
			replacements, err := curvature.ParseSubstitutions(raw)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.Engine.ComputeTimeout.Std()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			engine := curvature.New(metric,
				curvature.WithWorkers(a.cfg.Engine.Workers),
				curvature.WithLogger(a.logger))
			start := time.Now()
			out, err := engine.Evaluate(ctx, curvature.Request{
				Operation:     op,
				Substitutions: replacements,
				Format:        format,
			})
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("computation timed out after %s: %w", timeout, err)
				}
				return err
			}
			a.logger.Debug("computed", zap.Duration("duration", time.Since(start)))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&metricName, "metric", "m", "", "Metric name ("+strings.Join(metricNames(), ", ")+")")
	cmd.Flags().StringVarP(&opName, "op", "o", "", "Operation ("+strings.Join(operationNames(), ", ")+")")
	cmd.Flags().StringArrayVarP(&subs, "subs", "s", nil, "Substitution NAME=VALUE, repeatable or comma-separated")
	cmd.Flags().StringVarP(&formatName, "format", "f", "string", "Output format (string, latex, json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Computation timeout (default from config)")
	_ = cmd.MarkFlagRequired("metric")
	_ = cmd.MarkFlagRequired("op")
	return cmd
}

func (a *app) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the predefined metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, e := range catalog.Entries() {
				m := e.Build()
				fmt.Fprintf(w, "%-14s %s  (%s)  %s\n",
					e.Name, m.Signature, strings.Join(m.CoordNames(), ", "), e.Description)
			}
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var output string
	write := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Save(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	write.Flags().StringVarP(&output, "output", "o", "gocurvature.yaml", "Destination file")

	cmd.AddCommand(show, write)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gocurvature", version)
		},
	}
}

func metricNames() []string {
	names := catalog.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

func operationNames() []string {
	ops := curvature.Operations()
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = string(op)
	}
	return out
}
