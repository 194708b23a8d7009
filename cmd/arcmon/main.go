package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/app"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/config"
	"github.com/ACONG-AC/miyar-arcteryx-monitor/internal/infra/telemetry"
)

type monitorOptions struct {
	configPath string
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	opts := monitorOptions{
		configPath: "arcmon.yaml",
	}

	root := &cobra.Command{
		Use:   "arcmon",
		Short: "Storefront brand monitor with change notifications",
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to monitor config file")

	root.AddCommand(
		newRunCmd(logger, &opts),
		newWatchCmd(logger, &opts),
		newValidateCmd(logger, &opts),
	)

	return root
}

func newRunCmd(logger *zap.Logger, opts *monitorOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one monitor cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			cfg, err := config.NewLoader(logger).Load(ctx, opts.configPath)
			if err != nil {
				return err
			}

			metrics := telemetry.NewMetrics(prometheus.NewRegistry())
			monitor, cleanup, err := app.NewMonitor(cfg, metrics, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := cleanup(); err != nil {
					logger.Warn("snapshot store close failed", zap.Error(err))
				}
			}()

			return monitor.Run(ctx)
		},
	}

	return cmd
}

func newWatchCmd(logger *zap.Logger, opts *monitorOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run monitor cycles on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			runner, err := app.NewWatchRunner(ctx, opts.configPath, logger)
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		},
	}

	return cmd
}

func newValidateCmd(logger *zap.Logger, opts *monitorOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate monitor configuration without fetching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(logger).Load(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			logger.Info("config valid",
				zap.String("path", opts.configPath),
				zap.String("storeURL", cfg.StoreURL),
				zap.String("brand", cfg.Brand),
			)
			return nil
		},
	}

	return cmd
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
