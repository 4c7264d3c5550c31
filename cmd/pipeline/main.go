package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"go-tennis-pipeline/internal/api"
	"go-tennis-pipeline/internal/app"
	"go-tennis-pipeline/internal/config"
	"go-tennis-pipeline/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile string

	root := &cobra.Command{
		Use:          "pipeline",
		Short:        "Load ATP tennis matches from a local CSV into BigQuery",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (default ./config.yaml)")
	root.PersistentFlags().String("backend", "", "collaborator backend: gcp or local")
	root.PersistentFlags().String("log-level", "", "log level")
	_ = v.BindPFlag("backend", root.PersistentFlags().Lookup("backend"))
	_ = v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))

	setup := func(ctx context.Context) (*app.App, func(), error) {
		cfg, err := config.Load(v, configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
		logger.Info("Configuration loaded", zap.String("config_file", v.ConfigFileUsed()))
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			logger.Sync()
			return nil, nil, err
		}
		return a, func() {
			if err := a.Close(); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
			logger.Sync()
		}, nil
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.Run(cmd.Context())
			if res != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(res); encErr != nil {
					return multierr.Append(err, fmt.Errorf("failed to write run result: %w", encErr))
				}
			}
			return err
		},
	}
	run.Flags().String("source", "", "local CSV file to upload")
	run.Flags().Bool("quality-check", false, "validate the loaded table")
	run.Flags().Bool("cleanup", false, "delete the dataset after loading")
	_ = v.BindPFlag("pipeline.source_path", run.Flags().Lookup("source"))
	_ = v.BindPFlag("pipeline.quality_check", run.Flags().Lookup("quality-check"))
	_ = v.BindPFlag("pipeline.cleanup", run.Flags().Lookup("cleanup"))

	describe := &cobra.Command{
		Use:   "describe",
		Short: "Print the stages and the table schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.Describe())
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the runs API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			return api.Serve(cmd.Context(), a, v.GetString("server.addr"))
		},
	}

	serve.Flags().String("addr", "", "listen address")
	_ = v.BindPFlag("server.addr", serve.Flags().Lookup("addr"))

	root.AddCommand(run, describe, serve)
	return root
}
