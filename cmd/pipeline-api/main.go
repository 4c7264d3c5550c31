package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"go-tennis-pipeline/internal/api"
	"go-tennis-pipeline/internal/app"
	"go-tennis-pipeline/internal/config"
	"go-tennis-pipeline/internal/logging"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := config.New()
	cfg, err := config.Load(v, *configFile)
	if err != nil {
		log.Fatalf("Configuration loading failed: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Logger initialization failed: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Pipeline initialization failed", zap.Error(err))
	}
	defer a.Close()

	if err := api.Serve(ctx, a, cfg.Server.Addr); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}
