package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"mindcare/internal/config"
	"mindcare/internal/daemon"
	"mindcare/internal/logging"
	"mindcare/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	bridge, err := storage.Open(cfg)
	if err != nil {
		logger.Error("open storage", logging.Error(err))
		return
	}

	d, err := daemon.New(cfg, bridge, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("mindcared shutting down")
}
