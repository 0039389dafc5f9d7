package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"mindcare/internal/daemon"
	"mindcare/internal/logging"
	"mindcare/internal/storage"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MindCare server in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "mindcared.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	bridge, err := storage.Open(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	d, err := daemon.New(cfg, bridge, logger)
	if err != nil {
		bridge.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("mindcare server shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
