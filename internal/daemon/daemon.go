package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mindcare/internal/config"
	"mindcare/internal/logging"
	"mindcare/internal/notify"
	"mindcare/internal/preflight"
	"mindcare/internal/server"
	"mindcare/internal/storage"
)

// Daemon owns the MindCare process lifecycle: storage, the HTTP server, and a
// file lock that prevents a second instance from opening the same data
// directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	bridge storage.Bridge
	server *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status reports daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	DataDir      string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, bridge storage.Bridge, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || bridge == nil || logger == nil {
		return nil, errors.New("daemon requires config, bridge, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "mindcared.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		bridge:   bridge,
		server:   server.New(cfg, bridge, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the HTTP server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another mindcare daemon instance is already running")
	}

	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if !result.Passed {
			d.logger.Warn("preflight check failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start server: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("mindcare daemon started",
		logging.String("address", d.server.Addr()),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts the server down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("mindcare daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.bridge != nil {
		return d.bridge.Close()
	}
	return nil
}

// Addr returns the bound server address, empty before Start.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// Status returns runtime information for CLI display.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.server.Addr(),
		DataDir:      d.cfg.Paths.DataDir,
		LockFilePath: d.lockPath,
	}
}

// TestNotification sends a test push using the current configuration. It
// reports delivery and a human-readable detail string.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	svc := notify.NewService(d.cfg)
	if err := svc.TestNotification(ctx); err != nil {
		return false, "test notification failed", err
	}
	return true, "test notification sent", nil
}
