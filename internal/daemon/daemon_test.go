package daemon_test

import (
	"context"
	"testing"

	"mindcare/internal/daemon"
	"mindcare/internal/logging"
	"mindcare/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	bridge := testsupport.MustOpenBridge(t, cfg)

	d, err := daemon.New(cfg, bridge, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.Address == "" {
		t.Fatal("expected a bound address")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	bridge := testsupport.MustOpenBridge(t, cfg)

	first, err := daemon.New(cfg, bridge, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		first.Close()
	})

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	second, err := daemon.New(cfg, bridge, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock to reject a second instance")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected lock release to allow restart: %v", err)
	}
	second.Stop()
}
