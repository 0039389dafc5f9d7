// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"mindcare/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.UploadsDir = filepath.Join(base, "uploads")
	cfg.Paths.RecordingsDir = filepath.Join(base, "recordings")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithPIN sets the clinician PIN on the test config.
func WithPIN(pin string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Security.PIN = pin
	}
}

// WithStorageDriver selects the persistence driver on the test config.
func WithStorageDriver(driver string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.Driver = driver
	}
}
