package storage

import (
	"fmt"

	"mindcare/internal/config"
)

// Bridge is the persistence side-channel used by every entity manager. Each
// manager serializes its whole collection as one snapshot under a fixed key;
// there are no partial updates, so a crash mid-write yields either the old or
// the new complete snapshot.
type Bridge interface {
	// Get returns the snapshot stored under key, with ok=false when absent.
	Get(key string) (data []byte, ok bool, err error)
	// Set replaces the snapshot stored under key.
	Set(key string, data []byte) error
	// SetAll replaces several snapshots in one atomic write: either every
	// entry is applied or none is.
	SetAll(entries map[string][]byte) error
	// Keys lists the keys with stored snapshots.
	Keys() ([]string, error)
	// Close releases underlying resources.
	Close() error
}

// Well-known snapshot keys shared by the managers and the whole-document API.
const (
	KeyPatients = "pp_patients"
	KeySessions = "pp_sessions"
	KeyAgenda   = "pp_agenda"
	KeyProfile  = "pp_profile"
)

// Open builds the bridge selected by the configuration.
func Open(cfg *config.Config) (Bridge, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	switch cfg.Storage.Driver {
	case "json":
		return OpenDocumentFile(cfg)
	case "sqlite":
		return OpenSQLite(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
