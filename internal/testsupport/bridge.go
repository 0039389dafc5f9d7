package testsupport

import (
	"sort"
	"testing"

	"mindcare/internal/config"
	"mindcare/internal/storage"
)

// MemoryBridge is an in-memory storage bridge for tests.
type MemoryBridge struct {
	snapshots map[string][]byte
	// FailSet, when non-nil, is returned from every Set call.
	FailSet error
	// FailGet, when non-nil, is returned from every Get call.
	FailGet error
}

// NewMemoryBridge returns an empty in-memory bridge.
func NewMemoryBridge() *MemoryBridge {
	return &MemoryBridge{snapshots: make(map[string][]byte)}
}

func (b *MemoryBridge) Get(key string) ([]byte, bool, error) {
	if b.FailGet != nil {
		return nil, false, b.FailGet
	}
	data, ok := b.snapshots[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

func (b *MemoryBridge) Set(key string, data []byte) error {
	if b.FailSet != nil {
		return b.FailSet
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b.snapshots[key] = cp
	return nil
}

func (b *MemoryBridge) SetAll(entries map[string][]byte) error {
	if b.FailSet != nil {
		return b.FailSet
	}
	for key, data := range entries {
		cp := make([]byte, len(data))
		copy(cp, data)
		b.snapshots[key] = cp
	}
	return nil
}

func (b *MemoryBridge) Keys() ([]string, error) {
	keys := make([]string, 0, len(b.snapshots))
	for key := range b.snapshots {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *MemoryBridge) Close() error { return nil }

// NewEmptyBridge returns an in-memory bridge pre-seeded with empty
// collections so managers start from a clean slate instead of seed data.
func NewEmptyBridge() *MemoryBridge {
	bridge := NewMemoryBridge()
	for _, key := range []string{storage.KeyPatients, storage.KeySessions, storage.KeyAgenda} {
		bridge.snapshots[key] = []byte("[]")
	}
	return bridge
}

// MustOpenBridge opens the configured storage bridge for tests and registers
// cleanup.
func MustOpenBridge(t testing.TB, cfg *config.Config) storage.Bridge {
	t.Helper()

	bridge, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		bridge.Close()
	})
	return bridge
}
