package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mindcare/internal/storage"
)

func TestDocumentFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	store, err := storage.OpenDocumentFileAt(path)
	if err != nil {
		t.Fatalf("OpenDocumentFileAt: %v", err)
	}

	if _, ok, err := store.Get(storage.KeyPatients); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	snapshot := []byte(`[{"id":1,"nombre":"Ana"}]`)
	if err := store.Set(storage.KeyPatients, snapshot); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Reopen to prove the snapshot survived the write.
	reopened, err := storage.OpenDocumentFileAt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok, err := reopened.Get(storage.KeyPatients)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if string(got) != string(snapshot) {
		t.Fatalf("snapshot mismatch: got %s", got)
	}
}

func TestDocumentFileRejectsInvalidJSON(t *testing.T) {
	store, err := storage.OpenDocumentFileAt(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("OpenDocumentFileAt: %v", err)
	}
	if err := store.Set("k", []byte("{not json")); err == nil {
		t.Fatal("expected invalid JSON to be rejected")
	}
}

func TestDocumentFileReplaceDocument(t *testing.T) {
	store, err := storage.OpenDocumentFileAt(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("OpenDocumentFileAt: %v", err)
	}
	doc := map[string]any{
		"pp_patients": []any{map[string]any{"id": float64(1)}},
		"pp_agenda":   []any{},
	}
	raw, _ := json.Marshal(doc)
	if err := store.ReplaceDocument(raw); err != nil {
		t.Fatalf("ReplaceDocument: %v", err)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "pp_agenda" || keys[1] != "pp_patients" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestDocumentFileSetAllIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	store, err := storage.OpenDocumentFileAt(path)
	if err != nil {
		t.Fatalf("OpenDocumentFileAt: %v", err)
	}
	if err := store.Set(storage.KeyPatients, []byte(`[{"id":1}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	bad := map[string][]byte{
		storage.KeyPatients: []byte(`[{"id":2}]`),
		storage.KeyAgenda:   []byte(`{broken`),
	}
	if err := store.SetAll(bad); err == nil {
		t.Fatal("expected invalid entry to reject the whole write")
	}
	got, ok, err := store.Get(storage.KeyPatients)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != `[{"id":1}]` {
		t.Fatalf("rejected write must leave snapshots untouched, got %s", got)
	}
	if _, ok, _ := store.Get(storage.KeyAgenda); ok {
		t.Fatal("rejected write must not introduce new keys")
	}

	good := map[string][]byte{
		storage.KeyPatients: []byte(`[{"id":2}]`),
		storage.KeyAgenda:   []byte(`[]`),
	}
	if err := store.SetAll(good); err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	reopened, err := storage.OpenDocumentFileAt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	keys, err := reopened.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("unexpected keys after SetAll: %v", keys)
	}
}

func TestDocumentFileCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.OpenDocumentFileAt(path); err == nil {
		t.Fatal("expected corrupt document to fail open")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindcare.db")
	store, err := storage.OpenSQLiteAt(path)
	if err != nil {
		t.Fatalf("OpenSQLiteAt: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get(storage.KeySessions); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	snapshot := []byte(`[{"pacienteId":1,"fecha":"2025-01-01"}]`)
	if err := store.Set(storage.KeySessions, snapshot); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(storage.KeySessions, snapshot); err != nil {
		t.Fatalf("Set upsert: %v", err)
	}

	got, ok, err := store.Get(storage.KeySessions)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != string(snapshot) {
		t.Fatalf("snapshot mismatch: got %s", got)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != storage.KeySessions {
		t.Fatalf("unexpected keys: %v", keys)
	}

	if err := store.CheckHealth(context.Background()); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}

	if err := store.SetAll(map[string][]byte{
		storage.KeySessions: []byte(`[]`),
		storage.KeyPatients: []byte(`[{"id":3}]`),
	}); err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	got, ok, err = store.Get(storage.KeyPatients)
	if err != nil || !ok || string(got) != `[{"id":3}]` {
		t.Fatalf("SetAll not applied: ok=%v err=%v got=%s", ok, err, got)
	}
}
