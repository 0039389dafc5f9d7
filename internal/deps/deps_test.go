package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unconfigured", Command: " "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available {
		t.Fatalf("expected unconfigured command to be unavailable")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unconfigured command: %s", results[2].Detail)
	}
}
