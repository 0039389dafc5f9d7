package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, base)

	return &cliTestEnv{
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path, base string) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nuploads_dir = %q\nrecordings_dir = %q\nlog_dir = %q\nbind = %q\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "uploads"),
		filepath.Join(base, "recordings"),
		filepath.Join(base, "logs"),
		"127.0.0.1:0",
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func TestCLIPatientsAddAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	// A fresh data directory starts from the seed roster.
	out, _, err := runCLI(t, []string{"patients", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("patients list: %v", err)
	}
	requireContains(t, out, "Juan Pérez")

	out, _, err = runCLI(t, []string{"patients", "add", "--nombre", "Zulema Ortiz", "--edad", "41", "--motivo", "Insomnio"}, env.configPath)
	if err != nil {
		t.Fatalf("patients add: %v", err)
	}
	requireContains(t, out, "Zulema Ortiz")

	out, _, err = runCLI(t, []string{"patients", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("patients list: %v", err)
	}
	requireContains(t, out, "Zulema Ortiz")
	requireContains(t, out, "Insomnio")

	if _, _, err := runCLI(t, []string{"patients", "add"}, env.configPath); err == nil {
		t.Fatal("expected add without --nombre to fail")
	}
}

func TestCLIPatientsSearchIgnoresAccents(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"patients", "search", "perez"}, env.configPath)
	if err != nil {
		t.Fatalf("patients search: %v", err)
	}
	requireContains(t, out, "Juan Pérez")

	out, _, err = runCLI(t, []string{"patients", "search", "nomatchxyz"}, env.configPath)
	if err != nil {
		t.Fatalf("patients search: %v", err)
	}
	requireContains(t, out, "No matches")
}

func TestCLIAgendaAddAndList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"agenda", "add", "--paciente", "1", "--fecha", "2026-09-01", "--hora", "10:00"}, env.configPath)
	if err != nil {
		t.Fatalf("agenda add: %v", err)
	}
	requireContains(t, out, "2026-09-01 10:00")
	requireContains(t, out, "Pendiente")

	out, _, err = runCLI(t, []string{"agenda", "list", "--fecha", "2026-09-01"}, env.configPath)
	if err != nil {
		t.Fatalf("agenda list: %v", err)
	}
	requireContains(t, out, "Juan Pérez")
	requireContains(t, out, "10:00")

	if _, _, err := runCLI(t, []string{"agenda", "list", "--estado", "Perdida"}, env.configPath); err == nil {
		t.Fatal("expected unknown status filter to fail")
	}
}

func TestCLISessionsList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sessions", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	requireContains(t, out, "No sessions recorded")
}

func TestCLIStats(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "Pacientes")
	requireContains(t, out, "Citas totales")
}

func TestCLIPreflight(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	requireContains(t, out, "Data directory")
	requireContains(t, out, "[OK]")
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}
