package preflight

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"mindcare/internal/config"
	"mindcare/internal/deps"
	"mindcare/internal/transcriber"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates external binaries the transcription feature needs.
// Both the daemon and the CLI preflight command use this to avoid duplicating
// the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "uvx",
			Command:     transcriber.UVXCommand,
			Description: "Required for WhisperX-driven transcription",
		},
	}
	return deps.CheckBinaries(requirements)
}

// CheckNtfy verifies that the ntfy server hosting the configured topic is
// reachable via its health endpoint.
func CheckNtfy(ctx context.Context, topicURL string) Result {
	const name = "ntfy"

	parsed, err := url.Parse(strings.TrimSpace(topicURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return Result{Name: name, Detail: fmt.Sprintf("invalid topic url %q", topicURL)}
	}
	healthURL := fmt.Sprintf("%s://%s/v1/health", parsed.Scheme, parsed.Host)

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, healthURL, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}
