package preflight

import (
	"context"
	"fmt"

	"mindcare/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Uploads directory", cfg.Paths.UploadsDir),
		CheckDirectoryAccess("Recordings directory", cfg.Paths.RecordingsDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Transcription.Enabled {
		for _, status := range CheckSystemDeps(cfg) {
			result := Result{
				Name:   status.Name,
				Passed: status.Available,
				Detail: status.Detail,
			}
			if status.Available {
				result.Detail = fmt.Sprintf("%s (%s)", status.Command, status.Detail)
			}
			results = append(results, result)
		}
	}

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}
