// Package deps locates the external binaries the transcription pipeline
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names one external binary and why mindcare needs it.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of one requirement. Detail carries the
// resolved path when the binary is found, or the reason it is not.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// CheckBinaries resolves every requirement on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if path, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
				status.Detail = path
			}
		}
		results = append(results, status)
	}
	return results
}
