// Package preflight provides readiness checks for the filesystem paths and
// external collaborators MindCare depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs any failures so a broken
//     deployment is visible before the first request arrives.
//   - The CLI "mindcare preflight" command uses the same checks to display
//     environment health.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
