// Package daemon coordinates the long-running MindCare process.
//
// It wires configuration, the storage bridge, and the HTTP server into a
// single lifecycle with flock-based locking to prevent multiple instances.
// Keep orchestration logic here: request handling lives in internal/server
// while the daemon focuses on startup, shutdown, and high level coordination.
package daemon
