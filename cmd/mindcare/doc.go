// Package main hosts the MindCare CLI entrypoint and command graph.
//
// The Cobra-based command tree surfaces the practice data — patients,
// sessions, agenda, summary statistics — over the same storage bridge the
// server uses, plus configuration scaffolding and a foreground server mode.
// It centralizes configuration resolution so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
