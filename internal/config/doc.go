// Package config loads, validates, and normalizes MindCare configuration.
//
// Configuration lives in a TOML file (~/.config/mindcare/config.toml or a
// project-local mindcare.toml). Load applies defaults, expands ~ in path
// fields, overlays secrets from the environment, and validates the result so
// downstream packages never see a half-formed config.
package config
