// Package config loads and validates the TOML configuration for coursemerge.
//
// Configuration flows through three steps: Default() seeds every field,
// Load() overlays an optional config file, then normalize/Validate expand
// paths, apply environment overrides, and reject unusable values.
package config
