// Package config loads, normalizes, and validates squeeze configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SQUEEZE_FFMPEG. The Config type centralizes every knob the CLI and the
// encode orchestrator need, so scratch, log, and history locations plus the
// encoder binaries are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
