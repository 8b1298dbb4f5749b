// Package services defines shared utilities consumed by the encoding
// orchestrator and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, profile names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (bad input vs. external tool trouble) without string matching.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the tool.
package services
