// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (format name, duration, size, bitrate)
//
// Inspect executes ffprobe and returns a parsed Result. Helper methods on
// Result provide stream counts, duration parsing, and bitrate extraction; the
// encode orchestrator derives its source duration from them.
package ffprobe
