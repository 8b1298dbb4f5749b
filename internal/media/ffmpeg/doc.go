// Package ffmpeg builds ffmpeg invocations and supervises the encoder process.
//
// Key pieces:
//   - BuildArgs: turns a resolved profiles.EncodeSpec into discrete argument
//     tokens (no shell involved)
//   - ParseProgress: decodes the key=value blocks ffmpeg writes with
//     -progress into Statistic values
//   - Runner: a Launcher that spawns ffmpeg in its own process group, streams
//     statistics from stdout, and keeps a bounded tail of stderr for failure
//     diagnostics
//
// The Launcher and Process interfaces let the encode session be exercised
// against in-memory fakes.
package ffmpeg
