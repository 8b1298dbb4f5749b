// Package encoding runs a single transcode job from resolved parameters to a
// classified outcome.
//
// An Orchestrator owns at most one active Session. Start resolves the
// requested profile, validates the source, builds the ffmpeg invocation, and
// returns as soon as the encoder is running. The Session translates every
// encoder statistic into a ProgressUpdate (percent of the source duration,
// ETA, rounded fps/speed) and publishes it on its event channel; the channel
// always ends with exactly one outcome event (success, cancelled, or failed)
// and is then closed.
//
// Progress delivery never blocks the encoder: when the subscriber falls
// behind, pending progress is coalesced to the newest value. Percent values
// within a session never decrease.
package encoding
