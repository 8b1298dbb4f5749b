// Package main hosts the squeeze CLI entrypoint and command graph.
//
// The Cobra command tree lists the profile and preset catalogs, inspects
// sources with ffprobe, runs a single encode with live progress, and shows the
// job history. It centralizes configuration resolution and logger setup so
// subcommands only deal with presentation.
//
// Encoding logic lives in internal/encoding; commands here only translate
// flags into requests and render what comes back.
package main
