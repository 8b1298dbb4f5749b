// Package logs reads the squeeze log file for the `squeeze logs` command:
// the last N lines, optionally followed as new records are appended and
// filtered down to one encode session.
package logs
