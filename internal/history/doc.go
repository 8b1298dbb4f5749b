// Package history persists the terminal outcome of every encode session in a
// SQLite database so `squeeze history` can list past jobs.
//
// The store follows a single-version schema: when schema.sql changes the
// version constant is bumped and older databases are rejected with
// ErrSchemaMismatch until the user clears them.
package history
