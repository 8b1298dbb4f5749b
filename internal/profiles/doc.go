// Package profiles holds the static catalog of encode profiles and encoder
// preset speeds, and resolves a selected profile plus optional user overrides
// into an immutable EncodeSpec.
//
// Catalog order is menu order: Names and Presets return entries in the order
// they are declared here, and user-facing listings rely on that.
package profiles
