package config

import (
	"errors"
	"fmt"

	"squeeze/internal/profiles"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Paths.ScratchDir == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	if c.History.Enabled && c.Paths.HistoryDB == "" {
		return errors.New("paths.history_db must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if _, err := profiles.Lookup(c.Encoder.DefaultProfile); err != nil {
		return fmt.Errorf("encoder.default_profile: %w (valid: %v)", err, profiles.Names())
	}
	if err := ensurePositiveMap(map[string]int{
		"encoder.cancel_grace_seconds": c.Encoder.CancelGraceSeconds,
		"encoder.diagnostic_lines":     c.Encoder.DiagnosticLines,
		"encoder.event_buffer":         c.Encoder.EventBuffer,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
