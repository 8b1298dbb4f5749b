package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"squeeze/internal/logging"
)

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries")

	content := "INFO [encoder/3f2a9c1b] encode started\n" +
		"INFO [encoder/9e8d7c6b] encode started\n" +
		"INFO [encoder/3f2a9c1b] encode finished\n"
	path := filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "logs", "-n", "1")
	if err != nil {
		t.Fatalf("logs -n 1: %v", err)
	}
	if strings.TrimSpace(out) != "INFO [encoder/3f2a9c1b] encode finished" {
		t.Fatalf("unexpected tail: %q", out)
	}

	out, _, err = runCLI(t, env.configPath, "logs", "--session", "3f2a9c1b-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("logs --session: %v", err)
	}
	if strings.Contains(out, "9e8d7c6b") || strings.Count(out, "3f2a9c1b") != 2 {
		t.Fatalf("unexpected filtered output: %q", out)
	}
}
