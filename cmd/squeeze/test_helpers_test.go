package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"squeeze/internal/config"
	"squeeze/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	binDir     string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	home := filepath.Join(base, "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("SQUEEZE_FFMPEG", "")
	cfg.Logging.Level = "error"

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: filepath.Join(home, ".config", "squeeze", "config.toml"),
		baseDir:    base,
		binDir:     filepath.Join(base, "bin"),
	}
	env.writeConfig(t)
	return env
}

// writeConfig persists env.cfg so CLI runs pick up test changes.
func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := e.cfg.Marshal()
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(e.configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) stubFFprobe(t *testing.T, body string) {
	t.Helper()
	e.cfg.Encoder.FFprobeBinary = testsupport.WriteExecutable(t, e.binDir, "ffprobe", body)
	e.writeConfig(t)
}

func (e *cliTestEnv) stubFFmpeg(t *testing.T, body string) {
	t.Helper()
	e.cfg.Encoder.FFmpegBinary = testsupport.WriteExecutable(t, e.binDir, "ffmpeg", body)
	e.writeConfig(t)
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n--- output ---\n%s", needle, haystack)
	}
}
