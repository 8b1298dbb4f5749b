package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "present", "echo 'present version 6.1 Copyright'\necho second line\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Version != "present version 6.1 Copyright" {
		t.Fatalf("unexpected version line: %q", results[0].Version)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestRequirements(t *testing.T) {
	reqs := Requirements("ffmpeg", "/opt/ffprobe")
	if len(reqs) != 2 || reqs[0].Command != "ffmpeg" || reqs[1].Command != "/opt/ffprobe" {
		t.Fatalf("unexpected requirements: %#v", reqs)
	}
}

func TestCheckEncoders(t *testing.T) {
	listing := "cat <<'LIST'\n" +
		"Encoders:\n" +
		" V..... = Video\n" +
		" ------\n" +
		" V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC\n" +
		" A....D aac                  AAC (Advanced Audio Coding)\n" +
		"LIST\n"
	ffmpeg := writeStub(t, t.TempDir(), "ffmpeg", listing)

	results := CheckEncoders(context.Background(), ffmpeg, []string{"libx264", "libx265"})
	if !results[0].Available {
		t.Fatalf("expected libx264 available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected libx265 missing, got %#v", results[1])
	}
}

func TestCheckEncodersReportsFailure(t *testing.T) {
	ffmpeg := writeStub(t, t.TempDir(), "ffmpeg", "exit 1\n")
	results := CheckEncoders(context.Background(), ffmpeg, []string{"libx264"})
	if results[0].Available || results[0].Detail == "" {
		t.Fatalf("expected failure detail, got %#v", results[0])
	}
}
