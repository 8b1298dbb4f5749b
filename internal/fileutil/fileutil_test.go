package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "nested", "dst.bin")

	content := make([]byte, 64*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(src, content, 0o640); err != nil {
		t.Fatal(err)
	}

	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(content) {
		t.Fatalf("size mismatch: got %d, want %d", len(got), len(content))
	}
	for i := range got {
		if got[i] != content[i] {
			t.Fatalf("byte mismatch at offset %d", i)
		}
	}
}

func TestCopyFileVerifiedRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFileVerified(dir, filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected error copying a directory")
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := CopyFileVerified(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "dst")); !os.IsNotExist(statErr) {
		t.Fatal("destination should not exist after failed copy")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "temp-encode1.mp4")
	dst := filepath.Join(dir, "out", "final.mp4")
	if err := os.WriteFile(src, []byte("encoded"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, got %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "encoded" {
		t.Fatalf("unexpected destination content %q (%v)", got, err)
	}
}

func TestRemoveMatching(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"temp-encode1.mp4", "source-a.mkv", "movie.mkv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "temp-encode-dir", "deeper"), 0o755); err != nil {
		t.Fatal(err)
	}

	removed, err := RemoveMatching(dir, "temp-encode*", "source-*")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 entries removed, got %d", removed)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 || entries[0].Name() != "movie.mkv" {
		t.Fatalf("expected only movie.mkv to remain, got %v (%v)", entries, err)
	}

	if removed, err := RemoveMatching(dir); err != nil || removed != 0 {
		t.Fatalf("no patterns should remove nothing, got %d %v", removed, err)
	}
	if removed, err := RemoveMatching(filepath.Join(dir, "missing"), "*"); err != nil || removed != 0 {
		t.Fatalf("missing dir should be a no-op, got %d %v", removed, err)
	}
}
