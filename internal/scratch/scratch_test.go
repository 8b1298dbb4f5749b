package scratch_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"squeeze/internal/scratch"
	"squeeze/internal/services"
	"squeeze/internal/testsupport"
)

func openWorkspace(t *testing.T) *scratch.Workspace {
	t.Helper()
	ws, err := scratch.Open(filepath.Join(t.TempDir(), "scratch"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func TestOpenRejectsSecondHolder(t *testing.T) {
	ws := openWorkspace(t)

	_, err := scratch.Open(ws.Dir(), nil)
	if !errors.Is(err, scratch.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict marker, got %v", err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := scratch.Open(ws.Dir(), nil)
	if err != nil {
		t.Fatalf("reopen after close: %v", err)
	}
	_ = again.Close()
}

func TestOpenRejectsEmptyDir(t *testing.T) {
	if _, err := scratch.Open("  ", nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestResetClearsStaleFiles(t *testing.T) {
	ws := openWorkspace(t)
	testsupport.WriteFile(t, filepath.Join(ws.Dir(), "temp-encode123.mp4"), 10)
	testsupport.WriteFile(t, filepath.Join(ws.Dir(), "source-old.mkv"), 10)
	userFile := filepath.Join(ws.Dir(), "movie.mkv")
	testsupport.WriteFile(t, userFile, 10)
	testsupport.WriteFile(t, filepath.Join(ws.Dir(), "leftover", "x.bin"), 10)

	removed, err := ws.Reset()
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 entries removed, got %d", removed)
	}
	for _, kept := range []string{userFile, filepath.Join(ws.Dir(), "leftover", "x.bin")} {
		if _, err := os.Stat(kept); err != nil {
			t.Fatalf("Reset removed a file it did not create: %v", err)
		}
	}
}

func TestWorkspaceContains(t *testing.T) {
	ws := openWorkspace(t)
	outside := filepath.Join(filepath.Dir(ws.Dir()), "elsewhere", "movie.mkv")
	sibling := filepath.Join(ws.Dir()+"-other", "movie.mkv")
	cases := map[string]bool{
		ws.Dir():                               true,
		filepath.Join(ws.Dir(), "movie.mkv"):   true,
		filepath.Join(ws.Dir(), "a", "b.mkv"):  true,
		filepath.Join(ws.Dir(), "..", "x.mkv"): false,
		outside:                                false,
		sibling:                                false,
		"":                                     false,
	}
	for path, want := range cases {
		if got := ws.Contains(path); got != want {
			t.Fatalf("Contains(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestCreateTempOutput(t *testing.T) {
	ws := openWorkspace(t)

	first, err := ws.CreateTempOutput(".mp4")
	if err != nil {
		t.Fatalf("CreateTempOutput: %v", err)
	}
	second, err := ws.CreateTempOutput("mp4")
	if err != nil {
		t.Fatalf("CreateTempOutput: %v", err)
	}
	if first == second {
		t.Fatalf("expected unique temp names, got %s twice", first)
	}
	for _, path := range []string{first, second} {
		base := filepath.Base(path)
		if !strings.HasPrefix(base, "temp-encode") || !strings.HasSuffix(base, ".mp4") {
			t.Fatalf("unexpected temp name %q", base)
		}
		if filepath.Dir(path) != ws.Dir() {
			t.Fatalf("temp output %s outside workspace", path)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("temp output %s should not exist until the encoder writes it", path)
		}
	}
}

func TestStageAndPromote(t *testing.T) {
	ws := openWorkspace(t)
	src := filepath.Join(t.TempDir(), "input.mkv")
	testsupport.WriteFile(t, src, 4096)

	staged, err := ws.StageSource(src)
	if err != nil {
		t.Fatalf("StageSource: %v", err)
	}
	if filepath.Dir(staged) != ws.Dir() {
		t.Fatalf("staged path %s outside workspace", staged)
	}
	info, err := os.Stat(staged)
	if err != nil || info.Size() != 4096 {
		t.Fatalf("unexpected staged file: %v %v", info, err)
	}

	temp, err := ws.CreateTempOutput("mp4")
	if err != nil {
		t.Fatalf("CreateTempOutput: %v", err)
	}
	testsupport.WriteFile(t, temp, 128)
	dest := filepath.Join(t.TempDir(), "out", "final.mp4")
	if err := ws.Promote(temp, dest); err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected promoted output: %v", err)
	}
	if _, err := os.Stat(temp); !os.IsNotExist(err) {
		t.Fatalf("expected temp output moved away, got %v", err)
	}

	ws.Discard(staged)
	ws.Discard(staged)
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("expected staged source discarded, got %v", err)
	}
}

func TestStageSourceMissing(t *testing.T) {
	ws := openWorkspace(t)
	if _, err := ws.StageSource(filepath.Join(t.TempDir(), "missing.mkv")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
