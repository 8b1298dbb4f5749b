// Package scratch manages the working directory encodes are written into
// before they are promoted to their final destination.
//
// A Workspace holds an advisory file lock so two squeeze processes never
// share (and clear) the same scratch directory.
package scratch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"squeeze/internal/fileutil"
	"squeeze/internal/logging"
	"squeeze/internal/services"
)

// TempOutputPattern is the os.CreateTemp pattern for encoder output files.
const TempOutputPattern = "temp-encode*"

// stagedPrefix names copies made by StageSource.
const stagedPrefix = "source-"

// ErrLocked is returned when another process holds the workspace lock.
var ErrLocked = errors.New("scratch workspace is in use by another process")

// Workspace is a locked scratch directory.
type Workspace struct {
	dir      string
	lockPath string
	lock     *flock.Flock
	logger   *slog.Logger
}

// Open creates dir if needed and acquires its lock. The lock file sits
// next to the directory so Reset never removes it.
func Open(dir string, logger *slog.Logger) (*Workspace, error) {
	dir = filepath.Clean(strings.TrimSpace(dir))
	if dir == "." || dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "scratch", "open", "scratch directory is empty", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scratch", "open", dir, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := dir + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "scratch", "acquire lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConflict, "scratch", "acquire lock", lockPath, ErrLocked)
	}

	return &Workspace{
		dir:      dir,
		lockPath: lockPath,
		lock:     lock,
		logger:   logging.NewComponentLogger(logger, "scratch"),
	}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Reset removes temp outputs and staged sources left behind by earlier runs.
// Other files in the directory are not touched.
func (w *Workspace) Reset() (int, error) {
	removed, err := fileutil.RemoveMatching(w.dir, TempOutputPattern, stagedPrefix+"*")
	if removed > 0 {
		w.logger.Info("cleared stale scratch files",
			logging.String(logging.FieldEventType, "scratch_reset"),
			logging.Int("removed", removed),
			logging.String("dir", w.dir),
		)
	}
	if err != nil {
		return removed, services.Wrap(services.ErrTransient, "scratch", "reset", w.dir, err)
	}
	return removed, nil
}

// Contains reports whether path is the workspace directory or lies inside it.
func (w *Workspace) Contains(path string) bool {
	return Contains(w.dir, path)
}

// Contains reports whether path is dir or lies inside it. Both are made
// absolute and symlinks in existing parents are resolved before comparing.
func Contains(dir, path string) bool {
	dir, path = resolve(dir), resolve(path)
	if dir == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// resolve makes path absolute and resolves symlinks in its longest existing
// prefix.
func resolve(path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	existing, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
}

// CreateTempOutput picks a unique name for encoder output with the given
// container extension. Only the name is reserved: the placeholder is removed
// so the encoder's own write is the only way the file can exist.
func (w *Workspace) CreateTempOutput(ext string) (string, error) {
	pattern := TempOutputPattern
	if ext = strings.TrimPrefix(strings.TrimSpace(ext), "."); ext != "" {
		pattern += "." + ext
	}
	file, err := os.CreateTemp(w.dir, pattern)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "scratch", "create temp output", w.dir, err)
	}
	path := file.Name()
	_ = file.Close()
	if err := os.Remove(path); err != nil {
		return "", services.Wrap(services.ErrTransient, "scratch", "create temp output", path, err)
	}
	return path, nil
}

// StageSource copies src into the workspace and returns the staged path.
func (w *Workspace) StageSource(src string) (string, error) {
	staged := filepath.Join(w.dir, stagedPrefix+filepath.Base(src))
	if err := fileutil.CopyFileVerified(src, staged); err != nil {
		return "", services.Wrap(services.ErrValidation, "scratch", "stage source", src, err)
	}
	w.logger.Debug("staged source", logging.String("source", src), logging.String("staged", staged))
	return staged, nil
}

// Promote moves a finished temp output to dest.
func (w *Workspace) Promote(tempPath, dest string) error {
	if strings.TrimSpace(dest) == "" {
		return services.Wrap(services.ErrValidation, "scratch", "promote", "destination is empty", nil)
	}
	if err := fileutil.MoveFile(tempPath, dest); err != nil {
		return services.Wrap(services.ErrTransient, "scratch", "promote",
			fmt.Sprintf("%s -> %s", tempPath, dest), err)
	}
	return nil
}

// Discard removes a workspace file, ignoring files that are already gone.
func (w *Workspace) Discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(w.logger, "failed to remove scratch file", "scratch_discard_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually or point scratch_dir elsewhere"),
			logging.String(logging.FieldImpact, "stale file stays until the next reset"),
		)
	}
}

// Close releases the workspace lock.
func (w *Workspace) Close() error {
	if w == nil || w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}
