package ffmpeg

import (
	"path/filepath"
	"strconv"
	"strings"

	"squeeze/internal/profiles"
)

// ReportingArgs are prepended by Runner so ffmpeg writes machine-readable
// progress blocks to stdout and keeps stderr for diagnostics.
var ReportingArgs = []string{"-hide_banner", "-nostats", "-progress", "pipe:1"}

// BuildArgs renders the encode invocation for spec. The result is
// deterministic and order-sensitive:
//
//	-y -i <src> -c:v <codec> [-vf scale=<w>:-2] -crf <q> -preset <p> <dst>
//
// The scale filter is present only when the EncodeSpec sets a width. The
// destination gains the EncodeSpec extension when it does not already carry it.
func BuildArgs(spec profiles.EncodeSpec, sourcePath, destPath string) []string {
	args := make([]string, 0, 13)
	args = append(args, "-y", "-i", safePath(sourcePath))
	args = append(args, "-c:v", spec.Codec)
	if !spec.KeepsWidth() {
		args = append(args, "-vf", "scale="+strconv.Itoa(spec.Width)+":-2")
	}
	args = append(args,
		"-crf", strconv.Itoa(spec.Quality),
		"-preset", spec.Preset.String(),
		safePath(OutputPath(destPath, spec.Extension)),
	)
	return args
}

// OutputPath returns dest with ext appended unless it already ends in .ext
// (case-insensitive).
func OutputPath(dest, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return dest
	}
	if strings.EqualFold(strings.TrimPrefix(filepath.Ext(dest), "."), ext) {
		return dest
	}
	return dest + "." + ext
}

// safePath keeps a path from being read as an option or a protocol URL.
func safePath(path string) string {
	if strings.HasPrefix(path, "-") || looksLikeProtocol(path) {
		return "file:" + path
	}
	return path
}

func looksLikeProtocol(path string) bool {
	idx := strings.IndexByte(path, ':')
	if idx <= 0 {
		return false
	}
	// Windows drive letters ("C:\...") are paths.
	if idx == 1 && len(path) > 2 && (path[2] == '\\' || path[2] == '/') {
		return false
	}
	for _, r := range path[:idx] {
		if r == '/' || r == '\\' || r == '.' {
			return false
		}
	}
	return true
}
