// Package deps reports whether the external tools squeeze drives are usable.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds each version/encoder query.
const probeTimeout = 5 * time.Second

// Requirement defines an external binary squeeze relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

// Requirements returns the binaries an encode needs.
func Requirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Performs the encode"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Reads source duration and stream info"},
	}
}

// CheckBinaries resolves each requirement on PATH and records the first line
// of its -version output.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		status.Version = versionLine(ctx, resolved)
		results = append(results, status)
	}
	return results
}

// CheckEncoders asks ffmpeg which encoders it was built with and reports one
// Status per requested codec.
func CheckEncoders(ctx context.Context, ffmpegBinary string, codecs []string) []Status {
	out := make([]Status, 0, len(codecs))
	available, err := listEncoders(ctx, ffmpegBinary)
	for _, codec := range codecs {
		status := Status{Name: codec, Command: ffmpegBinary, Description: "ffmpeg encoder"}
		switch {
		case err != nil:
			status.Detail = err.Error()
		case available[codec]:
			status.Available = true
		default:
			status.Detail = fmt.Sprintf("ffmpeg lacks encoder %q", codec)
		}
		out = append(out, status)
	}
	return out
}

func versionLine(ctx context.Context, binary string) string {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	output, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line)
}

// listEncoders parses `ffmpeg -encoders`, whose rows look like
// " V....D libx264   libx264 H.264 ...".
func listEncoders(ctx context.Context, binary string) (map[string]bool, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, fmt.Errorf("ffmpeg not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}
	encoders := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || len(fields[0]) != 6 || fields[0] == "------" {
			continue
		}
		encoders[fields[1]] = true
	}
	return encoders, scanner.Err()
}
