package encoding

import (
	"fmt"
	"math"
	"strings"
	"time"

	"squeeze/internal/media/ffmpeg"
)

// PercentUnknown marks an indeterminate progress value.
const PercentUnknown = -1.0

// ProgressUpdate is a normalized progress sample.
type ProgressUpdate struct {
	Frame   int64
	FPS     float64
	Elapsed time.Duration
	Speed   float64
	// Percent is in [0, 100], or PercentUnknown when the source duration is
	// not known.
	Percent float64
	// ETA is zero when it cannot be estimated.
	ETA time.Duration
}

// Determinate reports whether Percent carries a real value.
func (u ProgressUpdate) Determinate() bool {
	return u.Percent >= 0
}

// Translate converts an encoder statistic into a ProgressUpdate relative to
// the source duration. It is pure; no wall-clock time is consulted.
func Translate(stat ffmpeg.Statistic, sourceDurationSeconds float64) ProgressUpdate {
	update := ProgressUpdate{
		Frame:   stat.Frame,
		FPS:     round2(stat.FPS),
		Elapsed: stat.Elapsed,
		Speed:   round2(stat.Speed),
		Percent: PercentUnknown,
	}
	if sourceDurationSeconds <= 0 || math.IsNaN(sourceDurationSeconds) || math.IsInf(sourceDurationSeconds, 0) {
		return update
	}
	elapsed := stat.Elapsed.Seconds()
	ratio := elapsed / sourceDurationSeconds
	update.Percent = math.Min(math.Max(ratio, 0), 1) * 100
	if stat.Speed > 0 {
		remaining := sourceDurationSeconds - elapsed
		if remaining > 0 {
			update.ETA = time.Duration(remaining / stat.Speed * float64(time.Second))
		}
	}
	return update
}

// Summary renders a short human-readable progress line, e.g.
// "Encoding 42.0% (ETA 3m12s, @ 1.8x)". Indeterminate updates fall back to
// the raw status line.
func (u ProgressUpdate) Summary() string {
	if !u.Determinate() {
		return u.StatusLine()
	}
	base := fmt.Sprintf("Encoding %.1f%%", u.Percent)
	extras := make([]string, 0, 2)
	if formatted := FormatETA(u.ETA); formatted != "" {
		extras = append(extras, "ETA "+formatted)
	}
	if u.Speed > 0 {
		extras = append(extras, fmt.Sprintf("@ %.1fx", u.Speed))
	}
	if len(extras) == 0 {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, strings.Join(extras, ", "))
}

// StatusLine renders the encoder statistics as "frame: N, fps: F, time:
// hh:mm:ss, speed: S".
func (u ProgressUpdate) StatusLine() string {
	return fmt.Sprintf("frame: %d, fps: %.2f, time: %s, speed: %.2f",
		u.Frame, u.FPS, FormatClock(u.Elapsed), u.Speed)
}

// FormatETA renders d compactly ("1h2m3s", "4m0s", "9s"); it returns "" for
// non-positive durations.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))
	return strings.Join(parts, "")
}

// FormatClock renders d as hh:mm:ss, truncating sub-second precision.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
