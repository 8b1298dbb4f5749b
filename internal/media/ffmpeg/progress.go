package ffmpeg

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Statistic is one progress sample reported by the encoder.
type Statistic struct {
	// Frame is the number of frames encoded so far.
	Frame int64
	// Elapsed is the media time encoded so far (not wall-clock time).
	Elapsed time.Duration
	FPS     float64
	// Speed is the encoding speed relative to realtime (1.0 == realtime).
	Speed float64
	// End marks the final block ffmpeg writes before exiting.
	End bool
}

// ParseProgress reads -progress output from r and calls emit once per block.
// Unknown keys and unparseable values are skipped so a malformed field never
// discards the rest of its block. It returns when r is exhausted.
func ParseProgress(r io.Reader, emit func(Statistic)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		current   Statistic
		haveUs    bool
		populated bool
	)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "progress":
			current.End = value == "end"
			if emit != nil && (populated || current.End) {
				emit(current)
			}
			current = Statistic{}
			haveUs = false
			populated = false
			continue
		case "frame":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil && v >= 0 {
				current.Frame = v
			}
		case "fps":
			if v, ok := parseNonNegative(value); ok {
				current.FPS = v
			}
		case "speed":
			if v, ok := parseNonNegative(strings.TrimSuffix(value, "x")); ok {
				current.Speed = v
			}
		case "out_time_us":
			if v, err := strconv.ParseInt(value, 10, 64); err == nil && v >= 0 {
				current.Elapsed = time.Duration(v) * time.Microsecond
				haveUs = true
			}
		case "out_time_ms":
			// ffmpeg reports microseconds under this key as well.
			if haveUs {
				break
			}
			if v, err := strconv.ParseInt(value, 10, 64); err == nil && v >= 0 {
				current.Elapsed = time.Duration(v) * time.Microsecond
			}
		case "out_time":
			if haveUs || current.Elapsed > 0 {
				break
			}
			if d, ok := parseClock(value); ok {
				current.Elapsed = d
			}
		default:
			continue
		}
		populated = true
	}
	if populated && emit != nil {
		emit(current)
	}
	return scanner.Err()
}

func parseNonNegative(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return 0, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseClock parses ffmpeg's HH:MM:SS.micro form.
func parseClock(value string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || hours < 0 {
		return 0, false
	}
	minutes, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || minutes < 0 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	total := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	return total + time.Duration(seconds*float64(time.Second)), true
}
