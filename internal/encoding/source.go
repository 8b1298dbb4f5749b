package encoding

import (
	"math"

	"squeeze/internal/media/ffprobe"
)

// SourceMediaInfo describes the input as far as progress reporting needs it.
type SourceMediaInfo struct {
	Format          string
	DurationSeconds float64
	BitRate         int64
	StreamCount     int
}

// SourceInfoFromProbe extracts SourceMediaInfo from an ffprobe result. A
// missing or unparseable duration becomes 0, which makes progress
// indeterminate rather than failing the job.
func SourceInfoFromProbe(result ffprobe.Result) SourceMediaInfo {
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		duration = 0
	}
	return SourceMediaInfo{
		Format:          result.Format.FormatName,
		DurationSeconds: duration,
		BitRate:         result.BitRate(),
		StreamCount:     result.StreamCount(),
	}
}
