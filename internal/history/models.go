package history

import (
	"time"

	"squeeze/internal/encoding"
)

// Entry is one finished encode.
type Entry struct {
	ID             int64
	SessionID      string
	Profile        string
	Codec          string
	Width          int
	Quality        int
	Preset         string
	SourcePath     string
	OutputPath     string
	SourceDuration float64
	Outcome        string
	Reason         string
	ExitCode       int
	SizeBytes      int64
	Diagnostic     string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Elapsed returns the wall time the encode took.
func (e Entry) Elapsed() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// FromSession builds an entry for a session that has reached a terminal state.
// ok is false while the session is still running.
func FromSession(s *encoding.Session, finishedAt time.Time) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	outcome, ok := s.Outcome()
	if !ok {
		return Entry{}, false
	}
	spec := s.Spec()
	entry := Entry{
		SessionID:      s.ID(),
		Profile:        s.Profile(),
		Codec:          spec.Codec,
		Width:          spec.Width,
		Quality:        spec.Quality,
		Preset:         spec.Preset.String(),
		SourcePath:     s.SourcePath(),
		OutputPath:     outcome.OutputPath,
		SourceDuration: s.Source().DurationSeconds,
		Outcome:        outcome.Kind.String(),
		Reason:         outcome.Reason,
		ExitCode:       outcome.ExitCode,
		SizeBytes:      outcome.SizeBytes,
		Diagnostic:     outcome.Diagnostic,
		StartedAt:      s.StartedAt(),
		FinishedAt:     finishedAt,
	}
	if entry.OutputPath == "" {
		entry.OutputPath = s.DestPath()
	}
	return entry, true
}
