package encoding

import (
	"fmt"
	"strings"

	"squeeze/internal/services"
)

// OutcomeKind classifies how a session ended.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeCancelled
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Failure reasons reported in JobOutcome.Reason.
const (
	ReasonExitCode      = "exit_code"
	ReasonSignal        = "signal"
	ReasonOutputMissing = "output_missing"
	ReasonWaitError     = "wait_error"
	// ReasonPromoteFailed is set by callers when a finished output could not
	// be moved to its final location.
	ReasonPromoteFailed = "promote_failed"
)

// JobOutcome is the terminal result of a session.
type JobOutcome struct {
	Kind OutcomeKind
	// OutputPath and SizeBytes are set only on success.
	OutputPath string
	SizeBytes  int64
	// ExitCode is the encoder exit status (-1 when it died from a signal).
	ExitCode int
	// Reason and Diagnostic are set only on failure.
	Reason     string
	Diagnostic string
}

// Succeeded reports whether the destination file can be trusted.
func (o JobOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// Err converts a failed outcome into an error; it returns nil otherwise.
func (o JobOutcome) Err() error {
	if o.Kind != OutcomeFailed {
		return nil
	}
	return &EncoderFailure{Code: o.ExitCode, Reason: o.Reason, Diagnostic: o.Diagnostic}
}

// EncoderFailure is the error form of a failed outcome. It matches
// services.ErrExternalTool with errors.Is.
type EncoderFailure struct {
	Code       int
	Reason     string
	Diagnostic string
}

func (e *EncoderFailure) Error() string {
	var msg string
	switch e.Reason {
	case ReasonOutputMissing:
		msg = "encoder reported success but produced no output"
	case ReasonSignal:
		msg = "encoder terminated by signal"
	case ReasonWaitError:
		msg = "encoder wait failed"
	case ReasonPromoteFailed:
		msg = "encoded output could not be moved into place"
	default:
		msg = fmt.Sprintf("encoder exited with code %d", e.Code)
	}
	if last := lastLine(e.Diagnostic); last != "" {
		msg += ": " + last
	}
	return msg
}

func (e *EncoderFailure) Unwrap() error {
	return services.ErrExternalTool
}

func lastLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.LastIndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[idx+1:])
	}
	return text
}
