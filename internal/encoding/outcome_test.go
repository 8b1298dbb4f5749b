package encoding

import (
	"errors"
	"strings"
	"testing"

	"squeeze/internal/media/ffprobe"
	"squeeze/internal/services"
)

func TestOutcomeErr(t *testing.T) {
	if err := (JobOutcome{Kind: OutcomeSuccess}).Err(); err != nil {
		t.Fatalf("success must not produce an error, got %v", err)
	}
	if err := (JobOutcome{Kind: OutcomeCancelled}).Err(); err != nil {
		t.Fatalf("cancel must not produce an error, got %v", err)
	}
	failed := JobOutcome{Kind: OutcomeFailed, ExitCode: 1, Reason: ReasonExitCode, Diagnostic: "first\nUnknown encoder 'libx264'"}
	err := failed.Err()
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	var failure *EncoderFailure
	if !errors.As(err, &failure) || failure.Code != 1 {
		t.Fatalf("expected EncoderFailure with code 1, got %#v", err)
	}
	if !strings.Contains(err.Error(), "Unknown encoder 'libx264'") || strings.Contains(err.Error(), "first") {
		t.Fatalf("error should quote only the last diagnostic line: %q", err.Error())
	}
	if services.Kind(err) != "external_tool" {
		t.Fatalf("unexpected kind %q", services.Kind(err))
	}
}

func TestEncoderFailureMessages(t *testing.T) {
	cases := map[string]string{
		ReasonOutputMissing: "produced no output",
		ReasonSignal:        "terminated by signal",
		ReasonWaitError:     "wait failed",
		ReasonPromoteFailed: "moved into place",
		ReasonExitCode:      "exited with code 3",
	}
	for reason, want := range cases {
		err := (&EncoderFailure{Code: 3, Reason: reason}).Error()
		if !strings.Contains(err, want) {
			t.Fatalf("reason %s: %q missing %q", reason, err, want)
		}
	}
}

func TestOutcomeKindString(t *testing.T) {
	if OutcomeSuccess.String() != "success" || OutcomeCancelled.String() != "cancelled" || OutcomeFailed.String() != "failed" {
		t.Fatal("unexpected outcome names")
	}
	if StateRunning.String() != "running" || !StateFailed.Terminal() || StateRunning.Terminal() {
		t.Fatal("unexpected state helpers")
	}
}

func TestSourceInfoFromProbe(t *testing.T) {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video"}, {CodecType: "audio"}},
		Format:  ffprobe.Format{FormatName: "mov,mp4,m4a", Duration: "120.5", BitRate: "800000"},
	}
	info := SourceInfoFromProbe(result)
	if info.Format != "mov,mp4,m4a" || info.DurationSeconds != 120.5 || info.BitRate != 800000 || info.StreamCount != 2 {
		t.Fatalf("unexpected info: %+v", info)
	}
	result.Format.Duration = "N/A"
	if got := SourceInfoFromProbe(result).DurationSeconds; got != 0 {
		t.Fatalf("unparseable duration should become 0, got %v", got)
	}
}
