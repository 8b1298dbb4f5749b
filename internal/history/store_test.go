package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"squeeze/internal/history"
	"squeeze/internal/services"
	"squeeze/internal/testsupport"
)

func sampleEntry(id, outcome string, finished time.Time) history.Entry {
	return history.Entry{
		SessionID:      id,
		Profile:        "H264 480p",
		Codec:          "libx264",
		Width:          480,
		Quality:        24,
		Preset:         "medium",
		SourcePath:     "/media/in.mkv",
		OutputPath:     "/media/out.mp4",
		SourceDuration: 120,
		Outcome:        outcome,
		StartedAt:      finished.Add(-time.Minute),
		FinishedAt:     finished,
	}
}

func TestRecordAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	finished := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := sampleEntry("session-1", "failed", finished)
	entry.Reason = "exit_code"
	entry.ExitCode = 1
	entry.Diagnostic = "Unknown encoder 'libx264'"

	id, err := store.Record(ctx, entry)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == 0 {
		t.Fatal("expected row id to be assigned")
	}

	got, err := store.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry")
	}
	if got.ID != id || got.Reason != "exit_code" || got.ExitCode != 1 || got.Diagnostic != entry.Diagnostic {
		t.Fatalf("unexpected entry: %#v", got)
	}
	if !got.FinishedAt.Equal(finished) {
		t.Fatalf("finished_at round trip: got %s want %s", got.FinishedAt, finished)
	}
	if got.Elapsed() != time.Minute {
		t.Fatalf("unexpected elapsed: %s", got.Elapsed())
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown session, got %#v %v", missing, err)
	}
}

func TestRecordRejectsDuplicatesAndBlankIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	if _, err := store.Record(ctx, history.Entry{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	entry := sampleEntry("dup", "success", time.Now())
	if _, err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Record(ctx, entry); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict on duplicate session, got %v", err)
	}
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	outcomes := []string{"success", "failed", "cancelled", "success"}
	for i, outcome := range outcomes {
		// Sub-second offsets exercise the fixed-width timestamp ordering.
		finished := base.Add(time.Duration(i) * 150 * time.Millisecond)
		if _, err := store.Record(ctx, sampleEntry(outcome+"-"+string(rune('a'+i)), outcome, finished)); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].FinishedAt.After(all[i-1].FinishedAt) {
			t.Fatalf("entries not newest first: %s before %s", all[i-1].FinishedAt, all[i].FinishedAt)
		}
	}

	limited, err := store.List(ctx, 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("expected 2 entries with limit, got %d (%v)", len(limited), err)
	}

	successes, err := store.List(ctx, 0, "success")
	if err != nil {
		t.Fatalf("List success: %v", err)
	}
	if len(successes) != 2 {
		t.Fatalf("expected 2 successes, got %d", len(successes))
	}

	mixed, err := store.List(ctx, 0, "failed", "cancelled")
	if err != nil || len(mixed) != 2 {
		t.Fatalf("expected 2 failed/cancelled, got %d (%v)", len(mixed), err)
	}
}

func TestClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := store.Record(ctx, sampleEntry(id, "success", time.Now())); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	entries, err := store.List(ctx, 0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty history, got %d (%v)", len(entries), err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := history.Open(" "); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
