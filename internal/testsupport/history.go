package testsupport

import (
	"testing"

	"squeeze/internal/config"
	"squeeze/internal/history"
)

// MustOpenHistory opens the history database configured in cfg and closes it
// when the test finishes.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
