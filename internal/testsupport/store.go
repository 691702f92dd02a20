package testsupport

import (
	"testing"

	"curator/internal/config"
	"curator/internal/queue"
	"curator/internal/records"
)

// MustOpenQueue opens a queue store against a fresh test config and closes
// it when the test finishes.
func MustOpenQueue(t testing.TB, opts ...ConfigOption) *queue.Store {
	t.Helper()
	return MustOpenQueueWith(t, NewConfig(t, opts...))
}

// MustOpenQueueWith opens a queue store against the provided config.
func MustOpenQueueWith(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close queue store: %v", err)
		}
	})
	return store
}

// MustOpenRecords opens a record store against a fresh test config.
func MustOpenRecords(t testing.TB, opts ...ConfigOption) *records.Store {
	t.Helper()
	return MustOpenRecordsWith(t, NewConfig(t, opts...))
}

// MustOpenRecordsWith opens a record store against the provided config.
func MustOpenRecordsWith(t testing.TB, cfg *config.Config) *records.Store {
	t.Helper()
	store, err := records.Open(cfg)
	if err != nil {
		t.Fatalf("open record store: %v", err)
	}
	return store
}
