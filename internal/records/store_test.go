package records_test

import (
	"testing"

	"curator/internal/records"
	"curator/internal/testsupport"
)

func TestDeriveIDStable(t *testing.T) {
	a := records.DeriveID("/music/Nujabes/Modal Soul")
	b := records.DeriveID("/music/Nujabes/Modal Soul")
	if a != b {
		t.Fatalf("id not stable: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("id length = %d, want 12", len(a))
	}
	if a == records.DeriveID("/music/Nujabes/Metaphorical Music") {
		t.Fatal("distinct locations must not collide on these inputs")
	}
}

func TestSaveItemStateIdempotent(t *testing.T) {
	store := testsupport.MustOpenRecords(t)

	location := "/music/Various/Buddha-Bar VII"
	result := map[string]any{"confidence": 1.0, "classification": "auto_approved"}

	first, err := store.SaveItemState(location, "validated", result)
	if err != nil {
		t.Fatalf("SaveItemState: %v", err)
	}
	second, err := store.SaveItemState(location, "validated", result)
	if err != nil {
		t.Fatalf("SaveItemState again: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("id changed across saves: %q vs %q", first.ID, second.ID)
	}
	if second.Status != "validated" {
		t.Fatalf("status = %q, want validated", second.Status)
	}
	if got := second.Phases["validated"].Result["classification"]; got != "auto_approved" {
		t.Fatalf("phase result = %v", got)
	}
	if len(second.Phases) != 1 {
		t.Fatalf("phase history length = %d, want 1", len(second.Phases))
	}
}

func TestSaveItemStateKeepsPhaseHistory(t *testing.T) {
	store := testsupport.MustOpenRecords(t)

	location := "/music/Nujabes/Modal Soul"
	if _, err := store.SaveItemState(location, "scanned", map[string]any{"tracks": 14}); err != nil {
		t.Fatal(err)
	}
	state, err := store.SaveItemState(location, "validated", map[string]any{"confidence": 0.97})
	if err != nil {
		t.Fatal(err)
	}

	if state.Status != "validated" {
		t.Fatalf("status = %q", state.Status)
	}
	if _, ok := state.Phases["scanned"]; !ok {
		t.Fatal("scanned phase entry lost")
	}
	if _, ok := state.Phases["validated"]; !ok {
		t.Fatal("validated phase entry missing")
	}
}

func TestGetItemStateAbsent(t *testing.T) {
	store := testsupport.MustOpenRecords(t)

	state, err := store.GetItemState("/never/seen")
	if err != nil {
		t.Fatalf("GetItemState: %v", err)
	}
	if state != nil {
		t.Fatalf("expected nil for unseen location, got %+v", state)
	}
	status, err := store.GetStatus("/never/seen")
	if err != nil || status != "" {
		t.Fatalf("GetStatus = (%q, %v), want empty", status, err)
	}
}

func TestLogErrorAppendsAndCounts(t *testing.T) {
	store := testsupport.MustOpenRecords(t)

	if err := store.LogError("/music/a", "not_found", "no candidates"); err != nil {
		t.Fatalf("LogError: %v", err)
	}
	if err := store.LogError("/music/b", "storage_failure", "rename failed"); err != nil {
		t.Fatalf("LogError: %v", err)
	}

	entries, err := store.Errors()
	if err != nil {
		t.Fatalf("Errors: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger length = %d, want 2", len(entries))
	}
	if entries[0].Kind != "not_found" || entries[1].Kind != "storage_failure" {
		t.Fatalf("ledger order wrong: %+v", entries)
	}
	if got := store.Session().Statistics.Errors; got != 2 {
		t.Fatalf("session error counter = %d, want 2", got)
	}
}

func TestCheckpointSnapshotsSession(t *testing.T) {
	store := testsupport.MustOpenRecords(t)

	if _, err := store.SaveItemState("/music/one", "scanned", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveItemState("/music/two", "scanned", nil); err != nil {
		t.Fatal(err)
	}

	checkpoint, err := store.CreateCheckpoint()
	if err != nil {
		t.Fatalf("CreateCheckpoint: %v", err)
	}
	if checkpoint.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", checkpoint.ItemCount)
	}
	if store.Session().LastCheckpoint != checkpoint.Name {
		t.Fatalf("session last_checkpoint = %q, want %q", store.Session().LastCheckpoint, checkpoint.Name)
	}

	listed, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != checkpoint.Name {
		t.Fatalf("listed checkpoints = %+v", listed)
	}
}

func TestListItemStates(t *testing.T) {
	store := testsupport.MustOpenRecords(t)

	locations := []string{"/music/a", "/music/b", "/music/c"}
	for _, loc := range locations {
		if _, err := store.SaveItemState(loc, "discovered", nil); err != nil {
			t.Fatal(err)
		}
	}

	states, err := store.ListItemStates()
	if err != nil {
		t.Fatalf("ListItemStates: %v", err)
	}
	if len(states) != len(locations) {
		t.Fatalf("listed %d states, want %d", len(states), len(locations))
	}
	for i := 1; i < len(states); i++ {
		if states[i-1].ID >= states[i].ID {
			t.Fatal("listing not ordered by id")
		}
	}
}
