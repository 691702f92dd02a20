package records

import "time"

// PhaseRecord is one entry in an item's phase history. Re-running a phase
// replaces that phase's entry only; the rest of the history is untouched.
type PhaseRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	Result    map[string]any `json:"result,omitempty"`
}

// ItemState is the durable record for one item.
type ItemState struct {
	ID        string                 `json:"id"`
	Location  string                 `json:"location"`
	Status    string                 `json:"status"`
	AddedAt   time.Time              `json:"added_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Phases    map[string]PhaseRecord `json:"phases"`
}

// Statistics aggregates run counters for the session record.
type Statistics struct {
	Items  int            `json:"items"`
	Phases map[string]int `json:"phases,omitempty"`
	Errors int            `json:"errors"`
}

// SessionRecord is the singleton run-level record. It is created once and
// updated in place; checkpoints preserve historical snapshots.
type SessionRecord struct {
	SessionID      string     `json:"session_id"`
	LibraryRoot    string     `json:"library_root"`
	StartedAt      time.Time  `json:"started_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Statistics     Statistics `json:"statistics"`
	LastCheckpoint string     `json:"last_checkpoint,omitempty"`
}

// ErrorEntry is one line in the append-only error ledger.
type ErrorEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ItemID    string    `json:"item_id,omitempty"`
	Location  string    `json:"location"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
}

// Checkpoint is a write-once snapshot of the session plus the number of
// items known at the time it was taken.
type Checkpoint struct {
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	Session   SessionRecord `json:"session"`
	ItemCount int           `json:"item_count"`
}
