package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusDiscovered  Status = "discovered"
	StatusScanned     Status = "scanned"
	StatusValidated   Status = "validated"
	StatusNeedsReview Status = "needs_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusFixed       Status = "fixed"
	StatusVerified    Status = "verified"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"
)

var allStatuses = []Status{
	StatusDiscovered,
	StatusScanned,
	StatusValidated,
	StatusNeedsReview,
	StatusApproved,
	StatusRejected,
	StatusFixed,
	StatusVerified,
	StatusFailed,
	StatusSkipped,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Terminal statuses for a pass. A later full rescan may reset a terminal
// item back to StatusDiscovered; nothing else revives it.
var terminalStatuses = map[Status]struct{}{
	StatusVerified: {},
	StatusRejected: {},
	StatusFailed:   {},
	StatusSkipped:  {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the item's current pass.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// Priority orders queue processing. Higher values drain first.
type Priority int

const (
	PriorityLow      Priority = 0
	PriorityNormal   Priority = 1
	PriorityHigh     Priority = 2
	PriorityCritical Priority = 3
)

// ParsePriority converts a string into a known Priority.
func ParsePriority(value string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return PriorityLow, true
	case "normal":
		return PriorityNormal, true
	case "high":
		return PriorityHigh, true
	case "critical":
		return PriorityCritical, true
	default:
		return PriorityNormal, false
	}
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "normal"
	}
}

// PriorityForIssueCount maps scanner issue counts to processing priority:
// messier albums drain first.
func PriorityForIssueCount(count int) Priority {
	switch {
	case count >= 5:
		return PriorityHigh
	case count >= 2:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// Item represents a queue item persisted in SQLite. Seq preserves insertion
// order and breaks priority ties deterministically.
type Item struct {
	Seq       int64
	ID        string
	Location  string
	Status    Status
	Priority  Priority
	Metadata  map[string]any
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Statistics buckets queue contents by pipeline stage. Derived purely from
// status counts so it can never drift from the ledger.
type Statistics struct {
	Total             int
	PendingScan       int
	PendingValidation int
	PendingReview     int
	PendingFix        int
	Completed         int
	Failed            int
	Skipped           int
}
