package services

import (
	"errors"
	"fmt"
	"strings"

	"curator/internal/queue"
)

var (
	// ErrNotFound marks lookups that produced no external match at all.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks inputs a phase refused to process.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration discovered at runtime.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternal marks failures of an external catalog or network call.
	ErrExternal = errors.New("external source error")
	// ErrStorage marks rename/copy/backup I/O failures on library media.
	ErrStorage = errors.New("storage error")
	// ErrPersistence marks queue or record store write failures. These are
	// fatal for the operation that hit them; silent data loss is worse than
	// an aborted run.
	ErrPersistence = errors.New("persistence error")
	// ErrTransient marks everything else recoverable.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes phase context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a phase error to the queue status the orchestrator
// should persist after the phase fails. Missing matches and validation
// problems need a human; everything else is a retryable failure.
func FailureStatus(err error) queue.Status {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return queue.StatusNeedsReview
	default:
		return queue.StatusFailed
	}
}

// IsFatal reports whether an error must abort the whole run rather than be
// absorbed as a per-item failure.
func IsFatal(err error) bool {
	return errors.Is(err, ErrPersistence)
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
