package queue

import (
	"context"
	"fmt"
)

// Counts returns the number of items per status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// Stats buckets status counts into pipeline stages. Buckets are derived from
// status counts on every call rather than tracked separately, so they cannot
// drift from the ledger.
func (s *Store) Stats(ctx context.Context) (Statistics, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{}
	for status, count := range counts {
		stats.Total += count
		switch status {
		case StatusDiscovered:
			stats.PendingScan += count
		case StatusScanned:
			stats.PendingValidation += count
		case StatusNeedsReview:
			stats.PendingReview += count
		case StatusValidated, StatusApproved:
			stats.PendingFix += count
		case StatusFixed, StatusVerified:
			stats.Completed += count
		case StatusFailed:
			stats.Failed += count
		case StatusRejected, StatusSkipped:
			stats.Skipped += count
		}
	}
	return stats, nil
}
