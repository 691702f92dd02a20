package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Enqueue inserts an album into the queue, or resets an existing entry when
// the same id is rediscovered (a full rescan returns terminal items to the
// start of the pipeline). Seq and added_at survive re-enqueues so insertion
// order stays stable.
func (s *Store) Enqueue(ctx context.Context, id, location string, status Status, priority Priority, metadata map[string]any) (*Item, error) {
	if id == "" {
		return nil, errors.New("item id must not be empty")
	}
	if location == "" {
		return nil, errors.New("item location must not be empty")
	}
	if _, ok := statusSet[status]; !ok {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	metadataJSON, err := marshalMetadata(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (item_id, location, status, priority, metadata_json, added_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(item_id) DO UPDATE SET
             location = excluded.location,
             status = excluded.status,
             priority = excluded.priority,
             metadata_json = excluded.metadata_json,
             updated_at = excluded.updated_at`,
		id,
		location,
		status,
		int(priority),
		metadataJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue item: %w", err)
	}

	return s.Get(ctx, id)
}

// Get fetches a queue item by identifier. Returns nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE item_id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// UpdateStatus sets an item's status and shallow-merges patch into its
// metadata map on top-level keys. It performs no transition legality checks;
// the orchestrator owns edge semantics. Returns ErrNotFound for unknown ids.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, patch map[string]any) error {
	if _, ok := statusSet[status]; !ok {
		return fmt.Errorf("unknown status %q", status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var metadataJSON sql.NullString
	row := tx.QueryRowContext(ctx, `SELECT metadata_json FROM queue_items WHERE item_id = ?`, id)
	if err := row.Scan(&metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("load metadata: %w", err)
	}

	merged := unmarshalMetadata(metadataJSON.String)
	for key, value := range patch {
		merged[key] = value
	}
	mergedJSON, err := marshalMetadata(merged)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE queue_items SET status = ?, metadata_json = ?, updated_at = ? WHERE item_id = ?`,
		status,
		mergedJSON,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// UpdatePriority changes an item's processing priority. Returns ErrNotFound
// for unknown ids.
func (s *Store) UpdatePriority(ctx context.Context, id string, priority Priority) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET priority = ?, updated_at = ? WHERE item_id = ?`,
		int(priority),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update priority: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Relocate updates an item's location after a rename so later phases
// operate on the current path. Returns ErrNotFound for unknown ids.
func (s *Store) Relocate(ctx context.Context, id, location string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET location = ?, updated_at = ? WHERE item_id = ?`,
		location,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("relocate: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ItemsByStatus returns items matching a status ordered by priority
// descending, ties broken by insertion order. The ordering is deterministic
// so batch runs are reproducible.
func (s *Store) ItemsByStatus(ctx context.Context, status Status) ([]*Item, error) {
	return s.List(ctx, status)
}

// ReadyToFix returns the union of validated and approved items in drain order.
func (s *Store) ReadyToFix(ctx context.Context) ([]*Item, error) {
	return s.List(ctx, StatusValidated, StatusApproved)
}

// ReviewQueue returns items awaiting human adjudication in drain order.
func (s *Store) ReviewQueue(ctx context.Context) ([]*Item, error) {
	return s.List(ctx, StatusNeedsReview)
}

// List returns queue items filtered by status set (or all items when no
// status is provided), ordered by priority descending then insertion order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY priority DESC, seq`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE item_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}
