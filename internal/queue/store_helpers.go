package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const itemColumns = "seq, item_id, location, status, priority, metadata_json, added_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		seq          int64
		id           string
		location     string
		statusStr    string
		priority     int
		metadataJSON sql.NullString
		addedRaw     sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&seq,
		&id,
		&location,
		&statusStr,
		&priority,
		&metadataJSON,
		&addedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		Seq:      seq,
		ID:       id,
		Location: location,
		Status:   Status(statusStr),
		Priority: Priority(priority),
		Metadata: unmarshalMetadata(metadataJSON.String),
	}
	if added, err := parseTimeString(addedRaw.String); err == nil {
		item.AddedAt = added
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func marshalMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func unmarshalMetadata(data string) map[string]any {
	metadata := make(map[string]any)
	if data == "" {
		return metadata
	}
	_ = json.Unmarshal([]byte(data), &metadata)
	return metadata
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
