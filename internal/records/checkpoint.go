package records

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// CreateCheckpoint snapshots the current session record plus a count of
// known items into a timestamp-named artifact. Checkpoints are write-once;
// an existing file with the same name is never overwritten.
func (s *Store) CreateCheckpoint() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, itemsDirName))
	if err != nil {
		return nil, fmt.Errorf("records: count items: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			count++
		}
	}

	now := time.Now().UTC()
	checkpoint := Checkpoint{
		Name:      "checkpoint-" + now.Format("20060102T150405.000000000Z"),
		CreatedAt: now,
		Session:   s.session,
		ItemCount: count,
	}

	data, err := json.MarshalIndent(&checkpoint, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("records: encode checkpoint: %w", err)
	}
	path := filepath.Join(s.dir, checkpointsDirName, checkpoint.Name+".json")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("records: create checkpoint: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("records: write checkpoint: %w", err)
	}

	s.session.LastCheckpoint = checkpoint.Name
	if err := s.writeSessionLocked(); err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

// ListCheckpoints returns all checkpoints in creation order. Checkpoint
// names embed their timestamp, so lexical order is chronological order.
func (s *Store) ListCheckpoints() ([]Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, checkpointsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("records: list checkpoints: %w", err)
	}

	var checkpoints []Checkpoint
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("records: read checkpoint %s: %w", entry.Name(), err)
		}
		var checkpoint Checkpoint
		if err := json.Unmarshal(data, &checkpoint); err != nil {
			return nil, fmt.Errorf("records: decode checkpoint %s: %w", entry.Name(), err)
		}
		checkpoints = append(checkpoints, checkpoint)
	}
	sort.Slice(checkpoints, func(i, j int) bool { return checkpoints[i].Name < checkpoints[j].Name })
	return checkpoints, nil
}
