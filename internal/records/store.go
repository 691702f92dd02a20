package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"curator/internal/config"
	"curator/internal/fileutil"
)

const (
	itemsDirName       = "items"
	checkpointsDirName = "checkpoints"
	sessionFileName    = "session.json"
	errorLedgerName    = "errors.log"
)

// Store persists item records, the session record, the error ledger, and
// checkpoints under a single directory. Safe for concurrent use; writers
// for distinct items do not block each other beyond the store mutex.
type Store struct {
	mu      sync.Mutex
	dir     string
	session SessionRecord
}

// Open prepares the record store under the configured state directory and
// loads or creates the session record.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("records: config is required")
	}
	dir := filepath.Join(cfg.Paths.StateDir, "records")
	for _, sub := range []string{dir, filepath.Join(dir, itemsDirName), filepath.Join(dir, checkpointsDirName)} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return nil, fmt.Errorf("records: create %s: %w", sub, err)
		}
	}

	store := &Store{dir: dir}
	if err := store.loadOrCreateSession(cfg.Paths.LibraryDir); err != nil {
		return nil, err
	}
	return store, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) itemPath(id string) string {
	return filepath.Join(s.dir, itemsDirName, id+".json")
}

func (s *Store) sessionPath() string {
	return filepath.Join(s.dir, sessionFileName)
}

// SaveItemState records the outcome of a phase for the item at location.
// The record's status becomes the phase name and the phase history gains
// (or replaces) that phase's entry. Saving the same phase and result twice
// leaves the record unchanged apart from timestamps.
func (s *Store) SaveItemState(location, phase string, result map[string]any) (*ItemState, error) {
	phase = strings.ToLower(strings.TrimSpace(phase))
	if phase == "" {
		return nil, errors.New("records: phase is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := DeriveID(location)
	state, err := s.readItem(id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	created := false
	if state == nil {
		created = true
		state = &ItemState{
			ID:       id,
			Location: location,
			AddedAt:  now,
			Phases:   map[string]PhaseRecord{},
		}
	}
	if state.Phases == nil {
		state.Phases = map[string]PhaseRecord{}
	}

	state.Status = phase
	state.UpdatedAt = now
	state.Phases[phase] = PhaseRecord{Timestamp: now, Result: result}

	if err := s.writeJSON(s.itemPath(id), state); err != nil {
		return nil, fmt.Errorf("records: save item %s: %w", id, err)
	}

	if created {
		s.session.Statistics.Items++
	}
	if s.session.Statistics.Phases == nil {
		s.session.Statistics.Phases = map[string]int{}
	}
	s.session.Statistics.Phases[phase]++
	if err := s.writeSessionLocked(); err != nil {
		return nil, err
	}
	return state, nil
}

// GetItemState returns the record for the item at location, or nil if the
// item has never been seen.
func (s *Store) GetItemState(location string) (*ItemState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readItem(DeriveID(location))
}

// GetStatus returns the last recorded status for the item at location, or
// the empty string if the item has never been seen.
func (s *Store) GetStatus(location string) (string, error) {
	state, err := s.GetItemState(location)
	if err != nil || state == nil {
		return "", err
	}
	return state.Status, nil
}

// ListItemStates returns every persisted item record, ordered by id. The
// work queue's index can be rebuilt entirely from this listing.
func (s *Store) ListItemStates() ([]*ItemState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, itemsDirName))
	if err != nil {
		return nil, fmt.Errorf("records: list items: %w", err)
	}
	states := make([]*ItemState, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		state, err := s.readItem(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		if state != nil {
			states = append(states, state)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].ID < states[j].ID })
	return states, nil
}

// LogError appends an entry to the error ledger and bumps the session error
// counter. Ledger failures are returned but must not block the caller's own
// status transition.
func (s *Store) LogError(location, kind, message string) error {
	entry := ErrorEntry{
		Timestamp: time.Now().UTC(),
		ItemID:    DeriveID(location),
		Location:  location,
		Kind:      kind,
		Message:   message,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("records: encode error entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(filepath.Join(s.dir, errorLedgerName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("records: open error ledger: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("records: append error ledger: %w", err)
	}

	s.session.Statistics.Errors++
	return s.writeSessionLocked()
}

// Errors reads back the full error ledger in append order.
func (s *Store) Errors() ([]ErrorEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, errorLedgerName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("records: read error ledger: %w", err)
	}
	var entries []ErrorEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry ErrorEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("records: decode error entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Session returns a copy of the current session record.
func (s *Store) Session() SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// TouchSession stamps the session's updated_at and persists it.
func (s *Store) TouchSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeSessionLocked()
}

func (s *Store) loadOrCreateSession(libraryRoot string) error {
	data, err := os.ReadFile(s.sessionPath())
	if err == nil {
		if err := json.Unmarshal(data, &s.session); err != nil {
			return fmt.Errorf("records: decode session: %w", err)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("records: read session: %w", err)
	}

	now := time.Now().UTC()
	s.session = SessionRecord{
		SessionID:   uuid.NewString(),
		LibraryRoot: libraryRoot,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	return s.writeSessionLocked()
}

func (s *Store) writeSessionLocked() error {
	s.session.UpdatedAt = time.Now().UTC()
	if err := s.writeJSON(s.sessionPath(), &s.session); err != nil {
		return fmt.Errorf("records: save session: %w", err)
	}
	return nil
}

func (s *Store) readItem(id string) (*ItemState, error) {
	data, err := os.ReadFile(s.itemPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("records: read item %s: %w", id, err)
	}
	var state ItemState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("records: decode item %s: %w", id, err)
	}
	return &state, nil
}

func (s *Store) writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644)
}
