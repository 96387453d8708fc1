package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// MonitorState is the saved state of the auto-transfer monitor.
type MonitorState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was saved.
	SavedAt time.Time `json:"saved_at"`

	// Timeout is the configured timeout when the state was saved.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Pending holds one entry per room with an armed timer.
	Pending []PendingTransfer `json:"pending,omitempty"`
}

// PendingTransfer is one armed timer.
type PendingTransfer struct {
	// RoomID is the monitored room.
	RoomID string `json:"room_id"`

	// ScheduledAt is when the timer was armed.
	ScheduledAt time.Time `json:"scheduled_at"`

	// Deadline is when the timer fires.
	Deadline time.Time `json:"deadline"`

	// Remaining is how much time was left when saved.
	Remaining time.Duration `json:"remaining"`

	// TransferredBy is the agent serving the room when the timer was
	// armed. Empty when the room was unserved.
	TransferredBy string `json:"transferred_by,omitempty"`
}

// StateStore persists MonitorState to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a store for path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save writes the state, creating parent directories as needed. The file
// is replaced atomically.
func (s *StateStore) Save(state *MonitorState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the state. It returns nil, nil if the file does not exist.
func (s *StateStore) Load() (*MonitorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &MonitorState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("state file version %d is newer than supported version %d", state.Version, StateVersion)
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
