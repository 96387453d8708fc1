package livechat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a RoomStore kept in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewMemoryStore creates a store holding copies of rooms.
func NewMemoryStore(rooms ...*Room) *MemoryStore {
	s := &MemoryStore{rooms: make(map[string]*Room, len(rooms))}
	for _, r := range rooms {
		s.rooms[r.ID] = r.Clone()
	}
	return s
}

// Put inserts or replaces a room.
func (s *MemoryStore) Put(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room.Clone()
}

// FindByID returns a copy of the room.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return r.Clone(), nil
}

// List returns copies of all rooms ordered by id.
func (s *MemoryStore) List() []*Room {
	s.mu.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// SetAutoTransferredAt marks the room as auto-transferred.
func (s *MemoryStore) SetAutoTransferredAt(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(r *Room) error {
		r.AutoTransferredAt = &at
		return nil
	})
}

// UnsetAutoTransferredAt clears the auto-transfer mark.
func (s *MemoryStore) UnsetAutoTransferredAt(_ context.Context, id string) error {
	return s.update(id, func(r *Room) error {
		r.AutoTransferredAt = nil
		return nil
	})
}

// SetServedBy assigns the room to agent. A nil agent unassigns it.
func (s *MemoryStore) SetServedBy(_ context.Context, id string, agent *Agent) error {
	return s.update(id, func(r *Room) error {
		if agent == nil {
			r.ServedBy = nil
			return nil
		}
		a := *agent
		r.ServedBy = &a
		return nil
	})
}

// Close marks the room as closed.
func (s *MemoryStore) Close(_ context.Context, id string) error {
	return s.update(id, func(r *Room) error {
		r.Open = false
		return nil
	})
}

func (s *MemoryStore) update(id string, fn func(*Room) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	return fn(r)
}

// Compile-time interface satisfaction check.
var _ RoomStore = (*MemoryStore)(nil)
