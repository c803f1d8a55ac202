// Package lobby tracks the room list shown before a round is selected.
package lobby

import (
	"sort"
	"sync"
	"time"

	"github.com/mcdev12/bingosync/go/internal/models"
)

// Store holds the latest room list. Reads return copies.
type Store struct {
	mu        sync.RWMutex
	rooms     map[string]models.Room
	updatedAt time.Time
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]models.Room)}
}

// Replace swaps in a fresh room list. Discovered round ids survive when the
// new list does not carry one.
func (s *Store) Replace(rooms []models.Room, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]models.Room, len(rooms))
	for _, r := range rooms {
		if r.CurrentRoundID == 0 {
			if old, ok := s.rooms[r.RoomID]; ok {
				r.CurrentRoundID = old.CurrentRoundID
			}
		}
		next[r.RoomID] = r
	}
	s.rooms = next
	s.updatedAt = at
}

// SetCurrentRound records the discovered round of a room.
func (s *Store) SetCurrentRound(roomID string, roundID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[roomID]; ok {
		r.CurrentRoundID = roundID
		s.rooms[roomID] = r
	}
}

// Rooms returns the rooms ordered by id.
func (s *Store) Rooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Room looks up one room.
func (s *Store) Room(roomID string) (models.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[roomID]
	return r, ok
}

// UpdatedAt is when the list was last replaced.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
