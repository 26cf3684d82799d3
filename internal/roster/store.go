// Package roster keeps the most recently loaded group roster per teacher.
// Each owner holds a single slot: loading a new group atomically replaces
// the previous one, so concurrent recognize calls always see a consistent
// snapshot of one group.
package roster

import (
	"sync"

	"github.com/campus-suite/attendance-api/internal/facerec"
)

// Snapshot is an immutable view of a loaded roster. Faces[i] belongs to
// StudentIDs[i]; order is the load order and is what breaks match ties.
type Snapshot struct {
	Group      string
	Faces      []facerec.Encoding
	StudentIDs []int64
}

// Empty reports whether the snapshot has no usable encodings.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Faces) == 0
}

// Store maps an owner (teacher user id) to their current roster snapshot.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*Snapshot
}

func NewStore() *Store {
	return &Store{slots: make(map[string]*Snapshot)}
}

// Replace installs a new snapshot for the owner, discarding any previous one.
func (s *Store) Replace(owner string, snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[owner] = snap
}

// Get returns the owner's current snapshot, or nil when nothing is loaded.
func (s *Store) Get(owner string) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[owner]
}

// Clear drops the owner's snapshot.
func (s *Store) Clear(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, owner)
}
