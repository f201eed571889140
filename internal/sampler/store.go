package sampler

import (
	"sync"

	"procscope/internal/model"
)

// Store is the handoff point between the sampling goroutine and any
// number of readers. Snapshots are immutable once published, so Get
// hands out the stored value directly; the lock covers only the swap,
// never any I/O.
type Store struct {
	mu   sync.RWMutex
	snap model.Snapshot
}

// NewStore returns a store primed with the zero snapshot, so readers
// that arrive before the first cycle still see a well-formed value.
func NewStore() *Store {
	return &Store{snap: model.Zero()}
}

// Get returns the most recently published snapshot.
func (s *Store) Get() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Replace publishes a snapshot, making it visible to all readers.
func (s *Store) Replace(snap model.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
}
