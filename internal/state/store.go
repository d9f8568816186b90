package state

import "sync"

// StoreImpl is a thread-safe in-memory Store.
type StoreImpl struct {
	mu       sync.RWMutex
	snapshot Snapshot
	updates  int
}

// NewStore creates a store reporting target as UNKNOWN until the first publish.
func NewStore(target string) *StoreImpl {
	return &StoreImpl{snapshot: Snapshot{Target: target, Status: StatusUnknown}}
}

// Publish replaces the stored snapshot.
func (s *StoreImpl) Publish(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot
	s.updates++
}

// GetSnapshot returns a copy of the latest snapshot.
func (s *StoreImpl) GetSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Updates returns how many snapshots have been published.
func (s *StoreImpl) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}
