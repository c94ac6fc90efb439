package sim

import "sync"

// Store holds the latest reading per source. Writes replace the prior value
// atomically; Snapshot returns a consistent copy so readers never observe a
// torn record. The critical section does no I/O.
type Store struct {
	mu     sync.RWMutex
	latest map[string]Reading
}

func NewStore() *Store {
	return &Store{latest: make(map[string]Reading)}
}

// Write replaces the stored reading for the reading's source.
func (s *Store) Write(r Reading) {
	s.mu.Lock()
	s.latest[r.Source] = r
	s.mu.Unlock()
}

// Latest returns the stored reading for one source.
func (s *Store) Latest(source string) (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.latest[source]
	return r, ok
}

// Snapshot returns a copy of all sources' latest readings.
func (s *Store) Snapshot() map[string]Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Reading, len(s.latest))
	for k, v := range s.latest {
		out[k] = v
	}
	return out
}
