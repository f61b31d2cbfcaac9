package trace

import (
	"sort"
	"sync"
)

// Store keeps execution traces for the lifetime of the process.
//
// All access goes through a single RWMutex; every read/modify/write cycle
// happens inside one method call, so concurrent pipeline runs cannot lose
// updates. Nothing is evicted and nothing survives a restart.
type Store struct {
	mu     sync.RWMutex
	traces map[string]*ExecutionTrace
}

// NewStore creates an empty trace store.
func NewStore() *Store {
	return &Store{traces: make(map[string]*ExecutionTrace)}
}

// Put inserts or replaces a trace keyed by its id.
func (s *Store) Put(t *ExecutionTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces[t.TraceID] = t
}

// Get returns the trace with the given id, or false if absent.
func (s *Store) Get(id string) (*ExecutionTrace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traces[id]
	return t, ok
}

// All returns every stored trace in unspecified order.
func (s *Store) All() []*ExecutionTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ExecutionTrace, 0, len(s.traces))
	for _, t := range s.traces {
		out = append(out, t)
	}
	return out
}

// Recent returns up to n traces sorted by start time, newest first.
func (s *Store) Recent(n int) []*ExecutionTrace {
	all := s.All()
	sort.Slice(all, func(i, j int) bool {
		return all[i].StartedAt.After(all[j].StartedAt)
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Len returns the number of stored traces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}

// Clear removes every stored trace.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traces = make(map[string]*ExecutionTrace)
}
