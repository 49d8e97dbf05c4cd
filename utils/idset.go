package utils

import (
	"sort"
	"sync"
)

// IDSet is a thread-safe set of listing identifiers.
type IDSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewIDSet creates a set holding the given ids. Empty ids are ignored.
func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add returns true if the id was newly added, false if already present.
func (s *IDSet) Add(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[id]; exists {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Contains returns true if the id is in the set.
func (s *IDSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[id]
	return exists
}

// Size returns the number of ids tracked.
func (s *IDSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Union returns a new set holding the ids of both sets.
func (s *IDSet) Union(other *IDSet) *IDSet {
	out := NewIDSet(s.Sorted()...)
	for _, id := range other.Sorted() {
		out.Add(id)
	}
	return out
}

// Difference returns a new set holding the ids of s that are not in other.
func (s *IDSet) Difference(other *IDSet) *IDSet {
	out := NewIDSet()
	for _, id := range s.Sorted() {
		if !other.Contains(id) {
			out.Add(id)
		}
	}
	return out
}

// Sorted returns the ids in lexical order.
func (s *IDSet) Sorted() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
