// Package memstore provides an in-memory implementation of vuln.Store.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/linnemanlabs/warden/internal/vuln"
)

// Store holds vulnerability records in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	records map[string]*vuln.Record // record ID -> record
	order   []string                // insertion order of IDs
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		records: make(map[string]*vuln.Record),
	}
}

// List returns copies of all records in insertion order.
func (s *Store) List(_ context.Context) ([]vuln.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]vuln.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.records[id])
	}
	return out, nil
}

// Get retrieves a record by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*vuln.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// Put stores a copy of the record, keeping the original position on update.
func (s *Store) Put(_ context.Context, r *vuln.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

// Delete removes a record, reporting whether it was present.
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true, nil
}
