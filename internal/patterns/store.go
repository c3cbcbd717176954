package patterns

import (
	"sync"
	"sync/atomic"
)

// Store owns the process-wide pattern table. The first Lookup loads the
// file lazily; the result (or the load error) is cached until Reload swaps
// in a fresh table. Readers never block on a reload: the active table is an
// atomic pointer and eventual consistency is fine for static reference data.
type Store struct {
	load func() (*Table, error)

	mu      sync.Mutex // serializes loads, not lookups
	loaded  bool
	loadErr error
	table   atomic.Pointer[Table]
}

// NewStore builds a Store around a loader, typically
// func() (*Table, error) { return LoadFile(path) }.
func NewStore(load func() (*Table, error)) *Store {
	return &Store{load: load}
}

// NewStaticStore wraps an already-built table; used by tests and by configs
// that inline their pattern entries.
func NewStaticStore(t *Table) *Store {
	s := &Store{loaded: true}
	s.table.Store(t)
	return s
}

// Lookup implements planner.PatternSource.
func (s *Store) Lookup(modelID string) (int, bool, error) {
	t, err := s.Table()
	if err != nil {
		return 0, false, err
	}
	n, ok := t.Match(modelID)
	return n, ok, nil
}

// Table returns the active table, loading it on first use.
func (s *Store) Table() (*Table, error) {
	if t := s.table.Load(); t != nil {
		return t, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		if s.loadErr != nil {
			return nil, s.loadErr
		}
		if t := s.table.Load(); t != nil {
			return t, nil
		}
	}
	t, err := s.load()
	s.loaded = true
	s.loadErr = err
	if err != nil {
		return nil, err
	}
	s.table.Store(t)
	return t, nil
}

// Reload re-runs the loader and swaps the active table. On failure the
// previous table stays active and the error is returned to the operator.
func (s *Store) Reload() error {
	if s.load == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.load()
	if err != nil {
		return err
	}
	s.loaded = true
	s.loadErr = nil
	s.table.Store(t)
	return nil
}
