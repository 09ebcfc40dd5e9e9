package report

import (
	"container/list"
	"sync"
)

// LRUStore keeps the most recently used records in memory and writes
// through to a backing Store.
type LRUStore struct {
	mu    sync.Mutex
	size  int
	back  Store
	order *list.List // front is most recent; values are *Record
	index map[string]*list.Element
}

// NewLRUStore creates a cache holding up to size records. back may be nil
// for a purely in-memory store.
func NewLRUStore(size int, back Store) *LRUStore {
	if size < 1 {
		size = 1
	}
	return &LRUStore{
		size:  size,
		back:  back,
		order: list.New(),
		index: make(map[string]*list.Element, size),
	}
}

// Save implements Store.
func (s *LRUStore) Save(rec *Record) error {
	s.put(rec)
	if s.back == nil {
		return nil
	}
	return s.back.Save(rec)
}

// Load implements Store. Misses are read from the backing store and
// cached.
func (s *LRUStore) Load(runID string) (*Record, error) {
	s.mu.Lock()
	if el, ok := s.index[runID]; ok {
		s.order.MoveToFront(el)
		rec := el.Value.(*Record)
		s.mu.Unlock()
		return rec, nil
	}
	s.mu.Unlock()

	if s.back == nil {
		return nil, ErrNotFound
	}
	rec, err := s.back.Load(runID)
	if err != nil {
		return nil, err
	}
	s.put(rec)
	return rec, nil
}

// Len returns the number of cached records.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *LRUStore) put(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.index[rec.ID]; ok {
		el.Value = rec
		s.order.MoveToFront(el)
		return
	}
	s.index[rec.ID] = s.order.PushFront(rec)
	for s.order.Len() > s.size {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.index, oldest.Value.(*Record).ID)
	}
}
