package storage

import (
	"sync"

	"github.com/google/btree"
)

// MemoryStore implements Backend on an ordered in-process tree.
// Readers share the guard; writers hold it exclusively.
type MemoryStore struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

type item struct {
	key   string
	value string
}

func (i *item) Less(than btree.Item) bool {
	return i.key < than.(*item).key
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tree: btree.New(32),
	}
}

// lookupLocked returns the current value of key. Caller holds mu.
func (s *MemoryStore) lookupLocked(key string) (string, bool) {
	i := s.tree.Get(&item{key: key})
	if i == nil {
		return "", false
	}
	return i.(*item).value, true
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tree.Clear(false)
	return nil
}

func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.lookupLocked(key)
	if !ok {
		return "", recordError(ErrRecordMissing, key)
	}
	return value, nil
}

func (s *MemoryStore) Insert(key, value string) error {
	if err := checkValue(key, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookupLocked(key); ok {
		return recordError(ErrRecordAlreadyExists, key)
	}
	s.tree.ReplaceOrInsert(&item{key: key, value: value})
	return nil
}

func (s *MemoryStore) Delete(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.tree.Delete(&item{key: key})
	if removed == nil {
		return "", recordError(ErrRecordAlreadyMissing, key)
	}
	return removed.(*item).value, nil
}

func (s *MemoryStore) Update(key, value string) error {
	if err := checkValue(key, value); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lookupLocked(key)
	if !ok {
		return recordError(ErrRecordMissing, key)
	}
	if current == value {
		return recordError(ErrRecordAlreadyExistsIdentical, key)
	}
	s.tree.ReplaceOrInsert(&item{key: key, value: value})
	return nil
}

func (s *MemoryStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len(), nil
}

