package ordkv

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
)

type memStore struct {
	mu     sync.RWMutex
	items  []memKV // sorted by key
	logger *slog.Logger
	closed bool
}

type memKV struct {
	key   []byte
	value []byte
}

// NewMemStore returns a transient in-memory Store keeping keys in a sorted
// slice. Scans iterate over a snapshot of the key index taken when the
// cursor is created, so a scan observes a consistent view regardless of
// concurrent writes. Intended for tests and small datasets.
func NewMemStore() Store {
	return &memStore{logger: slog.Default()}
}

func (s *memStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("ordkv: store closed")
	}
	i, ok := s.find(key)
	if !ok {
		return nil, nil
	}
	// Clone so callers cannot mutate the stored value, matching the bolt
	// adapter.
	return slices.Clone(s.items[i].value), nil
}

func (s *memStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("ordkv: store closed")
	}
	key = slices.Clone(key)
	value = slices.Clone(value)
	i, ok := s.find(key)
	if ok {
		s.items[i].value = value
		return nil
	}
	s.items = slices.Insert(s.items, i, memKV{key: key, value: value})
	return nil
}

func (s *memStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("ordkv: store closed")
	}
	i, ok := s.find(key)
	if !ok {
		return nil
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

func (s *memStore) Scan(rang RawRange) (*RawCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("ordkv: store closed")
	}
	// Shallow copy: keys and values are never mutated in place, only
	// replaced, so the snapshot stays consistent.
	snap := slices.Clone(s.items)
	return rang.newCursor(&memCursor{items: snap, pos: -1}, s.logger), nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.items = nil
	return nil
}

func (s *memStore) find(key []byte) (idx int, ok bool) {
	items := s.items
	i := sort.Search(len(items), func(i int) bool {
		return bytes.Compare(items[i].key, key) >= 0
	})
	if i < len(items) && bytes.Equal(items[i].key, key) {
		return i, true
	}
	return i, false
}

type memCursor struct {
	items []memKV
	pos   int
}

func (c *memCursor) First() ([]byte, []byte) {
	c.pos = 0
	return c.current()
}

func (c *memCursor) Last() ([]byte, []byte) {
	c.pos = len(c.items) - 1
	return c.current()
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	c.pos = sort.Search(len(c.items), func(i int) bool {
		return bytes.Compare(c.items[i].key, seek) >= 0
	})
	return c.current()
}

func (c *memCursor) SeekLast(prefix []byte) ([]byte, []byte) {
	if len(prefix) == 0 {
		return c.Last()
	}

	limit := prefixSuccessor(prefix)
	if limit == nil {
		// All-0xFF prefix: matching keys, if any, are the maximal ones.
		return c.Last()
	}
	c.pos = sort.Search(len(c.items), func(i int) bool {
		return bytes.Compare(c.items[i].key, limit) >= 0
	}) - 1
	return c.current()
}

func (c *memCursor) Next() ([]byte, []byte) {
	if c.pos < 0 {
		return c.First()
	}
	c.pos++
	return c.current()
}

func (c *memCursor) Prev() ([]byte, []byte) {
	if c.pos < 0 {
		return nil, nil
	}
	c.pos--
	return c.current()
}

func (c *memCursor) current() ([]byte, []byte) {
	if c.pos < 0 || c.pos >= len(c.items) {
		return nil, nil
	}
	kv := c.items[c.pos]
	return kv.key, kv.value
}

func (c *memCursor) Close() error { return nil }
