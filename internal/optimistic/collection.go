// Package optimistic applies local edits before the backend confirms them
// and reconciles once it answers: success adopts the server's record,
// failure restores the snapshot taken before the edit.
package optimistic

import (
	"slices"
	"sync"
)

// Collection is an ordered, keyed list of records owned by one screen.
// Reads return copies; all writes go through the package functions.
type Collection[T any] struct {
	mu       sync.Mutex
	items    []T
	idOf     func(T) string
	clone    func(T) T
	seq      map[string]uint64
	inflight map[string]*inflight[T]
	closed   bool
}

// inflight tracks the outstanding edits of one record field. base is the
// last value the server is known to hold; a failed edit reverts to it
// rather than to whatever was on screen when that edit started.
type inflight[T any] struct {
	base    T
	pending int
	// settled is the sequence number of the newest edit that has answered,
	// ok whether it succeeded.
	settled uint64
	ok      bool
}

// NewCollection builds an empty collection. clone makes the deep copies
// used for snapshots; nil means records are copied by value.
func NewCollection[T any](idOf func(T) string, clone func(T) T) *Collection[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	return &Collection[T]{idOf: idOf, clone: clone, seq: make(map[string]uint64), inflight: make(map[string]*inflight[T])}
}

// Reset replaces the contents, as after a fresh load. Pending mutations
// issued before the reset are discarded when they complete.
func (c *Collection[T]) Reset(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = c.items[:0]
	for _, it := range items {
		c.items = append(c.items, c.clone(it))
	}
	for k := range c.seq {
		c.seq[k]++
	}
	c.inflight = make(map[string]*inflight[T])
}

// Items returns a copy of the records in display order.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = c.clone(it)
	}
	return out
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.index(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close disposes the collection. Responses that arrive afterwards are
// dropped without touching state or notifying.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Collection[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// index must be called with mu held.
func (c *Collection[T]) index(id string) int {
	return slices.IndexFunc(c.items, func(it T) bool { return c.idOf(it) == id })
}

// next issues a sequence number for key. Must be called with mu held.
func (c *Collection[T]) next(key string) uint64 {
	c.seq[key]++
	return c.seq[key]
}

// track registers an edit of key whose record read prev before it was
// applied. Must be called with mu held.
func (c *Collection[T]) track(key string, prev T) *inflight[T] {
	st, ok := c.inflight[key]
	if !ok {
		st = &inflight[T]{base: prev}
		c.inflight[key] = st
	}
	st.pending++
	return st
}

// untrack ends one edit of key. It reports false when st was dropped by a
// Reset in the meantime. Must be called with mu held.
func (c *Collection[T]) untrack(key string, st *inflight[T]) bool {
	if c.inflight[key] != st {
		return false
	}
	st.pending--
	if st.pending == 0 {
		delete(c.inflight, key)
	}
	return true
}

// latest reports whether seq is still the newest issued for key.
func (c *Collection[T]) latest(key string, seq uint64) bool {
	return c.seq[key] == seq
}

// put inserts v at i, clamped to the collection bounds.
func (c *Collection[T]) put(i int, v T) {
	i = max(0, min(i, len(c.items)))
	c.items = slices.Insert(c.items, i, v)
}

func (c *Collection[T]) remove(i int) {
	c.items = slices.Delete(c.items, i, i+1)
}
