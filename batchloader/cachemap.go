package batchloader

import "sync"

// CacheMap is the cell storage of a Loader.
// Implementations must be thread-safe, and each method must be atomic.
type CacheMap[C comparable, V any] interface {
	// LoadOrStore returns the existing cell for the key if present.
	// Otherwise, it stores the given cell and returns it with loaded set to false.
	LoadOrStore(key C, cell *Cell[V]) (actual *Cell[V], loaded bool)

	// Store sets the cell for the key, replacing any existing cell.
	Store(key C, cell *Cell[V])

	// Delete removes the cell for the key.
	Delete(key C)

	// CompareAndDelete removes the cell for the key only if it is the given cell.
	CompareAndDelete(key C, old *Cell[V]) (deleted bool)

	// Clear removes all cells.
	Clear()
}

// MapCache is a CacheMap backed by a single map guarded by a mutex.
type MapCache[C comparable, V any] struct {
	mu sync.Mutex
	m  map[C]*Cell[V]
}

var _ CacheMap[uint8, struct{}] = (*MapCache[uint8, struct{}])(nil)

// NewMapCache creates an empty MapCache.
func NewMapCache[C comparable, V any]() *MapCache[C, V] {
	return &MapCache[C, V]{m: map[C]*Cell[V]{}}
}

func (c *MapCache[C, V]) LoadOrStore(key C, cell *Cell[V]) (*Cell[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if actual, ok := c.m[key]; ok {
		return actual, true
	}
	c.m[key] = cell
	return cell, false
}

func (c *MapCache[C, V]) Store(key C, cell *Cell[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cell
}

func (c *MapCache[C, V]) Delete(key C) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, key)
}

func (c *MapCache[C, V]) CompareAndDelete(key C, old *Cell[V]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.m[key]; ok && cur == old {
		delete(c.m, key)
		return true
	}
	return false
}

func (c *MapCache[C, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.m)
}

// noCache is a CacheMap that stores nothing. Every load gets its own cell.
type noCache[C comparable, V any] struct{}

func (noCache[C, V]) LoadOrStore(_ C, cell *Cell[V]) (*Cell[V], bool) { return cell, false }
func (noCache[C, V]) Store(C, *Cell[V])                               {}
func (noCache[C, V]) Delete(C)                                        {}
func (noCache[C, V]) CompareAndDelete(C, *Cell[V]) bool               { return false }
func (noCache[C, V]) Clear()                                          {}
