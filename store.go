package connectedloader

import (
	"sync"

	"github.com/karupanerura/connected-loader/batchloader"
)

type bucket[C comparable, V any] struct {
	m  map[C]*batchloader.Cell[V]
	mu sync.Mutex
}

// Store is the cell map of a single loader registered in a Storage.
// Cells are distributed across buckets to reduce lock contention.
type Store[C comparable, V any] struct {
	id       uint64
	valueKey func(V) C
	hashKey  func(C) int
	buckets  []*bucket[C, V]
}

var _ batchloader.CacheMap[uint8, struct{}] = (*Store[uint8, struct{}])(nil)

func newStore[C comparable, V any](valueKey func(V) C, opts ...StoreOption[C]) *Store[C, V] {
	options := defaultStoreOptions[C]()
	for _, opt := range opts {
		opt.apply(&options)
	}
	if options.hashKey == nil {
		if options.bucketsSize > 1 && options.explicitBucketsSize {
			panic("key hash is required to distribute keys of this type; use WithKeyHash")
		}
		options.bucketsSize = 1
	}

	buckets := make([]*bucket[C, V], options.bucketsSize)
	for i := range buckets {
		buckets[i] = &bucket[C, V]{m: map[C]*batchloader.Cell[V]{}}
	}
	return &Store[C, V]{
		valueKey: valueKey,
		hashKey:  options.hashKey,
		buckets:  buckets,
	}
}

// ID returns the handle of the store in its Storage.
func (s *Store[C, V]) ID() uint64 {
	return s.id
}

// ValueKey returns the cache key of the value in this store.
func (s *Store[C, V]) ValueKey(v V) C {
	return s.valueKey(v)
}

// Len returns the number of cells in the store.
func (s *Store[C, V]) Len() int {
	n := 0
	for _, b := range s.buckets {
		b.mu.Lock()
		n += len(b.m)
		b.mu.Unlock()
	}
	return n
}

// resolveBucket returns the bucket that corresponds to the given key.
func (s *Store[C, V]) resolveBucket(key C) *bucket[C, V] {
	if len(s.buckets) == 1 {
		return s.buckets[0]
	}
	index := s.hashKey(key) % len(s.buckets)
	if index < 0 {
		index *= -1
	}
	return s.buckets[index]
}

func (s *Store[C, V]) LoadOrStore(key C, cell *batchloader.Cell[V]) (*batchloader.Cell[V], bool) {
	b := s.resolveBucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	if actual, ok := b.m[key]; ok {
		return actual, true
	}
	b.m[key] = cell
	return cell, false
}

func (s *Store[C, V]) Store(key C, cell *batchloader.Cell[V]) {
	b := s.resolveBucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = cell
}

func (s *Store[C, V]) Delete(key C) {
	b := s.resolveBucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, key)
}

func (s *Store[C, V]) CompareAndDelete(key C, old *batchloader.Cell[V]) bool {
	b := s.resolveBucket(key)
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.m[key]; ok && cur == old {
		delete(b.m, key)
		return true
	}
	return false
}

// Clear removes all cells. Buckets are locked in index order for the whole operation.
func (s *Store[C, V]) Clear() {
	for _, b := range s.buckets {
		b.mu.Lock()
		defer b.mu.Unlock()
	}
	for _, b := range s.buckets {
		clear(b.m)
	}
}

// storeValue replaces the cell at the value key of v.
func (s *Store[C, V]) storeValue(v V, cell *batchloader.Cell[V]) {
	s.Store(s.valueKey(v), cell)
}

// fillValue stores the cell at the value key of v only if there is no cell yet.
func (s *Store[C, V]) fillValue(v V, cell *batchloader.Cell[V]) {
	s.LoadOrStore(s.valueKey(v), cell)
}

// deleteValue removes the cell at the value key of v.
func (s *Store[C, V]) deleteValue(v V) {
	s.Delete(s.valueKey(v))
}
