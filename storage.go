package connectedloader

import (
	"sync"

	"github.com/karupanerura/connected-loader/batchloader"
	"github.com/karupanerura/connected-loader/logger"
)

// valueStore is the value-keyed view of a Store used for fan-out.
// It hides the cache key type of each loader.
type valueStore[V any] interface {
	storeValue(v V, cell *batchloader.Cell[V])
	fillValue(v V, cell *batchloader.Cell[V])
	deleteValue(v V)
	Clear()
}

// Storage is a registry of the stores of connected loaders that load the same kind of values.
// A value resolved through one loader is primed into the stores of all the others.
type Storage[V any] struct {
	logger logger.Logger

	mu     sync.RWMutex
	nextID uint64
	stores map[uint64]valueStore[V]
}

// StorageOption is the interface for the options of a Storage.
type StorageOption interface {
	apply(*storageOptions)
}

type storageOptionFunc func(*storageOptions)

func (f storageOptionFunc) apply(o *storageOptions) {
	f(o)
}

type storageOptions struct {
	logger logger.Logger
}

// WithStorageLogger sets the logger of the storage.
func WithStorageLogger(lg logger.Logger) StorageOption {
	return storageOptionFunc(func(o *storageOptions) {
		o.logger = lg
	})
}

// NewStorage creates a new empty Storage.
func NewStorage[V any](opts ...StorageOption) *Storage[V] {
	options := storageOptions{logger: logger.Nop{}}
	for _, opt := range opts {
		opt.apply(&options)
	}
	return &Storage[V]{
		logger: options.logger,
		stores: map[uint64]valueStore[V]{},
	}
}

// Register creates a new Store keyed by valueKey and registers it to the storage.
// The returned store is meant to be the whole cache storage of a single loader.
func Register[C comparable, V any](s *Storage[V], valueKey func(V) C, opts ...StoreOption[C]) *Store[C, V] {
	if s == nil {
		panic("storage is required")
	}
	if valueKey == nil {
		panic("value key function is required")
	}

	store := newStore(valueKey, opts...)

	s.mu.Lock()
	s.nextID++
	store.id = s.nextID
	s.stores[store.id] = store
	s.mu.Unlock()

	s.logger.Debug("store registered", logger.Fields{"id": store.id, "buckets": len(store.buckets)})
	return store
}

// Len returns the number of registered stores.
func (s *Storage[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stores)
}

// PrimeValue stores the value in every registered store at its value key.
// It overwrites existing cells, including pending ones.
func (s *Storage[V]) PrimeValue(v V) {
	cell := batchloader.ResolvedCell(v)
	for _, store := range s.snapshot(0) {
		store.storeValue(v, cell)
	}
}

// ClearValue removes the cell at the value key of v from every registered store.
func (s *Storage[V]) ClearValue(v V) {
	for _, store := range s.snapshot(0) {
		store.deleteValue(v)
	}
}

// ClearAll removes every cell from every registered store.
func (s *Storage[V]) ClearAll() {
	stores := s.snapshot(0)
	for _, store := range stores {
		store.Clear()
	}
	s.logger.Debug("all stores cleared", logger.Fields{"stores": len(stores)})
}

// fillValue stores the value in the registered stores except the given one,
// only where there is no cell at its value key yet.
func (s *Storage[V]) fillValue(v V, except uint64) {
	cell := batchloader.ResolvedCell(v)
	for _, store := range s.snapshot(except) {
		store.fillValue(v, cell)
	}
}

// snapshot returns the registered stores except the one with the given id.
// IDs start at 1, so zero excludes nothing.
func (s *Storage[V]) snapshot(except uint64) []valueStore[V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stores := make([]valueStore[V], 0, len(s.stores))
	for id, store := range s.stores {
		if id == except {
			continue
		}
		stores = append(stores, store)
	}
	return stores
}
