package connectedloader

import (
	"context"

	"github.com/karupanerura/connected-loader/batchloader"
)

// Loader is a batch loader connected to the other loaders of the same Storage.
// A value loaded through it is primed into every registered store, so that a load
// of the same entity through another index hits the cache.
type Loader[K comparable, V any, C comparable] struct {
	storage *Storage[V]
	store   *Store[C, V]
	loader  *batchloader.Loader[K, V, C]
	cloner  ValueCloner[V]
}

// New creates a new Loader whose keys are also the cache keys.
// valueKey must return the key that would load the given value.
func New[K comparable, V any](s *Storage[V], fn batchloader.BatchFunc[K, V], valueKey func(V) K, opts ...Option[K, V, K]) *Loader[K, V, K] {
	return NewWithCacheKey(s, fn, valueKey, func(key K) K { return key }, opts...)
}

// NewWithCacheKey creates a new Loader that derives cache keys with cacheKey.
// valueKey must return the same cache key that cacheKey returns for the key that would load the given value.
func NewWithCacheKey[K comparable, V any, C comparable](s *Storage[V], fn batchloader.BatchFunc[K, V], valueKey func(V) C, cacheKey func(K) C, opts ...Option[K, V, C]) *Loader[K, V, C] {
	options := loaderOptions[K, V, C]{valueCloner: NopValueCloner[V]{}}
	for _, opt := range opts {
		opt.apply(&options)
	}

	store := Register(s, valueKey, options.storeOptions...)
	loaderOpts := append(options.batchOptions,
		batchloader.WithCacheMap[K, V, C](store),
		batchloader.WithOnResolve[K, V, C](s.PrimeValue),
	)
	return &Loader[K, V, C]{
		storage: s,
		store:   store,
		loader:  batchloader.NewWithCacheKey(fn, cacheKey, loaderOpts...),
		cloner:  options.valueCloner,
	}
}

// Load loads a value by key, and primes it into every store of the storage before returning it.
func (l *Loader[K, V, C]) Load(ctx context.Context, key K) (V, error) {
	return l.LoadThunk(key)(ctx)
}

// LoadThunk enqueues a load without waiting for it and returns a Thunk to wait for the result.
// A fetched value is primed into every store as soon as the batch returns, whether or not the Thunk is called.
func (l *Loader[K, V, C]) LoadThunk(key K) batchloader.Thunk[V] {
	thunk := l.loader.LoadThunk(key)
	return func(ctx context.Context) (V, error) {
		v, err := thunk(ctx)
		if err != nil {
			return v, err
		}
		l.storage.PrimeValue(v)
		return l.cloner.CloneValue(v), nil
	}
}

// LoadMany loads values by keys. Every loaded value is primed into every store of the storage.
// Failures are reported per key in the results.
func (l *Loader[K, V, C]) LoadMany(ctx context.Context, keys []K) []batchloader.Result[V] {
	results := l.loader.LoadMany(ctx, keys)
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		l.storage.PrimeValue(r.Value)
		results[i].Value = l.cloner.CloneValue(r.Value)
	}
	return results
}

// ValueKey returns the cache key of the value for this loader.
func (l *Loader[K, V, C]) ValueKey(v V) C {
	return l.store.ValueKey(v)
}

// PrimeValue stores the value in every store of the storage, overwriting existing cells.
func (l *Loader[K, V, C]) PrimeValue(v V) {
	l.storage.PrimeValue(v)
}

// ClearValue removes the value from every store of the storage.
func (l *Loader[K, V, C]) ClearValue(v V) {
	l.storage.ClearValue(v)
}

// ClearAll removes every value from every store of the storage.
func (l *Loader[K, V, C]) ClearAll() {
	l.storage.ClearAll()
}

// Clear removes the cell of the key from this loader only.
//
// Deprecated: use ClearValue to keep the other loaders consistent.
func (l *Loader[K, V, C]) Clear(key K) {
	l.loader.Clear(key)
}

// Prime stores the value for the key only if there is no cell for it yet.
// When it is stored, the value is also stored in the other stores of the storage that have no cell for it.
// Priming with a non-nil error value clears the key instead.
// It reports whether the value is stored for the key.
//
// Deprecated: use PrimeValue.
func (l *Loader[K, V, C]) Prime(key K, value V) bool {
	if !l.loader.Prime(key, value) {
		return false
	}
	l.storage.fillValue(value, l.store.ID())
	return true
}
