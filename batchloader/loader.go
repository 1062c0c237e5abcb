package batchloader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/karupanerura/connected-loader/internal/panicutil"
	"github.com/karupanerura/connected-loader/logger"
	"github.com/sourcegraph/conc/panics"
)

// BatchFunc loads values for the given keys.
// It must return exactly one result per key, in the same order as the keys.
// A failure of a single key must be reported in its Result; the error return value
// is for failures of the whole batch (e.g. connectivity loss).
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]Result[V], error)

// Thunk waits for the result of a load that has already been enqueued.
type Thunk[V any] func(ctx context.Context) (V, error)

// Loader is a coalescing loader.
// K is the type of the keys passed to the BatchFunc, C is the type of the cache keys derived from them.
type Loader[K comparable, V any, C comparable] struct {
	batchFn      BatchFunc[K, V]
	cacheKey     func(K) C
	cache        CacheMap[C, V]
	maxBatchSize int
	schedule     BatchScheduleFunc
	context      func() context.Context
	hooks        Hooks
	logger       logger.Logger
	onResolve    func(V)

	mu      sync.Mutex
	current *batch[K, V, C]
}

// batch is a batch window. It is open while it is the current batch of the loader.
type batch[K comparable, V any, C comparable] struct {
	keys      []K
	cacheKeys []C
	cells     []*Cell[V]
	once      sync.Once
}

// New creates a new Loader that uses the keys themselves as cache keys.
func New[K comparable, V any](fn BatchFunc[K, V], opts ...Option[K, V, K]) *Loader[K, V, K] {
	return NewWithCacheKey(fn, func(key K) K { return key }, opts...)
}

// NewWithCacheKey creates a new Loader that derives cache keys with cacheKey.
func NewWithCacheKey[K comparable, V any, C comparable](fn BatchFunc[K, V], cacheKey func(K) C, opts ...Option[K, V, C]) *Loader[K, V, C] {
	if fn == nil {
		panic("batch function is required")
	}
	if cacheKey == nil {
		panic("cache key function is required")
	}

	l := &Loader[K, V, C]{
		batchFn:  fn,
		cacheKey: cacheKey,
		context:  context.Background,
		hooks:    NopHooks{},
		logger:   logger.Nop{},
	}
	for _, o := range opts {
		o.apply(l)
	}
	if l.cache == nil {
		l.cache = NewMapCache[C, V]()
	}
	if l.schedule == nil {
		l.schedule = WaitScheduler(DefaultWait)
	}
	return l
}

// CacheKey returns the cache key for the given key.
func (l *Loader[K, V, C]) CacheKey(key K) C {
	return l.cacheKey(key)
}

// Load loads a value by key.
// Concurrent loads of the same key share a single cell, and loads of different keys
// issued in the same batch window are passed to the BatchFunc together.
// If the context is canceled, Load returns the context error, but the load itself keeps going.
func (l *Loader[K, V, C]) Load(ctx context.Context, key K) (V, error) {
	return l.LoadThunk(key)(ctx)
}

// LoadThunk enqueues a load without waiting for it and returns a Thunk to wait for the result.
func (l *Loader[K, V, C]) LoadThunk(key K) Thunk[V] {
	return l.enqueue(key).Wait
}

// LoadMany loads values by keys.
// The results are in the same order as the keys, and duplicated keys share the same result.
// Failures are reported per key and never abort the others.
func (l *Loader[K, V, C]) LoadMany(ctx context.Context, keys []K) []Result[V] {
	thunks := make([]Thunk[V], len(keys))
	for i, key := range keys {
		thunks[i] = l.LoadThunk(key)
	}

	results := make([]Result[V], len(keys))
	for i, thunk := range thunks {
		results[i].Value, results[i].Err = thunk(ctx)
	}
	return results
}

// Clear removes the cached cell of the key, if any.
func (l *Loader[K, V, C]) Clear(key K) {
	l.cache.Delete(l.cacheKey(key))
}

// ClearAll removes all cached cells.
func (l *Loader[K, V, C]) ClearAll() {
	l.cache.Clear()
}

// Prime stores a value for the key only if there is no cell for it yet, including a pending one.
// It reports whether the value is stored.
// Priming with a non-nil error value clears the key instead; errors are never cached by Prime.
func (l *Loader[K, V, C]) Prime(key K, value V) bool {
	if err, ok := any(value).(error); ok && err != nil {
		l.Clear(key)
		return false
	}

	_, loaded := l.cache.LoadOrStore(l.cacheKey(key), ResolvedCell(value))
	return !loaded
}

// enqueue returns the cell for the key, adding the key to the open batch window when the cell is new.
func (l *Loader[K, V, C]) enqueue(key K) *Cell[V] {
	cacheKey := l.cacheKey(key)
	cell, loaded := l.cache.LoadOrStore(cacheKey, NewCell[V]())
	if loaded {
		l.hooks.CacheHit()
		return cell
	}
	l.hooks.CacheMiss()

	l.mu.Lock()
	b := l.current
	opened := b == nil
	if opened {
		b = &batch[K, V, C]{}
		l.current = b
	}
	b.keys = append(b.keys, key)
	b.cacheKeys = append(b.cacheKeys, cacheKey)
	b.cells = append(b.cells, cell)
	full := l.maxBatchSize > 0 && len(b.keys) >= l.maxBatchSize
	if full {
		l.current = nil
	}
	l.mu.Unlock()

	if opened {
		l.schedule(func() { l.dispatch(b) })
	}
	if full {
		go l.dispatch(b)
	}
	return cell
}

// dispatch closes the batch window and runs it. It is a no-op for a window that already ran.
func (l *Loader[K, V, C]) dispatch(b *batch[K, V, C]) {
	b.once.Do(func() {
		l.mu.Lock()
		if l.current == b {
			l.current = nil
		}
		l.mu.Unlock()

		l.run(b)
	})
}

// run calls the BatchFunc and settles the cells of the batch.
func (l *Loader[K, V, C]) run(b *batch[K, V, C]) {
	size := len(b.keys)
	l.hooks.BatchDispatched(size)
	l.logger.Debug("dispatching batch", logger.Fields{"size": size})

	var results []Result[V]
	if err := panicutil.Guard(func() (err error) {
		results, err = l.batchFn(l.context(), b.keys)
		return
	}, func() {
		l.logger.Error("batch function called runtime.Goexit", logger.Fields{"size": size})
		l.fail(b, ErrGoexit)
	}); err != nil {
		var recovered *panics.ErrRecovered
		if errors.As(err, &recovered) {
			l.logger.Error("batch function panicked", logger.Fields{"size": size, "panic": recovered.Value})
		}
		l.fail(b, err)
		return
	}

	if len(results) != size {
		l.logger.Error("batch function returned wrong number of results", logger.Fields{"size": size, "results": len(results)})
		l.fail(b, fmt.Errorf("%w: %d results for %d keys", ErrResultCount, len(results), size))
		return
	}

	for i, r := range results {
		if r.Err != nil {
			l.hooks.KeyFailed(r.Err)
			// evict before rejecting so that a retry after the error fetches again.
			l.cache.CompareAndDelete(b.cacheKeys[i], b.cells[i])
			b.cells[i].reject(r.Err)
			continue
		}
		if l.onResolve != nil {
			l.onResolve(r.Value)
		}
		b.cells[i].resolve(r.Value)
	}
}

// fail rejects and evicts every cell of the batch.
func (l *Loader[K, V, C]) fail(b *batch[K, V, C], err error) {
	l.hooks.BatchFailed(len(b.keys), err)
	l.logger.Warn("batch failed", logger.Fields{"size": len(b.keys), "error": err})
	for i, cell := range b.cells {
		l.cache.CompareAndDelete(b.cacheKeys[i], cell)
		cell.reject(err)
	}
}
