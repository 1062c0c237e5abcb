package batchloader

import (
	"context"
	"time"

	"github.com/karupanerura/connected-loader/logger"
)

// Option is the interface for the options of the Loader.
type Option[K comparable, V any, C comparable] interface {
	apply(*Loader[K, V, C])
}

type optionFunc[K comparable, V any, C comparable] func(*Loader[K, V, C])

func (f optionFunc[K, V, C]) apply(l *Loader[K, V, C]) {
	f(l)
}

// WithMaxBatchSize caps the number of keys passed to the BatchFunc at once.
// A window that reaches the cap is dispatched immediately. Zero means no limit.
func WithMaxBatchSize[K comparable, V any, C comparable](size int) Option[K, V, C] {
	if size < 0 {
		panic("max batch size must not be negative")
	}
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.maxBatchSize = size
	})
}

// WithWait sets how long a batch window stays open.
// The default is DefaultWait.
func WithWait[K comparable, V any, C comparable](d time.Duration) Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.schedule = WaitScheduler(d)
	})
}

// WithBatchScheduleFunc overrides when batch windows are dispatched.
func WithBatchScheduleFunc[K comparable, V any, C comparable](f BatchScheduleFunc) Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.schedule = f
	})
}

// WithoutCache disables caching. Every load gets its own cell, so the same key may be
// passed to the BatchFunc more than once in a batch.
func WithoutCache[K comparable, V any, C comparable]() Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.cache = noCache[C, V]{}
	})
}

// WithCacheMap substitutes the cell storage of the loader.
// The default is a MapCache owned by the loader.
func WithCacheMap[K comparable, V any, C comparable](m CacheMap[C, V]) Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.cache = m
	})
}

// WithBackgroundContextProvider sets the context provider for the BatchFunc calls.
// The provider must return a new context for each call.
// The default context provider is context.Background.
func WithBackgroundContextProvider[K comparable, V any, C comparable](provider func() context.Context) Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.context = provider
	})
}

// WithHooks sets the hooks of the loader.
func WithHooks[K comparable, V any, C comparable](h Hooks) Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.hooks = h
	})
}

// WithLogger sets the logger of the loader.
func WithLogger[K comparable, V any, C comparable](lg logger.Logger) Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.logger = lg
	})
}

// WithOnResolve sets a callback called with each value the BatchFunc returns,
// before the waiters of the key observe it. It runs even if no one waits for the key.
func WithOnResolve[K comparable, V any, C comparable](f func(V)) Option[K, V, C] {
	return optionFunc[K, V, C](func(l *Loader[K, V, C]) {
		l.onResolve = f
	})
}
