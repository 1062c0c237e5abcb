package connectedloader

import "github.com/karupanerura/connected-loader/batchloader"

// Option is the interface for the options of the Loader.
type Option[K comparable, V any, C comparable] interface {
	apply(*loaderOptions[K, V, C])
}

type optionFunc[K comparable, V any, C comparable] func(*loaderOptions[K, V, C])

func (f optionFunc[K, V, C]) apply(o *loaderOptions[K, V, C]) {
	f(o)
}

type loaderOptions[K comparable, V any, C comparable] struct {
	batchOptions []batchloader.Option[K, V, C]
	storeOptions []StoreOption[C]
	valueCloner  ValueCloner[V]
}

// WithLoaderOptions passes the options to the underlying batch loader.
// The cache map of the batch loader is always the registered store: WithCacheMap and WithoutCache
// have no effect here, and caching can only be disabled on a bare batchloader.Loader.
// WithOnResolve is overridden as well.
func WithLoaderOptions[K comparable, V any, C comparable](opts ...batchloader.Option[K, V, C]) Option[K, V, C] {
	return optionFunc[K, V, C](func(o *loaderOptions[K, V, C]) {
		o.batchOptions = append(o.batchOptions, opts...)
	})
}

// WithStoreOptions passes the options to the store registered for the loader.
func WithStoreOptions[K comparable, V any, C comparable](opts ...StoreOption[C]) Option[K, V, C] {
	return optionFunc[K, V, C](func(o *loaderOptions[K, V, C]) {
		o.storeOptions = append(o.storeOptions, opts...)
	})
}

// WithValueCloner sets the value cloner of the loader.
// Values handed to callers are cloned by it. The default is NopValueCloner.
func WithValueCloner[K comparable, V any, C comparable](cloner ValueCloner[V]) Option[K, V, C] {
	return optionFunc[K, V, C](func(o *loaderOptions[K, V, C]) {
		o.valueCloner = cloner
	})
}
