package source

import (
	"context"
	"fmt"

	"github.com/karupanerura/connected-loader/batchloader"
	"github.com/sourcegraph/conc/iter"
)

// NotFoundFunc returns the per-key error for a missing key.
type NotFoundFunc[K comparable] func(key K) error

// DefaultNotFound wraps ErrNotFound with the key.
func DefaultNotFound[K comparable](key K) error {
	return fmt.Errorf("%v: %w", key, ErrNotFound)
}

// MapFunc is a source that returns the found values keyed by their keys.
type MapFunc[K comparable, V any] func(context.Context, []K) (map[K]V, error)

// BatchFunc returns a BatchFunc that reports the keys missing from the map with notFound.
// If notFound is nil, DefaultNotFound is used.
func (f MapFunc[K, V]) BatchFunc(notFound NotFoundFunc[K]) batchloader.BatchFunc[K, V] {
	if notFound == nil {
		notFound = DefaultNotFound[K]
	}
	return func(ctx context.Context, keys []K) ([]batchloader.Result[V], error) {
		values, err := f(ctx, keys)
		if err != nil {
			return nil, err
		}

		results := make([]batchloader.Result[V], len(keys))
		for i, key := range keys {
			if v, ok := values[key]; ok {
				results[i].Value = v
			} else {
				results[i].Err = notFound(key)
			}
		}
		return results, nil
	}
}

// SliceFunc is a source that returns the found values in any order, e.g. the rows of a query.
type SliceFunc[K comparable, V any] func(context.Context, []K) ([]V, error)

// BatchFunc returns a BatchFunc that matches the values to the keys with key.
// The keys missing from the values are reported with notFound. If notFound is nil, DefaultNotFound is used.
func (f SliceFunc[K, V]) BatchFunc(key func(V) K, notFound NotFoundFunc[K]) batchloader.BatchFunc[K, V] {
	return MapFunc[K, V](func(ctx context.Context, keys []K) (map[K]V, error) {
		values, err := f(ctx, keys)
		if err != nil {
			return nil, err
		}

		m := make(map[K]V, len(values))
		for _, v := range values {
			m[key(v)] = v
		}
		return m, nil
	}).BatchFunc(notFound)
}

// GetFunc is a source that loads a single value by key.
type GetFunc[K comparable, V any] func(context.Context, K) (V, error)

// BatchFunc returns a BatchFunc that calls the source for each key concurrently.
// maxGoroutines limits the concurrency; zero or less means the number of CPUs.
// An error of a call is reported for its key only.
func (f GetFunc[K, V]) BatchFunc(maxGoroutines int) batchloader.BatchFunc[K, V] {
	if maxGoroutines < 0 {
		maxGoroutines = 0
	}
	return func(ctx context.Context, keys []K) ([]batchloader.Result[V], error) {
		mapper := iter.Mapper[K, batchloader.Result[V]]{MaxGoroutines: maxGoroutines}
		return mapper.Map(keys, func(key *K) batchloader.Result[V] {
			v, err := f(ctx, *key)
			return batchloader.Result[V]{Value: v, Err: err}
		}), nil
	}
}
