// Package batchloader provides a coalescing loader that deduplicates concurrent requests
// for the same key and batches requests for different keys into a single call to a bulk
// lookup function.
//
// The first Load after idleness opens a batch window. Every Load issued before the window
// is dispatched joins it, and at dispatch time all distinct pending keys are passed, in
// first-seen order, to the BatchFunc. The window is dispatched by the batch schedule
// function, which defaults to a short timer (DefaultWait), or as soon as it holds
// MaxBatchSize keys. Loads issued more than the wait apart land in separate batches.
//
// Results are kept in a CacheMap of Cells keyed by the cache key of each key. A key that
// fails is evicted so that it is fetched again by the next Load, while keys that succeed
// stay cached until they are cleared explicitly. There is no expiration.
//
// The Loader can be configured with options:
//   - WithMaxBatchSize: Caps the number of keys per dispatch
//   - WithWait / WithBatchScheduleFunc: Control when a batch window is dispatched
//   - WithoutCache: Disables deduplication and caching
//   - WithCacheMap: Substitutes the cell storage
//   - WithBackgroundContextProvider: Sets the context passed to the BatchFunc
//   - WithOnResolve: Observes every value returned by the BatchFunc
//   - WithHooks / WithLogger: Observability
package batchloader
