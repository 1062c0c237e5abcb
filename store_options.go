package connectedloader

import "github.com/karupanerura/connected-loader/internal/keyhash"

// DefaultBucketsSize is the default number of buckets of a Store whose keys can be hashed.
var DefaultBucketsSize = 16

// StoreOption is the interface for the options of a Store.
type StoreOption[C comparable] interface {
	apply(*storeOptions[C])
}

type storeOptionFunc[C comparable] func(*storeOptions[C])

func (f storeOptionFunc[C]) apply(o *storeOptions[C]) {
	f(o)
}

// WithKeyHash sets the key hash function of the store.
// It is required to use multiple buckets with keys that are not of a primitive kind.
func WithKeyHash[C comparable](f func(C) int) StoreOption[C] {
	return storeOptionFunc[C](func(o *storeOptions[C]) {
		o.hashKey = f
	})
}

// WithBucketsSize sets the number of buckets of the store.
// The number of buckets must be a natural number.
func WithBucketsSize[C comparable](bucketsSize int) StoreOption[C] {
	if bucketsSize <= 0 {
		panic("bucketSize must be natural number")
	}
	return storeOptionFunc[C](func(o *storeOptions[C]) {
		o.bucketsSize = bucketsSize
		o.explicitBucketsSize = true
	})
}

type storeOptions[C comparable] struct {
	hashKey             func(C) int
	bucketsSize         int
	explicitBucketsSize bool
}

func defaultStoreOptions[C comparable]() storeOptions[C] {
	hashKey, _ := keyhash.For[C]()
	return storeOptions[C]{
		hashKey:     hashKey,
		bucketsSize: DefaultBucketsSize,
	}
}
