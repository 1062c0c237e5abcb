// Package keyhash provides hash functions for cache keys of primitive kinds.
package keyhash

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"
	"sync"

	"github.com/goccy/go-reflect"
)

type entry struct {
	fn any
	ok bool
}

var (
	// hashersMu is a mutex for hashers.
	hashersMu sync.RWMutex

	// hashers caches hash functions by type id.
	hashers = map[uintptr]entry{}
)

// For returns a hash function for the key type K.
// Any type whose underlying kind is a boolean, an integer, a float or a string is supported,
// including named types. The second result is false for other types.
// NaN keys never equal each other, so they are never deduplicated in any bucket.
func For[K comparable]() (func(K) int, bool) {
	var zero K
	if any(zero) == nil {
		// interface key types have no fixed kind.
		return nil, false
	}

	id := reflect.TypeID(zero)
	hashersMu.RLock()
	e, found := hashers[id]
	hashersMu.RUnlock()
	if !found {
		hashersMu.Lock()
		if e, found = hashers[id]; !found {
			fn, ok := create[K](reflect.TypeOf(zero).Kind())
			e = entry{fn: fn, ok: ok}
			hashers[id] = e
		}
		hashersMu.Unlock()
	}
	if !e.ok {
		return nil, false
	}
	return e.fn.(func(K) int), true
}

func create[K comparable](kind reflect.Kind) (func(K) int, bool) {
	switch kind {
	case reflect.Bool:
		return func(k K) int {
			if reflect.ValueOf(k).Bool() {
				return sum([]byte{1})
			}
			return sum([]byte{0})
		}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(k K) int {
			return sumUint64(uint64(reflect.ValueOf(k).Int()))
		}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(k K) int {
			return sumUint64(reflect.ValueOf(k).Uint())
		}, true
	case reflect.Float32, reflect.Float64:
		return func(k K) int {
			f := reflect.ValueOf(k).Float()
			if f == 0 {
				// -0 and +0 are the same map key.
				f = 0
			}
			return sumUint64(math.Float64bits(f))
		}, true
	case reflect.String:
		return func(k K) int {
			return sum([]byte(reflect.ValueOf(k).String()))
		}, true
	default:
		return nil, false
	}
}

// hashPool is a pool for 64-bit FNV-1a hash objects.
var hashPool = sync.Pool{
	New: func() any {
		return fnv.New64a()
	},
}

func sumUint64(v uint64) int {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return sum(b[:])
}

// sum computes the FNV-1a hash of b. It is truncated on 32-bit platforms.
func sum(b []byte) int {
	h := hashPool.Get().(hash.Hash64)
	defer func() {
		h.Reset()
		hashPool.Put(h)
	}()
	_, _ = h.Write(b)
	return int(h.Sum64())
}
