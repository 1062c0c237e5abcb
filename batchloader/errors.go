package batchloader

import "errors"

var (
	// ErrResultCount is returned to every key of a batch whose BatchFunc returned
	// a different number of results than the number of keys.
	ErrResultCount = errors.New("batch function must return exactly one result per key")

	// ErrGoexit is returned to every key of a batch whose BatchFunc called runtime.Goexit.
	ErrGoexit = errors.New("runtime.Goexit is called in batch function")
)
