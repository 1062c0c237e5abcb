package batchloader

import (
	"context"
	"sync"
)

// Result is a value or an error for a single key.
type Result[V any] struct {
	// Value is the loaded value. It is the zero value of V when Err is not nil.
	Value V

	// Err is the error for the key, if any.
	Err error
}

// Cell is a future-like container for the result of a single key.
// A cell is settled at most once; every waiter observes the same outcome.
type Cell[V any] struct {
	done  chan struct{}
	once  sync.Once
	value V
	err   error
}

// NewCell creates a pending cell.
func NewCell[V any]() *Cell[V] {
	return &Cell[V]{done: make(chan struct{})}
}

// ResolvedCell creates a cell that is already resolved with the given value.
func ResolvedCell[V any](v V) *Cell[V] {
	c := NewCell[V]()
	c.settle(v, nil)
	return c
}

func (c *Cell[V]) settle(v V, err error) {
	c.once.Do(func() {
		c.value = v
		c.err = err
		close(c.done)
	})
}

func (c *Cell[V]) resolve(v V) {
	c.settle(v, nil)
}

func (c *Cell[V]) reject(err error) {
	var zero V
	c.settle(zero, err)
}

// Done returns a channel that is closed when the cell is settled.
func (c *Cell[V]) Done() <-chan struct{} {
	return c.done
}

// Wait waits for the cell to be settled and returns its outcome.
// If the context is canceled first, it returns the context error; the cell itself is not affected.
func (c *Cell[V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-c.done:
		return c.value, c.err
	default:
	}

	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
