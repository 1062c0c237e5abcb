// cachemaptest package provides generic test cases for batchloader.CacheMap implementations.
package cachemaptest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/connected-loader/batchloader"
	"golang.org/x/sync/errgroup"
)

// Provider creates a fresh, empty CacheMap and a function to release it.
type Provider func() (batchloader.CacheMap[uint8, int8], func())

// BenchmarkLoadOrStore benchmarks the LoadOrStore method of the cache map.
func BenchmarkLoadOrStore[C comparable, V any](b *testing.B, m batchloader.CacheMap[C, V], keys []C) {
	var zero V
	cell := batchloader.ResolvedCell(zero)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.LoadOrStore(keys[i%len(keys)], cell)
	}
}

// TestAll runs all test cases against the provider.
func TestAll(t *testing.T, provider Provider) {
	TestConsistency(t, provider)
	TestAtMostOneCell(t, provider)
	TestRemoval(t, provider)
}

type pattern struct {
	Key   uint8
	Value int8
}

func valueOf(t *testing.T, cell *batchloader.Cell[int8]) int8 {
	t.Helper()

	v, err := cell.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error from resolved cell: %v", err)
	}
	return v
}

// TestConsistency tests that cells stored concurrently are all observable.
func TestConsistency(t *testing.T, provider Provider) {
	t.Run("Consistency", func(t *testing.T) {
		t.Parallel()

		m, release := provider()
		defer release()

		patterns := []pattern{
			{0, 1},
			{1, 2},
			{2, 3},
			{3, 4},
			{4, 5},
			{251, 124},
			{252, 125},
			{253, 126},
			{254, 127},
			{255, -128},
		}
		rand.Shuffle(len(patterns), func(i, j int) {
			patterns[i], patterns[j] = patterns[j], patterns[i]
		})

		var eg errgroup.Group
		for _, p := range patterns {
			eg.Go(func() error {
				if _, loaded := m.LoadOrStore(p.Key, batchloader.ResolvedCell(p.Value)); loaded {
					return fmt.Errorf("unexpected exists cell for key %d", p.Key)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		got := make([]pattern, len(patterns))
		for i, p := range patterns {
			cell, loaded := m.LoadOrStore(p.Key, batchloader.ResolvedCell[int8](0))
			if !loaded {
				t.Fatalf("cell for key %d is lost", p.Key)
			}
			got[i] = pattern{Key: p.Key, Value: valueOf(t, cell)}
		}
		if df := cmp.Diff(patterns, got); df != "" {
			t.Errorf("cells diff=%s", df)
		}
	})
}

// TestAtMostOneCell tests that concurrent LoadOrStore calls for the same key agree on a single cell.
func TestAtMostOneCell(t *testing.T, provider Provider) {
	t.Run("AtMostOneCell", func(t *testing.T) {
		t.Parallel()

		m, release := provider()
		defer release()

		const numGoroutines = 64
		var stored atomic.Int32
		cells := make([]*batchloader.Cell[int8], numGoroutines)
		var eg errgroup.Group
		for i := 0; i < numGoroutines; i++ {
			eg.Go(func() error {
				cell, loaded := m.LoadOrStore(42, batchloader.NewCell[int8]())
				if !loaded {
					stored.Add(1)
				}
				cells[i] = cell
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		if n := stored.Load(); n != 1 {
			t.Errorf("expected exactly one stored cell, got %d", n)
		}
		for i, cell := range cells {
			if cell != cells[0] {
				t.Errorf("goroutine %d got a different cell", i)
			}
		}
	})
}

// TestRemoval tests Store, Delete, CompareAndDelete and Clear.
func TestRemoval(t *testing.T, provider Provider) {
	t.Run("Removal", func(t *testing.T) {
		t.Parallel()

		t.Run("Store", func(t *testing.T) {
			t.Parallel()

			m, release := provider()
			defer release()

			m.LoadOrStore(1, batchloader.ResolvedCell[int8](1))
			m.Store(1, batchloader.ResolvedCell[int8](2))
			cell, loaded := m.LoadOrStore(1, batchloader.ResolvedCell[int8](3))
			if !loaded || valueOf(t, cell) != 2 {
				t.Errorf("Store must replace the cell")
			}
		})

		t.Run("Delete", func(t *testing.T) {
			t.Parallel()

			m, release := provider()
			defer release()

			m.LoadOrStore(1, batchloader.ResolvedCell[int8](1))
			m.LoadOrStore(2, batchloader.ResolvedCell[int8](2))
			m.Delete(1)
			m.Delete(3)

			if _, loaded := m.LoadOrStore(1, batchloader.ResolvedCell[int8](1)); loaded {
				t.Error("deleted key must be absent")
			}
			if _, loaded := m.LoadOrStore(2, batchloader.ResolvedCell[int8](2)); !loaded {
				t.Error("other keys must be kept")
			}
		})

		t.Run("CompareAndDelete", func(t *testing.T) {
			t.Parallel()

			m, release := provider()
			defer release()

			old := batchloader.NewCell[int8]()
			m.LoadOrStore(1, old)
			m.Store(1, batchloader.ResolvedCell[int8](1))
			if m.CompareAndDelete(1, old) {
				t.Error("replaced cell must not be deleted")
			}
			cell, _ := m.LoadOrStore(1, batchloader.NewCell[int8]())
			if !m.CompareAndDelete(1, cell) {
				t.Error("current cell must be deleted")
			}
			if m.CompareAndDelete(1, cell) {
				t.Error("absent cell must not be deleted")
			}
		})

		t.Run("Clear", func(t *testing.T) {
			t.Parallel()

			m, release := provider()
			defer release()

			for k := 0; k < 256; k++ {
				m.LoadOrStore(uint8(k), batchloader.ResolvedCell(int8(k)))
			}
			m.Clear()
			m.Clear()
			for k := 0; k < 256; k++ {
				if _, loaded := m.LoadOrStore(uint8(k), batchloader.NewCell[int8]()); loaded {
					t.Fatalf("key %d must be cleared", k)
				}
			}
		})
	})
}
