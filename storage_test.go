package connectedloader_test

import (
	"context"
	"testing"

	connectedloader "github.com/karupanerura/connected-loader"
	"github.com/karupanerura/connected-loader/batchloader"
)

func cachedValue[C comparable, V any](t *testing.T, store *connectedloader.Store[C, V], key C) (V, bool) {
	t.Helper()

	cell, loaded := store.LoadOrStore(key, batchloader.NewCell[V]())
	if !loaded {
		store.Delete(key)
		var zero V
		return zero, false
	}
	select {
	case <-cell.Done():
	default:
		t.Fatalf("cell for %v is pending", key)
	}
	v, err := cell.Wait(context.Background())
	if err != nil {
		t.Fatalf("cell for %v is rejected: %v", key, err)
	}
	return v, true
}

func TestStorage_PrimeValue(t *testing.T) {
	t.Parallel()

	storage := connectedloader.NewStorage[*user]()
	byID := connectedloader.Register(storage, func(u *user) int { return u.ID })
	byEmail := connectedloader.Register(storage, func(u *user) string { return u.Email })
	if storage.Len() != 2 {
		t.Fatalf("unexpected number of stores: %d", storage.Len())
	}

	john := &user{ID: 1, Email: "john@test.com"}
	storage.PrimeValue(john)
	if v, ok := cachedValue(t, byID, 1); !ok || v != john {
		t.Errorf("unexpected value by id: %v, %v", v, ok)
	}
	if v, ok := cachedValue(t, byEmail, "john@test.com"); !ok || v != john {
		t.Errorf("unexpected value by email: %v, %v", v, ok)
	}

	// overwrites an existing cell
	renamed := &user{ID: 1, Email: "john@test.com", Name: "Johnny"}
	storage.PrimeValue(renamed)
	if v, _ := cachedValue(t, byID, 1); v != renamed {
		t.Errorf("expected the primed value to replace the cached one, got %v", v)
	}
}

func TestStorage_ClearValue(t *testing.T) {
	t.Parallel()

	storage := connectedloader.NewStorage[*user]()
	byID := connectedloader.Register(storage, func(u *user) int { return u.ID })
	byEmail := connectedloader.Register(storage, func(u *user) string { return u.Email })

	john := &user{ID: 1, Email: "john@test.com"}
	jane := &user{ID: 2, Email: "jane@test.com"}
	storage.PrimeValue(john)
	storage.PrimeValue(jane)

	storage.ClearValue(john)
	if _, ok := cachedValue(t, byID, 1); ok {
		t.Error("expected john to be cleared by id")
	}
	if _, ok := cachedValue(t, byEmail, "john@test.com"); ok {
		t.Error("expected john to be cleared by email")
	}
	if _, ok := cachedValue(t, byID, 2); !ok {
		t.Error("expected jane to be kept")
	}
}

func TestStorage_ClearAll(t *testing.T) {
	t.Parallel()

	storage := connectedloader.NewStorage[*user]()
	byID := connectedloader.Register(storage, func(u *user) int { return u.ID })
	byEmail := connectedloader.Register(storage, func(u *user) string { return u.Email })
	storage.PrimeValue(&user{ID: 1, Email: "john@test.com"})
	storage.PrimeValue(&user{ID: 2, Email: "jane@test.com"})

	for range 2 {
		storage.ClearAll()
		if byID.Len() != 0 || byEmail.Len() != 0 {
			t.Errorf("expected empty stores, got %d and %d", byID.Len(), byEmail.Len())
		}
	}
	if storage.Len() != 2 {
		t.Errorf("ClearAll must keep the registrations, got %d", storage.Len())
	}
}

func TestRegister_DistinctIDs(t *testing.T) {
	t.Parallel()

	storage := connectedloader.NewStorage[*user]()
	a := connectedloader.Register(storage, func(u *user) int { return u.ID })
	b := connectedloader.Register(storage, func(u *user) int { return u.ID })
	if a.ID() == b.ID() {
		t.Errorf("expected distinct ids, got %d", a.ID())
	}
}
