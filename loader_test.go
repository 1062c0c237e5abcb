package connectedloader_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	connectedloader "github.com/karupanerura/connected-loader"
	"github.com/karupanerura/connected-loader/batchloader"
)

type user struct {
	ID    int
	Email string
	Name  string
}

var errUserNotFound = errors.New("user not found")

// userTable is a fake table that records the keys of each query.
type userTable struct {
	users []*user

	mu          sync.Mutex
	idQueries   [][]int
	mailQueries [][]string
}

func newUserTable() *userTable {
	return &userTable{
		users: []*user{
			{ID: 1, Email: "john@test.com", Name: "John"},
			{ID: 2, Email: "jane@test.com", Name: "Jane"},
			{ID: 3, Email: "bob@test.com", Name: "Bob"},
		},
	}
}

func (t *userTable) byID(_ context.Context, ids []int) ([]batchloader.Result[*user], error) {
	t.mu.Lock()
	t.idQueries = append(t.idQueries, slices.Clone(ids))
	t.mu.Unlock()

	results := make([]batchloader.Result[*user], len(ids))
	for i, id := range ids {
		idx := slices.IndexFunc(t.users, func(u *user) bool { return u.ID == id })
		if idx < 0 {
			results[i].Err = fmt.Errorf("id=%d: %w", id, errUserNotFound)
			continue
		}
		results[i].Value = t.users[idx]
	}
	return results, nil
}

func (t *userTable) byEmail(_ context.Context, emails []string) ([]batchloader.Result[*user], error) {
	t.mu.Lock()
	t.mailQueries = append(t.mailQueries, slices.Clone(emails))
	t.mu.Unlock()

	results := make([]batchloader.Result[*user], len(emails))
	for i, email := range emails {
		idx := slices.IndexFunc(t.users, func(u *user) bool { return u.Email == email })
		if idx < 0 {
			results[i].Err = fmt.Errorf("email=%s: %w", email, errUserNotFound)
			continue
		}
		results[i].Value = t.users[idx]
	}
	return results, nil
}

func (t *userTable) queries() ([][]int, [][]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.idQueries), slices.Clone(t.mailQueries)
}

type userLoaders struct {
	storage *connectedloader.Storage[*user]
	byID    *connectedloader.Loader[int, *user, int]
	byEmail *connectedloader.Loader[string, *user, string]
	sched   *batchloader.ManualScheduler
}

func newUserLoaders(table *userTable) *userLoaders {
	var sched batchloader.ManualScheduler
	storage := connectedloader.NewStorage[*user]()
	return &userLoaders{
		storage: storage,
		byID: connectedloader.New(storage, table.byID, func(u *user) int { return u.ID },
			connectedloader.WithLoaderOptions(batchloader.WithBatchScheduleFunc[int, *user, int](sched.Schedule)),
		),
		byEmail: connectedloader.New(storage, table.byEmail, func(u *user) string { return u.Email },
			connectedloader.WithLoaderOptions(batchloader.WithBatchScheduleFunc[string, *user, string](sched.Schedule)),
		),
		sched: &sched,
	}
}

// loadByID loads a user by id, flushing the batch window.
func (l *userLoaders) loadByID(ctx context.Context, id int) (*user, error) {
	thunk := l.byID.LoadThunk(id)
	l.sched.Flush()
	return thunk(ctx)
}

// loadByEmail loads a user by email, flushing the batch window.
func (l *userLoaders) loadByEmail(ctx context.Context, email string) (*user, error) {
	thunk := l.byEmail.LoadThunk(email)
	l.sched.Flush()
	return thunk(ctx)
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	table := newUserTable()
	loaders := newUserLoaders(table)

	john, err := loaders.loadByID(t.Context(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if john.Email != "john@test.com" {
		t.Errorf("unexpected user: %+v", john)
	}

	got, err := loaders.loadByEmail(t.Context(), "john@test.com")
	if err != nil {
		t.Fatal(err)
	}
	if got != john {
		t.Errorf("expected the same user, got %+v", got)
	}

	idQueries, mailQueries := table.queries()
	if diff := cmp.Diff([][]int{{1}}, idQueries); diff != "" {
		t.Errorf("id queries (-want, +got):\n%s", diff)
	}
	if len(mailQueries) != 0 {
		t.Errorf("expected the email loader to hit the cache, got queries %v", mailQueries)
	}
}

func TestLoader_Load_PrimesWithoutWaiter(t *testing.T) {
	t.Parallel()

	t.Run("CanceledContext", func(t *testing.T) {
		t.Parallel()

		table := newUserTable()
		loaders := newUserLoaders(table)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := loaders.byID.LoadThunk(1)(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("unexpected error: %v (expected: %v)", err, context.Canceled)
		}
		loaders.sched.Flush()

		if _, err := loaders.loadByEmail(t.Context(), "john@test.com"); err != nil {
			t.Fatal(err)
		}
		if _, mailQueries := table.queries(); len(mailQueries) != 0 {
			t.Errorf("expected the email loader to hit the cache, got queries %v", mailQueries)
		}
	})

	t.Run("ThunkNeverCalled", func(t *testing.T) {
		t.Parallel()

		table := newUserTable()
		loaders := newUserLoaders(table)

		loaders.byEmail.LoadThunk("jane@test.com")
		loaders.sched.Flush()

		jane, err := loaders.loadByID(t.Context(), 2)
		if err != nil {
			t.Fatal(err)
		}
		if jane.Email != "jane@test.com" {
			t.Errorf("unexpected user: %+v", jane)
		}
		if idQueries, _ := table.queries(); len(idQueries) != 0 {
			t.Errorf("expected the id loader to hit the cache, got queries %v", idQueries)
		}
	})
}

func TestLoader_WithoutCacheIsIgnored(t *testing.T) {
	t.Parallel()

	table := newUserTable()
	var sched batchloader.ManualScheduler
	storage := connectedloader.NewStorage[*user]()
	byID := connectedloader.New(storage, table.byID, func(u *user) int { return u.ID },
		connectedloader.WithLoaderOptions(
			batchloader.WithBatchScheduleFunc[int, *user, int](sched.Schedule),
			batchloader.WithoutCache[int, *user, int](),
		),
	)

	thunks := []batchloader.Thunk[*user]{byID.LoadThunk(1), byID.LoadThunk(1)}
	sched.Flush()
	for _, thunk := range thunks {
		if _, err := thunk(t.Context()); err != nil {
			t.Fatal(err)
		}
	}
	idQueries, _ := table.queries()
	if diff := cmp.Diff([][]int{{1}}, idQueries); diff != "" {
		t.Errorf("id queries (-want, +got):\n%s", diff)
	}
}

func TestLoader_LoadThunk_Dedup(t *testing.T) {
	t.Parallel()

	table := newUserTable()
	loaders := newUserLoaders(table)

	thunks := []batchloader.Thunk[*user]{
		loaders.byID.LoadThunk(1),
		loaders.byID.LoadThunk(2),
		loaders.byID.LoadThunk(1),
	}
	loaders.sched.Flush()

	got := make([]string, len(thunks))
	for i, thunk := range thunks {
		u, err := thunk(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		got[i] = u.Name
	}
	if diff := cmp.Diff([]string{"John", "Jane", "John"}, got); diff != "" {
		t.Errorf("unexpected users (-want, +got):\n%s", diff)
	}

	idQueries, _ := table.queries()
	if diff := cmp.Diff([][]int{{1, 2}}, idQueries); diff != "" {
		t.Errorf("id queries (-want, +got):\n%s", diff)
	}
}

func TestLoader_LoadMany(t *testing.T) {
	t.Parallel()

	table := newUserTable()
	storage := connectedloader.NewStorage[*user]()
	byID := connectedloader.New(storage, table.byID, func(u *user) int { return u.ID },
		connectedloader.WithLoaderOptions(batchloader.WithWait[int, *user, int](20*time.Millisecond)),
	)
	byEmail := connectedloader.New(storage, table.byEmail, func(u *user) string { return u.Email })

	results := byID.LoadMany(t.Context(), []int{1, 99, 3})
	if results[0].Err != nil || results[0].Value.Name != "John" {
		t.Errorf("unexpected result for 1: %+v", results[0])
	}
	if !errors.Is(results[1].Err, errUserNotFound) || results[1].Value != nil {
		t.Errorf("unexpected result for 99: %+v", results[1])
	}
	if results[2].Err != nil || results[2].Value.Name != "Bob" {
		t.Errorf("unexpected result for 3: %+v", results[2])
	}

	// the loaded users are primed into the other loader, the failed key is fetched again
	for _, email := range []string{"john@test.com", "bob@test.com"} {
		if _, err := byEmail.Load(t.Context(), email); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := byID.Load(t.Context(), 99); !errors.Is(err, errUserNotFound) {
		t.Errorf("unexpected error: %v", err)
	}

	idQueries, mailQueries := table.queries()
	if diff := cmp.Diff([][]int{{1, 99, 3}, {99}}, idQueries); diff != "" {
		t.Errorf("id queries (-want, +got):\n%s", diff)
	}
	if len(mailQueries) != 0 {
		t.Errorf("unexpected email queries: %v", mailQueries)
	}
}

func TestLoader_ClearValue(t *testing.T) {
	t.Parallel()

	table := newUserTable()
	loaders := newUserLoaders(table)

	john, err := loaders.loadByID(t.Context(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loaders.loadByID(t.Context(), 2); err != nil {
		t.Fatal(err)
	}

	loaders.byEmail.ClearValue(john)
	if _, err := loaders.loadByID(t.Context(), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := loaders.loadByEmail(t.Context(), "john@test.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := loaders.loadByEmail(t.Context(), "jane@test.com"); err != nil {
		t.Fatal(err)
	}

	idQueries, mailQueries := table.queries()
	if diff := cmp.Diff([][]int{{1}, {2}, {1}}, idQueries); diff != "" {
		t.Errorf("id queries (-want, +got):\n%s", diff)
	}
	// john was primed again by the reload through the id loader.
	if len(mailQueries) != 0 {
		t.Errorf("unexpected email queries: %v", mailQueries)
	}
}

func TestLoader_ClearAll(t *testing.T) {
	t.Parallel()

	table := newUserTable()
	loaders := newUserLoaders(table)

	if _, err := loaders.loadByID(t.Context(), 1); err != nil {
		t.Fatal(err)
	}
	loaders.byID.ClearAll()
	loaders.byEmail.ClearAll()

	if _, err := loaders.loadByEmail(t.Context(), "john@test.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := loaders.loadByID(t.Context(), 1); err != nil {
		t.Fatal(err)
	}

	idQueries, mailQueries := table.queries()
	if diff := cmp.Diff([][]int{{1}}, idQueries); diff != "" {
		t.Errorf("id queries (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"john@test.com"}}, mailQueries); diff != "" {
		t.Errorf("email queries (-want, +got):\n%s", diff)
	}
}

func TestLoader_PrimeValue(t *testing.T) {
	t.Parallel()

	table := newUserTable()
	loaders := newUserLoaders(table)

	stranger := &user{ID: 42, Email: "stranger@test.com", Name: "Stranger"}
	loaders.byID.PrimeValue(stranger)

	got, err := loaders.byEmail.Load(t.Context(), "stranger@test.com")
	if err != nil {
		t.Fatal(err)
	}
	if got != stranger {
		t.Errorf("unexpected user: %+v", got)
	}

	t.Run("OverwritesInFlight", func(t *testing.T) {
		thunk := loaders.byID.LoadThunk(1)
		primed := &user{ID: 1, Email: "john@test.com", Name: "Primed John"}
		loaders.byID.PrimeValue(primed)

		got, err := loaders.byID.Load(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if got != primed {
			t.Errorf("expected the primed user, got %+v", got)
		}

		loaders.sched.Flush()
		fetched, err := thunk(t.Context())
		if err != nil {
			t.Fatal(err)
		}
		if fetched.Name != "John" {
			t.Errorf("the in-flight load must see the fetched user, got %+v", fetched)
		}
	})
}

func TestLoader_Prime(t *testing.T) {
	t.Parallel()

	t.Run("FillsOtherLoaders", func(t *testing.T) {
		t.Parallel()

		table := newUserTable()
		loaders := newUserLoaders(table)

		stranger := &user{ID: 42, Email: "stranger@test.com"}
		if !loaders.byID.Prime(42, stranger) {
			t.Fatal("expected the value to be stored")
		}
		got, err := loaders.byEmail.Load(t.Context(), "stranger@test.com")
		if err != nil {
			t.Fatal(err)
		}
		if got != stranger {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("KeepsCachedValue", func(t *testing.T) {
		t.Parallel()

		table := newUserTable()
		loaders := newUserLoaders(table)

		john, err := loaders.loadByID(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if loaders.byID.Prime(1, &user{ID: 1, Email: "john@test.com", Name: "Other"}) {
			t.Error("expected the cached value to be kept")
		}
		got, err := loaders.byEmail.Load(t.Context(), "john@test.com")
		if err != nil {
			t.Fatal(err)
		}
		if got != john {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("KeepsOtherLoaders", func(t *testing.T) {
		t.Parallel()

		table := newUserTable()
		loaders := newUserLoaders(table)

		john, err := loaders.loadByEmail(t.Context(), "john@test.com")
		if err != nil {
			t.Fatal(err)
		}
		loaders.byID.Clear(1)

		other := &user{ID: 1, Email: "john@test.com", Name: "Other"}
		if !loaders.byID.Prime(1, other) {
			t.Fatal("expected the value to be stored")
		}
		got, err := loaders.byEmail.Load(t.Context(), "john@test.com")
		if err != nil {
			t.Fatal(err)
		}
		if got != john {
			t.Errorf("expected the email loader to keep its value, got %+v", got)
		}
	})
}

func TestLoader_WithValueCloner(t *testing.T) {
	t.Parallel()

	storage := connectedloader.NewStorage[*clonableUser]()
	loader := connectedloader.New(storage,
		func(_ context.Context, ids []string) ([]batchloader.Result[*clonableUser], error) {
			results := make([]batchloader.Result[*clonableUser], len(ids))
			for i, id := range ids {
				results[i].Value = &clonableUser{ID: id}
			}
			return results, nil
		},
		func(u *clonableUser) string { return u.ID },
		connectedloader.WithValueCloner[string, *clonableUser, string](connectedloader.DefaultValueCloner[*clonableUser]()),
	)

	a, err := loader.Load(t.Context(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	a.Email = "modified@test.com"

	b, err := loader.Load(t.Context(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if a == b || b.Email != "" {
		t.Errorf("expected an untouched clone, got %+v", b)
	}
}

func TestLoader_ValueKey(t *testing.T) {
	t.Parallel()

	loaders := newUserLoaders(newUserTable())
	john := &user{ID: 1, Email: "john@test.com"}
	if got := loaders.byID.ValueKey(john); got != 1 {
		t.Errorf("unexpected id: %d", got)
	}
	if got := loaders.byEmail.ValueKey(john); got != "john@test.com" {
		t.Errorf("unexpected email: %s", got)
	}
	if loaders.storage.Len() != 2 {
		t.Errorf("unexpected number of stores: %d", loaders.storage.Len())
	}
}
