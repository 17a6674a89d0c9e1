package wishlist

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/freshcart/internal/client/api"
	"github.com/dmitrijs2005/freshcart/internal/client/auth"
	"github.com/dmitrijs2005/freshcart/internal/client/backendtest"
	"github.com/dmitrijs2005/freshcart/internal/client/credentials"
	"github.com/dmitrijs2005/freshcart/internal/client/models"
	"github.com/dmitrijs2005/freshcart/internal/client/nav"
	"github.com/dmitrijs2005/freshcart/internal/client/storage"
	"github.com/dmitrijs2005/freshcart/internal/common"
	"github.com/dmitrijs2005/freshcart/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

type signedIn bool

func (s signedIn) HasCredentials(context.Context) bool { return bool(s) }

// fakeAPI blocks each write on gate, when set, and fails writes listed in fail.
type fakeAPI struct {
	mu     sync.Mutex
	remote []models.Product
	fail   map[string]error
	gate   map[string]chan struct{}
	calls  atomic.Int64

	loadGate chan struct{}
}

func (f *fakeAPI) Wishlist(context.Context, int, int) ([]models.Product, error) {
	f.calls.Add(1)
	if f.loadGate != nil {
		<-f.loadGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Product(nil), f.remote...), nil
}

func (f *fakeAPI) write(id string) error {
	f.calls.Add(1)
	f.mu.Lock()
	gate := f.gate[id]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail[id]
}

func (f *fakeAPI) AddToWishlist(_ context.Context, id string) error      { return f.write(id) }
func (f *fakeAPI) RemoveFromWishlist(_ context.Context, id string) error { return f.write(id) }

func prod(id string) models.Product {
	return models.Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(100), Category: models.Ref{ID: "c1", Name: "Fruit"}}
}

func keys(items []models.Product) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.Key())
	}
	return out
}

func TestLoad_ReplacesLocalState(t *testing.T) {
	fa := &fakeAPI{remote: []models.Product{prod("p1"), prod("p2"), prod("p1")}}
	s := New(fa, signedIn(true), logging.Nop())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, []string{"p1", "p2"}, keys(s.Items()))
	assert.False(t, s.Loading())
}

func TestLoad_WithoutCredentialSkipsNetwork(t *testing.T) {
	fa := &fakeAPI{remote: []models.Product{prod("p1")}}
	s := New(fa, signedIn(false), logging.Nop())

	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Items())
	assert.Zero(t, fa.calls.Load())
}

func TestScenario_ToggleWithoutCredential(t *testing.T) {
	fa := &fakeAPI{}
	s := New(fa, signedIn(false), logging.Nop())

	res, err := s.Toggle(context.Background(), prod("p1"))
	require.ErrorIs(t, err, common.ErrAuthRequired)
	assert.Equal(t, ToggleResult{}, res)
	assert.Zero(t, fa.calls.Load(), "no network call")
	assert.Empty(t, s.Items())
}

func TestToggle_RejectsProductWithoutID(t *testing.T) {
	s := New(&fakeAPI{}, signedIn(true), logging.Nop())
	_, err := s.Toggle(context.Background(), models.Product{Name: "nameless"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestToggle_AddThenRemove(t *testing.T) {
	s := New(&fakeAPI{}, signedIn(true), logging.Nop())
	ctx := context.Background()

	res, err := s.Toggle(ctx, prod("p1"))
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{ProductID: "p1", Added: true}, res)
	assert.True(t, s.Contains("p1"))

	res, err = s.Toggle(ctx, prod("p1"))
	require.NoError(t, err)
	assert.False(t, res.Added)
	assert.False(t, s.Contains("p1"))
}

func TestToggle_RollbackIsExact(t *testing.T) {
	boom := errors.New("503")
	fa := &fakeAPI{
		remote: []models.Product{prod("p1"), prod("p2"), prod("p3")},
		fail:   map[string]error{"p2": boom, "p9": boom},
	}
	s := New(fa, signedIn(true), logging.Nop())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))
	before := s.Items()

	res, err := s.Toggle(ctx, prod("p2"))
	require.ErrorIs(t, err, boom)
	assert.True(t, res.RolledBack)
	if diff := cmp.Diff(before, s.Items(), decimalEqual); diff != "" {
		t.Fatalf("rollback of remove differs (-before +after):\n%s", diff)
	}

	_, err = s.Toggle(ctx, prod("p9"))
	require.ErrorIs(t, err, boom)
	if diff := cmp.Diff(before, s.Items(), decimalEqual); diff != "" {
		t.Fatalf("rollback of add differs (-before +after):\n%s", diff)
	}
}

func TestToggle_OptimisticStateVisibleInFlight(t *testing.T) {
	gate := make(chan struct{})
	fa := &fakeAPI{gate: map[string]chan struct{}{"p1": gate}}
	s := New(fa, signedIn(true), logging.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := s.Toggle(context.Background(), prod("p1"))
		done <- err
	}()

	require.Eventually(t, func() bool { return s.Contains("p1") }, time.Second, 5*time.Millisecond)
	close(gate)
	require.NoError(t, <-done)
	assert.True(t, s.Contains("p1"))
}

func TestToggle_DoubleToggleReturnsToOriginal(t *testing.T) {
	gate1 := make(chan struct{})
	fa := &fakeAPI{gate: map[string]chan struct{}{"p1": gate1}}
	s := New(fa, signedIn(true), logging.Nop())
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := s.Toggle(ctx, prod("p1"))
		first <- err
	}()
	require.Eventually(t, func() bool { return s.Contains("p1") }, time.Second, 5*time.Millisecond)

	// second toggle resolves before the first one
	fa.mu.Lock()
	fa.gate = nil
	fa.mu.Unlock()
	_, err := s.Toggle(ctx, prod("p1"))
	require.NoError(t, err)

	close(gate1)
	require.NoError(t, <-first)
	assert.False(t, s.Contains("p1"))
	assert.Empty(t, s.Items())
}

func TestToggle_LateFailureKeepsOtherToggles(t *testing.T) {
	boom := errors.New("timeout")
	gate := make(chan struct{})
	fa := &fakeAPI{
		gate: map[string]chan struct{}{"p1": gate},
		fail: map[string]error{"p1": boom},
	}
	s := New(fa, signedIn(true), logging.Nop())
	ctx := context.Background()

	first := make(chan error, 1)
	go func() {
		_, err := s.Toggle(ctx, prod("p1"))
		first <- err
	}()
	require.Eventually(t, func() bool { return s.Contains("p1") }, time.Second, 5*time.Millisecond)

	_, err := s.Toggle(ctx, prod("p2"))
	require.NoError(t, err)

	close(gate)
	require.ErrorIs(t, <-first, boom)
	assert.Equal(t, []string{"p2"}, keys(s.Items()))
}

func TestReset(t *testing.T) {
	fa := &fakeAPI{remote: []models.Product{prod("p1")}}
	s := New(fa, signedIn(true), logging.Nop())
	require.NoError(t, s.Load(context.Background()))

	s.Reset()
	assert.Empty(t, s.Items())
}

func TestToggle_FailureAfterResetKeepsResetState(t *testing.T) {
	boom := errors.New("session expired")
	gate := make(chan struct{})
	fa := &fakeAPI{
		remote: []models.Product{prod("p1")},
		gate:   map[string]chan struct{}{"p1": gate},
		fail:   map[string]error{"p1": boom},
	}
	s := New(fa, signedIn(true), logging.Nop())
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := s.Toggle(ctx, prod("p1"))
		done <- err
	}()
	require.Eventually(t, func() bool { return !s.Contains("p1") }, time.Second, 5*time.Millisecond)

	s.Reset()
	close(gate)
	require.ErrorIs(t, <-done, boom)
	assert.Empty(t, s.Items())
}

func TestLoad_LoadingWhileInFlight(t *testing.T) {
	gate := make(chan struct{})
	fa := &fakeAPI{remote: []models.Product{prod("p1")}, loadGate: gate}
	s := New(fa, signedIn(true), logging.Nop())
	assert.False(t, s.Loading())

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	require.Eventually(t, s.Loading, time.Second, 5*time.Millisecond)
	close(gate)
	require.NoError(t, <-done)
	assert.False(t, s.Loading())
	assert.True(t, s.Contains("p1"))
}

func TestLoad_ResetDuringLoadDropsResult(t *testing.T) {
	gate := make(chan struct{})
	fa := &fakeAPI{remote: []models.Product{prod("p1")}, loadGate: gate}
	s := New(fa, signedIn(true), logging.Nop())

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	require.Eventually(t, s.Loading, time.Second, 5*time.Millisecond)
	s.Reset()
	close(gate)
	require.NoError(t, <-done)
	assert.Empty(t, s.Items())
	assert.False(t, s.Loading())
}

// End to end against the fake backend.

func TestWishlist_AgainstBackend(t *testing.T) {
	ctx := context.Background()
	srv := backendtest.New(t)
	srv.AddUser(backendtest.User{ID: "u1", Email: "a@example.com", Name: "A", Role: "Customer"})
	for _, id := range []string{"p1", "p2"} {
		srv.AddProduct(prod(id))
	}
	srv.SetWishlist("u1", "p1")

	db, err := storage.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	jar, err := credentials.NewJar()
	require.NoError(t, err)
	site, _ := url.Parse(srv.URL)
	store := credentials.NewStore(storage.NewSQLiteStore(db), jar, site, 24*time.Hour, logging.Nop())

	renewer, err := api.New(srv.URL, nil, logging.Nop())
	require.NoError(t, err)
	coord := auth.NewCoordinator(nil, store, renewer, nav.NewRouter("/"), auth.Options{LoginPath: "/login"}, logging.Nop())
	client, err := api.New(srv.URL, &http.Client{Transport: coord}, logging.Nop())
	require.NoError(t, err)

	s := New(client, store, logging.Nop())

	before := srv.Requests()
	_, err = s.Toggle(ctx, prod("p2"))
	require.ErrorIs(t, err, common.ErrAuthRequired)
	assert.Equal(t, before, srv.Requests())

	pair := srv.IssueTokens(t, "u1")
	require.NoError(t, store.Save(ctx, credentials.Credentials{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, []string{"p1"}, keys(s.Items()))

	_, err = s.Toggle(ctx, prod("p2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, srv.Wishlist("u1"))

	srv.FailWishlistWrites(true)
	snapshot := s.Items()
	res, err := s.Toggle(ctx, prod("p1"))
	require.ErrorIs(t, err, common.ErrRemote)
	assert.True(t, res.RolledBack)
	if diff := cmp.Diff(snapshot, s.Items(), decimalEqual); diff != "" {
		t.Fatalf("rollback differs (-before +after):\n%s", diff)
	}
	assert.Equal(t, []string{"p1", "p2"}, srv.Wishlist("u1"))
}
