package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/taskpulse/taskpulse-go/internal/credstore"
	"github.com/taskpulse/taskpulse-go/internal/session"
	"github.com/taskpulse/taskpulse-go/internal/tasks"
	"github.com/taskpulse/taskpulse-go/internal/tokens/tokentest"
)

type reasons struct {
	mu  sync.Mutex
	got []string
	ch  chan string
}

func newReasons() *reasons { return &reasons{ch: make(chan string, 16)} }

func (r *reasons) Redirect(reason string) {
	r.mu.Lock()
	r.got = append(r.got, reason)
	r.mu.Unlock()
	r.ch <- reason
}

func (r *reasons) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

type fakeLister struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeLister) List(context.Context) ([]tasks.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []tasks.Task{{ID: 1, Title: "a", UserID: 7}}, nil
}

func (f *fakeLister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	v       *View
	mock    *clock.Mock
	store   *credstore.MemoryStore
	scratch *credstore.Scratch
	nav     *reasons
	lister  *fakeLister
}

func newFixture(opts Options) *fixture {
	mock := clock.NewMock()
	mock.Set(time.Unix(1_700_000_000, 0))
	store := credstore.NewMemoryStore()
	f := &fixture{mock: mock, store: store, nav: newReasons(), lister: &fakeLister{}}
	if opts.Scratch == nil {
		opts.Scratch = credstore.NewScratch()
	}
	f.scratch = opts.Scratch
	f.v = New(session.New(store, mock), store, f.nav, f.lister, opts)
	return f
}

func TestActivate_UnauthenticatedRedirectsWithoutFetching(t *testing.T) {
	for name, raw := range map[string]string{
		"absent":    "",
		"malformed": "abc.def",
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(Options{})
			require.NoError(t, f.store.Store(context.Background(), raw))

			snap, err := f.v.Activate(context.Background())
			require.NoError(t, err)
			require.Nil(t, snap)
			require.Equal(t, []string{"unauthenticated"}, f.nav.list())
			require.Zero(t, f.lister.count())
			require.False(t, f.v.Pending())
		})
	}
}

func TestActivate_ExpiredCredential(t *testing.T) {
	f := newFixture(Options{})
	require.NoError(t, f.store.Store(context.Background(), tokentest.For(7, f.mock.Now())))
	snap, err := f.v.Activate(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap)
	require.Zero(t, f.lister.count())
}

func TestActivate_ValidLoadsTasksAndArmsTimer(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, tokentest.For(7, f.mock.Now().Add(time.Hour))))

	snap, err := f.v.Activate(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, int64(7), snap.Subject)
	require.Equal(t, "user@example.com", snap.Email)
	require.Equal(t, time.Hour, snap.Remaining)
	require.Len(t, snap.Tasks, 1)
	require.True(t, f.v.Pending())

	email, ok := f.scratch.Get(KeyEmail)
	require.True(t, ok)
	require.Equal(t, "user@example.com", email)
	f.v.Close()
}

func TestNavigate_KeepsSingleRefreshHandle(t *testing.T) {
	fired := make(chan struct{}, 8)
	f := newFixture(Options{RefreshBuffer: time.Minute, OnExpiring: func() { fired <- struct{}{} }})
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, tokentest.For(7, f.mock.Now().Add(2*time.Minute))))

	_, err := f.v.Activate(ctx)
	require.NoError(t, err)
	_, err = f.v.Navigate(ctx, "tasks")
	require.NoError(t, err)
	_, err = f.v.Navigate(ctx, "tasks")
	require.NoError(t, err)

	f.mock.Add(time.Minute)
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh callback did not fire")
	}
	select {
	case <-fired:
		t.Fatal("stale refresh handle fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDefaultExpiringForcesSignIn(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, tokentest.For(7, f.mock.Now().Add(90*time.Second))))

	_, err := f.v.Activate(ctx)
	require.NoError(t, err)

	f.mock.Add(29 * time.Second)
	select {
	case r := <-f.nav.ch:
		t.Fatalf("unexpected redirect %q", r)
	case <-time.After(50 * time.Millisecond):
	}

	f.mock.Add(time.Second)
	select {
	case r := <-f.nav.ch:
		require.Equal(t, "expiring", r)
	case <-time.After(2 * time.Second):
		t.Fatal("no forced sign-in")
	}
	got, _ := f.store.Retrieve(ctx)
	require.Empty(t, got)
	require.Zero(t, f.scratch.Len())
}

func TestLogout(t *testing.T) {
	f := newFixture(Options{})
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, tokentest.For(7, f.mock.Now().Add(time.Hour))))
	_, err := f.v.Activate(ctx)
	require.NoError(t, err)
	require.NotZero(t, f.scratch.Len())

	require.NoError(t, f.v.Logout(ctx))
	got, _ := f.store.Retrieve(ctx)
	require.Empty(t, got)
	require.Zero(t, f.scratch.Len())
	require.False(t, f.v.Pending())
	require.Equal(t, []string{"logout"}, f.nav.list())

	// a second logout is harmless
	require.NoError(t, f.v.Logout(ctx))
}

func TestActivate_PropagatesFetchErrors(t *testing.T) {
	f := newFixture(Options{})
	f.lister.err = errors.New("HTTP status 500")
	ctx := context.Background()
	require.NoError(t, f.store.Store(ctx, tokentest.For(7, f.mock.Now().Add(time.Hour))))

	snap, err := f.v.Activate(ctx)
	require.Error(t, err)
	require.Nil(t, snap)
	f.v.Close()
}
