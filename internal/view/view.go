// Package view is the top-level screen logic: it gates protected content on
// session validity and owns the single near-expiry timer.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/taskpulse/taskpulse-go/internal/credstore"
	"github.com/taskpulse/taskpulse-go/internal/session"
	"github.com/taskpulse/taskpulse-go/internal/tasks"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
)

// Scratch keys.
const (
	KeyEmail = "email"
	KeyRoute = "route"
)

const DefaultRoute = "tasks"

// TaskLister loads the signed-in user's tasks.
type TaskLister interface {
	List(ctx context.Context) ([]tasks.Task, error)
}

// Redirector sends the user to sign-in, recording why.
type Redirector interface {
	Redirect(reason string)
}

type Options struct {
	// RefreshBuffer is how long before expiry OnExpiring runs.
	// Zero selects session.DefaultRefreshBuffer.
	RefreshBuffer time.Duration
	// OnExpiring replaces the default forced re-authentication.
	OnExpiring func()
	Scratch    *credstore.Scratch
}

// Snapshot is what an authenticated activation renders.
type Snapshot struct {
	Route     string
	Subject   int64
	Email     string
	Remaining time.Duration
	Tasks     []tasks.Task
}

type View struct {
	clock   *session.Clock
	store   credstore.Store
	nav     Redirector
	tasks   TaskLister
	buffer  time.Duration
	expire  func()
	scratch *credstore.Scratch

	mu     sync.Mutex
	handle *session.RefreshHandle
}

func New(clock *session.Clock, store credstore.Store, nav Redirector, lister TaskLister, opts Options) *View {
	v := &View{
		clock:   clock,
		store:   store,
		nav:     nav,
		tasks:   lister,
		buffer:  opts.RefreshBuffer,
		scratch: opts.Scratch,
	}
	if v.buffer <= 0 {
		v.buffer = session.DefaultRefreshBuffer
	}
	if v.scratch == nil {
		v.scratch = credstore.NewScratch()
	}
	v.expire = opts.OnExpiring
	if v.expire == nil {
		v.expire = func() {
			if err := v.signOut(context.Background(), "expiring"); err != nil {
				logger.Errorf("view: forced sign-out failed: %v", err)
			}
		}
	}
	return v
}

// Activate mounts the default route.
func (v *View) Activate(ctx context.Context) (*Snapshot, error) {
	return v.Navigate(ctx, DefaultRoute)
}

// Navigate re-checks the session and loads route. When the session is not
// valid it redirects to sign-in and returns a nil snapshot without fetching
// anything.
func (v *View) Navigate(ctx context.Context, route string) (*Snapshot, error) {
	if !v.clock.IsAuthenticated(ctx) {
		v.cancel()
		v.nav.Redirect("unauthenticated")
		return nil, nil
	}
	claims := v.clock.Claims(ctx)
	if !v.arm(ctx) {
		v.nav.Redirect("unschedulable")
		return nil, nil
	}

	snap := &Snapshot{Route: route, Email: claims.Email}
	snap.Subject, _ = claims.SubjectID()
	snap.Remaining, _ = v.clock.RemainingStored(ctx)
	if claims.Email != "" {
		v.scratch.Set(KeyEmail, claims.Email)
	}
	v.scratch.Set(KeyRoute, route)

	list, err := v.tasks.List(ctx)
	if err != nil {
		return nil, err
	}
	snap.Tasks = list
	return snap, nil
}

// arm replaces any outstanding refresh handle with a fresh one.
func (v *View) arm(ctx context.Context) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clock.CancelRefresh(v.handle)
	v.handle = v.clock.ScheduleRefresh(ctx, v.expire, v.buffer)
	return v.handle != nil
}

func (v *View) cancel() {
	v.mu.Lock()
	v.clock.CancelRefresh(v.handle)
	v.handle = nil
	v.mu.Unlock()
}

// Pending reports whether a refresh callback is scheduled.
func (v *View) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.handle != nil
}

// Logout clears the credential and the scratch slot and redirects. The
// server is not contacted.
func (v *View) Logout(ctx context.Context) error {
	return v.signOut(ctx, "logout")
}

func (v *View) signOut(ctx context.Context, reason string) error {
	v.cancel()
	err := v.store.Clear(ctx)
	v.scratch.Clear()
	v.nav.Redirect(reason)
	return err
}

// Close releases the refresh timer without touching the credential.
func (v *View) Close() {
	v.cancel()
}
