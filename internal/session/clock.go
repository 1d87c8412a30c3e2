// Package session derives session validity from the stored credential and
// schedules near-expiry callbacks.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/taskpulse/taskpulse-go/internal/credstore"
	"github.com/taskpulse/taskpulse-go/internal/tokens"
	"github.com/taskpulse/taskpulse-go/pkg/logger"
	"github.com/taskpulse/taskpulse-go/pkg/metrics"
)

// DefaultRefreshBuffer is how long before expiry a refresh callback fires.
const DefaultRefreshBuffer = 60 * time.Second

// Validity is the computed state of the current session.
type Validity int

const (
	Absent Validity = iota
	Expired
	Valid
)

func (v Validity) String() string {
	switch v {
	case Absent:
		return "absent"
	case Expired:
		return "expired"
	case Valid:
		return "valid"
	}
	return "unknown"
}

// Clock reads the credential store and answers validity questions against
// an injected time source. Nothing is cached between calls.
type Clock struct {
	store credstore.Store
	clk   clock.Clock
}

// New creates a Clock. A nil clk uses the wall clock.
func New(store credstore.Store, clk clock.Clock) *Clock {
	if clk == nil {
		clk = clock.New()
	}
	return &Clock{store: store, clk: clk}
}

// Now returns the current time of the underlying clock.
func (c *Clock) Now() time.Time { return c.clk.Now() }

func (c *Clock) stored(ctx context.Context) string {
	raw, err := c.store.Retrieve(ctx)
	if err != nil {
		logger.Warnf("session: reading credential failed, treating as absent: %v", err)
		return ""
	}
	return raw
}

// Claims decodes the stored credential; nil when absent or undecodable.
func (c *Clock) Claims(ctx context.Context) *tokens.Claims {
	return tokens.Decode(c.stored(ctx))
}

// Check computes the tri-state validity of the stored credential.
func (c *Clock) Check(ctx context.Context) Validity {
	raw := c.stored(ctx)
	if raw == "" {
		return Absent
	}
	if c.TokenExpired(raw) {
		return Expired
	}
	return Valid
}

// TokenExpired reports whether raw is undecodable or at/after its expiry.
func (c *Clock) TokenExpired(raw string) bool {
	return tokens.Decode(raw).ExpiredAt(c.clk.Now())
}

// Expired reports whether the stored credential is absent, malformed or expired.
func (c *Clock) Expired(ctx context.Context) bool {
	return c.Check(ctx) != Valid
}

// IsAuthenticated is the negation of Expired.
func (c *Clock) IsAuthenticated(ctx context.Context) bool {
	return c.Check(ctx) == Valid
}

// Remaining returns the lifetime left on raw, floored at zero and truncated
// to milliseconds. ok is false when raw cannot be decoded.
func (c *Clock) Remaining(raw string) (d time.Duration, ok bool) {
	claims := tokens.Decode(raw)
	if claims == nil {
		return 0, false
	}
	d = claims.ExpiresAt.Sub(c.clk.Now()).Truncate(time.Millisecond)
	if d < 0 {
		d = 0
	}
	return d, true
}

// RemainingStored is Remaining for the stored credential.
func (c *Clock) RemainingStored(ctx context.Context) (time.Duration, bool) {
	return c.Remaining(c.stored(ctx))
}

// RefreshHandle is a cancellable one-shot callback. The zero value is not usable.
type RefreshHandle struct {
	timer *clock.Timer
	delay time.Duration

	mu      sync.Mutex
	stopped bool
}

// Delay is the wait computed when the callback was scheduled.
func (h *RefreshHandle) Delay() time.Duration { return h.delay }

// Stop cancels the callback. It reports whether the callback was still pending.
func (h *RefreshHandle) Stop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.stopped = true
	return h.timer.Stop()
}

// ScheduleRefresh arranges for fn to run buffer before the stored credential
// expires. It returns nil without scheduling when the credential is absent or
// undecodable; the caller decides whether to force sign-in.
func (c *Clock) ScheduleRefresh(ctx context.Context, fn func(), buffer time.Duration) *RefreshHandle {
	return c.ScheduleRefreshFor(c.stored(ctx), fn, buffer)
}

// ScheduleRefreshFor is ScheduleRefresh for an explicit credential.
// The delay is max(0, remaining-buffer); a negative buffer counts as zero.
func (c *Clock) ScheduleRefreshFor(raw string, fn func(), buffer time.Duration) *RefreshHandle {
	remaining, ok := c.Remaining(raw)
	if !ok {
		logger.Infof("session: credential not decodable, refresh not scheduled")
		return nil
	}
	if buffer < 0 {
		buffer = 0
	}
	delay := remaining - buffer
	if delay < 0 {
		delay = 0
	}
	h := &RefreshHandle{delay: delay}
	h.timer = c.clk.AfterFunc(delay, fn)
	metrics.RefreshScheduled.Inc()
	logger.Debugf("session: refresh scheduled in %s (remaining %s)", delay, remaining)
	return h
}

// CancelRefresh cancels h. A nil handle is a no-op.
func (c *Clock) CancelRefresh(h *RefreshHandle) {
	if h == nil {
		return
	}
	h.Stop()
}
