// Package lock provides the scoped locks that guard shared game state.
//
// A Guard protects one piece of state (a game roster, the Uno call alarm).
// Critical sections are closures so the lock is released on every exit path,
// including panics and error returns. UserLock hands out one Guard per user
// and serialises a user's commands.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Guard is a named mutual-exclusion lock with context-aware acquisition.
type Guard struct {
	name string
	sem  chan struct{}
}

// NewGuard creates an unlocked guard. The name shows up in debug logs.
func NewGuard(name string) *Guard {
	return &Guard{name: name, sem: make(chan struct{}, 1)}
}

// Name returns the guard's name.
func (g *Guard) Name() string {
	return g.name
}

func (g *Guard) acquired(reason string) {
	log.Debug().Str("lock", g.name).Str("reason", reason).Msg("lock acquired")
}

func (g *Guard) release(reason string) {
	<-g.sem
	log.Debug().Str("lock", g.name).Str("reason", reason).Msg("lock released")
}

// WithLock runs fn while holding the guard.
func (g *Guard) WithLock(reason string, fn func() error) error {
	g.sem <- struct{}{}
	g.acquired(reason)
	defer g.release(reason)
	return fn()
}

// WithLockContext runs fn while holding the guard. It gives up with the
// context's error if ctx ends before the guard is acquired.
func (g *Guard) WithLockContext(ctx context.Context, reason string, fn func() error) error {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	g.acquired(reason)
	defer g.release(reason)
	return fn()
}

// WithLockTimeout is WithLockContext bounded by timeout. It returns
// ErrLockTimeout when the guard could not be acquired in time.
func (g *Guard) WithLockTimeout(ctx context.Context, reason string, timeout time.Duration, fn func() error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case g.sem <- struct{}{}:
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrLockTimeout
	}
	g.acquired(reason)
	defer g.release(reason)
	return fn()
}

// TryWithLock runs fn only if the guard is free. It reports whether fn ran.
func (g *Guard) TryWithLock(reason string, fn func() error) (bool, error) {
	select {
	case g.sem <- struct{}{}:
	default:
		return false, nil
	}
	g.acquired(reason)
	defer g.release(reason)
	return true, fn()
}

// IsLocked reports whether the guard is currently held.
// This is a point-in-time check and may change immediately after.
func (g *Guard) IsLocked() bool {
	return len(g.sem) == 1
}

// WithBoth runs fn while holding first and then second. Callers must always
// pass the guards in the same order.
func WithBoth(first, second *Guard, reason string, fn func() error) error {
	return first.WithLock(reason, func() error {
		return second.WithLock(reason, fn)
	})
}

// UserLock provides one guard per user so that a user's commands are
// handled one at a time.
type UserLock struct {
	mu     sync.Mutex
	guards map[int64]*Guard
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{guards: make(map[int64]*Guard)}
}

// guard retrieves or creates the guard for the given user ID.
func (ul *UserLock) guard(userID int64) *Guard {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	g, ok := ul.guards[userID]
	if !ok {
		g = NewGuard("user")
		ul.guards[userID] = g
	}
	return g
}

// WithLock executes fn while holding the user's guard.
func (ul *UserLock) WithLock(userID int64, fn func() error) error {
	return ul.guard(userID).WithLock("user command", fn)
}

// WithLockContext executes fn while holding the user's guard, giving up after
// timeout or when ctx ends.
func (ul *UserLock) WithLockContext(ctx context.Context, userID int64, timeout time.Duration, fn func() error) error {
	return ul.guard(userID).WithLockTimeout(ctx, "user command", timeout, fn)
}

// TryWithLock runs fn only if the user has no command in flight.
func (ul *UserLock) TryWithLock(userID int64, fn func() error) (bool, error) {
	return ul.guard(userID).TryWithLock("user command", fn)
}

// IsLocked checks if a user currently has a command in flight.
func (ul *UserLock) IsLocked(userID int64) bool {
	ul.mu.Lock()
	g, ok := ul.guards[userID]
	ul.mu.Unlock()
	return ok && g.IsLocked()
}
