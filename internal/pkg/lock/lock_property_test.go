package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestGuardSerializesMutationsProperty checks that concurrent read-modify-write
// cycles under one guard end with the sequential result.
func TestGuardSerializesMutationsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(2, 30).Draw(t, "numOps")
		deltas := rapid.SliceOfN(rapid.IntRange(-5, 5), numOps, numOps).Draw(t, "deltas")

		g := NewGuard("roster")
		total := 0
		want := 0
		for _, d := range deltas {
			want += d
		}

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, d := range deltas {
			go func(d int) {
				defer wg.Done()
				_ = g.WithLock("test", func() error {
					cur := total
					total = cur + d
					return nil
				})
			}(d)
		}
		wg.Wait()

		if total != want {
			t.Fatalf("expected %d, got %d", want, total)
		}
		if g.IsLocked() {
			t.Fatal("guard still held after all critical sections returned")
		}
	})
}

// TestGuardReleasedOnErrorProperty checks that an erroring critical section
// still releases the guard.
func TestGuardReleasedOnErrorProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cycles := rapid.IntRange(1, 40).Draw(t, "cycles")
		g := NewGuard("alarm")
		boom := errors.New("boom")

		for i := 0; i < cycles; i++ {
			fail := rapid.Bool().Draw(t, "fail")
			err := g.WithLock("test", func() error {
				if fail {
					return boom
				}
				return nil
			})
			if fail && !errors.Is(err, boom) {
				t.Fatalf("error not propagated: %v", err)
			}
			if g.IsLocked() {
				t.Fatal("guard leaked")
			}
		}
	})
}

func TestGuard_ReleasedOnPanic(t *testing.T) {
	g := NewGuard("roster")

	assert.Panics(t, func() {
		_ = g.WithLock("test", func() error { panic("bad") })
	})
	assert.False(t, g.IsLocked())
}

func TestGuard_WithLockContextCancelled(t *testing.T) {
	g := NewGuard("roster")
	hold := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = g.WithLock("holder", func() error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.WithLockContext(ctx, "waiter", func() error {
		t.Fatal("critical section must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	close(hold)
}

func TestGuard_WithLockTimeout(t *testing.T) {
	g := NewGuard("roster")
	hold := make(chan struct{})
	held := make(chan struct{})

	go func() {
		_ = g.WithLock("holder", func() error {
			close(held)
			<-hold
			return nil
		})
	}()
	<-held

	err := g.WithLockTimeout(context.Background(), "waiter", 20*time.Millisecond, func() error { return nil })
	assert.ErrorIs(t, err, ErrLockTimeout)

	close(hold)
	err = g.WithLockTimeout(context.Background(), "waiter", time.Second, func() error { return nil })
	assert.NoError(t, err)
}

func TestWithBoth(t *testing.T) {
	players := NewGuard("players")
	alarm := NewGuard("alarm")

	err := WithBoth(players, alarm, "test", func() error {
		assert.True(t, players.IsLocked())
		assert.True(t, alarm.IsLocked())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, players.IsLocked())
	assert.False(t, alarm.IsLocked())
}

// TestUserLockIndependentUsersProperty checks that each user's counter only
// sees that user's operations.
func TestUserLockIndependentUsersProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numUsers := rapid.IntRange(2, 10).Draw(t, "numUsers")
		opsPerUser := rapid.IntRange(5, 20).Draw(t, "opsPerUser")

		ul := NewUserLock()
		counts := make([]int, numUsers+1)

		var wg sync.WaitGroup
		wg.Add(numUsers * opsPerUser)
		for uid := 1; uid <= numUsers; uid++ {
			for j := 0; j < opsPerUser; j++ {
				go func(uid int) {
					defer wg.Done()
					_ = ul.WithLock(int64(uid), func() error {
						counts[uid]++
						return nil
					})
				}(uid)
			}
		}
		wg.Wait()

		for uid := 1; uid <= numUsers; uid++ {
			if counts[uid] != opsPerUser {
				t.Fatalf("user %d: expected %d ops, got %d", uid, opsPerUser, counts[uid])
			}
		}
	})
}

// TestTryWithLockSingleWinnerProperty checks that concurrent TryWithLock calls
// never run two critical sections for the same user at once.
func TestTryWithLockSingleWinnerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")
		attempts := rapid.IntRange(5, 20).Draw(t, "attempts")

		ul := NewUserLock()
		var inside, maxInside, ran atomic.Int32
		start := make(chan struct{})

		var wg sync.WaitGroup
		wg.Add(attempts)
		for i := 0; i < attempts; i++ {
			go func() {
				defer wg.Done()
				<-start
				ok, _ := ul.TryWithLock(userID, func() error {
					n := inside.Add(1)
					if n > maxInside.Load() {
						maxInside.Store(n)
					}
					inside.Add(-1)
					return nil
				})
				if ok {
					ran.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		if ran.Load() < 1 {
			t.Fatal("at least one TryWithLock should succeed")
		}
		if maxInside.Load() > 1 {
			t.Fatalf("%d critical sections overlapped", maxInside.Load())
		}
		if ul.IsLocked(userID) {
			t.Fatal("lock should be free after all attempts")
		}
	})
}
