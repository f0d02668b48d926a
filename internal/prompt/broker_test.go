package prompt

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBroker_ResolveDeliversAnswer(t *testing.T) {
	b := NewBroker()
	req := b.Open(1, 2)

	go func() {
		_ = b.Resolve(req.ID, 2, "duke")
	}()

	a, err := b.Wait(context.Background(), req, time.Second)
	require.NoError(t, err)
	assert.Equal(t, Answer{UserID: 2, Value: "duke"}, a)
	assert.Zero(t, b.Pending())
}

func TestBroker_RejectsIneligibleWithoutResolving(t *testing.T) {
	b := NewBroker()
	req := b.Open(1)

	assert.ErrorIs(t, b.Resolve(req.ID, 9, "x"), ErrNotEligible)
	assert.Equal(t, 1, b.Pending())

	require.NoError(t, b.Resolve(req.ID, 1, "y"))
	a, err := b.Wait(context.Background(), req, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "y", a.Value)
}

func TestBroker_ResolvesOnlyOnce(t *testing.T) {
	b := NewBroker()
	req := b.Open(1, 2)

	require.NoError(t, b.Resolve(req.ID, 1, "first"))
	assert.ErrorIs(t, b.Resolve(req.ID, 2, "second"), ErrUnknownRequest)

	a, err := b.Wait(context.Background(), req, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", a.Value)
}

func TestBroker_EveryonePasses(t *testing.T) {
	b := NewBroker()
	req := b.Open(1, 2)

	require.NoError(t, b.Resolve(req.ID, 1, Pass))
	assert.ErrorIs(t, b.Resolve(req.ID, 1, Pass), ErrAlreadyPassed)
	assert.Equal(t, 1, b.Pending())
	require.NoError(t, b.Resolve(req.ID, 2, Pass))

	a, err := b.Wait(context.Background(), req, time.Second)
	require.NoError(t, err)
	assert.True(t, a.Passed())
	assert.Zero(t, a.UserID)
}

func TestBroker_PassThenAnswer(t *testing.T) {
	b := NewBroker()
	req := b.Open(1, 2)

	require.NoError(t, b.Resolve(req.ID, 1, Pass))
	require.NoError(t, b.Resolve(req.ID, 1, "challenge"))

	a, err := b.Wait(context.Background(), req, time.Second)
	require.NoError(t, err)
	assert.Equal(t, Answer{UserID: 1, Value: "challenge"}, a)
}

func TestBroker_Timeout(t *testing.T) {
	b := NewBroker()
	req := b.Open(1)

	_, err := b.Wait(context.Background(), req, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Zero(t, b.Pending())
	assert.ErrorIs(t, b.Resolve(req.ID, 1, "late"), ErrUnknownRequest)
}

func TestBroker_Cancel(t *testing.T) {
	b := NewBroker()
	req := b.Open(1)

	b.Cancel(req)
	assert.Zero(t, b.Pending())
	assert.ErrorIs(t, b.Resolve(req.ID, 1, "late"), ErrUnknownRequest)
}

func TestBroker_ContextCancelled(t *testing.T) {
	b := NewBroker()
	req := b.Open(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Wait(ctx, req, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Pending())
}

func TestCallbackRoundTrip(t *testing.T) {
	data := EncodeCallback("abc123", "card_1")
	assert.LessOrEqual(t, len(EncodeCallback(NewBroker().Open().ID, "target_9223372036854775807")), 64)

	id, value, ok := DecodeCallback(data)
	require.True(t, ok)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, "card_1", value)

	_, _, ok = DecodeCallback("shop_buy")
	assert.False(t, ok)
	_, _, ok = DecodeCallback(CallbackPrefix + "noseparator")
	assert.False(t, ok)
}

// TestConcurrentResolveSingleWinnerProperty checks that however many eligible
// players press at once, exactly one press resolves the request.
func TestConcurrentResolveSingleWinnerProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(rt, "responders")
		ids := make([]int64, n)
		for i := range ids {
			ids[i] = int64(i + 1)
		}

		b := NewBroker()
		req := b.Open(ids...)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for _, id := range ids {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				if b.Resolve(req.ID, id, "go") == nil {
					wins.Add(1)
				}
			}(id)
		}
		wg.Wait()

		if got := wins.Load(); got != 1 {
			rt.Fatalf("%d presses resolved the request", got)
		}
		a, err := b.Wait(context.Background(), req, time.Second)
		if err != nil {
			rt.Fatalf("Wait: %v", err)
		}
		if a.UserID < 1 || a.UserID > int64(n) {
			rt.Fatalf("answer from unexpected user %d", a.UserID)
		}
	})
}
