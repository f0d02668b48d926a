package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-game-bot/internal/game"
)

type stubGame struct{ min, max int }

func (s stubGame) Name() string { return "Stub" }
func (s stubGame) Command() string { return "stub" }
func (s stubGame) Description() string { return "" }
func (s stubGame) Rules() string { return "" }
func (s stubGame) MinPlayers() int { return s.min }
func (s stubGame) MaxPlayers() int { return s.max }

// blockingMatch runs until release is closed or its context ends, then
// declares the first player the winner.
type blockingMatch struct {
	players []game.PlayerInfo
	release chan struct{}
	fail    error
}

func (b *blockingMatch) Start(ctx context.Context) (game.PlayerInfo, error) {
	select {
	case <-b.release:
		if b.fail != nil {
			return game.PlayerInfo{}, b.fail
		}
		return b.players[0], nil
	case <-ctx.Done():
		return game.PlayerInfo{}, ctx.Err()
	}
}

func (b *blockingMatch) HasPlayer(id int64) bool {
	for _, p := range b.players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (b *blockingMatch) Status() game.Status { return game.Status{} }
func (b *blockingMatch) Hand(int64) ([]string, error) { return nil, nil }

type fixture struct {
	m       *Manager
	matches chan *blockingMatch
	results chan Result
}

func newFixture(minPlayers, maxPlayers int) *fixture {
	f := &fixture{matches: make(chan *blockingMatch, 4), results: make(chan Result, 4)}
	factory := func(t game.Table) (game.Match, error) {
		bm := &blockingMatch{players: t.Players, release: make(chan struct{})}
		f.matches <- bm
		return bm, nil
	}
	f.m = NewManager(stubGame{min: minPlayers, max: maxPlayers}, factory,
		WithOnFinish(func(r Result) { f.results <- r }))
	return f
}

func (f *fixture) result(t *testing.T) Result {
	t.Helper()
	select {
	case r := <-f.results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("match did not finish")
		return Result{}
	}
}

func players(ids ...int64) []game.PlayerInfo {
	out := make([]game.PlayerInfo, len(ids))
	for i, id := range ids {
		out[i] = game.PlayerInfo{ID: id, Name: "p"}
	}
	return out
}

func TestManager_QueueJoinLeave(t *testing.T) {
	f := newFixture(2, 4)

	require.NoError(t, f.m.Join(game.PlayerInfo{ID: 1, Name: "a"}))
	require.NoError(t, f.m.Join(game.PlayerInfo{ID: 2, Name: "b"}))
	assert.ErrorIs(t, f.m.Join(game.PlayerInfo{ID: 1, Name: "a"}), ErrAlreadyQueued)

	assert.Equal(t, []int64{1, 2}, ids(f.m.Queue()))

	require.NoError(t, f.m.Leave(1))
	assert.ErrorIs(t, f.m.Leave(1), ErrNotQueued)
	assert.Equal(t, []int64{2}, ids(f.m.Queue()))
}

func TestManager_StartTakesFirstMaxPlayers(t *testing.T) {
	f := newFixture(2, 3)
	for _, p := range players(1, 2, 3, 4, 5) {
		require.NoError(t, f.m.Join(p))
	}

	seated, err := f.m.Start(context.Background(), -100)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(seated))
	assert.Equal(t, []int64{4, 5}, ids(f.m.Queue()))

	_, err = f.m.Start(context.Background(), -100)
	assert.ErrorIs(t, err, ErrGameInProgress)

	assert.ErrorIs(t, f.m.Join(game.PlayerInfo{ID: 2}), ErrAlreadyInGame)

	bm := <-f.matches
	close(bm.release)
	r := f.result(t)
	require.NoError(t, r.Err)
	assert.Equal(t, int64(1), r.Winner.ID)
	assert.Equal(t, "stub", r.Game)
	assert.Len(t, r.ID, 36)
	assert.Equal(t, int64(-100), r.ChatID)

	_, ok := f.m.Active()
	assert.False(t, ok)
}

func TestManager_StartNeedsMinPlayers(t *testing.T) {
	f := newFixture(2, 4)
	require.NoError(t, f.m.Join(game.PlayerInfo{ID: 1}))

	_, err := f.m.Start(context.Background(), -100)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.Len(t, f.m.Queue(), 1)
}

func TestManager_StopCancelsMatch(t *testing.T) {
	f := newFixture(2, 2)
	for _, p := range players(1, 2) {
		require.NoError(t, f.m.Join(p))
	}
	assert.ErrorIs(t, f.m.Stop(), ErrNoActiveGame)

	_, err := f.m.Start(context.Background(), -100)
	require.NoError(t, err)
	_, ok := f.m.Active()
	assert.True(t, ok)

	require.NoError(t, f.m.Stop())
	r := f.result(t)
	assert.True(t, r.Stopped())
	_, ok = f.m.Active()
	assert.False(t, ok)
}

func TestManager_AbnormalEndFreesSlot(t *testing.T) {
	f := newFixture(2, 2)
	for _, p := range players(1, 2, 3, 4) {
		require.NoError(t, f.m.Join(p))
	}
	_, err := f.m.Start(context.Background(), -100)
	require.NoError(t, err)

	bm := <-f.matches
	bm.fail = errors.New("deck exhausted")
	close(bm.release)
	r := f.result(t)
	assert.EqualError(t, r.Err, "deck exhausted")
	assert.False(t, r.Stopped())

	_, err = f.m.Start(context.Background(), -100)
	require.NoError(t, err)
	require.NoError(t, f.m.Stop())
	f.result(t)
}

func TestManager_FactoryErrorKeepsQueue(t *testing.T) {
	m := NewManager(stubGame{min: 2, max: 2}, func(game.Table) (game.Match, error) {
		return nil, errors.New("boom")
	})
	for _, p := range players(1, 2) {
		require.NoError(t, m.Join(p))
	}

	_, err := m.Start(context.Background(), -100)
	assert.Error(t, err)
	assert.Len(t, m.Queue(), 2)
	_, ok := m.Active()
	assert.False(t, ok)
}

func TestHub(t *testing.T) {
	f := newFixture(2, 2)
	h := NewHub(f.m)

	m, ok := h.Get(" STUB ")
	require.True(t, ok)
	assert.Same(t, f.m, m)
	_, ok = h.Get("chess")
	assert.False(t, ok)

	for _, p := range players(7, 8) {
		require.NoError(t, f.m.Join(p))
	}
	_, err := f.m.Start(context.Background(), -100)
	require.NoError(t, err)

	got, match, ok := h.ActiveFor(8)
	require.True(t, ok)
	assert.Same(t, f.m, got)
	assert.True(t, match.HasPlayer(8))

	_, _, ok = h.ActiveFor(9)
	assert.False(t, ok)

	require.NoError(t, f.m.Stop())
	f.result(t)
}

func ids(ps []game.PlayerInfo) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
