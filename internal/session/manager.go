// Package session owns the lobby queue and the active match of each hosted
// game, replacing process-wide game state with one explicit object per game.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"card-game-bot/internal/game"
	"card-game-bot/internal/pkg/lock"
)

var (
	ErrAlreadyQueued    = errors.New("you are already in the queue")
	ErrAlreadyInGame    = errors.New("you are already in the game")
	ErrNotQueued        = errors.New("you are not in the queue")
	ErrGameInProgress   = errors.New("a game is already in progress")
	ErrNotEnoughPlayers = errors.New("not enough players in the queue")
	ErrNoActiveGame     = errors.New("no game is in progress")
)

// Result describes a finished match.
type Result struct {
	ID        string
	Game      string
	ChatID    int64
	Players   []game.PlayerInfo
	Winner    game.PlayerInfo
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Stopped reports whether the match was force-stopped.
func (r Result) Stopped() bool {
	return errors.Is(r.Err, context.Canceled)
}

// Manager runs one game: a FIFO lobby queue and at most one active match.
type Manager struct {
	desc     game.Game
	factory  game.Factory
	onFinish func(Result)

	guard  *lock.Guard
	queue  []game.PlayerInfo
	active game.Match
	cancel context.CancelFunc
}

// Option configures a Manager.
type Option func(*Manager)

// WithOnFinish sets a callback run on the match goroutine after every match.
func WithOnFinish(fn func(Result)) Option {
	return func(m *Manager) { m.onFinish = fn }
}

// NewManager creates a manager for desc whose matches are built by factory.
func NewManager(desc game.Game, factory game.Factory, opts ...Option) *Manager {
	m := &Manager{
		desc:     desc,
		factory:  factory,
		onFinish: func(Result) {},
		guard:    lock.NewGuard("session." + desc.Command()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Game returns the managed game's descriptor.
func (m *Manager) Game() game.Game {
	return m.desc
}

// Join adds p to the back of the queue.
func (m *Manager) Join(p game.PlayerInfo) error {
	return m.guard.WithLock("join", func() error {
		if m.active != nil && m.active.HasPlayer(p.ID) {
			return ErrAlreadyInGame
		}
		if m.indexOf(p.ID) >= 0 {
			return ErrAlreadyQueued
		}
		m.queue = append(m.queue, p)
		return nil
	})
}

// Leave removes userID from the queue.
func (m *Manager) Leave(userID int64) error {
	return m.guard.WithLock("leave", func() error {
		i := m.indexOf(userID)
		if i < 0 {
			return ErrNotQueued
		}
		m.queue = append(m.queue[:i], m.queue[i+1:]...)
		return nil
	})
}

// Queue returns the queued players in join order.
func (m *Manager) Queue() []game.PlayerInfo {
	var out []game.PlayerInfo
	_ = m.guard.WithLock("queue", func() error {
		out = append(out, m.queue...)
		return nil
	})
	return out
}

// Start takes the first MaxPlayers queued players and runs a match for them
// in chatID on a new goroutine. It returns the seated players.
func (m *Manager) Start(ctx context.Context, chatID int64) ([]game.PlayerInfo, error) {
	var (
		players  []game.PlayerInfo
		match    game.Match
		matchCtx context.Context
		matchID  = uuid.NewString()
	)
	err := m.guard.WithLock("start", func() error {
		if m.active != nil {
			return ErrGameInProgress
		}
		if len(m.queue) < m.desc.MinPlayers() {
			return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPlayers, m.desc.MinPlayers(), len(m.queue))
		}

		n := min(len(m.queue), m.desc.MaxPlayers())
		players = append([]game.PlayerInfo(nil), m.queue[:n]...)

		var err error
		if match, err = m.factory(game.Table{MatchID: matchID, ChatID: chatID, Players: players}); err != nil {
			return fmt.Errorf("failed to create %s match: %w", m.desc.Name(), err)
		}
		m.queue = append([]game.PlayerInfo(nil), m.queue[n:]...)
		m.active = match
		matchCtx, m.cancel = context.WithCancel(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("game", m.desc.Command()).Str("game_id", matchID).Int("players", len(players)).Msg("Match started")
	go m.run(matchCtx, game.Table{MatchID: matchID, ChatID: chatID, Players: players}, match)
	return players, nil
}

func (m *Manager) run(ctx context.Context, t game.Table, match game.Match) {
	res := Result{ID: t.MatchID, Game: m.desc.Command(), ChatID: t.ChatID, Players: t.Players, StartedAt: time.Now()}
	res.Winner, res.Err = match.Start(ctx)
	res.EndedAt = time.Now()

	_ = m.guard.WithLock("finish", func() error {
		if m.cancel != nil {
			m.cancel()
		}
		m.active = nil
		m.cancel = nil
		return nil
	})

	switch {
	case res.Err == nil:
		log.Info().Str("game", res.Game).Str("game_id", res.ID).Int64("winner_id", res.Winner.ID).Msg("Match finished")
	case res.Stopped():
		log.Info().Str("game", res.Game).Str("game_id", res.ID).Msg("Match stopped")
	default:
		log.Error().Err(res.Err).Str("game", res.Game).Str("game_id", res.ID).Msg("Match ended abnormally")
	}
	m.onFinish(res)
}

// Stop cancels the active match. The match goroutine unwinds and frees the
// slot; onFinish reports the result.
func (m *Manager) Stop() error {
	return m.guard.WithLock("stop", func() error {
		if m.active == nil {
			return ErrNoActiveGame
		}
		m.cancel()
		return nil
	})
}

// Active returns the running match, if any.
func (m *Manager) Active() (game.Match, bool) {
	var match game.Match
	_ = m.guard.WithLock("active", func() error {
		match = m.active
		return nil
	})
	return match, match != nil
}

func (m *Manager) indexOf(userID int64) int {
	for i, p := range m.queue {
		if p.ID == userID {
			return i
		}
	}
	return -1
}
