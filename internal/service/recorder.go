package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"card-game-bot/internal/model"
	"card-game-bot/internal/session"
)

const recordTimeout = 5 * time.Second

// MatchRecorder stores the result of every match that ends with a winner.
type MatchRecorder struct {
	users   UserStore
	matches MatchStore
}

// NewMatchRecorder creates a new MatchRecorder instance.
func NewMatchRecorder(users UserStore, matches MatchStore) *MatchRecorder {
	return &MatchRecorder{users: users, matches: matches}
}

// Record persists res. Stopped and aborted matches are not recorded.
// Failures are logged: the match is already over.
func (r *MatchRecorder) Record(res session.Result) {
	if res.Err != nil {
		return
	}
	id, err := uuid.Parse(res.ID)
	if err != nil {
		log.Warn().Err(err).Str("game_id", res.ID).Msg("Match result has no valid ID")
		id = uuid.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	players := make([]int64, len(res.Players))
	for i, p := range res.Players {
		players[i] = p.ID
		if _, err := r.users.Upsert(ctx, p.ID, p.Name); err != nil {
			log.Warn().Err(err).Int64("user_id", p.ID).Msg("Failed to update display name")
		}
	}

	m := &model.MatchResult{
		ID:        id,
		Game:      res.Game,
		WinnerID:  res.Winner.ID,
		Players:   players,
		StartedAt: res.StartedAt,
		EndedAt:   res.EndedAt,
	}
	if err := r.matches.Create(ctx, m); err != nil {
		log.Error().Err(err).Str("game", res.Game).Str("game_id", res.ID).Msg("Failed to record match result")
	}
}
