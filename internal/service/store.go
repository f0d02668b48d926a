// Package service provides business logic implementations.
package service

import (
	"context"

	"card-game-bot/internal/model"
)

// UserStore resolves display names.
type UserStore interface {
	Upsert(ctx context.Context, telegramID int64, username string) (*model.User, error)
}

// CountStore keeps one counter per user.
type CountStore interface {
	Increment(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, userID int64) (int64, error)
	Add(ctx context.Context, userID int64, amount int64) (int64, error)
	Top(ctx context.Context, limit int) ([]*model.CountEntry, error)
}

// DibStore keeps reserved numbers.
type DibStore interface {
	Create(ctx context.Context, userID, number int64) error
	Delete(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]*model.Dib, error)
}

// MatchStore keeps finished matches.
type MatchStore interface {
	Create(ctx context.Context, m *model.MatchResult) error
	TopWinners(ctx context.Context, game string, limit int) ([]*model.WinRank, error)
	CountWins(ctx context.Context, userID int64) (int64, error)
}
