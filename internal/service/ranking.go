package service

import (
	"context"

	"card-game-bot/internal/model"
)

// RankingService handles the match wins leaderboard.
type RankingService struct {
	matches MatchStore
	size    int
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(matches MatchStore, size int) *RankingService {
	if size <= 0 {
		size = 10
	}
	return &RankingService{matches: matches, size: size}
}

// TopWinners ranks players by wins in game, or across all games when game
// is empty.
func (s *RankingService) TopWinners(ctx context.Context, game string) ([]*model.WinRank, error) {
	return s.matches.TopWinners(ctx, game, s.size)
}

// Wins returns how many matches the user has won.
func (s *RankingService) Wins(ctx context.Context, userID int64) (int64, error) {
	return s.matches.CountWins(ctx, userID)
}
