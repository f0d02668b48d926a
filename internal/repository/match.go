package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"card-game-bot/internal/model"
)

// MatchRepository handles finished match persistence.
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository creates a new MatchRepository instance.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// Create stores a finished match. Storing the same match twice is a no-op.
func (r *MatchRepository) Create(ctx context.Context, m *model.MatchResult) error {
	const query = `
		INSERT INTO match_results (id, game, winner_id, players, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, m.ID, m.Game, m.WinnerID, m.Players, m.StartedAt, m.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to create match result: %w", err)
	}
	return nil
}

// GetByID retrieves a match by ID.
// Returns ErrMatchNotFound if the match does not exist.
func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.MatchResult, error) {
	const query = `
		SELECT id, game, winner_id, players, started_at, ended_at
		FROM match_results
		WHERE id = $1
	`

	var m model.MatchResult
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Game,
		&m.WinnerID,
		&m.Players,
		&m.StartedAt,
		&m.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}

	return &m, nil
}

// TopWinners ranks users by matches won. An empty game ranks across all
// games.
func (r *MatchRepository) TopWinners(ctx context.Context, game string, limit int) ([]*model.WinRank, error) {
	const query = `
		SELECT m.winner_id, COALESCE(u.username, ''), COUNT(*) AS wins
		FROM match_results m
		LEFT JOIN users u ON u.telegram_id = m.winner_id
		WHERE $1 = '' OR m.game = $1
		GROUP BY m.winner_id, u.username
		ORDER BY wins DESC, m.winner_id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, game, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top winners: %w", err)
	}
	defer rows.Close()

	var ranks []*model.WinRank
	for rows.Next() {
		var rank model.WinRank
		if err := rows.Scan(&rank.UserID, &rank.Username, &rank.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan win rank: %w", err)
		}
		ranks = append(ranks, &rank)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating win ranks: %w", err)
	}

	return ranks, nil
}

// CountWins returns how many matches the user has won.
func (r *MatchRepository) CountWins(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM match_results WHERE winner_id = $1`

	var wins int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&wins); err != nil {
		return 0, fmt.Errorf("failed to count wins: %w", err)
	}
	return wins, nil
}
