package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"card-game-bot/internal/model"
)

// CountRepository keeps per-user counters in one table. The overall
// leaderboard and the competition leaderboard share its queries.
type CountRepository struct {
	pool  *pgxpool.Pool
	table string
}

// NewCountRepository returns the repository of all-time counts.
func NewCountRepository(pool *pgxpool.Pool) *CountRepository {
	return &CountRepository{pool: pool, table: "counts"}
}

// NewCompetitionRepository returns the repository of competition counts.
func NewCompetitionRepository(pool *pgxpool.Pool) *CountRepository {
	return &CountRepository{pool: pool, table: "competition_counts"}
}

// Increment adds one to the user's count and returns the new value.
func (r *CountRepository) Increment(ctx context.Context, userID int64) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, count, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET count = %[1]s.count + 1, updated_at = NOW()
		RETURNING count
	`, r.table)

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", r.table, err)
	}
	return count, nil
}

// Get returns the user's count.
// Returns ErrCountNotFound if the user has never counted.
func (r *CountRepository) Get(ctx context.Context, userID int64) (int64, error) {
	query := fmt.Sprintf(`SELECT count FROM %s WHERE user_id = $1`, r.table)

	var count int64
	err := r.pool.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCountNotFound
		}
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	return count, nil
}

// Add changes an existing count by amount, which may be negative, and
// returns the new value. Counts never drop below zero.
// Returns ErrCountNotFound if the user has never counted.
func (r *CountRepository) Add(ctx context.Context, userID int64, amount int64) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET count = GREATEST(count + $2, 0), updated_at = NOW()
		WHERE user_id = $1
		RETURNING count
	`, r.table)

	var count int64
	err := r.pool.QueryRow(ctx, query, userID, amount).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrCountNotFound
		}
		return 0, fmt.Errorf("failed to add to count: %w", err)
	}
	return count, nil
}

// Top returns the highest counts, ties broken by user ID.
func (r *CountRepository) Top(ctx context.Context, limit int) ([]*model.CountEntry, error) {
	query := fmt.Sprintf(`
		SELECT c.user_id, COALESCE(u.username, ''), c.count
		FROM %s c
		LEFT JOIN users u ON u.telegram_id = c.user_id
		ORDER BY c.count DESC, c.user_id ASC
		LIMIT $1
	`, r.table)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.CountEntry
	for rows.Next() {
		var e model.CountEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Count); err != nil {
			return nil, fmt.Errorf("failed to scan count entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}

	return entries, nil
}

// Reset removes every count. Used when a new competition is scheduled.
func (r *CountRepository) Reset(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, r.table)); err != nil {
		return fmt.Errorf("failed to reset %s: %w", r.table, err)
	}
	return nil
}
