package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"card-game-bot/internal/model"
)

const uniqueViolation = "23505"

// DibRepository stores reserved counting numbers. Each user holds at most
// one dib and each number belongs to at most one user.
type DibRepository struct {
	pool *pgxpool.Pool
}

// NewDibRepository creates a new DibRepository instance.
func NewDibRepository(pool *pgxpool.Pool) *DibRepository {
	return &DibRepository{pool: pool}
}

// Create reserves number for the user.
// Returns ErrDibTaken if the user already holds a dib or the number is taken.
func (r *DibRepository) Create(ctx context.Context, userID, number int64) error {
	const query = `INSERT INTO dibs (user_id, number, created_at) VALUES ($1, $2, NOW())`

	if _, err := r.pool.Exec(ctx, query, userID, number); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDibTaken
		}
		return fmt.Errorf("failed to create dib: %w", err)
	}
	return nil
}

// Delete releases the user's dib.
// Returns ErrDibNotFound if the user holds none.
func (r *DibRepository) Delete(ctx context.Context, userID int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM dibs WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete dib: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDibNotFound
	}
	return nil
}

// List returns every dib in ascending number order.
func (r *DibRepository) List(ctx context.Context) ([]*model.Dib, error) {
	const query = `
		SELECT d.user_id, COALESCE(u.username, ''), d.number
		FROM dibs d
		LEFT JOIN users u ON u.telegram_id = d.user_id
		ORDER BY d.number ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list dibs: %w", err)
	}
	defer rows.Close()

	var dibs []*model.Dib
	for rows.Next() {
		var d model.Dib
		if err := rows.Scan(&d.UserID, &d.Username, &d.Number); err != nil {
			return nil, fmt.Errorf("failed to scan dib: %w", err)
		}
		dibs = append(dibs, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dibs: %w", err)
	}

	return dibs, nil
}
