package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"card-game-bot/internal/model"
)

// ActionRepository stores the per-match action history.
type ActionRepository struct {
	pool *pgxpool.Pool
}

// NewActionRepository creates a new ActionRepository instance.
func NewActionRepository(pool *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{pool: pool}
}

// InsertBatch stores records in one transaction. Records already stored
// under the same game and index are skipped.
func (r *ActionRepository) InsertBatch(ctx context.Context, records []model.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}

	const query = `
		INSERT INTO game_actions (game_id, game, action_index, actor_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(query, rec.GameID, rec.Game, rec.Index, rec.ActorID, rec.Action, rec.Payload, rec.CreatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert game actions: %w", err)
		}
		return nil
	})
}

// ListByGame returns a match's actions in order.
func (r *ActionRepository) ListByGame(ctx context.Context, gameID uuid.UUID) ([]model.ActionRecord, error) {
	const query = `
		SELECT game_id, game, action_index, actor_id, action, payload, created_at
		FROM game_actions
		WHERE game_id = $1
		ORDER BY action_index ASC
	`

	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list game actions: %w", err)
	}
	defer rows.Close()

	var records []model.ActionRecord
	for rows.Next() {
		var rec model.ActionRecord
		err := rows.Scan(
			&rec.GameID,
			&rec.Game,
			&rec.Index,
			&rec.ActorID,
			&rec.Action,
			&rec.Payload,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game action: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game actions: %w", err)
	}

	return records, nil
}
