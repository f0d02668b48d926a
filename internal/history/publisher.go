// Package history records what happens in every match. Engines report
// events to a Sink, which pushes them onto a Redis list; the Historian
// drains that list into Postgres in batches.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"card-game-bot/internal/game"
	"card-game-bot/internal/model"
)

// DefaultQueue is the Redis list holding pending action records.
const DefaultQueue = "card_game_actions"

const publishTimeout = 2 * time.Second

// Publisher pushes action records onto the queue.
type Publisher struct {
	rdb   *redis.Client
	queue string
}

// NewPublisher creates a publisher for queue, or DefaultQueue if empty.
func NewPublisher(rdb *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{rdb: rdb, queue: queue}
}

// Publish serializes rec to JSON and appends it to the queue.
func (p *Publisher) Publish(ctx context.Context, rec model.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal action record: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", p.queue, err)
	}
	return nil
}

// Sink returns the event sink of one match.
func (p *Publisher) Sink(gameID uuid.UUID, gameName string) *Sink {
	return &Sink{pub: p, gameID: gameID, game: gameName}
}

// Sink numbers a match's events and publishes them. It implements
// game.EventSink.
type Sink struct {
	pub    *Publisher
	gameID uuid.UUID
	game   string

	mu    sync.Mutex
	index int64
}

// Record publishes e. A failed publish is logged and the event dropped so
// the match carries on.
func (s *Sink) Record(ctx context.Context, e game.Event) {
	s.mu.Lock()
	rec := model.ActionRecord{
		GameID:    s.gameID,
		Game:      s.game,
		Index:     s.index,
		ActorID:   e.Actor,
		Action:    e.Action,
		Payload:   e.Payload,
		CreatedAt: time.Now().UTC(),
	}
	s.index++
	s.mu.Unlock()

	// The final events of a stopped match arrive on a cancelled context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.pub.Publish(ctx, rec); err != nil {
		log.Warn().Err(err).
			Str("game", s.game).
			Str("game_id", s.gameID.String()).
			Str("action", e.Action).
			Msg("Failed to publish game action")
	}
}
