package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"card-game-bot/internal/model"
)

// ActionWriter persists a batch of records.
type ActionWriter interface {
	InsertBatch(ctx context.Context, records []model.ActionRecord) error
}

// Historian moves records from the Redis queue into storage.
type Historian struct {
	rdb        *redis.Client
	queue      string
	writer     ActionWriter
	batchSize  int
	flushEvery time.Duration
	popTimeout time.Duration
	retryDelay time.Duration
	maxBacklog int

	batch     []model.ActionRecord
	lastFlush time.Time
}

// Option configures a Historian.
type Option func(*Historian)

// WithBatchSize sets how many records are written per transaction.
func WithBatchSize(n int) Option {
	return func(h *Historian) {
		if n > 0 {
			h.batchSize = n
		}
	}
}

// WithFlushInterval sets the longest time a record waits in a partial batch.
func WithFlushInterval(d time.Duration) Option {
	return func(h *Historian) {
		if d > 0 {
			h.flushEvery = d
		}
	}
}

// WithMaxBacklog caps the records kept in memory while writes fail. The
// oldest records are dropped first.
func WithMaxBacklog(n int) Option {
	return func(h *Historian) {
		if n > 0 {
			h.maxBacklog = n
		}
	}
}

// NewHistorian creates a historian draining queue into writer.
func NewHistorian(rdb *redis.Client, queue string, writer ActionWriter, opts ...Option) *Historian {
	if queue == "" {
		queue = DefaultQueue
	}
	h := &Historian{
		rdb:        rdb,
		queue:      queue,
		writer:     writer,
		batchSize:  20,
		flushEvery: 500 * time.Millisecond,
		popTimeout: time.Second,
		retryDelay: 2 * time.Second,
		maxBacklog: 1000,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.maxBacklog = max(h.maxBacklog, h.batchSize)
	h.batch = make([]model.ActionRecord, 0, h.batchSize)
	return h
}

// Run pops records until ctx is cancelled, then writes what is left.
func (h *Historian) Run(ctx context.Context) {
	log.Info().Str("queue", h.queue).Msg("Historian started")
	h.lastFlush = time.Now()

	for ctx.Err() == nil {
		res, err := h.rdb.BLPop(ctx, h.popTimeout, h.queue).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("BLPop failed")
				h.sleep(ctx, h.popTimeout)
			}
		case len(res) == 2:
			var rec model.ActionRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				log.Warn().Err(err).Msg("Dropping invalid action record")
				break
			}
			h.batch = append(h.batch, rec)
		}

		if len(h.batch) >= h.batchSize || time.Since(h.lastFlush) >= h.flushEvery {
			if !h.flush(ctx) {
				h.sleep(ctx, h.retryDelay)
			}
		}
	}

	h.flush(context.WithoutCancel(ctx))
	log.Info().Msg("Historian stopped")
}

// flush writes the pending batch and reports whether it succeeded.
// A failed batch is kept for the next flush, trimmed to maxBacklog.
func (h *Historian) flush(ctx context.Context) bool {
	h.lastFlush = time.Now()
	if len(h.batch) == 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := h.writer.InsertBatch(ctx, h.batch); err != nil {
		// Replays are skipped by the writer.
		log.Error().Err(err).Int("records", len(h.batch)).Msg("Failed to write game actions")
		if over := len(h.batch) - h.maxBacklog; over > 0 {
			log.Warn().Int("dropped", over).Int("kept", h.maxBacklog).Msg("Action backlog full, dropping oldest records")
			h.batch = append(h.batch[:0], h.batch[over:]...)
		}
		return false
	}
	log.Debug().Int("records", len(h.batch)).Msg("Flushed game actions")
	h.batch = h.batch[:0]
	return true
}

func (h *Historian) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
