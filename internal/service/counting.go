package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"card-game-bot/internal/model"
	"card-game-bot/internal/pkg/lock"
	"card-game-bot/internal/repository"
)

// Counting errors.
var (
	ErrInvalidDib    = errors.New("dib must be an integer in [0, 2147483647]")
	ErrNoScore       = errors.New("user has not counted yet")
	ErrInvalidRefund = errors.New("refund amount must not be zero")
)

// CountingService runs the counting chat: it scores number messages,
// tracks the competition and manages dibs.
type CountingService struct {
	users       UserStore
	counts      CountStore
	competition CountStore
	dibs        DibStore

	window          Window
	leaderboardSize int
	now             func() time.Time

	// guard orders counted messages so the previous-counter rule sees them
	// one at a time.
	guard    *lock.Guard
	prevUser int64
}

// CountingOption configures a CountingService.
type CountingOption func(*CountingService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CountingOption {
	return func(s *CountingService) { s.now = now }
}

// NewCountingService creates a new CountingService instance.
func NewCountingService(
	users UserStore,
	counts CountStore,
	competition CountStore,
	dibs DibStore,
	window Window,
	leaderboardSize int,
	opts ...CountingOption,
) *CountingService {
	if leaderboardSize <= 0 {
		leaderboardSize = 10
	}
	s := &CountingService{
		users:           users,
		counts:          counts,
		competition:     competition,
		dibs:            dibs,
		window:          window,
		leaderboardSize: leaderboardSize,
		now:             time.Now,
		guard:           lock.NewGuard("counting"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsCount reports whether a message is a counting message: one or more
// digits and nothing else.
func IsCount(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Record scores a chat message. It returns false without touching storage
// when the message is not a count. During the competition the count also
// scores on the competition board, unless the same user sent the previous
// counted message.
func (s *CountingService) Record(ctx context.Context, userID int64, username, text string) (bool, error) {
	if !IsCount(text) {
		return false, nil
	}

	err := s.guard.WithLockContext(ctx, "record", func() error {
		if _, err := s.users.Upsert(ctx, userID, username); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to update display name")
		}
		if _, err := s.counts.Increment(ctx, userID); err != nil {
			return err
		}
		if s.window.Contains(s.now()) && userID != s.prevUser {
			if _, err := s.competition.Increment(ctx, userID); err != nil {
				return err
			}
		}
		s.prevUser = userID
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to record count: %w", err)
	}
	return true, nil
}

// Leaderboard returns the top all-time counters.
func (s *CountingService) Leaderboard(ctx context.Context) ([]*model.CountEntry, error) {
	return s.counts.Top(ctx, s.leaderboardSize)
}

// Score returns the user's all-time count.
func (s *CountingService) Score(ctx context.Context, userID int64) (int64, error) {
	n, err := s.counts.Get(ctx, userID)
	if errors.Is(err, repository.ErrCountNotFound) {
		return 0, ErrNoScore
	}
	return n, err
}

// Competition reports the competition state with its current standings.
// Standings are empty before the competition starts.
func (s *CountingService) Competition(ctx context.Context) (*CompetitionStatus, error) {
	status := &CompetitionStatus{State: s.window.State(s.now()), Window: s.window}
	if status.State == model.CompetitionNotStarted {
		return status, nil
	}

	standings, err := s.competition.Top(ctx, s.leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get competition standings: %w", err)
	}
	status.Standings = standings
	return status, nil
}

// ParseDib parses a /dib argument.
func ParseDib(arg string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || n < 0 || n > model.MaxDib {
		return 0, ErrInvalidDib
	}
	return n, nil
}

// Dib reserves the number in arg for the user.
func (s *CountingService) Dib(ctx context.Context, userID int64, username, arg string) (int64, error) {
	n, err := ParseDib(arg)
	if err != nil {
		return 0, err
	}
	if _, err := s.users.Upsert(ctx, userID, username); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to update display name")
	}
	if err := s.dibs.Create(ctx, userID, n); err != nil {
		return 0, err
	}
	return n, nil
}

// Undib releases the user's dib.
func (s *CountingService) Undib(ctx context.Context, userID int64) error {
	return s.dibs.Delete(ctx, userID)
}

// Dibs lists every dib by ascending number.
func (s *CountingService) Dibs(ctx context.Context) ([]*model.Dib, error) {
	return s.dibs.List(ctx)
}

// Refund corrects a user's all-time count by amount.
func (s *CountingService) Refund(ctx context.Context, userID int64, amount int64) (int64, error) {
	if amount == 0 {
		return 0, ErrInvalidRefund
	}
	n, err := s.counts.Add(ctx, userID, amount)
	if errors.Is(err, repository.ErrCountNotFound) {
		return 0, ErrNoScore
	}
	if err != nil {
		return 0, err
	}
	log.Info().Int64("user_id", userID).Int64("amount", amount).Int64("count", n).Msg("Count refunded")
	return n, nil
}
