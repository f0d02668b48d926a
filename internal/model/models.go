// Package model defines the data models persisted by the bot.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User maps a Telegram account to the name shown on leaderboards.
type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// CountEntry is one row of a counting leaderboard.
type CountEntry struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Count    int64  `db:"count"`
}

// Dib is a number a user has reserved in the counting chat.
type Dib struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Number   int64  `db:"number"`
}

// MatchResult records a finished game.
type MatchResult struct {
	ID        uuid.UUID `db:"id"`
	Game      string    `db:"game"`
	WinnerID  int64     `db:"winner_id"`
	Players   []int64   `db:"players"`
	StartedAt time.Time `db:"started_at"`
	EndedAt   time.Time `db:"ended_at"`
}

// WinRank is one row of the wins leaderboard.
type WinRank struct {
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Wins     int64  `db:"wins"`
}

// ActionRecord is one engine event of a match, in the order it happened.
type ActionRecord struct {
	GameID    uuid.UUID      `json:"game_id" db:"game_id"`
	Game      string         `json:"game" db:"game"`
	Index     int64          `json:"index" db:"action_index"`
	ActorID   int64          `json:"actor_id" db:"actor_id"`
	Action    string         `json:"action" db:"action"`
	Payload   map[string]any `json:"payload,omitempty" db:"payload"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Competition result states.
const (
	CompetitionNotStarted = "not_started"
	CompetitionUnderway   = "underway"
	CompetitionEnded      = "ended"
)

// MaxDib is the largest number that can be dibbed.
const MaxDib = 2147483647
