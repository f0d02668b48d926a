// Package game defines what every hosted card game exposes to the session
// and chat layers, and the registry the bot uses to look games up by command.
package game

import "context"

// PlayerInfo identifies a participant. ID is the chat platform's user ID.
type PlayerInfo struct {
	ID   int64
	Name string
}

// PlayerStatus is one roster row of a status display.
type PlayerStatus struct {
	ID    int64
	Name  string
	Cards int
	Coins int // zero for games without coins
}

// Status is a point-in-time view of a running match, safe to render while
// the match keeps running.
type Status struct {
	Game    string
	Players []PlayerStatus
	// Details holds game-specific extras (turn direction, top card, deck size).
	Details map[string]string
}

// Match is one running game instance owned by a session.
type Match interface {
	// Start runs the turn loop until a single player remains.
	// It returns early with ctx.Err() when ctx is cancelled.
	Start(ctx context.Context) (PlayerInfo, error)

	// HasPlayer reports whether the user is still on the roster.
	HasPlayer(userID int64) bool

	// Status returns the public roster view.
	Status() Status

	// Hand returns the labels of the user's cards for private display.
	Hand(userID int64) ([]string, error)
}

// Table is where a match is played.
type Table struct {
	// MatchID identifies the match in its recorded history.
	MatchID string
	// ChatID is the group chat the match is announced in.
	ChatID  int64
	Players []PlayerInfo
}

// Factory creates a match for a fixed roster.
type Factory func(t Table) (Match, error)

// Game describes a hostable game.
type Game interface {
	// Name returns the game's display name (e.g., "Coup", "Uno")
	Name() string

	// Command returns the argument used in lobby commands (e.g., "coup")
	Command() string

	// Description returns a brief description of the game
	Description() string

	// Rules returns the rules text shown by /rules
	Rules() string

	// MinPlayers and MaxPlayers bound the roster size.
	MinPlayers() int
	MaxPlayers() int
}

// Event is one engine-level action worth recording.
type Event struct {
	Actor   int64
	Action  string
	Payload map[string]any
}

// EventSink receives engine events. Implementations must not block the
// turn loop for long and must not fail the game: errors are theirs to log.
type EventSink interface {
	Record(ctx context.Context, e Event)
}

// NopSink discards every event.
type NopSink struct{}

// Record implements EventSink.
func (NopSink) Record(context.Context, Event) {}
