package uno

import "context"

// MoveKind is what a player does on their turn.
type MoveKind int

const (
	PlayCard MoveKind = iota
	DrawCard
	QuitGame
)

func (k MoveKind) String() string {
	switch k {
	case PlayCard:
		return "play"
	case DrawCard:
		return "draw"
	case QuitGame:
		return "quit"
	}
	return "unknown"
}

// Move is a turn decision. Index is the hand position for PlayCard.
type Move struct {
	Kind  MoveKind
	Index int
}

// IO is the collaborator the engine asks for decisions and tells about
// outcomes. Decision methods block until a response arrives or ctx ends.
type IO interface {
	// PlayerMove asks the current player for a move. numDraw is the pending
	// penalty; while it is positive drawing takes the whole penalty.
	PlayerMove(ctx context.Context, p PlayerView, top Card, numDraw int) (Move, error)

	// ColorChoice asks p to declare a color for a black card.
	ColorChoice(ctx context.Context, p PlayerView) (Color, error)

	// CardPlayed tells everyone p put c on the discard pile.
	CardPlayed(ctx context.Context, p PlayerView, c Card) error

	// DrawResult tells everyone p drew drawn cards looking for a playable
	// one. played is the card played automatically, nil when the deck ran out.
	DrawResult(ctx context.Context, p PlayerView, played *Card, drawn int) error

	// PenaltyDrawn tells everyone p drew n cards for an active penalty.
	PenaltyDrawn(ctx context.Context, p PlayerView, n int) error

	// TurnSkipped tells everyone p lost their turn to a skip.
	TurnSkipped(ctx context.Context, p PlayerView) error

	// PlayerQuit tells everyone p left the game.
	PlayerQuit(ctx context.Context, p PlayerView) error

	// PlayerWon tells everyone p won.
	PlayerWon(ctx context.Context, p PlayerView) error

	// DisplayError reports a rejected response or a non-fatal draw failure.
	DisplayError(ctx context.Context, err error) error
}
