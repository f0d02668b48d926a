package coup

import "errors"

// Roster errors, returned by New.
var (
	ErrNoPlayers        = errors.New("no players playing the game")
	ErrNotEnoughPlayers = errors.New("not enough players to start a game")
	ErrTooManyPlayers   = errors.New("the max number of players has been reached")
	ErrDuplicatePlayer  = errors.New("player is already in the game")
)

// Player input errors. The engine reports them through IO.DisplayError and
// asks again.
var (
	ErrIllegalMove      = errors.New("move is not allowed")
	ErrInvalidTarget    = errors.New("invalid target selected")
	ErrInvalidClaim     = errors.New("invalid role claim")
	ErrInvalidResponder = errors.New("player cannot respond to this request")
	ErrUnknownCharacter = errors.New("unknown character")
	ErrUnknownMove      = errors.New("unknown move")
)

// Engine invariant errors. These end the game.
var (
	ErrPlayerNotFound    = errors.New("no player found")
	ErrInsufficientCoins = errors.New("not enough coins")
	ErrEmptyHand         = errors.New("player has no cards")
)
