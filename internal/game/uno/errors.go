package uno

import "errors"

var (
	ErrNoPlayers        = errors.New("no players playing the game")
	ErrNotEnoughPlayers = errors.New("not enough players to start a game")
	ErrTooManyPlayers   = errors.New("the max number of players has been reached")
	ErrDuplicatePlayer  = errors.New("player is already in the game")
	ErrPlayerNotFound   = errors.New("no player found")
)

// Player input errors, reported and re-requested.
var (
	ErrCardNotPlayable = errors.New("card cannot be played here")
	ErrInvalidColor    = errors.New("invalid color")
	ErrUnknownMove     = errors.New("unknown move")
)
