package uno

import (
	"card-game-bot/internal/card"
	"card-game-bot/internal/game"
)

// Player is one seat in an Uno game. Safe is false from the moment a play
// leaves the player with one card until they call "Uno!" or act again.
type Player struct {
	ID   int64
	Name string
	hand *card.List[Card]
	safe bool
}

// PlayerView is a snapshot of a player handed to the IO collaborator.
type PlayerView struct {
	ID   int64
	Name string
	Hand []Card
	Safe bool
}

func newPlayer(info game.PlayerInfo, hand []Card) *Player {
	return &Player{ID: info.ID, Name: info.Name, hand: card.NewList(hand...), safe: true}
}

func (p *Player) view() PlayerView {
	return PlayerView{ID: p.ID, Name: p.Name, Hand: p.hand.Cards(), Safe: p.safe}
}

func (p *Player) info() game.PlayerInfo {
	return game.PlayerInfo{ID: p.ID, Name: p.Name}
}
