package coup

import (
	"fmt"

	"card-game-bot/internal/card"
	"card-game-bot/internal/game"
)

// Player is one seat in a Coup game.
type Player struct {
	ID    int64
	Name  string
	hand  *card.List[Character]
	coins int
}

// PlayerView is a snapshot of a player handed to the IO collaborator.
type PlayerView struct {
	ID    int64
	Name  string
	Hand  []Character
	Coins int
}

func newPlayer(info game.PlayerInfo, startingHand []Character) *Player {
	return &Player{
		ID:    info.ID,
		Name:  info.Name,
		hand:  card.NewList(startingHand...),
		coins: StartingCoins,
	}
}

// HandSize returns the number of cards the player holds.
func (p *Player) HandSize() int {
	return p.hand.Len()
}

// Coins returns the player's coin count.
func (p *Player) Coins() int {
	return p.coins
}

func (p *Player) addCoins(n int) {
	p.coins += n
}

// subCoins removes n coins. Overspending is an engine bug, so it fails
// instead of clamping.
func (p *Player) subCoins(n int) error {
	if n > p.coins {
		return fmt.Errorf("%w: player %d has %d, needs %d", ErrInsufficientCoins, p.ID, p.coins, n)
	}
	p.coins -= n
	return nil
}

func (p *Player) info() game.PlayerInfo {
	return game.PlayerInfo{ID: p.ID, Name: p.Name}
}

func (p *Player) view() PlayerView {
	return PlayerView{
		ID:    p.ID,
		Name:  p.Name,
		Hand:  p.hand.Cards(),
		Coins: p.coins,
	}
}

// String returns the player's name.
func (p *Player) String() string {
	return p.Name
}
