// Package coup implements the Coup bluffing card game engine.
//
// The engine owns the roster, deck and discard pile and drives one game from
// the first turn to a single winner. Every player decision goes through the
// IO collaborator, which is the only place the turn loop suspends.
package coup

import (
	"fmt"
	"strings"
)

// Character is a Coup card. Cards carry no identity beyond their character.
type Character int

// The five characters, three copies of each in the deck.
const (
	Duke Character = iota
	Assassin
	Captain
	Ambassador
	Contessa
)

// Characters lists every character in deck order.
var Characters = []Character{Duke, Assassin, Captain, Ambassador, Contessa}

// CopiesPerCharacter is the number of cards of each character in the deck.
const CopiesPerCharacter = 3

// DeckSize is the total number of cards in play for a game.
const DeckSize = CopiesPerCharacter * 5

var characterNames = map[Character]string{
	Duke:       "Duke",
	Assassin:   "Assassin",
	Captain:    "Captain",
	Ambassador: "Ambassador",
	Contessa:   "Contessa",
}

// String returns the character's name.
func (c Character) String() string {
	if name, ok := characterNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Character(%d)", int(c))
}

// ParseCharacter parses a character name, ignoring case.
func ParseCharacter(s string) (Character, error) {
	for c, name := range characterNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCharacter, s)
}
