// Package uno implements the Uno shedding card game engine, including the
// asynchronous "Uno!" call that any player may make at any time.
package uno

import (
	"fmt"
	"strings"
)

// Color is a card color. Black is the color of wild cards.
type Color int

const (
	Black Color = iota
	Red
	Blue
	Green
	Yellow
)

// PlayableColors are the colors a wild card can be declared as.
var PlayableColors = []Color{Red, Blue, Green, Yellow}

var colorNames = map[Color]string{
	Black:  "Black",
	Red:    "Red",
	Blue:   "Blue",
	Green:  "Green",
	Yellow: "Yellow",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// ParseColor parses a color name or its first letter.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range colorNames {
		lower := strings.ToLower(name)
		if s == lower || (c != Black && len(s) == 1 && s[0] == lower[0]) {
			return c, nil
		}
	}
	return Black, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// Value is a card face.
type Value int

const (
	Wild Value = iota
	DrawFour
	Zero
	One
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Skip
	DrawTwo
	Reverse
)

var valueNames = map[Value]string{
	Wild:     "Wild",
	DrawFour: "Wild Draw Four",
	Skip:     "Skip",
	DrawTwo:  "Draw Two",
	Reverse:  "Reverse",
}

func (v Value) String() string {
	if name, ok := valueNames[v]; ok {
		return name
	}
	if v >= Zero && v <= Nine {
		return fmt.Sprintf("%d", int(v-Zero))
	}
	return fmt.Sprintf("Value(%d)", int(v))
}

// IsAction reports whether the value has an effect when played. Action
// cards cannot open the discard pile.
func (v Value) IsAction() bool {
	switch v {
	case Wild, DrawFour, Skip, DrawTwo, Reverse:
		return true
	}
	return false
}

// Card is an Uno card. Chosen is the color declared for a black card on the
// discard pile and is Black everywhere else.
type Card struct {
	Color  Color
	Value  Value
	Chosen Color
}

// NewCard creates a card with no declared color.
func NewCard(color Color, value Value) Card {
	return Card{Color: color, Value: value}
}

// ActiveColor returns the color the next card must match.
func (c Card) ActiveColor() Color {
	if c.Color == Black {
		return c.Chosen
	}
	return c.Color
}

// Same reports whether two cards have the same face, ignoring declared colors.
func (c Card) Same(o Card) bool {
	return c.Color == o.Color && c.Value == o.Value
}

func (c Card) String() string {
	if c.Color == Black {
		if c.Chosen != Black {
			return fmt.Sprintf("%s (%s)", c.Value, c.Chosen)
		}
		return c.Value.String()
	}
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}

// Matches reports whether played may go on top. While a draw penalty is
// active only a card of the same value matches.
func Matches(top, played Card, drawActive bool) bool {
	if played.Value == top.Value {
		return true
	}
	if drawActive {
		return false
	}
	return played.Color == Black || played.Color == top.ActiveColor()
}

// NewDeck returns the standard 108-card deck in a fixed order: for each
// color one 0 and two of every other colored value, then four of each wild.
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, color := range PlayableColors {
		cards = append(cards, NewCard(color, Zero))
		for v := One; v <= Reverse; v++ {
			cards = append(cards, NewCard(color, v), NewCard(color, v))
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards, NewCard(Black, Wild), NewCard(Black, DrawFour))
	}
	return cards
}
