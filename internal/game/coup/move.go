package coup

import (
	"fmt"
	"strings"
)

// Move is a turn action.
type Move int

// Turn actions in menu order.
const (
	Income Move = iota
	ForeignAid
	CoupMove
	Tax
	Assassinate
	Steal
	Exchange
	Quit
)

// Coin economy constants.
const (
	StartingCoins   = 2
	CoupCost        = 7
	AssassinateCost = 3
	ForcedCoupCoins = 10
	IncomeAmount    = 1
	ForeignAidGain  = 2
	TaxGain         = 3
	StealAmount     = 2
	ExchangeDraw    = 2
)

// moveRule describes the follow-up every move kind requires.
type moveRule struct {
	name     string
	cost     int
	claim    *Character  // role the actor claims, if any
	blockers []Character // roles other players may claim to block
	target   bool        // move needs a target
	defence  *Character  // role the target may claim to cancel the move
}

func role(c Character) *Character { return &c }

var moveRules = map[Move]moveRule{
	Income:      {name: "Income"},
	ForeignAid:  {name: "Foreign Aid", blockers: []Character{Duke}},
	CoupMove:    {name: "Coup", cost: CoupCost, target: true},
	Tax:         {name: "Tax", claim: role(Duke)},
	Assassinate: {name: "Assassinate", cost: AssassinateCost, claim: role(Assassin), target: true, defence: role(Contessa)},
	Steal:       {name: "Steal", claim: role(Captain), target: true, blockers: []Character{Captain, Ambassador}},
	Exchange:    {name: "Exchange", claim: role(Ambassador)},
	Quit:        {name: "Quit"},
}

// Moves lists every move in menu order.
var Moves = []Move{Income, ForeignAid, CoupMove, Tax, Assassinate, Steal, Exchange, Quit}

// String returns the move's display name.
func (m Move) String() string {
	if r, ok := moveRules[m]; ok {
		return r.name
	}
	return fmt.Sprintf("Move(%d)", int(m))
}

// Cost returns the coins the move costs.
func (m Move) Cost() int {
	return moveRules[m].cost
}

// Claim returns the role the actor claims by making the move.
func (m Move) Claim() (Character, bool) {
	r := moveRules[m]
	if r.claim == nil {
		return 0, false
	}
	return *r.claim, true
}

// NeedsTarget reports whether the move is aimed at another player.
func (m Move) NeedsTarget() bool {
	return moveRules[m].target
}

// Blockers returns the roles that can block the move.
func (m Move) Blockers() []Character {
	return append([]Character(nil), moveRules[m].blockers...)
}

// Defence returns the role the target may claim to cancel the move.
func (m Move) Defence() (Character, bool) {
	r := moveRules[m]
	if r.defence == nil {
		return 0, false
	}
	return *r.defence, true
}

// ParseMove parses a move by display name or by its name without spaces.
func ParseMove(s string) (Move, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(strings.TrimSpace(s)))
	for _, m := range Moves {
		if strings.ToLower(strings.ReplaceAll(m.String(), " ", "")) == norm {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMove, s)
}

// LegalMoves returns the moves a player holding coins may choose.
// At ForcedCoupCoins or more the player must Coup (or leave).
func LegalMoves(coins int) []Move {
	if coins >= ForcedCoupCoins {
		return []Move{CoupMove, Quit}
	}
	out := make([]Move, 0, len(Moves))
	for _, m := range Moves {
		if m.Cost() > coins {
			continue
		}
		out = append(out, m)
	}
	return out
}

// CheckMove returns nil if a player holding coins may choose m.
func CheckMove(m Move, coins int) error {
	if _, ok := moveRules[m]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMove, int(m))
	}
	for _, legal := range LegalMoves(coins) {
		if legal == m {
			return nil
		}
	}
	if coins >= ForcedCoupCoins {
		return fmt.Errorf("%w: with %d coins you must Coup", ErrIllegalMove, coins)
	}
	return fmt.Errorf("%w: %s costs %d coins, you have %d", ErrIllegalMove, m, m.Cost(), coins)
}
