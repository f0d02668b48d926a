package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"card-game-bot/internal/game"
	"card-game-bot/internal/game/coup"
	"card-game-bot/internal/prompt"
)

const challengeValue = "challenge"

// CoupTable runs the Coup IO over chat. Turn choices and hand choices are
// sent privately; challenges and blocks are open to the group.
//
// A decision that times out falls back to the most passive answer: Income
// (Coup when forced), the first target or card, and no challenge or block.
type CoupTable struct {
	*table
}

// NewCoupFactory builds Coup matches played in chat.
func NewCoupFactory(bot Messenger, broker *prompt.Broker, timeout time.Duration, sinks SinkFactory) game.Factory {
	return func(t game.Table) (game.Match, error) {
		io := &CoupTable{table: newTable(bot, broker, t, timeout)}
		return coup.New(t.Players, io, coup.WithEventSink(sinks(t.MatchID, coup.GameCommand)))
	}
}

// PlayerMove implements coup.IO.
func (t *CoupTable) PlayerMove(ctx context.Context, p coup.PlayerView) (coup.Move, error) {
	legal := coup.LegalMoves(p.Coins)
	choices := make([]choice, len(legal))
	for i, mv := range legal {
		choices[i] = choice{Label: moveLabel(mv), Value: strconv.Itoa(int(mv))}
	}

	t.announce(fmt.Sprintf("🎴 %s's turn (%d coins).", p.Name, p.Coins))
	text := fmt.Sprintf("🃏 Your hand: %s\n💰 Coins: %d\n\nChoose your move:", characterList(p.Hand), p.Coins)
	a, err := t.askPrivate(ctx, p.ID, text, choices)
	if errors.Is(err, prompt.ErrTimeout) {
		return defaultCoupMove(p.Coins), nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(a.Value)
	if err != nil {
		return coup.Move(-1), nil
	}
	return coup.Move(n), nil
}

func defaultCoupMove(coins int) coup.Move {
	if coins >= coup.ForcedCoupCoins {
		return coup.CoupMove
	}
	return coup.Income
}

// Target implements coup.IO.
func (t *CoupTable) Target(ctx context.Context, actor coup.PlayerView, candidates []coup.PlayerView) (int64, error) {
	choices := make([]choice, len(candidates))
	for i, p := range candidates {
		choices[i] = choice{Label: fmt.Sprintf("%s (%d🃏 %d💰)", p.Name, len(p.Hand), p.Coins), Value: strconv.FormatInt(p.ID, 10)}
	}
	a, err := t.askGroup(ctx, fmt.Sprintf("🎯 %s, choose a target:", actor.Name), choices, actor.ID)
	if errors.Is(err, prompt.ErrTimeout) {
		return candidates[0].ID, nil
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(a.Value, 10, 64)
	if err != nil {
		return -1, nil
	}
	return id, nil
}

// Challenge implements coup.IO.
func (t *CoupTable) Challenge(ctx context.Context, claimant coup.PlayerView, claim coup.Character, eligible []int64) (int64, bool, error) {
	text := fmt.Sprintf("🤔 %s claims %s.\nAnyone challenge? (%s)", claimant.Name, claim, t.namesOf(eligible))
	choices := []choice{{Label: "⚔️ Challenge", Value: challengeValue}, passChoice}
	a, err := t.askGroup(ctx, text, choices, eligible...)
	if errors.Is(err, prompt.ErrTimeout) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if a.Passed() || a.Value != challengeValue {
		return 0, false, nil
	}
	t.announce(fmt.Sprintf("⚔️ %s challenges %s!", t.nameOf(a.UserID), claimant.Name))
	return a.UserID, true, nil
}

// CardChoice implements coup.IO.
func (t *CoupTable) CardChoice(ctx context.Context, p coup.PlayerView, reveal bool) (int, error) {
	text := "Choose a card to lose:"
	if reveal {
		text = "Choose a card to reveal:"
	}
	choices := make([]choice, len(p.Hand))
	for i, c := range p.Hand {
		choices[i] = choice{Label: c.String(), Value: strconv.Itoa(i)}
	}
	a, err := t.askPrivate(ctx, p.ID, text, choices)
	if errors.Is(err, prompt.ErrTimeout) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	idx, err := strconv.Atoi(a.Value)
	if err != nil {
		return -1, nil
	}
	return idx, nil
}

// ClaimDefense implements coup.IO.
func (t *CoupTable) ClaimDefense(ctx context.Context, p coup.PlayerView, role coup.Character) (bool, error) {
	choices := []choice{
		{Label: "🛡 Claim " + role.String(), Value: "yes"},
		{Label: "😔 Accept", Value: "no"},
	}
	a, err := t.askGroup(ctx, fmt.Sprintf("🛡 %s, claim %s to block?", p.Name, role), choices, p.ID)
	if errors.Is(err, prompt.ErrTimeout) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Value == "yes", nil
}

// RoleClaims implements coup.IO.
func (t *CoupTable) RoleClaims(ctx context.Context, roles []coup.Character, eligible []int64) (int64, coup.Character, bool, error) {
	choices := make([]choice, 0, len(roles)+1)
	for _, r := range roles {
		choices = append(choices, choice{Label: "🛡 Block as " + r.String(), Value: strconv.Itoa(int(r))})
	}
	choices = append(choices, passChoice)

	text := fmt.Sprintf("🛡 Anyone block with %s? (%s)", roleList(roles), t.namesOf(eligible))
	a, err := t.askGroup(ctx, text, choices, eligible...)
	if errors.Is(err, prompt.ErrTimeout) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	if a.Passed() {
		return 0, 0, false, nil
	}
	n, err := strconv.Atoi(a.Value)
	if err != nil {
		return a.UserID, coup.Character(-1), true, nil
	}
	return a.UserID, coup.Character(n), true, nil
}

// MoveAnnounced implements coup.IO.
func (t *CoupTable) MoveAnnounced(_ context.Context, actor coup.PlayerView, mv coup.Move, target *coup.PlayerView) error {
	if target != nil {
		return t.announce(fmt.Sprintf("%s uses %s on %s.", actor.Name, moveLabel(mv), target.Name))
	}
	return t.announce(fmt.Sprintf("%s uses %s.", actor.Name, moveLabel(mv)))
}

// CardShown implements coup.IO.
func (t *CoupTable) CardShown(_ context.Context, p coup.PlayerView, c coup.Character, reveal bool) error {
	if reveal {
		return t.announce(fmt.Sprintf("👀 %s reveals %s.", p.Name, c))
	}
	return t.announce(fmt.Sprintf("💀 %s loses %s.", p.Name, c))
}

// TargetedEffect implements coup.IO.
func (t *CoupTable) TargetedEffect(_ context.Context, actor, target coup.PlayerView, mv coup.Move) error {
	return t.announce(fmt.Sprintf("✅ %s's %s on %s succeeded.", actor.Name, mv, target.Name))
}

// PlayerEliminated implements coup.IO.
func (t *CoupTable) PlayerEliminated(_ context.Context, p coup.PlayerView) error {
	return t.announce(fmt.Sprintf("☠️ %s has been eliminated.", p.Name))
}

// PlayerWon implements coup.IO.
func (t *CoupTable) PlayerWon(_ context.Context, p coup.PlayerView) error {
	return t.announce(fmt.Sprintf("🏆 %s wins Coup!", p.Name))
}

// DisplayError implements coup.IO.
func (t *CoupTable) DisplayError(_ context.Context, err error) error {
	return t.announce("❌ " + err.Error())
}

var moveIcons = map[coup.Move]string{
	coup.Income:      "🪙",
	coup.ForeignAid:  "🤝",
	coup.CoupMove:    "💥",
	coup.Tax:         "👑",
	coup.Assassinate: "🗡",
	coup.Steal:       "🦜",
	coup.Exchange:    "🔄",
	coup.Quit:        "🚪",
}

func moveLabel(mv coup.Move) string {
	if icon, ok := moveIcons[mv]; ok {
		return icon + " " + mv.String()
	}
	return mv.String()
}

func characterList(hand []coup.Character) string {
	names := make([]string, len(hand))
	for i, c := range hand {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

func roleList(roles []coup.Character) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, " or ")
}
