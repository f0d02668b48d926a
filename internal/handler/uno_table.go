package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"card-game-bot/internal/game"
	"card-game-bot/internal/game/uno"
	"card-game-bot/internal/prompt"
)

const (
	drawValue = "draw"
	quitValue = "quit"
)

// UnoTable runs the Uno IO over chat. The hand and the move buttons go to
// the current player privately. A timed out turn draws; a timed out color
// choice is Red.
type UnoTable struct {
	*table
}

// NewUnoFactory builds Uno matches played in chat.
func NewUnoFactory(bot Messenger, broker *prompt.Broker, timeout time.Duration, sinks SinkFactory) game.Factory {
	return func(t game.Table) (game.Match, error) {
		io := &UnoTable{table: newTable(bot, broker, t, timeout)}
		return uno.New(t.Players, io, uno.WithEventSink(sinks(t.MatchID, uno.GameCommand)))
	}
}

// PlayerMove implements uno.IO.
func (t *UnoTable) PlayerMove(ctx context.Context, p uno.PlayerView, top uno.Card, numDraw int) (uno.Move, error) {
	choices := make([]choice, 0, len(p.Hand)+2)
	for i, c := range p.Hand {
		choices = append(choices, choice{Label: cardLabel(c), Value: strconv.Itoa(i)})
	}
	draw := "📥 Draw"
	if numDraw > 0 {
		draw = fmt.Sprintf("📥 Draw %d", numDraw)
	}
	choices = append(choices, choice{Label: draw, Value: drawValue}, choice{Label: "🚪 Quit", Value: quitValue})

	t.announce(fmt.Sprintf("🎴 %s's turn. Top card: %s", p.Name, cardLabel(top)))
	text := fmt.Sprintf("Top card: %s\nYour hand: %d cards", cardLabel(top), len(p.Hand))
	if numDraw > 0 {
		text += fmt.Sprintf("\n⚠️ Pending penalty: draw %d, or stack a matching card", numDraw)
	}
	a, err := t.askPrivate(ctx, p.ID, text, choices)
	if errors.Is(err, prompt.ErrTimeout) {
		return uno.Move{Kind: uno.DrawCard}, nil
	}
	if err != nil {
		return uno.Move{}, err
	}
	return parseUnoAnswer(a.Value), nil
}

func parseUnoAnswer(value string) uno.Move {
	switch value {
	case drawValue:
		return uno.Move{Kind: uno.DrawCard}
	case quitValue:
		return uno.Move{Kind: uno.QuitGame}
	}
	idx, err := strconv.Atoi(value)
	if err != nil {
		return uno.Move{Kind: uno.MoveKind(-1)}
	}
	return uno.Move{Kind: uno.PlayCard, Index: idx}
}

// ColorChoice implements uno.IO.
func (t *UnoTable) ColorChoice(ctx context.Context, p uno.PlayerView) (uno.Color, error) {
	choices := make([]choice, len(uno.PlayableColors))
	for i, c := range uno.PlayableColors {
		choices[i] = choice{Label: colorIcons[c] + " " + c.String(), Value: strconv.Itoa(int(c))}
	}
	a, err := t.askPrivate(ctx, p.ID, "🎨 Choose a color:", choices)
	if errors.Is(err, prompt.ErrTimeout) {
		return uno.Red, nil
	}
	if err != nil {
		return uno.Black, err
	}
	n, err := strconv.Atoi(a.Value)
	if err != nil {
		return uno.Black, nil
	}
	return uno.Color(n), nil
}

// CardPlayed implements uno.IO.
func (t *UnoTable) CardPlayed(_ context.Context, p uno.PlayerView, c uno.Card) error {
	return t.announce(fmt.Sprintf("%s played %s.", p.Name, cardLabel(c)))
}

// DrawResult implements uno.IO.
func (t *UnoTable) DrawResult(_ context.Context, p uno.PlayerView, played *uno.Card, drawn int) error {
	if played == nil {
		return t.announce(fmt.Sprintf("📥 %s drew %d cards and the deck ran out.", p.Name, drawn))
	}
	return t.announce(fmt.Sprintf("📥 %s drew %d cards and played %s.", p.Name, drawn, cardLabel(*played)))
}

// PenaltyDrawn implements uno.IO.
func (t *UnoTable) PenaltyDrawn(_ context.Context, p uno.PlayerView, n int) error {
	return t.announce(fmt.Sprintf("😵 %s draws %d.", p.Name, n))
}

// TurnSkipped implements uno.IO.
func (t *UnoTable) TurnSkipped(_ context.Context, p uno.PlayerView) error {
	return t.announce(fmt.Sprintf("⏭ %s is skipped.", p.Name))
}

// PlayerQuit implements uno.IO.
func (t *UnoTable) PlayerQuit(_ context.Context, p uno.PlayerView) error {
	return t.announce(fmt.Sprintf("🚪 %s left the game.", p.Name))
}

// PlayerWon implements uno.IO.
func (t *UnoTable) PlayerWon(_ context.Context, p uno.PlayerView) error {
	return t.announce(fmt.Sprintf("🏆 %s wins Uno!", p.Name))
}

// DisplayError implements uno.IO.
func (t *UnoTable) DisplayError(_ context.Context, err error) error {
	return t.announce("❌ " + err.Error())
}

// callOutcomeText describes the result of a "Uno!" call by caller.
func callOutcomeText(caller, penalized string, res uno.CallResult) string {
	var b strings.Builder
	switch res.Outcome {
	case uno.NotInGame:
		b.WriteString("❌ You are not in the Uno game.")
	case uno.SelfSafe:
		fmt.Fprintf(&b, "📣 %s calls Uno!", caller)
	case uno.NothingToCall:
		fmt.Fprintf(&b, "📣 %s calls Uno! Nobody to catch.", caller)
	case uno.CallerPenalized:
		fmt.Fprintf(&b, "🙈 False call! %s draws %d.", caller, uno.UnoPenalty)
	case uno.TargetsPenalized:
		fmt.Fprintf(&b, "🚨 %s caught %s! They draw %d.", caller, penalized, uno.UnoPenalty)
	}
	if res.DrawErr != nil {
		fmt.Fprintf(&b, "\n⚠️ %v", res.DrawErr)
	}
	return b.String()
}

var colorIcons = map[uno.Color]string{
	uno.Red:    "🟥",
	uno.Blue:   "🟦",
	uno.Green:  "🟩",
	uno.Yellow: "🟨",
	uno.Black:  "⬛",
}

func cardLabel(c uno.Card) string {
	color := c.Color
	if color == uno.Black && c.Chosen != uno.Black {
		color = c.Chosen
	}
	return colorIcons[color] + " " + c.String()
}
