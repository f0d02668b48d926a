// Package handler provides Telegram bot command handlers and the chat-backed
// IO collaborators the card game engines run against.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/game"
	"card-game-bot/internal/prompt"
)

// buttonsPerRow is how many choices share an inline keyboard row.
const buttonsPerRow = 2

// Messenger is the part of the bot API the game tables use.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// SinkFactory returns the history sink for one match.
type SinkFactory func(matchID, gameName string) game.EventSink

// choice is one inline button of a prompt.
type choice struct {
	Label string
	Value string
}

// table sends a match's messages and collects its button answers.
type table struct {
	bot     Messenger
	broker  *prompt.Broker
	chat    tele.ChatID
	timeout time.Duration
	names   map[int64]string
}

func newTable(bot Messenger, broker *prompt.Broker, t game.Table, timeout time.Duration) *table {
	names := make(map[int64]string, len(t.Players))
	for _, p := range t.Players {
		names[p.ID] = p.Name
	}
	return &table{
		bot:     bot,
		broker:  broker,
		chat:    tele.ChatID(t.ChatID),
		timeout: timeout,
		names:   names,
	}
}

// announce posts text to the group chat. Send failures are logged and do
// not stop the match.
func (t *table) announce(text string) error {
	if _, err := t.bot.Send(t.chat, text); err != nil {
		log.Warn().Err(err).Int64("chat_id", int64(t.chat)).Msg("Failed to send game message")
	}
	return nil
}

// nameOf returns the display name of a seated user.
func (t *table) nameOf(id int64) string {
	if name, ok := t.names[id]; ok {
		return name
	}
	return fmt.Sprintf("%d", id)
}

// namesOf joins the display names of ids.
func (t *table) namesOf(ids []int64) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = t.nameOf(id)
	}
	return strings.Join(names, ", ")
}

// askGroup posts a prompt to the group chat.
func (t *table) askGroup(ctx context.Context, text string, choices []choice, eligible ...int64) (prompt.Answer, error) {
	return t.ask(ctx, t.chat, text, choices, eligible...)
}

// askPrivate sends a prompt to the player's private chat. A player the bot
// cannot message is told so in the group and the prompt times out at once.
func (t *table) askPrivate(ctx context.Context, userID int64, text string, choices []choice) (prompt.Answer, error) {
	a, err := t.ask(ctx, tele.ChatID(userID), text, choices, userID)
	if errors.Is(err, errUndeliverable) {
		t.announce(fmt.Sprintf("⚠️ %s, I can't message you privately. Open a chat with me and press Start.", t.nameOf(userID)))
		return a, prompt.ErrTimeout
	}
	return a, err
}

var errUndeliverable = errors.New("prompt could not be delivered")

// ask opens a prompt for eligible, renders its buttons in chat and waits for
// the answer. The keyboard is replaced by the outcome once it resolves.
func (t *table) ask(ctx context.Context, to tele.ChatID, text string, choices []choice, eligible ...int64) (prompt.Answer, error) {
	req := t.broker.Open(eligible...)
	msg, err := t.bot.Send(to, text, promptKeyboard(req.ID, choices))
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", int64(to)).Msg("Failed to send prompt")
		t.broker.Cancel(req)
		return prompt.Answer{}, errUndeliverable
	}

	answer, err := t.broker.Wait(ctx, req, t.timeout)
	switch {
	case errors.Is(err, prompt.ErrTimeout):
		t.settle(msg, text, "⏰ Time is up.")
	case err != nil:
		t.settle(msg, text, "🛑 Game stopped.")
	case answer.Passed():
		t.settle(msg, text, "➡️ Everyone passed.")
	default:
		t.settle(msg, text, fmt.Sprintf("✅ %s: %s", t.nameOf(answer.UserID), labelOf(choices, answer.Value)))
	}
	return answer, err
}

// settle removes a prompt's keyboard and appends its outcome.
func (t *table) settle(msg *tele.Message, text, outcome string) {
	if msg == nil {
		return
	}
	if _, err := t.bot.Edit(msg, text+"\n\n"+outcome); err != nil {
		log.Debug().Err(err).Int("msg_id", msg.ID).Msg("Failed to close prompt")
	}
}

// promptKeyboard builds the inline keyboard answering request id.
func promptKeyboard(id string, choices []choice) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows [][]tele.InlineButton
	var row []tele.InlineButton
	for _, c := range choices {
		row = append(row, tele.InlineButton{Text: c.Label, Data: prompt.EncodeCallback(id, c.Value)})
		if len(row) == buttonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	markup.InlineKeyboard = rows
	return markup
}

func labelOf(choices []choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// passChoice lets an eligible player decline a group prompt.
var passChoice = choice{Label: "🙅 Pass", Value: prompt.Pass}
