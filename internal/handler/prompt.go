package handler

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/prompt"
)

// PromptHandler answers the inline buttons of game prompts.
type PromptHandler struct {
	broker *prompt.Broker
}

// NewPromptHandler creates a new PromptHandler.
func NewPromptHandler(broker *prompt.Broker) *PromptHandler {
	return &PromptHandler{broker: broker}
}

// HandleCallback handles a prompt button press.
func (h *PromptHandler) HandleCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	id, value, ok := prompt.DecodeCallback(strings.TrimPrefix(callback.Data, "\f"))
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid button", ShowAlert: true})
	}

	return c.Respond(answerResponse(h.broker.Resolve(id, sender.ID, value), value))
}

// answerResponse is the callback toast for a Resolve outcome.
func answerResponse(err error, value string) *tele.CallbackResponse {
	switch {
	case err == nil && value == prompt.Pass:
		return &tele.CallbackResponse{Text: "🙅 You passed"}
	case err == nil:
		return &tele.CallbackResponse{Text: "✅ Got it"}
	case errors.Is(err, prompt.ErrNotEligible),
		errors.Is(err, prompt.ErrAlreadyPassed),
		errors.Is(err, prompt.ErrUnknownRequest):
		return &tele.CallbackResponse{Text: "❌ " + err.Error(), ShowAlert: true}
	}
	log.Warn().Err(err).Msg("Failed to resolve prompt")
	return &tele.CallbackResponse{Text: "❌ Something went wrong", ShowAlert: true}
}
