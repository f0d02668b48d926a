package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/pkg/lock"
	"card-game-bot/internal/service"
)

// AdminHandler handles admin-only counting commands.
type AdminHandler struct {
	countingService *service.CountingService
	userLock        *lock.UserLock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(countingService *service.CountingService, userLock *lock.UserLock) *AdminHandler {
	return &AdminHandler{
		countingService: countingService,
		userLock:        userLock,
	}
}

// HandleRefund handles the /refund command.
// Format: /refund <user_id> <amount>
func (h *AdminHandler) HandleRefund(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, amount, err := parseAdminArgs(c.Args())
	if err != nil {
		return c.Reply(err.Error())
	}

	var count int64
	err = h.userLock.WithLock(targetID, func() error {
		var err error
		count, err = h.countingService.Refund(ctx, targetID, amount)
		return err
	})
	switch {
	case errors.Is(err, service.ErrInvalidRefund):
		return c.Reply("❌ Amount must not be zero")
	case errors.Is(err, service.ErrNoScore):
		return c.Reply("❌ That user has not counted yet")
	case err != nil:
		return c.Reply("❌ Refund failed, please try again later")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "refund").
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Refund applied\n\n"+
			"👤 User: %d\n"+
			"🔁 Change: %+d\n"+
			"🔢 Count: %d",
		targetID, amount, count,
	))
}

// parseAdminArgs parses admin command arguments.
// Format: <user_id> <amount>
func parseAdminArgs(args []string) (int64, int64, error) {
	if len(args) < 2 {
		return 0, 0, fmt.Errorf("❌ Usage: /refund <user_id> <amount>\nExample: /refund 123456789 11")
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("❌ User ID must be a number")
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("❌ Amount must be an integer")
	}

	return targetID, amount, nil
}
