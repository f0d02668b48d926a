package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/config"
	"card-game-bot/internal/model"
	"card-game-bot/internal/pkg/lock"
	"card-game-bot/internal/repository"
	"card-game-bot/internal/service"
)

// CountingHandler handles the counting chat and its leaderboard commands.
type CountingHandler struct {
	cfg             *config.Config
	countingService *service.CountingService
	userLock        *lock.UserLock
}

// NewCountingHandler creates a new CountingHandler.
func NewCountingHandler(cfg *config.Config, countingService *service.CountingService, userLock *lock.UserLock) *CountingHandler {
	return &CountingHandler{
		cfg:             cfg,
		countingService: countingService,
		userLock:        userLock,
	}
}

// HandleText scores counting messages. Only the configured counting chat
// counts; with none configured counting is off.
func (h *CountingHandler) HandleText(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil || h.cfg.Counting.ChatID == 0 || chat.ID != h.cfg.Counting.ChatID {
		return nil
	}

	ctx := context.Background()
	if _, err := h.countingService.Record(ctx, sender.ID, DisplayName(sender), c.Text()); err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to record count")
	}
	return nil
}

// HandleLeaderboard handles the /leaderboard command.
func (h *CountingHandler) HandleLeaderboard(c tele.Context) error {
	ctx := context.Background()

	top, err := h.countingService.Leaderboard(ctx)
	if err != nil {
		return c.Reply("❌ Failed to load the leaderboard, please try again later")
	}
	if len(top) == 0 {
		return c.Reply(h.cfg.Counting.EmptyReply)
	}
	return c.Reply(FormatCounts("🔢 Counting leaderboard", top))
}

// HandleMyScore handles the /myscore command.
func (h *CountingHandler) HandleMyScore(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	score, err := h.countingService.Score(ctx, sender.ID)
	if errors.Is(err, service.ErrNoScore) {
		return c.Reply("🔢 You haven't counted yet!")
	}
	if err != nil {
		return c.Reply("❌ Failed to load your score, please try again later")
	}
	return c.Reply(fmt.Sprintf("🔢 %s, you have counted %d times.", DisplayName(sender), score))
}

// HandleCompetition handles the /competition command.
func (h *CountingHandler) HandleCompetition(c tele.Context) error {
	ctx := context.Background()

	status, err := h.countingService.Competition(ctx)
	if err != nil {
		return c.Reply("❌ Failed to load the competition, please try again later")
	}
	return c.Reply(FormatCompetition(status, h.cfg.Counting.EmptyReply))
}

// HandleDibs handles the /dibs command.
func (h *CountingHandler) HandleDibs(c tele.Context) error {
	ctx := context.Background()

	dibs, err := h.countingService.Dibs(ctx)
	if err != nil {
		return c.Reply("❌ Failed to load dibs, please try again later")
	}
	return c.Reply(FormatDibs(dibs))
}

// HandleDib handles the /dib command.
// Format: /dib <number>
func (h *CountingHandler) HandleDib(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	args := c.Args()
	if len(args) < 1 {
		return c.Reply(fmt.Sprintf("❌ Usage: /dib <number>\nNumbers run from 0 to %d", model.MaxDib))
	}

	var n int64
	ran, err := h.userLock.TryWithLock(sender.ID, func() error {
		var err error
		n, err = h.countingService.Dib(ctx, sender.ID, DisplayName(sender), args[0])
		return err
	})
	switch {
	case !ran:
		return c.Reply("⏳ Still working on your last request")
	case errors.Is(err, service.ErrInvalidDib):
		return c.Reply(fmt.Sprintf("❌ Numbers run from 0 to %d", model.MaxDib))
	case errors.Is(err, repository.ErrDibTaken):
		return c.Reply("❌ That number is taken, or you already have a dib. /undib first to change it.")
	case err != nil:
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to create dib")
		return c.Reply("❌ Failed to call dibs, please try again later")
	}
	return c.Reply(fmt.Sprintf("📌 %s called dibs on %d.", DisplayName(sender), n))
}

// HandleUndib handles the /undib command.
func (h *CountingHandler) HandleUndib(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	ran, err := h.userLock.TryWithLock(sender.ID, func() error {
		return h.countingService.Undib(ctx, sender.ID)
	})
	switch {
	case !ran:
		return c.Reply("⏳ Still working on your last request")
	case errors.Is(err, repository.ErrDibNotFound):
		return c.Reply("❌ You don't have a dib")
	case err != nil:
		return c.Reply("❌ Failed to release your dib, please try again later")
	}
	return c.Reply("🗑 Your dib is released.")
}

// FormatCounts renders a ranked count list.
func FormatCounts(title string, entries []*model.CountEntry) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%s %s: %d\n", rankLabel(i), entryName(e.Username, e.UserID), e.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCompetition renders the competition state and standings.
func FormatCompetition(status *service.CompetitionStatus, empty string) string {
	layout := service.WindowLayout
	switch status.State {
	case model.CompetitionNotStarted:
		if !status.Window.Scheduled() {
			return "🏁 No competition is scheduled."
		}
		return fmt.Sprintf("🏁 The competition starts %s.", status.Window.Start.Format(layout))
	case model.CompetitionUnderway:
		if len(status.Standings) == 0 {
			return fmt.Sprintf("🏁 The competition is underway until %s.\n%s", status.Window.End.Format(layout), empty)
		}
		return FormatCounts(fmt.Sprintf("🏁 Competition standings (until %s)", status.Window.End.Format(layout)), status.Standings)
	}
	if len(status.Standings) == 0 {
		return "🏁 The competition has ended.\n" + empty
	}
	return FormatCounts("🏁 The competition has ended! Final standings", status.Standings)
}

// FormatDibs renders every dib.
func FormatDibs(dibs []*model.Dib) string {
	if len(dibs) == 0 {
		return "📌 Nobody has called dibs yet."
	}
	var b strings.Builder
	b.WriteString("📌 Dibs\n")
	for _, d := range dibs {
		fmt.Fprintf(&b, "%d: %s\n", d.Number, entryName(d.Username, d.UserID))
	}
	return strings.TrimRight(b.String(), "\n")
}

var medals = []string{"🥇", "🥈", "🥉"}

func rankLabel(i int) string {
	if i < len(medals) {
		return medals[i]
	}
	return fmt.Sprintf("%d.", i+1)
}

func entryName(username string, userID int64) string {
	if username == "" {
		return fmt.Sprintf("User%d", userID)
	}
	return username
}
