package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/game"
	"card-game-bot/internal/model"
	"card-game-bot/internal/service"
)

// RankingHandler handles ranking-related commands.
type RankingHandler struct {
	rankingService *service.RankingService
	registry       *game.Registry
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(rankingService *service.RankingService, registry *game.Registry) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		registry:       registry,
	}
}

// HandleWins handles the /wins command.
// Displays the players with the most match wins, optionally for one game.
func (h *RankingHandler) HandleWins(c tele.Context) error {
	ctx := context.Background()

	title := "🏆 Most wins"
	var command string
	if args := c.Args(); len(args) > 0 {
		g, ok := h.registry.Get(args[0])
		if !ok {
			return c.Reply(fmt.Sprintf("❌ Unknown game %q", args[0]))
		}
		command = g.Command()
		title = fmt.Sprintf("🏆 Most %s wins", g.Name())
	}

	winners, err := h.rankingService.TopWinners(ctx, command)
	if err != nil {
		return c.Reply("❌ Failed to load the ranking, please try again later")
	}

	var wins int64
	if sender := c.Sender(); sender != nil {
		if wins, err = h.rankingService.Wins(ctx, sender.ID); err != nil {
			wins = 0
		}
	}
	return c.Reply(FormatWins(title, winners) + fmt.Sprintf("\n\n🎯 Your wins (all games): %d", wins))
}

// FormatWins renders a win ranking.
func FormatWins(title string, winners []*model.WinRank) string {
	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")
	if len(winners) == 0 {
		b.WriteString("No games finished yet")
		return b.String()
	}
	for i, w := range winners {
		fmt.Fprintf(&b, "%s %s: %d\n", rankLabel(i), entryName(w.Username, w.UserID), w.Wins)
	}
	return strings.TrimRight(b.String(), "\n")
}
