package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/config"
	"card-game-bot/internal/game"
	"card-game-bot/internal/game/uno"
	"card-game-bot/internal/session"
)

// unoCaller is a match that accepts "Uno!" calls.
type unoCaller interface {
	CallUno(ctx context.Context, userID int64) uno.CallResult
}

// GameHandler handles the lobby and in-game commands.
type GameHandler struct {
	cfg      *config.Config
	registry *game.Registry
	hub      *session.Hub
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(cfg *config.Config, registry *game.Registry, hub *session.Hub) *GameHandler {
	return &GameHandler{
		cfg:      cfg,
		registry: registry,
		hub:      hub,
	}
}

// DisplayName returns the name a Telegram user is shown by.
func DisplayName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("User%d", u.ID)
}

// manager resolves the game named by the command argument.
func (h *GameHandler) manager(c tele.Context, usage string) (*session.Manager, error) {
	args := c.Args()
	if len(args) < 1 {
		return nil, c.Reply(fmt.Sprintf("❌ Usage: %s <game>\nGames: %s", usage, strings.Join(h.registry.Commands(), ", ")))
	}
	m, ok := h.hub.Get(args[0])
	if !ok {
		return nil, c.Reply(fmt.Sprintf("❌ Unknown game %q. Games: %s", args[0], strings.Join(h.registry.Commands(), ", ")))
	}
	return m, nil
}

// HandleJoinQueue handles the /joinqueue command.
func (h *GameHandler) HandleJoinQueue(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	m, err := h.manager(c, "/joinqueue")
	if m == nil {
		return err
	}

	if err := m.Join(game.PlayerInfo{ID: sender.ID, Name: DisplayName(sender)}); err != nil {
		return c.Reply("❌ " + err.Error())
	}
	desc := m.Game()
	return c.Reply(fmt.Sprintf("✅ %s joined the %s queue (%d/%d).",
		DisplayName(sender), desc.Name(), len(m.Queue()), desc.MaxPlayers()))
}

// HandleLeaveQueue handles the /leavequeue command.
func (h *GameHandler) HandleLeaveQueue(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	m, err := h.manager(c, "/leavequeue")
	if m == nil {
		return err
	}

	if err := m.Leave(sender.ID); err != nil {
		return c.Reply("❌ " + err.Error())
	}
	return c.Reply(fmt.Sprintf("👋 %s left the %s queue.", DisplayName(sender), m.Game().Name()))
}

// HandleQueue handles the /queue command.
func (h *GameHandler) HandleQueue(c tele.Context) error {
	m, err := h.manager(c, "/queue")
	if m == nil {
		return err
	}
	return c.Reply(FormatQueue(m.Game(), m.Queue()))
}

// HandleStartGame handles the /startgame command. Games run in the lobby
// chat when one is configured.
func (h *GameHandler) HandleStartGame(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if chat.Type == tele.ChatPrivate {
		return c.Reply("❌ Games can only be started in a group")
	}
	m, err := h.manager(c, "/startgame")
	if m == nil {
		return err
	}

	chatID := chat.ID
	if h.cfg.Lobby.ChatID != 0 {
		chatID = h.cfg.Lobby.ChatID
	}
	seated, err := m.Start(context.Background(), chatID)
	if err != nil {
		if errors.Is(err, session.ErrNotEnoughPlayers) {
			return c.Reply(fmt.Sprintf("❌ %s needs at least %d players in the queue", m.Game().Name(), m.Game().MinPlayers()))
		}
		if errors.Is(err, session.ErrGameInProgress) {
			return c.Reply("❌ " + err.Error())
		}
		log.Error().Err(err).Str("game", m.Game().Command()).Msg("Failed to start game")
		return c.Reply("❌ Failed to start the game, please try again later")
	}

	names := make([]string, len(seated))
	for i, p := range seated {
		names[i] = p.Name
	}
	return c.Reply(fmt.Sprintf("🎮 %s starts with %s.\nYour decisions arrive in a private chat with me.",
		m.Game().Name(), strings.Join(names, ", ")))
}

// HandleStopGame handles the admin /stopgame command.
func (h *GameHandler) HandleStopGame(c tele.Context) error {
	m, err := h.manager(c, "/stopgame")
	if m == nil {
		return err
	}
	if err := m.Stop(); err != nil {
		return c.Reply("❌ " + err.Error())
	}
	return c.Reply(fmt.Sprintf("🛑 Stopping the %s game...", m.Game().Name()))
}

// HandleHand handles the /hand command. The hand is always sent privately.
func (h *GameHandler) HandleHand(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	m, match, ok := h.hub.ActiveFor(sender.ID)
	if !ok {
		return c.Reply("❌ You are not in a running game")
	}
	hand, err := match.Hand(sender.ID)
	if err != nil {
		return c.Reply("❌ " + err.Error())
	}

	msg := fmt.Sprintf("🃏 Your %s hand:\n%s", m.Game().Name(), strings.Join(hand, "\n"))
	if c.Chat() != nil && c.Chat().Type == tele.ChatPrivate {
		return c.Send(msg)
	}
	if _, err := c.Bot().Send(sender, msg); err != nil {
		return c.Reply("❌ I can't message you privately. Open a chat with me and press Start.")
	}
	return c.Reply("📬 Sent you your hand privately.")
}

// HandleGameState handles the /gamestate command.
func (h *GameHandler) HandleGameState(c tele.Context) error {
	m, err := h.manager(c, "/gamestate")
	if m == nil {
		return err
	}
	match, ok := m.Active()
	if !ok {
		return c.Reply(fmt.Sprintf("❌ No %s game is in progress", m.Game().Name()))
	}
	return c.Reply(FormatStatus(match.Status()))
}

// HandleUno handles the /uno command, the "Uno!" call.
func (h *GameHandler) HandleUno(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	m, ok := h.hub.Get(uno.GameCommand)
	if !ok {
		return nil
	}
	match, ok := m.Active()
	if !ok {
		return c.Reply("❌ No Uno game is in progress")
	}
	caller, ok := match.(unoCaller)
	if !ok {
		return nil
	}

	res := caller.CallUno(context.Background(), sender.ID)
	return c.Reply(callOutcomeText(DisplayName(sender), rosterNames(match.Status(), res.Penalized), res))
}

// HandleCommands handles the /commands command.
func (h *GameHandler) HandleCommands(c tele.Context) error {
	return c.Reply(FormatCommands(h.registry.Commands()))
}

// HandleRules handles the /rules command.
func (h *GameHandler) HandleRules(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Reply(fmt.Sprintf("❌ Usage: /rules <game>\nGames: %s", strings.Join(h.registry.Commands(), ", ")))
	}
	g, ok := h.registry.Get(args[0])
	if !ok {
		return c.Reply(fmt.Sprintf("❌ Unknown game %q", args[0]))
	}
	return c.Reply(fmt.Sprintf("📖 %s rules (%d-%d players)\n\n%s", g.Name(), g.MinPlayers(), g.MaxPlayers(), g.Rules()))
}

// ResultAnnouncer returns a finish callback that posts each match's end to
// its chat.
func ResultAnnouncer(bot Messenger) func(session.Result) {
	return func(res session.Result) {
		if _, err := bot.Send(tele.ChatID(res.ChatID), FormatResult(res)); err != nil {
			log.Warn().Err(err).Int64("chat_id", res.ChatID).Str("game_id", res.ID).Msg("Failed to announce result")
		}
	}
}

// FormatResult renders how a match ended.
func FormatResult(res session.Result) string {
	switch {
	case res.Stopped():
		return fmt.Sprintf("🛑 The %s game was stopped.", res.Game)
	case res.Err != nil:
		return fmt.Sprintf("⚠️ The %s game ended abnormally: %v", res.Game, res.Err)
	}
	return fmt.Sprintf("🏁 %s wins the %s game after %s!", res.Winner.Name, res.Game,
		res.EndedAt.Sub(res.StartedAt).Round(time.Second))
}

// FormatQueue renders a lobby queue.
func FormatQueue(desc game.Game, queue []game.PlayerInfo) string {
	if len(queue) == 0 {
		return fmt.Sprintf("📋 The %s queue is empty. Join with /joinqueue %s", desc.Name(), desc.Command())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s queue (%d/%d, %d needed)\n", desc.Name(), len(queue), desc.MaxPlayers(), desc.MinPlayers())
	for i, p := range queue {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStatus renders the public view of a running match.
func FormatStatus(st game.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎲 %s\n", st.Game)
	b.WriteString("━━━━━━━━━━━━━━━\n")
	coins := false
	for _, p := range st.Players {
		coins = coins || p.Coins > 0
	}
	for _, p := range st.Players {
		if coins {
			fmt.Fprintf(&b, "%s: %d🃏 %d💰\n", p.Name, p.Cards, p.Coins)
		} else {
			fmt.Fprintf(&b, "%s: %d🃏\n", p.Name, p.Cards)
		}
	}

	keys := make([]string, 0, len(st.Details))
	for k := range st.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		b.WriteString("━━━━━━━━━━━━━━━\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", strings.ReplaceAll(k, "_", " "), st.Details[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCommands renders the /commands help text.
func FormatCommands(games []string) string {
	return fmt.Sprintf(`📜 Commands

🎮 Games (%s)
/joinqueue <game> - join a game's queue
/leavequeue <game> - leave a game's queue
/queue <game> - show a game's queue
/startgame <game> - start a game with the queued players
/stopgame <game> - stop a running game (admin)
/gamestate <game> - show a running game
/hand - get your hand privately
/uno - call "Uno!"
/rules <game> - show a game's rules
/wins [game] - most wins

🔢 Counting
/leaderboard - top counters
/myscore - your count
/competition - competition standings
/dibs - all dibs
/dib <number> - call dibs on a number
/undib - release your dib
/refund <user_id> <amount> - correct a count (admin)`, strings.Join(games, ", "))
}

func rosterNames(st game.Status, ids []int64) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := fmt.Sprintf("User%d", id)
		for _, p := range st.Players {
			if p.ID == id {
				name = p.Name
				break
			}
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
