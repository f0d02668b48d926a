// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"card-game-bot/internal/config"
	"card-game-bot/internal/game"
	"card-game-bot/internal/game/coup"
	"card-game-bot/internal/game/uno"
	"card-game-bot/internal/handler"
	"card-game-bot/internal/pkg/lock"
	"card-game-bot/internal/prompt"
	"card-game-bot/internal/service"
	"card-game-bot/internal/session"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	registry *game.Registry
	hub      *session.Hub
	access   *PrivateAccess

	// Handlers
	gameHandler     *handler.GameHandler
	countingHandler *handler.CountingHandler
	adminHandler    *handler.AdminHandler
	rankingHandler  *handler.RankingHandler
	promptHandler   *handler.PromptHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config          *config.Config
	Broker          *prompt.Broker
	CountingService *service.CountingService
	RankingService  *service.RankingService
	MatchRecorder   *service.MatchRecorder
	Sinks           handler.SinkFactory
	UserLock        *lock.UserLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pollTimeout := deps.Config.Bot.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		registry: game.NewRegistry(),
		access:   NewPrivateAccess(),
	}
	if err := b.registerGames(deps); err != nil {
		return nil, err
	}

	// Initialize handlers
	b.gameHandler = handler.NewGameHandler(deps.Config, b.registry, b.hub)
	b.countingHandler = handler.NewCountingHandler(deps.Config, deps.CountingService, deps.UserLock)
	b.adminHandler = handler.NewAdminHandler(deps.CountingService, deps.UserLock)
	b.rankingHandler = handler.NewRankingHandler(deps.RankingService, b.registry)
	b.promptHandler = handler.NewPromptHandler(deps.Broker)

	// Register middleware
	b.registerMiddleware()

	// Register handlers
	b.registerHandlers()

	return b, nil
}

// registerGames registers the hosted games and creates their sessions.
func (b *Bot) registerGames(deps *Dependencies) error {
	announce := handler.ResultAnnouncer(b.bot)
	onFinish := session.WithOnFinish(func(res session.Result) {
		deps.MatchRecorder.Record(res)
		announce(res)
	})

	coupManager := session.NewManager(coup.Descriptor{},
		handler.NewCoupFactory(b.bot, deps.Broker, b.cfg.Games.Coup.DecisionTimeout, deps.Sinks), onFinish)
	unoManager := session.NewManager(uno.Descriptor{},
		handler.NewUnoFactory(b.bot, deps.Broker, b.cfg.Games.Uno.DecisionTimeout, deps.Sinks), onFinish)

	for _, m := range []*session.Manager{coupManager, unoManager} {
		if err := b.registry.Register(m.Game()); err != nil {
			return fmt.Errorf("failed to register game: %w", err)
		}
	}
	b.hub = session.NewHub(coupManager, unoManager)
	return nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())

	// Whitelist middleware - check if chat is allowed
	b.bot.Use(WhitelistMiddleware(b.cfg, b.access))

	// Logging middleware
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/commands", b.gameHandler.HandleCommands)
	b.bot.Handle("/rules", b.gameHandler.HandleRules)

	// Lobby handlers
	b.bot.Handle("/joinqueue", b.gameHandler.HandleJoinQueue)
	b.bot.Handle("/leavequeue", b.gameHandler.HandleLeaveQueue)
	b.bot.Handle("/queue", b.gameHandler.HandleQueue)
	b.bot.Handle("/startgame", b.gameHandler.HandleStartGame)

	// In-game handlers
	b.bot.Handle("/hand", b.gameHandler.HandleHand)
	b.bot.Handle("/gamestate", b.gameHandler.HandleGameState)
	b.bot.Handle("/uno", b.gameHandler.HandleUno)
	b.bot.Handle("/wins", b.rankingHandler.HandleWins)

	// Counting handlers
	b.bot.Handle("/leaderboard", b.countingHandler.HandleLeaderboard)
	b.bot.Handle("/myscore", b.countingHandler.HandleMyScore)
	b.bot.Handle("/competition", b.countingHandler.HandleCompetition)
	b.bot.Handle("/dibs", b.countingHandler.HandleDibs)
	b.bot.Handle("/dib", b.countingHandler.HandleDib)
	b.bot.Handle("/undib", b.countingHandler.HandleUndib)
	b.bot.Handle(tele.OnText, b.countingHandler.HandleText)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/stopgame", b.gameHandler.HandleStopGame)
	adminGroup.Handle("/refund", b.adminHandler.HandleRefund)

	// Generic callback handler for prompt buttons
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleStart greets private chats, which is where game prompts are sent,
// and lists commands in groups.
func (b *Bot) handleStart(c tele.Context) error {
	chat := c.Chat()
	if chat != nil && chat.Type == tele.ChatPrivate {
		return c.Send("👋 You're all set. Your cards and game decisions will arrive here.\nSee /commands for everything I can do.")
	}
	return b.gameHandler.HandleCommands(c)
}

// handleCallback routes callbacks to appropriate handlers
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	if strings.HasPrefix(data, prompt.CallbackPrefix) {
		return b.promptHandler.HandleCallback(c)
	}

	log.Debug().Str("data", data).Msg("Unknown callback")
	return c.Respond(&tele.CallbackResponse{Text: "❌ This button is no longer active"})
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().
		Int("game_count", b.registry.Count()).
		Strs("games", b.registry.Commands()).
		Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully, ending any running match.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	for _, m := range b.hub.List() {
		if err := m.Stop(); err == nil {
			log.Info().Str("game", m.Game().Command()).Msg("Stopped running game")
		}
	}
	b.bot.Stop()
}

// Hub returns the game sessions.
func (b *Bot) Hub() *session.Hub {
	return b.hub
}

// Registry returns the hosted games.
func (b *Bot) Registry() *game.Registry {
	return b.registry
}
