// Package main is the entry point for the card game and counting bot.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"card-game-bot/internal/bot"
	"card-game-bot/internal/config"
	"card-game-bot/internal/game"
	"card-game-bot/internal/history"
	"card-game-bot/internal/httpapi"
	"card-game-bot/internal/pkg/db"
	"card-game-bot/internal/pkg/lock"
	"card-game-bot/internal/prompt"
	"card-game-bot/internal/repository"
	"card-game-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid counting timezone")
	}
	window, err := service.ParseWindow(cfg.Competition.Start, cfg.Competition.End, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid competition window")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := repository.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Game history goes through Redis
	rdb, err := db.NewRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	publisher := history.NewPublisher(rdb, cfg.Redis.Queue)
	historian := history.NewHistorian(rdb, cfg.Redis.Queue, repository.NewActionRepository(dbPool.Pool))
	historianDone := make(chan struct{})
	go func() {
		defer close(historianDone)
		historian.Run(ctx)
	}()

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	countRepo := repository.NewCountRepository(dbPool.Pool)
	competitionRepo := repository.NewCompetitionRepository(dbPool.Pool)
	dibRepo := repository.NewDibRepository(dbPool.Pool)
	matchRepo := repository.NewMatchRepository(dbPool.Pool)

	// Initialize services
	countingService := service.NewCountingService(
		userRepo,
		countRepo,
		competitionRepo,
		dibRepo,
		window,
		cfg.Counting.LeaderboardSize,
	)
	rankingService := service.NewRankingService(matchRepo, cfg.Counting.LeaderboardSize)
	matchRecorder := service.NewMatchRecorder(userRepo, matchRepo)

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:          cfg,
		Broker:          prompt.NewBroker(),
		CountingService: countingService,
		RankingService:  rankingService,
		MatchRecorder:   matchRecorder,
		Sinks:           historySinks(publisher),
		UserLock:        lock.NewUserLock(),
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	var server *http.Server
	if cfg.HTTP.Addr != "" {
		api := httpapi.New(telegramBot.Hub(), countingService, rankingService,
			httpapi.WithCheck("postgres", dbPool.HealthCheck),
			httpapi.WithCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		)
		server = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("HTTP API listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP API stopped")
			}
		}()
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("HTTP API shutdown failed")
		}
		shutdownCancel()
	}
	cancel()
	<-historianDone
	log.Info().Msg("Bot stopped gracefully")
}

// historySinks records every match's events through publisher.
func historySinks(publisher *history.Publisher) func(matchID, gameName string) game.EventSink {
	return func(matchID, gameName string) game.EventSink {
		id, err := uuid.Parse(matchID)
		if err != nil {
			log.Warn().Err(err).Str("game_id", matchID).Msg("Match has no valid ID, history disabled")
			return game.NopSink{}
		}
		return publisher.Sink(id, gameName)
	}
}
