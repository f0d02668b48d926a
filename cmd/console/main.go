// Package main runs a Coup or Uno game in the terminal, passing the
// keyboard between players.
//
// Usage: console <coup|uno> <player> <player> [player...]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"card-game-bot/internal/card"
	"card-game-bot/internal/game"
	"card-game-bot/internal/game/coup"
	"card-game-bot/internal/game/uno"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: console <coup|uno> <player> <player> [player...]")
		os.Exit(2)
	}

	players := make([]game.PlayerInfo, 0, len(os.Args)-2)
	for i, name := range os.Args[2:] {
		players = append(players, game.PlayerInfo{ID: int64(i + 1), Name: name})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	match, err := newMatch(strings.ToLower(os.Args[1]), players, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create game")
	}

	winner, err := match.Start(ctx)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		fmt.Println("\nGame abandoned.")
	case err != nil:
		log.Fatal().Err(err).Msg("Game ended abnormally")
	default:
		fmt.Printf("\n%s wins!\n", winner.Name)
	}
}

func newMatch(name string, players []game.PlayerInfo, in io.Reader, out io.Writer) (game.Match, error) {
	rng := card.NewRand(0)
	switch name {
	case coup.GameCommand:
		g, err := coup.New(players, coup.NewConsole(in, out, players), coup.WithRand(rng))
		if err != nil {
			return nil, err
		}
		return g, nil
	case uno.GameCommand:
		g, err := uno.New(players, uno.NewConsole(in, out), uno.WithRand(rng))
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("unknown game %q, want %s or %s", name, coup.GameCommand, uno.GameCommand)
}
