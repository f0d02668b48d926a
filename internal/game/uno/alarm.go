package uno

import (
	"context"

	"github.com/rs/zerolog/log"

	"card-game-bot/internal/game"
	"card-game-bot/internal/pkg/lock"
)

// CallOutcome is the result of a player calling "Uno!".
type CallOutcome int

const (
	// NotInGame means the caller is not on the roster.
	NotInGame CallOutcome = iota
	// SelfSafe means the caller holds one card and is now safe.
	SelfSafe
	// NothingToCall means nobody was exposed but the last play armed the
	// safeguard, so the early call goes unpunished.
	NothingToCall
	// CallerPenalized means a false call; the caller draws the penalty.
	CallerPenalized
	// TargetsPenalized means exposed players were caught and drew the penalty.
	TargetsPenalized
)

func (o CallOutcome) String() string {
	switch o {
	case NotInGame:
		return "not_in_game"
	case SelfSafe:
		return "self_safe"
	case NothingToCall:
		return "nothing_to_call"
	case CallerPenalized:
		return "caller_penalized"
	case TargetsPenalized:
		return "targets_penalized"
	}
	return "unknown"
}

// CallResult is what CallUno did. DrawErr is set when the deck ran out
// while drawing a penalty; the outcome still applies.
type CallResult struct {
	Outcome   CallOutcome
	Penalized []int64
	DrawErr   error
}

// CallUno handles a "Uno!" call by userID. It may be called from any
// goroutine while the game runs.
func (g *Game) CallUno(ctx context.Context, userID int64) CallResult {
	var res CallResult

	_ = lock.WithBoth(g.playerLock, g.alarmLock, "call uno", func() error {
		var caller *Player
		var exposed []*Player
		for _, p := range g.players {
			if p.ID == userID {
				caller = p
				continue
			}
			if p.hand.Len() == 1 && !p.safe {
				exposed = append(exposed, p)
			}
		}

		switch {
		case caller == nil:
			res.Outcome = NotInGame
		case caller.hand.Len() == 1:
			caller.safe = true
			res.Outcome = SelfSafe
		case len(exposed) == 0 && g.safeguard:
			res.Outcome = NothingToCall
		case len(exposed) == 0:
			res.Outcome = CallerPenalized
			res.DrawErr = g.drawInto(caller, UnoPenalty)
		default:
			res.Outcome = TargetsPenalized
			for _, p := range exposed {
				p.safe = true
				res.Penalized = append(res.Penalized, p.ID)
			}
			for _, p := range exposed {
				if err := g.drawInto(p, UnoPenalty); err != nil {
					res.DrawErr = err
					break
				}
			}
		}
		return nil
	})

	if res.Outcome != NotInGame {
		g.sink.Record(ctx, game.Event{
			Actor:   userID,
			Action:  "uno",
			Payload: map[string]any{"outcome": res.Outcome.String(), "penalized": res.Penalized},
		})
	}
	log.Debug().Int64("user_id", userID).Str("outcome", res.Outcome.String()).Msg("Uno called")
	return res
}

// drawInto draws n cards into p's hand. Callers hold playerLock.
func (g *Game) drawInto(p *Player, n int) error {
	for i := 0; i < n; i++ {
		c, err := g.pop()
		if err != nil {
			return err
		}
		p.hand.Add(c)
	}
	return nil
}
