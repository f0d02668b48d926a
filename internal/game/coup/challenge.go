package coup

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"card-game-bot/internal/game"
)

// challengeResult is the outcome of offering a claim up for challenge.
type challengeResult struct {
	challenged bool
	loser      int64 // player who lost a card, when challenged
	terminal   bool  // the loss left a single player
}

func (r challengeResult) lost(p *Player) bool {
	return r.challenged && r.loser == p.ID
}

// discardOutcome is the result of a player losing a card.
type discardOutcome int

const (
	kept discardOutcome = iota
	eliminated
	lastStanding
)

// challengeClaim offers the role mv claims up for challenge.
func (g *Game) challengeClaim(ctx context.Context, claimant *Player, mv Move) (challengeResult, error) {
	role, ok := mv.Claim()
	if !ok {
		return challengeResult{}, fmt.Errorf("%w: %s claims no role", ErrUnknownMove, mv)
	}
	return g.resolveChallenges(ctx, claimant, role)
}

// resolveChallenges offers claimant's claim of role to every other player.
//
// A truthful claimant shows the card, returns it to the deck, draws a
// replacement from the reshuffled deck, and the challenger loses a card.
// A bluffing claimant loses a card.
func (g *Game) resolveChallenges(ctx context.Context, claimant *Player, role Character) (challengeResult, error) {
	eligible := g.eligible(claimant)

	var challenger *Player
	for {
		id, ok, err := g.io.Challenge(ctx, claimant.view(), role, eligible)
		if err != nil {
			return challengeResult{}, err
		}
		if !ok {
			return challengeResult{}, nil
		}
		if slices.Contains(eligible, id) {
			challenger = g.player(id)
			break
		}
		if err := g.io.DisplayError(ctx, ErrInvalidResponder); err != nil {
			return challengeResult{}, err
		}
	}

	g.sink.Record(ctx, game.Event{
		Actor:   challenger.ID,
		Action:  "challenge",
		Payload: map[string]any{"claimant": claimant.ID, "role": role.String()},
	})
	log.Debug().Int64("claimant_id", claimant.ID).Int64("challenger_id", challenger.ID).
		Str("role", role.String()).Msg("Coup claim challenged")

	idx, err := g.chooseCard(ctx, claimant, true)
	if err != nil {
		return challengeResult{}, err
	}
	revealed, err := claimant.hand.Peek(idx)
	if err != nil {
		return challengeResult{}, err
	}
	if err := g.io.CardShown(ctx, claimant.view(), revealed, true); err != nil {
		return challengeResult{}, err
	}

	loser := claimant
	if revealed == role {
		if err := g.locked("launder revealed card", func() error {
			c, err := claimant.hand.Discard(idx)
			if err != nil {
				return err
			}
			g.deck.Add(c)
			g.deck.Shuffle(g.rng)
			replacement, err := g.deck.Pop()
			if err != nil {
				return fmt.Errorf("failed to draw replacement: %w", err)
			}
			claimant.hand.Add(replacement)
			return nil
		}); err != nil {
			return challengeResult{}, err
		}
		loser = challenger
	}

	discardIdx, err := g.chooseCard(ctx, loser, false)
	if err != nil {
		return challengeResult{}, err
	}
	out, err := g.playerDiscardCard(ctx, loser.ID, discardIdx)
	if err != nil {
		return challengeResult{}, err
	}
	return challengeResult{challenged: true, loser: loser.ID, terminal: out == lastStanding}, nil
}

// playerBlock offers the pending move of actor up for blocking with roles.
// A blocker whose claim is successfully challenged is discarded and the
// offer repeats, so claims can chain until one stands or nobody claims.
func (g *Game) playerBlock(ctx context.Context, actor *Player, roles []Character) (blocked, over bool, err error) {
	for {
		eligible := g.eligible(actor)
		if len(eligible) == 0 {
			return false, false, nil
		}

		id, claimed, ok, err := g.io.RoleClaims(ctx, roles, eligible)
		if err != nil {
			return false, false, err
		}
		if !ok {
			return false, false, nil
		}
		if !slices.Contains(eligible, id) {
			if err := g.io.DisplayError(ctx, ErrInvalidResponder); err != nil {
				return false, false, err
			}
			continue
		}
		if !slices.Contains(roles, claimed) {
			if err := g.io.DisplayError(ctx, fmt.Errorf("%w: %s cannot block", ErrInvalidClaim, claimed)); err != nil {
				return false, false, err
			}
			continue
		}

		blocker := g.player(id)
		g.sink.Record(ctx, game.Event{Actor: blocker.ID, Action: "block", Payload: map[string]any{"role": claimed.String()}})

		res, err := g.resolveChallenges(ctx, blocker, claimed)
		if err != nil {
			return false, false, err
		}
		if res.terminal {
			return false, true, nil
		}
		if res.lost(blocker) {
			continue
		}
		return true, false, nil
	}
}

// playerDiscardCard removes the card at idx from the player's hand and puts
// it on the discard pile. A player left without cards is eliminated.
func (g *Game) playerDiscardCard(ctx context.Context, id int64, idx int) (discardOutcome, error) {
	var (
		p         *Player
		lost      Character
		out       = kept
		remaining int
	)
	if err := g.locked("discard", func() error {
		i := g.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		p = g.players[i]
		c, err := p.hand.Discard(idx)
		if err != nil {
			return err
		}
		lost = c
		g.discard.Add(c)
		if p.hand.Len() == 0 {
			g.players = append(g.players[:i], g.players[i+1:]...)
			out = eliminated
		}
		remaining = len(g.players)
		return nil
	}); err != nil {
		return kept, err
	}

	g.sink.Record(ctx, game.Event{Actor: id, Action: "discard", Payload: map[string]any{"card": lost.String()}})
	if err := g.io.CardShown(ctx, p.view(), lost, false); err != nil {
		return out, err
	}
	if out == kept {
		return kept, nil
	}

	log.Info().Int64("user_id", id).Msg("Player eliminated from Coup game")
	g.sink.Record(ctx, game.Event{Actor: id, Action: "eliminated"})
	if err := g.io.PlayerEliminated(ctx, p.view()); err != nil {
		return out, err
	}
	if remaining == 1 {
		return lastStanding, nil
	}
	return eliminated, nil
}
