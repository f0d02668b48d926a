package uno

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/rs/zerolog/log"

	"card-game-bot/internal/card"
	"card-game-bot/internal/game"
	"card-game-bot/internal/pkg/lock"
)

const (
	MinPlayers  = 2
	MaxPlayers  = 8
	HandSize    = 7
	DeckSize    = 108
	UnoPenalty  = 2
	GameCommand = "uno"
)

// Game is one Uno match. The turn loop runs on the goroutine that calls
// Start. CallUno, Status, Hand and HasPlayer may be called concurrently.
type Game struct {
	io   IO
	sink game.EventSink
	rng  *rand.Rand

	// Guarded by playerLock.
	players   []*Player
	deck      *card.List[Card]
	discard   *card.List[Card] // last card is the top
	current   int
	direction int
	numDraw   int
	skipNext  bool

	// Guarded by alarmLock.
	safeguard bool

	playerLock *lock.Guard
	alarmLock  *lock.Guard
}

// Option configures a Game.
type Option func(*Game)

// WithRand sets the random source used for shuffling.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) { g.rng = r }
}

// WithEventSink sets the sink that receives the game's action history.
func WithEventSink(s game.EventSink) Option {
	return func(g *Game) {
		if s != nil {
			g.sink = s
		}
	}
}

// New deals a game. The seating order is shuffled.
func New(players []game.PlayerInfo, io IO, opts ...Option) (*Game, error) {
	switch {
	case len(players) == 0:
		return nil, ErrNoPlayers
	case len(players) < MinPlayers:
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNotEnoughPlayers, MinPlayers, len(players))
	case len(players) > MaxPlayers:
		return nil, fmt.Errorf("%w: at most %d", ErrTooManyPlayers, MaxPlayers)
	}

	g := &Game{
		io:         io,
		sink:       game.NopSink{},
		direction:  1,
		discard:    card.NewList[Card](),
		playerLock: lock.NewGuard("uno.players"),
		alarmLock:  lock.NewGuard("uno.alarm"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = card.NewRand(0)
	}

	g.deck = card.NewList(NewDeck()...)
	g.deck.Shuffle(g.rng)

	seats := append([]game.PlayerInfo(nil), players...)
	g.rng.Shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })

	seen := make(map[int64]bool, len(seats))
	for _, info := range seats {
		if seen[info.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, info.Name)
		}
		seen[info.ID] = true

		hand, err := g.deck.PopN(HandSize)
		if err != nil {
			return nil, fmt.Errorf("failed to deal hand: %w", err)
		}
		g.players = append(g.players, newPlayer(info, hand))
	}

	first, ok := g.deck.RemoveFirst(func(c Card) bool { return !c.Value.IsAction() })
	if !ok {
		return nil, fmt.Errorf("failed to open discard pile: %w", card.ErrEmptyCollection)
	}
	g.discard.Add(first)
	return g, nil
}

// Start runs turns until a player empties their hand or is the last one
// left, and returns the winner.
func (g *Game) Start(ctx context.Context) (game.PlayerInfo, error) {
	log.Info().Int("players", len(g.players)).Msg("Uno game started")

	for {
		if err := ctx.Err(); err != nil {
			return game.PlayerInfo{}, err
		}
		won, err := g.executeTurn(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Uno game aborted")
			return game.PlayerInfo{}, err
		}
		if won {
			break
		}
	}

	var winner *Player
	var view PlayerView
	_ = g.locked("winner", func() error {
		winner = g.players[g.current]
		view = winner.view()
		return nil
	})
	g.sink.Record(ctx, game.Event{Actor: winner.ID, Action: "won"})
	if err := g.io.PlayerWon(ctx, view); err != nil {
		return game.PlayerInfo{}, err
	}
	log.Info().Int64("winner_id", winner.ID).Msg("Uno game finished")
	return winner.info(), nil
}

// executeTurn plays one turn and reports whether the game has been won.
func (g *Game) executeTurn(ctx context.Context) (bool, error) {
	if g.numDraw == 0 && g.skipNext {
		var victim PlayerView
		if err := g.locked("skip", func() error {
			victim = g.players[g.current].view()
			g.skipNext = false
			g.advance(false)
			return nil
		}); err != nil {
			return false, err
		}
		g.sink.Record(ctx, game.Event{Actor: victim.ID, Action: "skipped"})
		return false, g.io.TurnSkipped(ctx, victim)
	}

	cur := g.players[g.current]
	drawActive := g.skipNext && g.numDraw > 0

	mv, played, err := g.confirmMove(ctx, cur, drawActive)
	if err != nil {
		return false, err
	}

	switch mv.Kind {
	case PlayCard:
		g.sink.Record(ctx, game.Event{Actor: cur.ID, Action: "play", Payload: map[string]any{"card": played.String()}})
		won, err := g.placeCard(ctx, cur, played)
		if err != nil || won {
			return won, err
		}
	case DrawCard:
		if drawActive {
			err = g.drawPenalty(ctx, cur)
		} else {
			err = g.drawUntilPlayable(ctx, cur)
		}
		if err != nil {
			return false, err
		}
	case QuitGame:
		return g.quit(ctx, cur)
	}

	return false, g.locked("next player", func() error {
		g.advance(false)
		return nil
	})
}

// confirmMove asks for moves until one is valid and commits it. For a play
// the card leaves the hand and the uno alarm is updated in the same critical
// section as the validation.
func (g *Game) confirmMove(ctx context.Context, cur *Player, drawActive bool) (Move, Card, error) {
	for {
		var (
			view    PlayerView
			top     Card
			numDraw int
		)
		_ = g.locked("prompt", func() error {
			view = cur.view()
			top = g.top()
			numDraw = g.numDraw
			return nil
		})

		mv, err := g.io.PlayerMove(ctx, view, top, numDraw)
		if err != nil {
			return Move{}, Card{}, err
		}

		var played Card
		var invalid error
		_ = lock.WithBoth(g.playerLock, g.alarmLock, "confirm move", func() error {
			switch mv.Kind {
			case PlayCard:
				c, err := cur.hand.Peek(mv.Index)
				if err != nil {
					invalid = err
					return nil
				}
				if !Matches(g.top(), c, drawActive) {
					invalid = fmt.Errorf("%w: %s on %s", ErrCardNotPlayable, c, g.top())
					return nil
				}
				played, _ = cur.hand.Discard(mv.Index)
				if cur.hand.Len() == 1 {
					cur.safe = false
					g.safeguard = true
				} else {
					cur.safe = true
					g.safeguard = false
				}
			case DrawCard:
				cur.safe = true
				g.safeguard = false
			case QuitGame:
				g.safeguard = false
			default:
				invalid = fmt.Errorf("%w: %d", ErrUnknownMove, int(mv.Kind))
			}
			return nil
		})
		if invalid == nil {
			return mv, played, nil
		}
		if err := g.io.DisplayError(ctx, invalid); err != nil {
			return Move{}, Card{}, err
		}
	}
}

// placeCard puts c on the discard pile, asking for a color when it is black,
// and applies its effect. It reports whether cur has emptied their hand.
func (g *Game) placeCard(ctx context.Context, cur *Player, c Card) (bool, error) {
	if c.Color == Black {
		color, err := g.askColor(ctx, cur)
		if err != nil {
			return false, err
		}
		c.Chosen = color
	}

	var won bool
	var view PlayerView
	_ = g.locked("place card", func() error {
		g.discard.Add(c)
		g.updateActions(c)
		won = cur.hand.Len() == 0
		view = cur.view()
		return nil
	})
	if err := g.io.CardPlayed(ctx, view, c); err != nil {
		return false, err
	}
	return won, nil
}

// updateActions applies the effect of a card that was just played.
func (g *Game) updateActions(c Card) {
	switch c.Value {
	case Reverse:
		g.direction = -g.direction
	case DrawFour:
		g.numDraw += 4
		g.skipNext = true
	case DrawTwo:
		g.numDraw += 2
		g.skipNext = true
	case Skip:
		g.skipNext = true
	}
}

func (g *Game) askColor(ctx context.Context, cur *Player) (Color, error) {
	for {
		var view PlayerView
		_ = g.locked("color prompt", func() error {
			view = cur.view()
			return nil
		})
		color, err := g.io.ColorChoice(ctx, view)
		if err != nil {
			return Black, err
		}
		if color != Black && colorNames[color] != "" {
			return color, nil
		}
		if err := g.io.DisplayError(ctx, fmt.Errorf("%w: %s", ErrInvalidColor, color)); err != nil {
			return Black, err
		}
	}
}

func (g *Game) drawPenalty(ctx context.Context, cur *Player) error {
	var (
		drawn   int
		drawErr error
		view    PlayerView
	)
	_ = g.locked("penalty draw", func() error {
		for i := 0; i < g.numDraw; i++ {
			c, err := g.pop()
			if err != nil {
				drawErr = err
				break
			}
			cur.hand.Add(c)
			drawn++
		}
		g.numDraw = 0
		g.skipNext = false
		view = cur.view()
		return nil
	})

	g.sink.Record(ctx, game.Event{Actor: cur.ID, Action: "penalty", Payload: map[string]any{"drawn": drawn}})
	if err := g.io.PenaltyDrawn(ctx, view, drawn); err != nil {
		return err
	}
	if drawErr != nil {
		return g.io.DisplayError(ctx, drawErr)
	}
	return nil
}

func (g *Game) drawUntilPlayable(ctx context.Context, cur *Player) error {
	var (
		drawn int
		found *Card
		view  PlayerView
	)
	_ = g.locked("draw", func() error {
		top := g.top()
		for {
			c, err := g.pop()
			if err != nil {
				break
			}
			if Matches(top, c, false) {
				found = &c
				break
			}
			cur.hand.Add(c)
			drawn++
		}
		view = cur.view()
		return nil
	})

	g.sink.Record(ctx, game.Event{Actor: cur.ID, Action: "draw", Payload: map[string]any{"drawn": drawn}})
	if err := g.io.DrawResult(ctx, view, found, drawn); err != nil {
		return err
	}
	if found == nil {
		return nil
	}
	g.sink.Record(ctx, game.Event{Actor: cur.ID, Action: "play", Payload: map[string]any{"card": found.String()}})
	_, err := g.placeCard(ctx, cur, *found)
	return err
}

func (g *Game) quit(ctx context.Context, cur *Player) (bool, error) {
	var (
		remaining int
		view      PlayerView
	)
	_ = g.locked("quit", func() error {
		view = cur.view()
		g.discard = card.NewList(append(cur.hand.TakeAll(), g.discard.TakeAll()...)...)
		g.players = append(g.players[:g.current], g.players[g.current+1:]...)
		remaining = len(g.players)
		if remaining == 1 {
			g.current = 0
		} else {
			g.advance(true)
		}
		return nil
	})

	log.Info().Int64("user_id", cur.ID).Msg("Player left Uno game")
	g.sink.Record(ctx, game.Event{Actor: cur.ID, Action: "quit"})
	if err := g.io.PlayerQuit(ctx, view); err != nil {
		return false, err
	}
	return remaining == 1, nil
}

// advance moves to the next player in turn order. After a quit with a
// forward direction the next player already sits at the current index.
// Callers hold playerLock.
func (g *Game) advance(quit bool) {
	if !(quit && g.direction == 1) {
		g.current += g.direction
	}
	n := len(g.players)
	if g.current < 0 {
		g.current = n - 1
	} else if g.current >= n {
		g.current = 0
	}
}

// top returns the card on top of the discard pile. Callers hold playerLock.
func (g *Game) top() Card {
	c, _ := g.discard.Peek(g.discard.Len() - 1)
	return c
}

// pop draws a card, refilling the deck from everything under the top of the
// discard pile when it runs out. Callers hold playerLock.
func (g *Game) pop() (Card, error) {
	if g.deck.Len() == 0 {
		n := g.discard.Len() - 1
		if n <= 0 {
			return Card{}, fmt.Errorf("no cards remaining in deck: %w", card.ErrEmptyCollection)
		}
		under, _ := g.discard.PopN(n)
		for i := range under {
			under[i].Chosen = Black
		}
		g.deck = card.NewList(under...)
		g.deck.Shuffle(g.rng)
		log.Debug().Int("cards", n).Msg("Uno deck refilled from discard pile")
	}
	return g.deck.Pop()
}

func (g *Game) locked(reason string, fn func() error) error {
	return g.playerLock.WithLock(reason, fn)
}

func (g *Game) indexOf(id int64) int {
	for i, p := range g.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether id is still on the roster.
func (g *Game) HasPlayer(id int64) bool {
	var found bool
	_ = g.locked("has player", func() error {
		found = g.indexOf(id) >= 0
		return nil
	})
	return found
}

// Status returns the public roster view in seating order.
func (g *Game) Status() game.Status {
	st := game.Status{Game: "Uno", Details: map[string]string{}}
	_ = g.locked("status", func() error {
		for _, p := range g.players {
			st.Players = append(st.Players, game.PlayerStatus{ID: p.ID, Name: p.Name, Cards: p.hand.Len()})
		}
		st.Details["top"] = g.top().String()
		st.Details["deck"] = strconv.Itoa(g.deck.Len())
		st.Details["direction"] = "forward"
		if g.direction < 0 {
			st.Details["direction"] = "reverse"
		}
		if g.numDraw > 0 {
			st.Details["pending_draw"] = strconv.Itoa(g.numDraw)
		}
		if len(g.players) > 0 {
			st.Details["turn"] = g.players[g.current].Name
		}
		return nil
	})
	return st
}

// Hand returns the labels of the user's cards.
func (g *Game) Hand(id int64) ([]string, error) {
	var out []string
	err := g.locked("hand", func() error {
		i := g.indexOf(id)
		if i < 0 {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		for _, c := range g.players[i].hand.Cards() {
			out = append(out, c.String())
		}
		return nil
	})
	return out, err
}

// cardCount returns every card in the game, for conservation checks.
func (g *Game) cardCount() int {
	var n int
	_ = g.locked("count", func() error {
		n = g.deck.Len() + g.discard.Len()
		for _, p := range g.players {
			n += p.hand.Len()
		}
		return nil
	})
	return n
}
