package coup

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

// Roster bounds.
const (
	MinPlayers  = 2
	MaxPlayers  = 6
	HandSize    = 2
	GameCommand = "coup"
)

// Game is one Coup match. The turn loop runs on the goroutine that calls
// Start; Status, Hand and HasPlayer may be called from any goroutine.
type Game struct {
	io   IO
	sink game.EventSink
	rng  *rand.Rand

	// players, deck and discard are written only under playerLock.
	players    []*Player
	deck       *card.List[Character]
	discard    *card.List[Character]
	playerLock *lock.Guard
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

// New deals a game for players in the given seat order.
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
		discard:    card.NewList[Character](),
		playerLock: lock.NewGuard("coup.players"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = card.NewRand(0)
	}

	g.deck = newDeck()
	g.deck.Shuffle(g.rng)

	seen := make(map[int64]bool, len(players))
	for _, info := range players {
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
	return g, nil
}

func newDeck() *card.List[Character] {
	deck := card.NewList[Character]()
	for _, c := range Characters {
		for i := 0; i < CopiesPerCharacter; i++ {
			deck.Add(c)
		}
	}
	return deck
}

// Start runs turns until one player remains and returns the winner.
func (g *Game) Start(ctx context.Context) (game.PlayerInfo, error) {
	log.Info().Int("players", len(g.players)).Msg("Coup game started")

	for {
		if err := ctx.Err(); err != nil {
			return game.PlayerInfo{}, err
		}
		over, err := g.executeTurn(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Coup game aborted")
			return game.PlayerInfo{}, err
		}
		if over {
			break
		}
	}

	winner := g.players[0]
	g.sink.Record(ctx, game.Event{Actor: winner.ID, Action: "won"})
	if err := g.io.PlayerWon(ctx, winner.view()); err != nil {
		return game.PlayerInfo{}, err
	}
	log.Info().Int64("winner_id", winner.ID).Msg("Coup game finished")
	return winner.info(), nil
}

// executeTurn plays one turn for the head of the roster. It reports true
// when a single player remains.
func (g *Game) executeTurn(ctx context.Context) (bool, error) {
	cur := g.players[0]

	mv, err := g.askMove(ctx, cur)
	if err != nil {
		return false, err
	}

	var target *Player
	if mv.NeedsTarget() {
		if target, err = g.askTarget(ctx, cur); err != nil {
			return false, err
		}
	}

	var targetView *PlayerView
	payload := map[string]any{"move": mv.String()}
	if target != nil {
		v := target.view()
		targetView = &v
		payload["target"] = target.ID
	}
	g.sink.Record(ctx, game.Event{Actor: cur.ID, Action: "move", Payload: payload})
	if err := g.io.MoveAnnounced(ctx, cur.view(), mv, targetView); err != nil {
		return false, err
	}

	var over bool
	switch mv {
	case Income:
		err = g.locked("income", func() error {
			cur.addCoins(IncomeAmount)
			return nil
		})
	case ForeignAid:
		over, err = g.foreignAid(ctx, cur)
	case CoupMove:
		over, err = g.coup(ctx, cur, target)
	case Tax:
		over, err = g.tax(ctx, cur)
	case Assassinate:
		over, err = g.assassinate(ctx, cur, target)
	case Steal:
		over, err = g.steal(ctx, cur, target)
	case Exchange:
		over, err = g.exchange(ctx, cur)
	case Quit:
		over, err = g.quit(ctx, cur)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownMove, int(mv))
	}
	if err != nil || over {
		return over, err
	}
	if len(g.players) == 1 {
		return true, nil
	}

	return false, g.updateNextPlayer(cur)
}

// updateNextPlayer moves the current player to the back of the roster,
// unless they left during their turn.
func (g *Game) updateNextPlayer(cur *Player) error {
	return g.locked("rotate", func() error {
		if len(g.players) == 0 || g.players[0] != cur {
			return nil
		}
		g.players = append(g.players[1:], cur)
		return nil
	})
}

func (g *Game) foreignAid(ctx context.Context, cur *Player) (bool, error) {
	blocked, over, err := g.playerBlock(ctx, cur, ForeignAid.Blockers())
	if err != nil || over || blocked {
		return over, err
	}
	return false, g.locked("foreign aid", func() error {
		cur.addCoins(ForeignAidGain)
		return nil
	})
}

func (g *Game) coup(ctx context.Context, cur, target *Player) (bool, error) {
	if err := g.locked("coup cost", func() error {
		return cur.subCoins(CoupCost)
	}); err != nil {
		return false, err
	}

	idx, err := g.chooseCard(ctx, target, false)
	if err != nil {
		return false, err
	}
	out, err := g.playerDiscardCard(ctx, target.ID, idx)
	if err != nil {
		return false, err
	}
	if out == lastStanding {
		return true, nil
	}
	return false, g.io.TargetedEffect(ctx, cur.view(), target.view(), CoupMove)
}

func (g *Game) tax(ctx context.Context, cur *Player) (bool, error) {
	res, err := g.challengeClaim(ctx, cur, Tax)
	if err != nil || res.terminal {
		return res.terminal, err
	}
	if res.lost(cur) {
		return false, nil
	}
	return false, g.locked("tax", func() error {
		cur.addCoins(TaxGain)
		return nil
	})
}

func (g *Game) assassinate(ctx context.Context, cur, target *Player) (bool, error) {
	res, err := g.challengeClaim(ctx, cur, Assassinate)
	if err != nil || res.terminal {
		return res.terminal, err
	}
	if res.lost(cur) {
		return false, nil
	}
	if res.lost(target) && target.HandSize() == 0 {
		// The target died challenging; there is nothing left to assassinate.
		return false, nil
	}

	pay, proceed := true, true
	guard, _ := Assassinate.Defence()
	defend, err := g.io.ClaimDefense(ctx, target.view(), guard)
	if err != nil {
		return false, err
	}
	if defend {
		g.sink.Record(ctx, game.Event{Actor: target.ID, Action: "claim", Payload: map[string]any{"role": guard.String()}})
		defence, err := g.resolveChallenges(ctx, target, guard)
		if err != nil || defence.terminal {
			return defence.terminal, err
		}
		switch {
		case !defence.challenged:
			proceed = false
		case defence.lost(target):
			if target.HandSize() == 0 {
				pay, proceed = false, false
			}
		default:
			proceed = false
		}
	}

	if pay {
		if err := g.locked("assassinate cost", func() error {
			return cur.subCoins(AssassinateCost)
		}); err != nil {
			return false, err
		}
	}
	if !proceed {
		return false, nil
	}

	idx, err := g.chooseCard(ctx, target, false)
	if err != nil {
		return false, err
	}
	out, err := g.playerDiscardCard(ctx, target.ID, idx)
	if err != nil {
		return false, err
	}
	if out == lastStanding {
		return true, nil
	}
	return false, g.io.TargetedEffect(ctx, cur.view(), target.view(), Assassinate)
}

func (g *Game) steal(ctx context.Context, cur, target *Player) (bool, error) {
	res, err := g.challengeClaim(ctx, cur, Steal)
	if err != nil || res.terminal {
		return res.terminal, err
	}
	if res.lost(cur) {
		return false, nil
	}
	if res.lost(target) && target.HandSize() == 0 {
		return false, nil
	}

	blocked, over, err := g.playerBlock(ctx, cur, Steal.Blockers())
	if err != nil || over || blocked {
		return over, err
	}
	if !g.HasPlayer(target.ID) {
		return false, nil
	}

	if err := g.locked("steal", func() error {
		amount := min(StealAmount, target.coins)
		if err := target.subCoins(amount); err != nil {
			return err
		}
		cur.addCoins(amount)
		return nil
	}); err != nil {
		return false, err
	}
	return false, g.io.TargetedEffect(ctx, cur.view(), target.view(), Steal)
}

func (g *Game) exchange(ctx context.Context, cur *Player) (bool, error) {
	res, err := g.challengeClaim(ctx, cur, Exchange)
	if err != nil || res.terminal {
		return res.terminal, err
	}
	if res.lost(cur) {
		return false, nil
	}

	if err := g.locked("exchange draw", func() error {
		drawn, err := g.deck.PopN(ExchangeDraw)
		if err != nil {
			return fmt.Errorf("failed to draw for exchange: %w", err)
		}
		for _, c := range drawn {
			cur.hand.Add(c)
		}
		return nil
	}); err != nil {
		return false, err
	}

	for i := 0; i < ExchangeDraw; i++ {
		idx, err := g.chooseCard(ctx, cur, false)
		if err != nil {
			return false, err
		}
		if err := g.locked("exchange return", func() error {
			c, err := cur.hand.Discard(idx)
			if err != nil {
				return err
			}
			g.deck.Add(c)
			return nil
		}); err != nil {
			return false, err
		}
	}

	return false, g.locked("exchange shuffle", func() error {
		g.deck.Shuffle(g.rng)
		return nil
	})
}

func (g *Game) quit(ctx context.Context, cur *Player) (bool, error) {
	var remaining int
	if err := g.locked("quit", func() error {
		idx := g.indexOf(cur.ID)
		if idx < 0 {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, cur.ID)
		}
		g.discard.AddAll(cur.hand)
		g.players = append(g.players[:idx], g.players[idx+1:]...)
		remaining = len(g.players)
		return nil
	}); err != nil {
		return false, err
	}
	log.Info().Int64("user_id", cur.ID).Msg("Player left Coup game")
	g.sink.Record(ctx, game.Event{Actor: cur.ID, Action: "quit"})
	return remaining == 1, nil
}

func (g *Game) askMove(ctx context.Context, cur *Player) (Move, error) {
	for {
		mv, err := g.io.PlayerMove(ctx, cur.view())
		if err != nil {
			return 0, err
		}
		checkErr := CheckMove(mv, cur.coins)
		if checkErr == nil {
			return mv, nil
		}
		if err := g.io.DisplayError(ctx, checkErr); err != nil {
			return 0, err
		}
	}
}

func (g *Game) askTarget(ctx context.Context, actor *Player) (*Player, error) {
	candidates := make([]PlayerView, 0, len(g.players)-1)
	for _, p := range g.players {
		if p != actor {
			candidates = append(candidates, p.view())
		}
	}
	for {
		id, err := g.io.Target(ctx, actor.view(), candidates)
		if err != nil {
			return nil, err
		}
		if p := g.player(id); p != nil && p != actor {
			return p, nil
		}
		if err := g.io.DisplayError(ctx, ErrInvalidTarget); err != nil {
			return nil, err
		}
	}
}

// chooseCard asks p for a card index, or picks the only card without asking.
func (g *Game) chooseCard(ctx context.Context, p *Player, reveal bool) (int, error) {
	switch p.HandSize() {
	case 0:
		return 0, fmt.Errorf("%w: %d", ErrEmptyHand, p.ID)
	case 1:
		return 0, nil
	}
	for {
		idx, err := g.io.CardChoice(ctx, p.view(), reveal)
		if err != nil {
			return 0, err
		}
		if idx >= 0 && idx < p.HandSize() {
			return idx, nil
		}
		if err := g.io.DisplayError(ctx, card.ErrInvalidIndex); err != nil {
			return 0, err
		}
	}
}

// eligible returns the IDs of every player except the excluded one.
func (g *Game) eligible(except *Player) []int64 {
	ids := make([]int64, 0, len(g.players))
	for _, p := range g.players {
		if p != except {
			ids = append(ids, p.ID)
		}
	}
	return ids
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

// player returns the roster entry for id. Only the turn loop may call it
// without the lock.
func (g *Game) player(id int64) *Player {
	if i := g.indexOf(id); i >= 0 {
		return g.players[i]
	}
	return nil
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

// Status returns the public roster view in turn order.
func (g *Game) Status() game.Status {
	st := game.Status{Game: "Coup", Details: map[string]string{}}
	_ = g.locked("status", func() error {
		for _, p := range g.players {
			st.Players = append(st.Players, game.PlayerStatus{
				ID:    p.ID,
				Name:  p.Name,
				Cards: p.hand.Len(),
				Coins: p.coins,
			})
		}
		st.Details["deck"] = strconv.Itoa(g.deck.Len())
		st.Details["discarded"] = strconv.Itoa(g.discard.Len())
		if len(g.players) > 0 {
			st.Details["turn"] = g.players[0].Name
		}
		return nil
	})
	return st
}

// Hand returns the names of the user's cards.
func (g *Game) Hand(id int64) ([]string, error) {
	var out []string
	err := g.locked("hand", func() error {
		p := g.player(id)
		if p == nil {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		for _, c := range p.hand.Cards() {
			out = append(out, c.String())
		}
		return nil
	})
	return out, err
}

// cardCount returns every card in the game, for conservation checks.
func (g *Game) cardCount() int {
	n := g.deck.Len() + g.discard.Len()
	for _, p := range g.players {
		n += p.hand.Len()
	}
	return n
}

// setHand replaces a player's hand with chars, swapping cards with the deck
// so the total stays at DeckSize. Cards not in the deck are an error.
func (g *Game) setHand(id int64, chars ...Character) error {
	return g.locked("set hand", func() error {
		p := g.player(id)
		if p == nil {
			return fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		for _, c := range p.hand.TakeAll() {
			g.deck.Add(c)
		}
		for _, want := range chars {
			c, ok := g.deck.RemoveFirst(func(c Character) bool { return c == want })
			if !ok {
				return fmt.Errorf("%w: no %s left in deck", card.ErrEmptyCollection, want)
			}
			p.hand.Add(c)
		}
		return nil
	})
}
