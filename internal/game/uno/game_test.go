package uno

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"card-game-bot/internal/card"
	"card-game-bot/internal/game"
)

type drawReport struct {
	played *Card
	drawn  int
}

// scriptedIO replays queued moves and colors. With nothing queued it draws
// and declares red.
type scriptedIO struct {
	moves  []Move
	colors []Color

	prompts   int
	errs      []error
	played    []Card
	penalties []int
	draws     []drawReport
	skipped   []int64
	quit      []int64
	winner    int64
}

func (s *scriptedIO) PlayerMove(context.Context, PlayerView, Card, int) (Move, error) {
	s.prompts++
	if len(s.moves) > 0 {
		m := s.moves[0]
		s.moves = s.moves[1:]
		return m, nil
	}
	return Move{Kind: DrawCard}, nil
}

func (s *scriptedIO) ColorChoice(context.Context, PlayerView) (Color, error) {
	if len(s.colors) > 0 {
		c := s.colors[0]
		s.colors = s.colors[1:]
		return c, nil
	}
	return Red, nil
}

func (s *scriptedIO) CardPlayed(_ context.Context, _ PlayerView, c Card) error {
	s.played = append(s.played, c)
	return nil
}

func (s *scriptedIO) DrawResult(_ context.Context, _ PlayerView, played *Card, drawn int) error {
	s.draws = append(s.draws, drawReport{played: played, drawn: drawn})
	return nil
}

func (s *scriptedIO) PenaltyDrawn(_ context.Context, _ PlayerView, n int) error {
	s.penalties = append(s.penalties, n)
	return nil
}

func (s *scriptedIO) TurnSkipped(_ context.Context, p PlayerView) error {
	s.skipped = append(s.skipped, p.ID)
	return nil
}

func (s *scriptedIO) PlayerQuit(_ context.Context, p PlayerView) error {
	s.quit = append(s.quit, p.ID)
	return nil
}

func (s *scriptedIO) PlayerWon(_ context.Context, p PlayerView) error {
	s.winner = p.ID
	return nil
}

func (s *scriptedIO) DisplayError(_ context.Context, err error) error {
	s.errs = append(s.errs, err)
	return nil
}

func play(i int) Move { return Move{Kind: PlayCard, Index: i} }

var (
	draw     = Move{Kind: DrawCard}
	quitMove = Move{Kind: QuitGame}
)

func roster(n int) []game.PlayerInfo {
	out := make([]game.PlayerInfo, n)
	for i := range out {
		out[i] = game.PlayerInfo{ID: int64(i + 1), Name: string(rune('A' + i))}
	}
	return out
}

func newTestGame(t *testing.T, n int, io IO) *Game {
	t.Helper()
	g, err := New(roster(n), io, WithRand(rand.New(rand.NewSource(11))))
	require.NoError(t, err)
	return g
}

// rig rebuilds the table from the game's own cards: top opens the discard
// pile, hands[i] goes to seat i, deckTop sits on top of the deck and every
// other card follows it. Turn state is reset to seat 0, forward.
func rig(t *testing.T, g *Game, top Card, hands [][]Card, deckTop ...Card) {
	t.Helper()
	pool := card.NewList(g.deck.TakeAll()...)
	for _, c := range g.discard.TakeAll() {
		pool.Add(c)
	}
	for _, p := range g.players {
		for _, c := range p.hand.TakeAll() {
			pool.Add(c)
		}
	}
	take := func(want Card) Card {
		c, ok := pool.RemoveFirst(func(c Card) bool { return c.Same(want) })
		require.True(t, ok, "no %s left to rig", want)
		c.Chosen = want.Chosen
		return c
	}

	g.discard = card.NewList(take(top))
	for i, p := range g.players {
		p.safe = true
		if i < len(hands) {
			for _, c := range hands[i] {
				p.hand.Add(take(c))
			}
		}
	}
	deck := card.NewList[Card]()
	for _, c := range deckTop {
		deck.Add(take(c))
	}
	deck.AddAll(pool)
	g.deck = deck

	g.current, g.direction, g.numDraw, g.skipNext, g.safeguard = 0, 1, 0, false, false
}

func c(color Color, v Value) Card { return NewCard(color, v) }

func turn(t *testing.T, g *Game) bool {
	t.Helper()
	won, err := g.executeTurn(context.Background())
	require.NoError(t, err)
	return won
}

func TestNewDeck_Composition(t *testing.T) {
	deck := NewDeck()
	require.Len(t, deck, DeckSize)

	count := func(want Card) int {
		n := 0
		for _, cd := range deck {
			if cd.Same(want) {
				n++
			}
		}
		return n
	}
	assert.Equal(t, 4, count(c(Black, Wild)))
	assert.Equal(t, 4, count(c(Black, DrawFour)))
	for _, color := range PlayableColors {
		assert.Equal(t, 1, count(c(color, Zero)), color.String())
		assert.Equal(t, 2, count(c(color, Seven)), color.String())
		assert.Equal(t, 2, count(c(color, Reverse)), color.String())
	}
}

func TestNew_Deals(t *testing.T) {
	g := newTestGame(t, 4, &scriptedIO{})

	ids := map[int64]bool{}
	for _, p := range g.players {
		assert.Equal(t, HandSize, p.hand.Len())
		ids[p.ID] = true
	}
	assert.Len(t, ids, 4)
	require.Equal(t, 1, g.discard.Len())
	assert.False(t, g.top().Value.IsAction())
	assert.Equal(t, DeckSize, g.cardCount())
	assert.Equal(t, 1, g.direction)
}

func TestNew_RosterValidation(t *testing.T) {
	_, err := New(nil, &scriptedIO{})
	assert.ErrorIs(t, err, ErrNoPlayers)

	_, err = New(roster(1), &scriptedIO{})
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = New(roster(9), &scriptedIO{})
	assert.ErrorIs(t, err, ErrTooManyPlayers)

	_, err = New([]game.PlayerInfo{{ID: 5, Name: "x"}, {ID: 5, Name: "y"}}, &scriptedIO{})
	assert.ErrorIs(t, err, ErrDuplicatePlayer)
}

func TestMatches(t *testing.T) {
	wildBlue := Card{Color: Black, Value: Wild, Chosen: Blue}
	tests := []struct {
		name       string
		top        Card
		played     Card
		drawActive bool
		expected   bool
	}{
		{"same color", c(Red, Five), c(Red, Nine), false, true},
		{"same value", c(Red, Five), c(Blue, Five), false, true},
		{"different both", c(Red, Five), c(Blue, Six), false, false},
		{"wild on anything", c(Red, Five), c(Black, Wild), false, true},
		{"declared color", wildBlue, c(Blue, Two), false, true},
		{"declared color mismatch", wildBlue, c(Red, Two), false, false},
		{"penalty same value", c(Red, DrawTwo), c(Green, DrawTwo), true, true},
		{"penalty same color", c(Red, DrawTwo), c(Red, Three), true, false},
		{"penalty wild", c(Red, DrawTwo), c(Black, Wild), true, false},
		{"draw four stack", Card{Color: Black, Value: DrawFour, Chosen: Red}, c(Black, DrawFour), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tt.top, tt.played, tt.drawActive))
		})
	}
}

func TestTurn_PlayMatchingCard(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0)}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Red, Seven), c(Blue, Two)}, {c(Green, One)}, {c(Green, Two)}})
	p0 := g.players[0]

	assert.False(t, turn(t, g))

	assert.Equal(t, c(Red, Seven), g.top())
	assert.Equal(t, []Card{c(Blue, Two)}, p0.hand.Cards())
	assert.Equal(t, 1, g.current)
	assert.False(t, p0.safe)
	assert.True(t, g.safeguard)
	assert.Equal(t, DeckSize, g.cardCount())
}

func TestTurn_InvalidPlayReprompts(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0), play(5), {Kind: MoveKind(9)}, play(1)}}
	g := newTestGame(t, 2, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Blue, Two), c(Red, Nine), c(Red, One)}, {c(Green, One)}})

	turn(t, g)

	require.Len(t, io.errs, 3)
	assert.ErrorIs(t, io.errs[0], ErrCardNotPlayable)
	assert.ErrorIs(t, io.errs[1], card.ErrInvalidIndex)
	assert.ErrorIs(t, io.errs[2], ErrUnknownMove)
	assert.Equal(t, c(Red, Nine), g.top())
	assert.Equal(t, 4, io.prompts)
}

func TestTurn_DrawTwoPenaltyWithoutChainCard(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0), play(0), draw}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five),
		[][]Card{{c(Red, DrawTwo), c(Blue, One), c(Blue, Two)}, {c(Green, Three), c(Yellow, Four)}, {c(Green, Nine)}},
		c(Green, One), c(Green, Two))
	victim := g.players[1]

	turn(t, g)
	assert.Equal(t, 2, g.numDraw)
	assert.True(t, g.skipNext)
	assert.Equal(t, 1, g.current)

	turn(t, g)
	require.Len(t, io.errs, 1)
	assert.ErrorIs(t, io.errs[0], ErrCardNotPlayable)
	assert.Equal(t, []int{2}, io.penalties)
	assert.Equal(t, []Card{c(Green, Three), c(Yellow, Four), c(Green, One), c(Green, Two)}, victim.hand.Cards())
	assert.Zero(t, g.numDraw)
	assert.False(t, g.skipNext)
	assert.Equal(t, 2, g.current)
	assert.Equal(t, DeckSize, g.cardCount())
}

func TestTurn_DrawFourStacks(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0), play(0), draw}, colors: []Color{Green, Yellow}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five),
		[][]Card{{c(Black, DrawFour), c(Red, One)}, {c(Black, DrawFour), c(Blue, One)}, {c(Green, One), c(Green, Two)}})
	last := g.players[2]

	turn(t, g)
	turn(t, g)
	assert.Equal(t, 8, g.numDraw)
	assert.Equal(t, Yellow, g.top().ActiveColor())

	turn(t, g)
	assert.Equal(t, []int{8}, io.penalties)
	assert.Equal(t, 10, last.hand.Len())
	assert.Equal(t, 0, g.current)
}

func TestTurn_SkipConsumesNextTurn(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0)}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Red, Skip), c(Red, One)}, {c(Blue, One)}, {c(Blue, Two)}})
	skippedID := g.players[1].ID

	turn(t, g)
	assert.True(t, g.skipNext)

	turn(t, g)
	assert.Equal(t, []int64{skippedID}, io.skipped)
	assert.False(t, g.skipNext)
	assert.Equal(t, 2, g.current)
	assert.Equal(t, 1, io.prompts)
}

func TestTurn_ReverseFlipsDirection(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0)}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Red, Reverse), c(Red, One)}, {c(Blue, One)}, {c(Blue, Two)}})

	turn(t, g)

	assert.Equal(t, -1, g.direction)
	assert.Equal(t, 2, g.current)
}

func TestTurn_WildAsksForColor(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0), play(0), play(1)}, colors: []Color{Black, Blue}}
	g := newTestGame(t, 2, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Black, Wild), c(Red, One)}, {c(Red, Nine), c(Blue, Three), c(Green, Four)}})

	turn(t, g)
	require.Len(t, io.errs, 1)
	assert.ErrorIs(t, io.errs[0], ErrInvalidColor)
	assert.Equal(t, Blue, g.top().ActiveColor())

	turn(t, g)
	require.Len(t, io.errs, 2)
	assert.ErrorIs(t, io.errs[1], ErrCardNotPlayable)
	assert.Equal(t, c(Blue, Three), g.top())
}

func TestTurn_DrawUntilPlayable(t *testing.T) {
	io := &scriptedIO{}
	g := newTestGame(t, 2, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Blue, One), c(Blue, Two)}, {c(Green, Five)}},
		c(Green, Three), c(Yellow, Four), c(Red, Nine))
	p0 := g.players[0]

	turn(t, g)

	require.Len(t, io.draws, 1)
	require.NotNil(t, io.draws[0].played)
	assert.Equal(t, c(Red, Nine), *io.draws[0].played)
	assert.Equal(t, 2, io.draws[0].drawn)
	assert.Equal(t, c(Red, Nine), g.top())
	assert.Equal(t, 4, p0.hand.Len())
	assert.True(t, p0.safe)
	assert.Equal(t, 1, g.current)
}

func TestTurn_DrawWithExhaustedDeck(t *testing.T) {
	io := &scriptedIO{}
	g := newTestGame(t, 2, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Blue, One)}, {c(Green, One)}})
	g.players[1].hand.AddAll(g.deck)

	turn(t, g)
	require.Len(t, io.draws, 1)
	assert.Nil(t, io.draws[0].played)
	assert.Zero(t, io.draws[0].drawn)
	assert.Empty(t, io.errs)

	g.current, g.numDraw, g.skipNext = 0, 2, true
	turn(t, g)
	assert.Equal(t, []int{0}, io.penalties)
	require.Len(t, io.errs, 1)
	assert.ErrorIs(t, io.errs[0], card.ErrEmptyCollection)
	assert.Zero(t, g.numDraw)
	assert.Equal(t, DeckSize, g.cardCount())
}

func TestPop_RefillsFromUnderTheTop(t *testing.T) {
	g := newTestGame(t, 2, &scriptedIO{})
	rig(t, g, c(Red, Five), [][]Card{{c(Blue, One)}, {c(Green, One)}})
	holder := g.players[1]
	holder.hand.AddAll(g.deck)

	wild, ok := holder.hand.RemoveFirst(func(cd Card) bool { return cd.Value == Wild })
	require.True(t, ok)
	wild.Chosen = Green
	other, err := holder.hand.Pop()
	require.NoError(t, err)
	g.discard = card.NewList(wild, other, c(Red, Five))

	var drawn []Card
	require.NoError(t, g.locked("test", func() error {
		for i := 0; i < 2; i++ {
			cd, err := g.pop()
			if err != nil {
				return err
			}
			drawn = append(drawn, cd)
		}
		return nil
	}))

	assert.ElementsMatch(t, []Card{c(Black, Wild), other}, drawn)
	assert.Equal(t, c(Red, Five), g.top())
	assert.Equal(t, 1, g.discard.Len())
}

func TestTurn_QuitPassesTurnForward(t *testing.T) {
	io := &scriptedIO{moves: []Move{quitMove}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Blue, One), c(Blue, Two)}, {c(Green, One)}, {c(Green, Two)}})
	leaver, next := g.players[0], g.players[1]

	assert.False(t, turn(t, g))

	assert.Equal(t, []int64{leaver.ID}, io.quit)
	assert.False(t, g.HasPlayer(leaver.ID))
	assert.Equal(t, next, g.players[g.current])
	assert.Equal(t, c(Red, Five), g.top())
	assert.Equal(t, 3, g.discard.Len())
	assert.Equal(t, DeckSize, g.cardCount())
}

func TestTurn_QuitInReverse(t *testing.T) {
	io := &scriptedIO{moves: []Move{quitMove}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Blue, One)}, {c(Green, One)}, {c(Green, Two)}})
	g.current, g.direction = 1, -1
	before := g.players[0]

	turn(t, g)

	assert.Len(t, g.players, 2)
	assert.Equal(t, before, g.players[g.current])
}

func TestStart_LastCardWins(t *testing.T) {
	io := &scriptedIO{moves: []Move{play(0)}}
	g := newTestGame(t, 2, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Red, Seven)}, {c(Green, One)}})
	want := g.players[0].ID

	winner, err := g.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, winner.ID)
	assert.Equal(t, want, io.winner)
}

func TestStart_LastPlayerStandingWins(t *testing.T) {
	io := &scriptedIO{moves: []Move{quitMove}}
	g := newTestGame(t, 2, io)
	want := g.players[1].ID

	winner, err := g.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, winner.ID)
}

func TestStart_CancelledContext(t *testing.T) {
	g := newTestGame(t, 2, &scriptedIO{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallUno(t *testing.T) {
	ctx := context.Background()
	io := &scriptedIO{moves: []Move{play(0), draw}}
	g := newTestGame(t, 3, io)
	rig(t, g, c(Red, Five), [][]Card{
		{c(Red, Seven), c(Blue, Two)},
		{c(Green, One), c(Green, Two)},
		{c(Yellow, One), c(Yellow, Two)},
	})
	p0, p1, p2 := g.players[0], g.players[1], g.players[2]

	assert.Equal(t, NotInGame, g.CallUno(ctx, 999).Outcome)

	turn(t, g) // p0 is down to one card
	res := g.CallUno(ctx, p2.ID)
	assert.Equal(t, TargetsPenalized, res.Outcome)
	assert.Equal(t, []int64{p0.ID}, res.Penalized)
	assert.NoError(t, res.DrawErr)
	assert.Equal(t, 3, p0.hand.Len())
	assert.True(t, p0.safe)

	assert.Equal(t, NothingToCall, g.CallUno(ctx, p1.ID).Outcome, "safeguard still armed")

	turn(t, g) // p1 draws, disarming the safeguard
	before := p2.hand.Len()
	assert.Equal(t, CallerPenalized, g.CallUno(ctx, p2.ID).Outcome)
	assert.Equal(t, before+UnoPenalty, p2.hand.Len())
	assert.Equal(t, DeckSize, g.cardCount())
}

func TestCallUno_SelfCall(t *testing.T) {
	ctx := context.Background()
	io := &scriptedIO{moves: []Move{play(0)}}
	g := newTestGame(t, 2, io)
	rig(t, g, c(Red, Five), [][]Card{{c(Red, Seven), c(Blue, Two)}, {c(Green, One), c(Green, Two)}})
	p0, p1 := g.players[0], g.players[1]

	turn(t, g)
	assert.Equal(t, SelfSafe, g.CallUno(ctx, p0.ID).Outcome)
	assert.True(t, p0.safe)

	assert.Equal(t, NothingToCall, g.CallUno(ctx, p1.ID).Outcome)
	assert.Equal(t, 1, p0.hand.Len())
}

func TestStatusAndHand(t *testing.T) {
	g := newTestGame(t, 2, &scriptedIO{})
	rig(t, g, c(Red, Five), [][]Card{{c(Red, Seven), c(Black, Wild)}, {c(Green, One)}})
	p0 := g.players[0]

	st := g.Status()
	assert.Equal(t, "Uno", st.Game)
	assert.Equal(t, "Red 5", st.Details["top"])
	assert.Equal(t, "forward", st.Details["direction"])
	assert.Equal(t, p0.Name, st.Details["turn"])
	require.Len(t, st.Players, 2)
	assert.Equal(t, 2, st.Players[0].Cards)

	hand, err := g.Hand(p0.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Red 7", "Wild"}, hand)

	_, err = g.Hand(404)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestParseMoveAndColor(t *testing.T) {
	mv, err := ParseMove("play 3")
	require.NoError(t, err)
	assert.Equal(t, play(2), mv)

	mv, err = ParseMove("1")
	require.NoError(t, err)
	assert.Equal(t, play(0), mv)

	mv, err = ParseMove("draw")
	require.NoError(t, err)
	assert.Equal(t, draw, mv)

	_, err = ParseMove("play")
	assert.ErrorIs(t, err, ErrUnknownMove)

	color, err := ParseColor("b")
	require.NoError(t, err)
	assert.Equal(t, Blue, color)

	_, err = ParseColor("purple")
	assert.ErrorIs(t, err, ErrInvalidColor)
}
