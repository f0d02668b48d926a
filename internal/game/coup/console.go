package coup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"card-game-bot/internal/game"
)

// Console is a hot-seat IO that reads decisions from a single terminal.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	names map[int64]string
	ids   map[string]int64
}

// NewConsole creates a console IO for the given roster.
func NewConsole(in io.Reader, out io.Writer, players []game.PlayerInfo) *Console {
	c := &Console{
		in:    bufio.NewScanner(in),
		out:   out,
		names: make(map[int64]string, len(players)),
		ids:   make(map[string]int64, len(players)),
	}
	for _, p := range players {
		c.names[p.ID] = p.Name
		c.ids[strings.ToLower(p.Name)] = p.ID
	}
	return c
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.printf("%s", prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

// readPlayer reads a player name; blank means nobody.
func (c *Console) readPlayer(ctx context.Context, prompt string) (int64, bool, error) {
	line, err := c.readLine(ctx, prompt)
	if err != nil || line == "" {
		return 0, false, err
	}
	if id, ok := c.ids[strings.ToLower(line)]; ok {
		return id, true, nil
	}
	// Unknown names map to an ID the engine will reject.
	return -1, true, nil
}

func (c *Console) namesOf(ids []int64) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = c.names[id]
	}
	return strings.Join(names, ", ")
}

// PlayerMove implements IO.
func (c *Console) PlayerMove(ctx context.Context, p PlayerView) (Move, error) {
	legal := LegalMoves(p.Coins)
	opts := make([]string, len(legal))
	for i, m := range legal {
		opts[i] = m.String()
	}
	c.printf("\n%s (%d coins, hand: %s)\nMoves: %s\n", p.Name, p.Coins, handString(p.Hand), strings.Join(opts, ", "))
	line, err := c.readLine(ctx, "Move: ")
	if err != nil {
		return 0, err
	}
	mv, err := ParseMove(line)
	if err != nil {
		// Re-prompted by the engine.
		return Move(-1), nil
	}
	return mv, nil
}

// Target implements IO.
func (c *Console) Target(ctx context.Context, actor PlayerView, candidates []PlayerView) (int64, error) {
	names := make([]string, len(candidates))
	for i, p := range candidates {
		names[i] = p.Name
	}
	c.printf("Targets: %s\n", strings.Join(names, ", "))
	id, _, err := c.readPlayer(ctx, actor.Name+", choose a target: ")
	return id, err
}

// Challenge implements IO.
func (c *Console) Challenge(ctx context.Context, claimant PlayerView, claim Character, eligible []int64) (int64, bool, error) {
	c.printf("%s claims %s. Can challenge: %s\n", claimant.Name, claim, c.namesOf(eligible))
	return c.readPlayer(ctx, "Challenger (blank for none): ")
}

// CardChoice implements IO.
func (c *Console) CardChoice(ctx context.Context, p PlayerView, reveal bool) (int, error) {
	verb := "discard"
	if reveal {
		verb = "reveal"
	}
	for i, ch := range p.Hand {
		c.printf("  %d) %s\n", i+1, ch)
	}
	line, err := c.readLine(ctx, fmt.Sprintf("%s, pick a card to %s: ", p.Name, verb))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return -1, nil
	}
	return n - 1, nil
}

// ClaimDefense implements IO.
func (c *Console) ClaimDefense(ctx context.Context, p PlayerView, role Character) (bool, error) {
	line, err := c.readLine(ctx, fmt.Sprintf("%s, claim %s to block? [y/N]: ", p.Name, role))
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(line), "y"), nil
}

// RoleClaims implements IO.
func (c *Console) RoleClaims(ctx context.Context, roles []Character, eligible []int64) (int64, Character, bool, error) {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	c.printf("Block with %s? Can block: %s\n", strings.Join(names, " or "), c.namesOf(eligible))
	id, ok, err := c.readPlayer(ctx, "Blocker (blank for none): ")
	if err != nil || !ok {
		return 0, 0, false, err
	}
	claimed := roles[0]
	if len(roles) > 1 {
		line, err := c.readLine(ctx, "Claimed role: ")
		if err != nil {
			return 0, 0, false, err
		}
		if claimed, err = ParseCharacter(line); err != nil {
			claimed = Character(-1)
		}
	}
	return id, claimed, true, nil
}

// MoveAnnounced implements IO.
func (c *Console) MoveAnnounced(_ context.Context, actor PlayerView, mv Move, target *PlayerView) error {
	if target != nil {
		c.printf("%s uses %s on %s.\n", actor.Name, mv, target.Name)
		return nil
	}
	c.printf("%s uses %s.\n", actor.Name, mv)
	return nil
}

// CardShown implements IO.
func (c *Console) CardShown(_ context.Context, p PlayerView, ch Character, reveal bool) error {
	if reveal {
		c.printf("%s reveals %s.\n", p.Name, ch)
	} else {
		c.printf("%s loses %s.\n", p.Name, ch)
	}
	return nil
}

// TargetedEffect implements IO.
func (c *Console) TargetedEffect(_ context.Context, actor, target PlayerView, mv Move) error {
	c.printf("%s's %s on %s succeeded.\n", actor.Name, mv, target.Name)
	return nil
}

// PlayerEliminated implements IO.
func (c *Console) PlayerEliminated(_ context.Context, p PlayerView) error {
	c.printf("%s has been eliminated.\n", p.Name)
	return nil
}

// PlayerWon implements IO.
func (c *Console) PlayerWon(_ context.Context, p PlayerView) error {
	c.printf("%s wins!\n", p.Name)
	return nil
}

// DisplayError implements IO.
func (c *Console) DisplayError(_ context.Context, err error) error {
	c.printf("Error: %v\n", err)
	return nil
}

func handString(hand []Character) string {
	names := make([]string, len(hand))
	for i, ch := range hand {
		names[i] = ch.String()
	}
	return strings.Join(names, ", ")
}
