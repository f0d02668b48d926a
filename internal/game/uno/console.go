package uno

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Console is a hot-seat IO that reads decisions from a single terminal.
//
// Moves are entered as "play N", "draw" or "quit". A bare number plays
// that card.
type Console struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewConsole creates a console IO.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out}
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

// ParseMove parses a console move.
func ParseMove(line string) (Move, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Move{}, fmt.Errorf("%w: empty input", ErrUnknownMove)
	}
	switch fields[0] {
	case "draw", "d":
		return Move{Kind: DrawCard}, nil
	case "quit":
		return Move{Kind: QuitGame}, nil
	case "play", "p":
		if len(fields) < 2 {
			return Move{}, fmt.Errorf("%w: play needs a card number", ErrUnknownMove)
		}
		fields = fields[1:]
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrUnknownMove, line)
	}
	return Move{Kind: PlayCard, Index: n - 1}, nil
}

// PlayerMove implements IO.
func (c *Console) PlayerMove(ctx context.Context, p PlayerView, top Card, numDraw int) (Move, error) {
	c.printf("\nTop card: %s\n%s's hand:\n", top, p.Name)
	for i, cd := range p.Hand {
		c.printf("  %d) %s\n", i+1, cd)
	}
	if numDraw > 0 {
		c.printf("Pending penalty: draw %d\n", numDraw)
	}
	for {
		line, err := c.readLine(ctx, "Move: ")
		if err != nil {
			return Move{}, err
		}
		mv, err := ParseMove(line)
		if err == nil {
			return mv, nil
		}
		c.printf("Error: %v\n", err)
	}
}

// ColorChoice implements IO.
func (c *Console) ColorChoice(ctx context.Context, p PlayerView) (Color, error) {
	line, err := c.readLine(ctx, p.Name+", choose a color (red/blue/green/yellow): ")
	if err != nil {
		return Black, err
	}
	color, err := ParseColor(line)
	if err != nil {
		return Black, nil
	}
	return color, nil
}

// CardPlayed implements IO.
func (c *Console) CardPlayed(_ context.Context, p PlayerView, cd Card) error {
	c.printf("%s played %s.\n", p.Name, cd)
	return nil
}

// DrawResult implements IO.
func (c *Console) DrawResult(_ context.Context, p PlayerView, played *Card, drawn int) error {
	if played == nil {
		c.printf("%s drew %d cards and the deck ran out.\n", p.Name, drawn)
		return nil
	}
	c.printf("%s drew %d cards before finding %s.\n", p.Name, drawn, *played)
	return nil
}

// PenaltyDrawn implements IO.
func (c *Console) PenaltyDrawn(_ context.Context, p PlayerView, n int) error {
	c.printf("%s draws %d.\n", p.Name, n)
	return nil
}

// TurnSkipped implements IO.
func (c *Console) TurnSkipped(_ context.Context, p PlayerView) error {
	c.printf("%s is skipped.\n", p.Name)
	return nil
}

// PlayerQuit implements IO.
func (c *Console) PlayerQuit(_ context.Context, p PlayerView) error {
	c.printf("%s left the game.\n", p.Name)
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
