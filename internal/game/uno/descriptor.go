package uno

const rules = `Everyone starts with 7 cards. The first player to empty their hand wins.

Play a card that matches the top of the discard pile by color or value, or play a wild.
A wild lets you pick the next color.
• Skip: the next player loses their turn.
• Reverse: the turn order flips.
• Draw Two / Wild Draw Four: the next player draws 2 / 4 and loses their turn, unless they stack a card of the same value.

If you cannot or will not play, draw until you find a playable card; it is played for you.

When a play leaves you with one card, call /uno before anyone else does.
If someone catches you first you draw 2. Calling when nobody is exposed costs you 2.`

// Descriptor describes Uno to the game registry.
type Descriptor struct{}

// Name returns the game's display name.
func (Descriptor) Name() string { return "Uno" }

// Command returns the lobby command argument.
func (Descriptor) Command() string { return GameCommand }

// Description returns a brief description of the game.
func (Descriptor) Description() string {
	return "Match colors and numbers, and don't forget to shout Uno!"
}

// Rules returns the rules text.
func (Descriptor) Rules() string { return rules }

// MinPlayers returns the smallest roster that can start.
func (Descriptor) MinPlayers() int { return MinPlayers }

// MaxPlayers returns the largest roster allowed.
func (Descriptor) MaxPlayers() int { return MaxPlayers }
