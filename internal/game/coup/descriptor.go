package coup

const rules = `Each player starts with 2 face-down character cards and 2 coins.
Lose both cards and you are out. The last player with cards wins.

On your turn pick one move:
• Income: take 1 coin.
• Foreign Aid: take 2 coins. A Duke can block it.
• Coup: pay 7 coins, the target loses a card. Mandatory at 10+ coins.
• Tax (Duke): take 3 coins.
• Assassinate (Assassin): pay 3 coins, the target loses a card. A Contessa can block it.
• Steal (Captain): take up to 2 coins from the target. A Captain or Ambassador can block it.
• Exchange (Ambassador): draw 2 cards, then return 2 cards to the deck.

Any claimed character can be challenged. A caught bluffer loses a card.
If the claim was true, the challenger loses a card and the claimant swaps the shown card for a new one.`

// Descriptor describes Coup to the game registry.
type Descriptor struct{}

// Name returns the game's display name.
func (Descriptor) Name() string { return "Coup" }

// Command returns the lobby command argument.
func (Descriptor) Command() string { return GameCommand }

// Description returns a brief description of the game.
func (Descriptor) Description() string {
	return "Bluff, steal and assassinate your way to being the last one with influence."
}

// Rules returns the rules text.
func (Descriptor) Rules() string { return rules }

// MinPlayers returns the smallest roster that can start.
func (Descriptor) MinPlayers() int { return MinPlayers }

// MaxPlayers returns the largest roster allowed.
func (Descriptor) MaxPlayers() int { return MaxPlayers }
