package coup

import "context"

// IO is the collaborator the engine asks for every decision and tells about
// every outcome. Decision methods block until a response arrives or ctx ends.
//
// Responses are re-validated by the engine; a response it rejects is
// reported through DisplayError and the decision is requested again.
type IO interface {
	// PlayerMove asks the current player for a move from LegalMoves(p.Coins).
	PlayerMove(ctx context.Context, p PlayerView) (Move, error)

	// Target asks actor to pick one of candidates and returns its ID.
	Target(ctx context.Context, actor PlayerView, candidates []PlayerView) (int64, error)

	// Challenge asks eligible players whether anyone disputes the claim.
	// ok is false when nobody challenges.
	Challenge(ctx context.Context, claimant PlayerView, claim Character, eligible []int64) (challenger int64, ok bool, err error)

	// CardChoice asks p for the index of a card to reveal or discard.
	// The engine never asks a player holding a single card.
	CardChoice(ctx context.Context, p PlayerView, reveal bool) (int, error)

	// ClaimDefense asks the target of a move whether they claim role to cancel it.
	ClaimDefense(ctx context.Context, p PlayerView, role Character) (bool, error)

	// RoleClaims asks eligible players whether anyone claims one of roles to
	// block the pending move. ok is false when nobody claims.
	RoleClaims(ctx context.Context, roles []Character, eligible []int64) (claimant int64, claimed Character, ok bool, err error)

	// MoveAnnounced tells everyone which move the actor chose. target is nil
	// for untargeted moves.
	MoveAnnounced(ctx context.Context, actor PlayerView, mv Move, target *PlayerView) error

	// CardShown tells everyone which card p revealed (reveal) or lost.
	CardShown(ctx context.Context, p PlayerView, c Character, reveal bool) error

	// TargetedEffect tells everyone that actor's move against target resolved.
	TargetedEffect(ctx context.Context, actor, target PlayerView, mv Move) error

	// PlayerEliminated tells everyone p has no cards left.
	PlayerEliminated(ctx context.Context, p PlayerView) error

	// PlayerWon tells everyone p is the last player standing.
	PlayerWon(ctx context.Context, p PlayerView) error

	// DisplayError reports a rejected response.
	DisplayError(ctx context.Context, err error) error
}
