// Package card provides the ordered card containers shared by the card games:
// draw piles, discard piles and player hands.
package card

import (
	"errors"
	"math/rand"
)

// Errors returned by List operations.
var (
	// ErrEmptyCollection is returned when popping from a list with too few cards.
	ErrEmptyCollection = errors.New("there are no cards remaining")
	// ErrInvalidIndex is returned when a card index is out of range.
	ErrInvalidIndex = errors.New("invalid card selected")
)

// List is an ordered sequence of cards. The front of the list is index 0.
// A List is not safe for concurrent use; games guard it with their player lock.
type List[T any] struct {
	cards []T
}

// NewList creates a list holding the given cards in order.
func NewList[T any](cards ...T) *List[T] {
	l := &List[T]{cards: make([]T, 0, len(cards))}
	l.cards = append(l.cards, cards...)
	return l
}

// Len returns the number of cards in the list.
func (l *List[T]) Len() int {
	return len(l.cards)
}

// Add appends a card to the back of the list.
func (l *List[T]) Add(c T) {
	l.cards = append(l.cards, c)
}

// AddAll moves every card of other to the back of l, leaving other empty.
func (l *List[T]) AddAll(other *List[T]) {
	l.cards = append(l.cards, other.cards...)
	other.cards = other.cards[:0]
}

// Peek returns, without removing, the card at index i.
func (l *List[T]) Peek(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(l.cards) {
		return zero, ErrInvalidIndex
	}
	return l.cards[i], nil
}

// Discard removes and returns the card at index i.
func (l *List[T]) Discard(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(l.cards) {
		return zero, ErrInvalidIndex
	}
	c := l.cards[i]
	l.cards = append(l.cards[:i], l.cards[i+1:]...)
	return c, nil
}

// Pop removes and returns the front card.
func (l *List[T]) Pop() (T, error) {
	var zero T
	if len(l.cards) == 0 {
		return zero, ErrEmptyCollection
	}
	return l.Discard(0)
}

// PopN removes and returns the first n cards. The list is left untouched
// when it holds fewer than n cards.
func (l *List[T]) PopN(n int) ([]T, error) {
	if n > len(l.cards) {
		return nil, ErrEmptyCollection
	}
	out := make([]T, n)
	copy(out, l.cards[:n])
	l.cards = append(l.cards[:0], l.cards[n:]...)
	return out, nil
}

// RemoveFirst removes and returns the first card matching pred.
func (l *List[T]) RemoveFirst(pred func(T) bool) (T, bool) {
	var zero T
	for i, c := range l.cards {
		if pred(c) {
			l.cards = append(l.cards[:i], l.cards[i+1:]...)
			return c, true
		}
	}
	return zero, false
}

// TakeAll removes and returns every card in the list.
func (l *List[T]) TakeAll() []T {
	out := l.cards
	l.cards = nil
	return out
}

// Cards returns a copy of the cards in order.
func (l *List[T]) Cards() []T {
	out := make([]T, len(l.cards))
	copy(out, l.cards)
	return out
}

// Shuffle performs a uniform random permutation of the list.
func (l *List[T]) Shuffle(r *rand.Rand) {
	r.Shuffle(len(l.cards), func(i, j int) {
		l.cards[i], l.cards[j] = l.cards[j], l.cards[i]
	})
}

// NewRand returns a random source seeded from seed. A zero seed picks a
// time-based seed.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = rand.Int63()
	}
	return rand.New(rand.NewSource(seed))
}
