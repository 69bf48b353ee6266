// Package resolver turns a guess into a disproof outcome and folds that
// outcome into knowledge stores from each observer's point of view.
package resolver

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/knowledge"
)

// Chooser defines an interface for selecting which card a disprover reveals
// when more than one of their cards matches the guess. This allows us to swap
// out ordered and random selection strategies.
type Chooser interface {
	Choose(cards []deck.Card) deck.Card
}

// CategoryOrderChooser always reveals the lowest-ordered matching card, which
// puts person before weapon before room. This is the predictable default.
type CategoryOrderChooser struct{}

func (CategoryOrderChooser) Choose(cards []deck.Card) deck.Card {
	if len(cards) == 0 {
		return deck.NoCard
	}
	sorted := make([]deck.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[0]
}

// RandomChooser reveals a uniformly random matching card.
type RandomChooser struct {
	rand *rand.Rand
}

// NewRandomChooser creates a new random chooser.
func NewRandomChooser(rand *rand.Rand) *RandomChooser {
	return &RandomChooser{rand: rand}
}

func (r *RandomChooser) Choose(cards []deck.Card) deck.Card {
	if len(cards) == 0 {
		return deck.NoCard
	}
	return cards[r.rand.Intn(len(cards))]
}

// Outcome is the public result of resolving one guess. Revealed is ground
// truth; whether an observer actually saw it is decided when folding.
type Outcome struct {
	Guess       deck.Guess
	Guesser     deck.Holder
	DisprovedBy deck.Holder   // NoHolder when no one could disprove
	Revealed    deck.Card     // NoCard when no one could disprove
	CouldNot    []deck.Holder // seats that passed, in asking order
}

// Disproved reports whether any seat showed a card.
func (o Outcome) Disproved() bool { return o.DisprovedBy != deck.NoHolder }

// Resolve walks the seats clockwise from the guesser and asks each in turn
// whether they can disprove the guess. The first seat holding any guessed
// card must show one; the chooser picks which when several match.
func Resolve(g deck.Guess, guesser deck.Holder, hands deck.Dealt, chooser Chooser) (Outcome, error) {
	if err := g.Validate(); err != nil {
		return Outcome{}, err
	}
	numPlayers := len(hands.Hands)
	if int(guesser) < 0 || int(guesser) >= numPlayers {
		return Outcome{}, errors.Errorf("guesser seat %d out of range for %d players", guesser, numPlayers)
	}

	out := Outcome{
		Guess:       g,
		Guesser:     guesser,
		DisprovedBy: deck.NoHolder,
		Revealed:    deck.NoCard,
	}
	for step := 1; step < numPlayers; step++ {
		seat := deck.Holder((int(guesser) + step) % numPlayers)
		var matches []deck.Card
		for _, c := range hands.Hand(seat) {
			if g.Contains(c) {
				matches = append(matches, c)
			}
		}
		if len(matches) == 0 {
			out.CouldNot = append(out.CouldNot, seat)
			continue
		}
		out.DisprovedBy = seat
		out.Revealed = chooser.Choose(matches)
		return out, nil
	}
	return out, nil
}

// FoldForObserver records everything one observer learns from an outcome.
//
// Seats that passed are negative for all three guessed cards. A reveal is a
// positive fact only for the guesser and the disprover themselves; everyone
// else learns just the disjunction over the guessed cards. When no one
// disproved, every guessed card the guesser does not hold is pinned to the
// envelope, except when the guess was the actual solution: the guesser may
// then hold none of the cards, and the accusation path settles the game.
func FoldForObserver(store *knowledge.Store, o Outcome, guessWasSolution bool) error {
	guessed := o.Guess.Cards()
	for _, seat := range o.CouldNot {
		for _, c := range guessed {
			if err := store.AssertNegative(c, seat); err != nil {
				return errors.Wrapf(err, "seat %d passed on %s", seat, c)
			}
		}
	}
	if o.Disproved() {
		sawCard := store.Observer() == o.Guesser || store.Observer() == o.DisprovedBy
		if sawCard {
			return store.AssertPositive(o.Revealed, o.DisprovedBy)
		}
		return store.AssertSetConstraint(o.DisprovedBy, guessed[:])
	}
	if guessWasSolution {
		return nil
	}
	return store.NoOneDisproved(o.Guesser, o.Guess)
}
