// Package knowledge implements the symbolic knowledge store and its
// constraint-propagation engine. One Store tracks what a single observer
// knows: certain card locations (positive facts), ruled-out locations
// (negative facts) and disjunctive "holds at least one of" set constraints.
package knowledge

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DominicAntonacci/clue-guessing/internal/deck"
)

// ErrContradiction signals that a new fact conflicts with the existing state.
// It always indicates a defect in the caller or the engine and must be
// surfaced, never swallowed.
var ErrContradiction = errors.New("contradiction")

// SetConstraint records that a holder possesses at least one card from a set.
type SetConstraint struct {
	Holder deck.Holder
	Cards  map[deck.Card]struct{}
}

// CardList returns the remaining candidate cards in a stable order.
func (sc SetConstraint) CardList() []deck.Card {
	cards := make([]deck.Card, 0, len(sc.Cards))
	for c := range sc.Cards {
		cards = append(cards, c)
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i] < cards[j] })
	return cards
}

// View is the read-only face of a Store handed to strategies. Strategies must
// not mutate engine state, so they only ever see this interface.
type View interface {
	Observer() deck.Holder
	NumPlayers() int
	HandSize(h deck.Holder) int
	HolderOf(c deck.Card) (deck.Holder, bool)
	IsNegative(c deck.Card, h deck.Holder) bool
	PositiveCount(h deck.Holder) int
	EnvelopeCard(cat deck.Category) (deck.Card, bool)
	Constraints() []SetConstraint
}

// Store is one observer's knowledge of the game. A Store is created empty (or
// seeded with the observer's own hand), mutated as outcomes fold in, and
// discarded at game end. It is never shared across games.
type Store struct {
	observer   deck.Holder
	numPlayers int
	handSizes  []int

	positive    map[deck.Card]deck.Holder
	negative    map[deck.Card]map[deck.Holder]struct{}
	constraints []SetConstraint

	log logrus.FieldLogger
}

// NewStore creates an empty store for the given observer. The observer is a
// seat, or deck.NoHolder for an omniscient analysis store.
func NewStore(numPlayers int, observer deck.Holder, log logrus.FieldLogger) (*Store, error) {
	sizes, err := deck.HandSizes(numPlayers)
	if err != nil {
		return nil, err
	}
	return &Store{
		observer:   observer,
		numPlayers: numPlayers,
		handSizes:  sizes,
		positive:   make(map[deck.Card]deck.Holder),
		negative:   make(map[deck.Card]map[deck.Holder]struct{}),
		log:        log,
	}, nil
}

// SeedHand primes the store with the observer's own hand: positives for every
// held card, negatives for every card the observer does not hold.
func (s *Store) SeedHand(hand []deck.Card) error {
	held := make(map[deck.Card]struct{}, len(hand))
	for _, c := range hand {
		held[c] = struct{}{}
		if err := s.assertPositive(c, s.observer); err != nil {
			return err
		}
	}
	for _, c := range deck.BuildDeck() {
		if _, ok := held[c]; ok {
			continue
		}
		if err := s.assertNegative(c, s.observer); err != nil {
			return err
		}
	}
	return s.Propagate()
}

// Observer returns whose knowledge this store models.
func (s *Store) Observer() deck.Holder { return s.observer }

// NumPlayers returns the number of seats in the game being observed.
func (s *Store) NumPlayers() int { return s.numPlayers }

// HandSize returns the capacity of a holder: the dealt hand size for a seat,
// or one card per category (3 total) for the envelope.
func (s *Store) HandSize(h deck.Holder) int {
	if h == deck.Envelope {
		return deck.NumCategories
	}
	return s.handSizes[h]
}

// HolderOf reports the known holder of a card, if any.
func (s *Store) HolderOf(c deck.Card) (deck.Holder, bool) {
	h, ok := s.positive[c]
	return h, ok
}

// IsNegative reports whether the holder is known not to hold the card.
func (s *Store) IsNegative(c deck.Card, h deck.Holder) bool {
	_, ok := s.negative[c][h]
	return ok
}

// PositiveCount returns how many cards are known to be with a holder.
func (s *Store) PositiveCount(h deck.Holder) int {
	n := 0
	for _, holder := range s.positive {
		if holder == h {
			n++
		}
	}
	return n
}

// EnvelopeCard returns the known envelope card for a category, if any.
func (s *Store) EnvelopeCard(cat deck.Category) (deck.Card, bool) {
	for c, h := range s.positive {
		if h == deck.Envelope && c.Category() == cat {
			return c, true
		}
	}
	return deck.NoCard, false
}

// Constraints returns a copy of the still-open set constraints.
func (s *Store) Constraints() []SetConstraint {
	out := make([]SetConstraint, 0, len(s.constraints))
	for _, sc := range s.constraints {
		cards := make(map[deck.Card]struct{}, len(sc.Cards))
		for c := range sc.Cards {
			cards[c] = struct{}{}
		}
		out = append(out, SetConstraint{Holder: sc.Holder, Cards: cards})
	}
	return out
}

// AssertPositive records that holder certainly holds card, marks every other
// holder negative for it, and propagates.
func (s *Store) AssertPositive(c deck.Card, h deck.Holder) error {
	if err := s.assertPositive(c, h); err != nil {
		return err
	}
	return s.Propagate()
}

// AssertNegative records that holder does not hold card and propagates.
func (s *Store) AssertNegative(c deck.Card, h deck.Holder) error {
	if err := s.assertNegative(c, h); err != nil {
		return err
	}
	return s.Propagate()
}

// AssertSetConstraint records that holder has at least one of cards. The
// constraint is reduced against existing facts immediately by propagation.
func (s *Store) AssertSetConstraint(h deck.Holder, cards []deck.Card) error {
	if len(cards) == 0 {
		return errors.Wrapf(ErrContradiction, "empty set constraint for holder %d", h)
	}
	// Already satisfied by a known positive; nothing to record.
	for _, c := range cards {
		if holder, ok := s.positive[c]; ok && holder == h {
			return nil
		}
	}
	set := make(map[deck.Card]struct{}, len(cards))
	for _, c := range cards {
		set[c] = struct{}{}
	}
	s.constraints = append(s.constraints, SetConstraint{Holder: h, Cards: set})
	return s.Propagate()
}

// NoOneDisproved records the inference from an un-disprovable guess: a
// truthful, winning-motivated guesser that does not accuse must itself hold
// at least one of the guessed cards. Callers must not invoke this when the
// guess was the actual solution; that case belongs to the accusation path.
func (s *Store) NoOneDisproved(guesser deck.Holder, g deck.Guess) error {
	if err := g.Validate(); err != nil {
		return err
	}
	cards := g.Cards()
	return s.AssertSetConstraint(guesser, cards[:])
}

// Propagate runs the inference rules to a fixpoint: set-constraint reduction,
// exhaustive-negative inference and capacity saturation. Facts only
// accumulate, so the loop terminates once a pass derives nothing new.
func (s *Store) Propagate() error {
	for {
		changed, err := s.reduceConstraints()
		if err != nil {
			return err
		}
		c2, err := s.inferByElimination()
		if err != nil {
			return err
		}
		c3, err := s.saturateCapacity()
		if err != nil {
			return err
		}
		if !changed && !c2 && !c3 {
			return nil
		}
	}
}

// assertPositive is the non-propagating core of AssertPositive.
func (s *Store) assertPositive(c deck.Card, h deck.Holder) error {
	if existing, ok := s.positive[c]; ok {
		if existing == h {
			return nil
		}
		return errors.Wrapf(ErrContradiction, "%s already placed with holder %d, cannot place with %d", c, existing, h)
	}
	if s.IsNegative(c, h) {
		return errors.Wrapf(ErrContradiction, "%s is known absent from holder %d", c, h)
	}
	if err := s.checkCapacity(c, h); err != nil {
		return err
	}

	s.positive[c] = h
	for _, other := range s.allHolders() {
		if other != h {
			s.markNegative(c, other)
		}
	}
	if s.log != nil {
		s.log.Debugf("learned that %s is with holder %d", c, h)
	}
	return nil
}

// assertNegative is the non-propagating core of AssertNegative.
func (s *Store) assertNegative(c deck.Card, h deck.Holder) error {
	if existing, ok := s.positive[c]; ok && existing == h {
		return errors.Wrapf(ErrContradiction, "%s is known to be with holder %d, cannot mark absent", c, h)
	}
	s.markNegative(c, h)
	return nil
}

func (s *Store) markNegative(c deck.Card, h deck.Holder) {
	if s.negative[c] == nil {
		s.negative[c] = make(map[deck.Holder]struct{})
	}
	s.negative[c][h] = struct{}{}
}

// checkCapacity rejects a positive fact that would overfill a holder: a seat
// never holds more than its hand size, the envelope never holds two cards of
// one category.
func (s *Store) checkCapacity(c deck.Card, h deck.Holder) error {
	if h == deck.Envelope {
		if other, ok := s.EnvelopeCard(c.Category()); ok && other != c {
			return errors.Wrapf(ErrContradiction, "envelope already holds %s of category %s", other, c.Category())
		}
		return nil
	}
	if s.PositiveCount(h) >= s.HandSize(h) {
		return errors.Wrapf(ErrContradiction, "holder %d hand is already full (%d cards)", h, s.HandSize(h))
	}
	return nil
}

func (s *Store) allHolders() []deck.Holder {
	holders := make([]deck.Holder, 0, s.numPlayers+1)
	holders = append(holders, deck.Players(s.numPlayers)...)
	holders = append(holders, deck.Envelope)
	return holders
}

// reduceConstraints drops candidates ruled out by negatives. A constraint
// satisfied by a positive fact is removed; one reduced to a single candidate
// converts to a positive fact; one reduced to nothing is a contradiction.
func (s *Store) reduceConstraints() (bool, error) {
	changed := false
	remaining := s.constraints[:0]
	for _, sc := range s.constraints {
		satisfied := false
		for c := range sc.Cards {
			if holder, ok := s.positive[c]; ok && holder == sc.Holder {
				satisfied = true
				break
			}
			if s.IsNegative(c, sc.Holder) {
				delete(sc.Cards, c)
				changed = true
			}
		}
		if satisfied {
			changed = true
			continue
		}
		switch len(sc.Cards) {
		case 0:
			return false, errors.Wrapf(ErrContradiction, "set constraint for holder %d has no candidates left", sc.Holder)
		case 1:
			card := sc.CardList()[0]
			if s.log != nil {
				s.log.Debugf("set constraint resolved: holder %d must hold %s", sc.Holder, card)
			}
			if err := s.assertPositive(card, sc.Holder); err != nil {
				return false, err
			}
			changed = true
		default:
			remaining = append(remaining, sc)
		}
	}
	s.constraints = remaining
	return changed, nil
}

// inferByElimination applies the exhaustive-negative rules: a card absent
// from every seat is in the envelope; a card absent from the envelope and
// every seat but one is with that seat.
func (s *Store) inferByElimination() (bool, error) {
	changed := false
	for _, c := range deck.BuildDeck() {
		if _, known := s.positive[c]; known {
			continue
		}
		var candidates []deck.Holder
		for _, h := range s.allHolders() {
			if !s.IsNegative(c, h) {
				candidates = append(candidates, h)
			}
		}
		switch len(candidates) {
		case 0:
			return false, errors.Wrapf(ErrContradiction, "%s has no possible holder", c)
		case 1:
			if err := s.assertPositive(c, candidates[0]); err != nil {
				return false, err
			}
			changed = true
		}
	}
	return changed, nil
}

// saturateCapacity marks every other card negative for a holder whose
// capacity is exhausted: a full seat holds nothing else, and a known envelope
// card excludes the rest of its category from the envelope.
func (s *Store) saturateCapacity() (bool, error) {
	changed := false
	for _, h := range deck.Players(s.numPlayers) {
		if s.PositiveCount(h) < s.HandSize(h) {
			continue
		}
		for _, c := range deck.BuildDeck() {
			if holder, ok := s.positive[c]; ok && holder == h {
				continue
			}
			if !s.IsNegative(c, h) {
				if err := s.assertNegative(c, h); err != nil {
					return false, err
				}
				changed = true
			}
		}
	}
	for _, cat := range deck.Categories() {
		known, ok := s.EnvelopeCard(cat)
		if !ok {
			continue
		}
		for _, c := range deck.CardsInCategory(cat) {
			if c == known || s.IsNegative(c, deck.Envelope) {
				continue
			}
			if err := s.assertNegative(c, deck.Envelope); err != nil {
				return false, err
			}
			changed = true
		}
	}
	return changed, nil
}
