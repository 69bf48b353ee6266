// Package strategy contains the decision-making logic of a seated player.
// A strategy only ever sees its own knowledge view and posterior; the engine
// owns all ground truth.
package strategy

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/DominicAntonacci/clue-guessing/internal/config"
	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/knowledge"
	"github.com/DominicAntonacci/clue-guessing/internal/posterior"
)

// Strategy defines the interface for a player's decision-making logic.
// ChooseGuess must return a valid triple; ChooseAccusation reports whether
// the strategy is ready to stake the game on its answer.
type Strategy interface {
	Name() string
	Setup(me deck.Holder, hand []deck.Card, cfg *config.Config)
	ChooseGuess(v knowledge.View, post posterior.Posterior) deck.Guess
	ChooseAccusation(v knowledge.View, post posterior.Posterior) (deck.Guess, bool)
}

// ErrUnknownStrategy reports a name with no registered strategy.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ByName constructs a strategy from its registry name. Each strategy gets its
// own rng so parallel games never share one.
func ByName(name string, rng *rand.Rand) (Strategy, error) {
	switch name {
	case "random":
		return NewRandom(rng), nil
	case "elimination":
		return NewElimination(rng), nil
	case "focused":
		return NewFocused(rng), nil
	case "mle":
		return NewMaxLikelihood(), nil
	}
	return nil, errors.Wrap(ErrUnknownStrategy, name)
}

// Names lists the registered strategy names.
func Names() []string {
	return []string{"random", "elimination", "focused", "mle"}
}

// base carries the per-game identity every strategy needs.
type base struct {
	me   deck.Holder
	hand map[deck.Card]struct{}
	cfg  *config.Config
}

func (b *base) Setup(me deck.Holder, hand []deck.Card, cfg *config.Config) {
	b.me = me
	b.cfg = cfg
	b.hand = make(map[deck.Card]struct{}, len(hand))
	for _, c := range hand {
		b.hand[c] = struct{}{}
	}
}

func (b *base) inHand(c deck.Card) bool {
	_, ok := b.hand[c]
	return ok
}

// openCards returns the cards in a category still possible for the envelope
// from this observer's point of view.
func openCards(v knowledge.View, cat deck.Category) []deck.Card {
	var open []deck.Card
	for _, c := range deck.CardsInCategory(cat) {
		if _, placed := v.HolderOf(c); placed {
			continue
		}
		if v.IsNegative(c, deck.Envelope) {
			continue
		}
		open = append(open, c)
	}
	return open
}

// pinnedSolution returns the triple when the store has settled every
// category.
func pinnedSolution(v knowledge.View) (deck.Guess, bool) {
	person, okP := v.EnvelopeCard(deck.Person)
	weapon, okW := v.EnvelopeCard(deck.Weapon)
	room, okR := v.EnvelopeCard(deck.Room)
	if !okP || !okW || !okR {
		return deck.Guess{}, false
	}
	return deck.Guess{Person: person, Weapon: weapon, Room: room}, true
}

// envelopeOr falls back to the known envelope card when a category has no
// open candidates left to probe.
func envelopeOr(v knowledge.View, cat deck.Category, pick func([]deck.Card) deck.Card) deck.Card {
	if open := openCards(v, cat); len(open) > 0 {
		return pick(open)
	}
	if known, ok := v.EnvelopeCard(cat); ok {
		return known
	}
	// Contradictory view; any in-category card keeps the guess well formed.
	return deck.CardsInCategory(cat)[0]
}

// --- Random ---

// Random guesses uniformly among all cards and never accuses. It is the
// baseline opponent: its hand still disproves, its guesses still leak
// information to everyone else.
type Random struct {
	base
	rand *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
	return &Random{rand: rng}
}

func (s *Random) Name() string { return "random" }

func (s *Random) ChooseGuess(v knowledge.View, post posterior.Posterior) deck.Guess {
	pick := func(cards []deck.Card) deck.Card {
		return cards[s.rand.Intn(len(cards))]
	}
	return deck.Guess{
		Person: pick(deck.CardsInCategory(deck.Person)),
		Weapon: pick(deck.CardsInCategory(deck.Weapon)),
		Room:   pick(deck.CardsInCategory(deck.Room)),
	}
}

func (s *Random) ChooseAccusation(v knowledge.View, post posterior.Posterior) (deck.Guess, bool) {
	return deck.Guess{}, false
}

// --- Elimination ---

// Elimination probes cards its store has not ruled out yet and accuses only
// once propagation has pinned all three envelope cards.
type Elimination struct {
	base
	rand *rand.Rand
}

func NewElimination(rng *rand.Rand) *Elimination {
	return &Elimination{rand: rng}
}

func (s *Elimination) Name() string { return "elimination" }

func (s *Elimination) ChooseGuess(v knowledge.View, post posterior.Posterior) deck.Guess {
	pick := func(open []deck.Card) deck.Card {
		return open[s.rand.Intn(len(open))]
	}
	return deck.Guess{
		Person: envelopeOr(v, deck.Person, pick),
		Weapon: envelopeOr(v, deck.Weapon, pick),
		Room:   envelopeOr(v, deck.Room, pick),
	}
}

func (s *Elimination) ChooseAccusation(v knowledge.View, post posterior.Posterior) (deck.Guess, bool) {
	return pinnedSolution(v)
}

// --- Focused ---

// Focused drains the person and weapon unknowns first. While either of those
// categories is still open it pads the room slot with a card from its own
// hand whenever it holds one, so a disproof must say something about the
// person or the weapon.
type Focused struct {
	base
	rand *rand.Rand
}

func NewFocused(rng *rand.Rand) *Focused {
	return &Focused{rand: rng}
}

func (s *Focused) Name() string { return "focused" }

func (s *Focused) ChooseGuess(v knowledge.View, post posterior.Posterior) deck.Guess {
	pick := func(open []deck.Card) deck.Card {
		return open[s.rand.Intn(len(open))]
	}
	g := deck.Guess{
		Person: envelopeOr(v, deck.Person, pick),
		Weapon: envelopeOr(v, deck.Weapon, pick),
	}

	personOpen := len(openCards(v, deck.Person)) > 1
	weaponOpen := len(openCards(v, deck.Weapon)) > 1
	if personOpen || weaponOpen {
		var held []deck.Card
		for c := range s.hand {
			if c.Category() == deck.Room {
				held = append(held, c)
			}
		}
		if len(held) > 0 {
			g.Room = held[s.rand.Intn(len(held))]
			return g
		}
	}
	g.Room = envelopeOr(v, deck.Room, pick)
	return g
}

func (s *Focused) ChooseAccusation(v knowledge.View, post posterior.Posterior) (deck.Guess, bool) {
	return pinnedSolution(v)
}

// --- MaxLikelihood ---

// MaxLikelihood probes, per category, the candidate whose disproof is
// expected to leave the least residual uncertainty: it minimizes
// (1-p) * H(rest), the entropy of the category after the candidate is ruled
// out, weighted by how likely that ruling-out is. It accuses once every
// category's top posterior reaches the configured threshold.
type MaxLikelihood struct {
	base
}

func NewMaxLikelihood() *MaxLikelihood {
	return &MaxLikelihood{}
}

func (s *MaxLikelihood) Name() string { return "mle" }

func (s *MaxLikelihood) ChooseGuess(v knowledge.View, post posterior.Posterior) deck.Guess {
	return deck.Guess{
		Person: s.bestProbe(v, post, deck.Person),
		Weapon: s.bestProbe(v, post, deck.Weapon),
		Room:   s.bestProbe(v, post, deck.Room),
	}
}

func (s *MaxLikelihood) bestProbe(v knowledge.View, post posterior.Posterior, cat deck.Category) deck.Card {
	open := openCards(v, cat)
	if len(open) == 0 {
		if known, ok := v.EnvelopeCard(cat); ok {
			return known
		}
		return deck.CardsInCategory(cat)[0]
	}

	best := open[0]
	bestScore := math.Inf(1)
	for _, c := range open {
		score := expectedResidualEntropy(post, cat, c)
		// Ties go to the lower card for reproducibility.
		if score < bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// expectedResidualEntropy scores probing card c in its category:
// (1 - p(c)) times the entropy of the remaining candidates renormalized
// without c. Lower is better.
func expectedResidualEntropy(post posterior.Posterior, cat deck.Category, c deck.Card) float64 {
	p := post.Prob[c]
	rest := 1 - p
	if rest <= 0 {
		return 0
	}
	h := 0.0
	for _, other := range deck.CardsInCategory(cat) {
		if other == c {
			continue
		}
		if q := post.Prob[other] / rest; q > 0 {
			h -= q * math.Log2(q)
		}
	}
	return rest * h
}

func (s *MaxLikelihood) ChooseAccusation(v knowledge.View, post posterior.Posterior) (deck.Guess, bool) {
	threshold := 1.0
	if s.cfg != nil {
		threshold = s.cfg.AccusationThreshold
	}
	var g deck.Guess
	for _, cat := range deck.Categories() {
		card, prob := post.TopCandidate(cat)
		if prob < threshold {
			return deck.Guess{}, false
		}
		switch cat {
		case deck.Person:
			g.Person = card
		case deck.Weapon:
			g.Weapon = card
		case deck.Room:
			g.Room = card
		}
	}
	return g, true
}
