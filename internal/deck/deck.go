// Package deck defines the fixed 21-card Clue universe, the holders a card
// can belong to, and the dealing rules.
package deck

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Category defines the type of a card using a typed enum.
type Category int

const (
	Person Category = iota
	Weapon
	Room
	NumCategories = 3
)

func (c Category) String() string {
	return []string{"person", "weapon", "room"}[c]
}

// Categories lists every category in canonical order.
func Categories() []Category {
	return []Category{Person, Weapon, Room}
}

// Card identifies one of the 21 cards. The numbering is fixed: people first,
// then weapons, then rooms, so a card's category is derivable from its value.
type Card int

const (
	ColonelMustard Card = iota
	MissScarlet
	ProfessorPlum
	MrGreen
	MrsWhite
	MrsPeacock

	Rope
	LeadPipe
	Knife
	Wrench
	Candlestick
	Revolver

	Kitchen
	Study
	Conservatory
	Hall
	DiningRoom
	BilliardRoom
	Lounge
	Library
	Ballroom

	NumCards = 21
	NoCard   = Card(-1)
)

var cardNames = [NumCards]string{
	"Colonel Mustard", "Miss Scarlet", "Professor Plum",
	"Mr. Green", "Mrs. White", "Mrs. Peacock",
	"Rope", "Lead Pipe", "Knife", "Wrench", "Candlestick", "Revolver",
	"Kitchen", "Study", "Conservatory", "Hall", "Dining Room",
	"Billiard Room", "Lounge", "Library", "Ballroom",
}

func (c Card) String() string {
	if c < 0 || c >= NumCards {
		return "<invalid card>"
	}
	return cardNames[c]
}

// Category returns which of the three groups the card belongs to.
func (c Card) Category() Category {
	switch {
	case c < Rope:
		return Person
	case c < Kitchen:
		return Weapon
	default:
		return Room
	}
}

// CardByName looks a card up by its display name.
func CardByName(name string) (Card, bool) {
	for i, n := range cardNames {
		if n == name {
			return Card(i), true
		}
	}
	return NoCard, false
}

// BuildDeck returns the full ordered 21-card deck.
func BuildDeck() []Card {
	deck := make([]Card, NumCards)
	for i := range deck {
		deck[i] = Card(i)
	}
	return deck
}

// CardsInCategory returns the canonical card list for one category.
func CardsInCategory(cat Category) []Card {
	switch cat {
	case Person:
		return BuildDeck()[ColonelMustard:Rope]
	case Weapon:
		return BuildDeck()[Rope:Kitchen]
	default:
		return BuildDeck()[Kitchen:]
	}
}

// Holder identifies who holds a card: a player seat (0..N-1) or the envelope.
type Holder int

const (
	// Envelope is the hidden holder containing the true solution.
	Envelope Holder = -1
	// NoHolder marks the absence of a holder, e.g. "no one disproved".
	NoHolder Holder = -2

	// MinPlayers and MaxPlayers bound the legal player count.
	MinPlayers = 2
	MaxPlayers = 6
)

var (
	ErrInvalidPlayerCount = errors.New("invalid player count")
	ErrInvalidGuess       = errors.New("invalid guess")
)

// Players returns the seat holders 0..n-1 in turn order.
func Players(n int) []Holder {
	seats := make([]Holder, n)
	for i := range seats {
		seats[i] = Holder(i)
	}
	return seats
}

// HandSizes returns the per-seat hand sizes for n players: the 18 non-envelope
// cards split as evenly as possible, earlier seats taking the extra card.
func HandSizes(n int) ([]int, error) {
	if n < MinPlayers || n > MaxPlayers {
		return nil, errors.Wrapf(ErrInvalidPlayerCount, "%d players", n)
	}
	dealt := NumCards - NumCategories
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = dealt / n
		if i < dealt%n {
			sizes[i]++
		}
	}
	return sizes, nil
}

// Guess is a proposed (person, weapon, room) triple. It doubles as an
// accusation and as the envelope solution.
type Guess struct {
	Person Card
	Weapon Card
	Room   Card
}

// Validate rejects triples that are not one card per category.
func (g Guess) Validate() error {
	if g.Person.Category() != Person || g.Weapon.Category() != Weapon || g.Room.Category() != Room {
		return errors.Wrapf(ErrInvalidGuess, "%s / %s / %s", g.Person, g.Weapon, g.Room)
	}
	return nil
}

// Cards returns the triple in category order.
func (g Guess) Cards() [3]Card {
	return [3]Card{g.Person, g.Weapon, g.Room}
}

// Contains reports whether the triple includes the card.
func (g Guess) Contains(c Card) bool {
	return c == g.Person || c == g.Weapon || c == g.Room
}

func (g Guess) String() string {
	return g.Person.String() + " with the " + g.Weapon.String() + " in the " + g.Room.String()
}

// Dealt is the result of dealing a game: the hidden solution and one hand per
// seat in turn order.
type Dealt struct {
	Solution Guess
	Hands    [][]Card
}

// Hand returns the cards dealt to a seat.
func (d Dealt) Hand(seat Holder) []Card {
	return d.Hands[seat]
}

// HolderOf returns the true holder of a card.
func (d Dealt) HolderOf(c Card) Holder {
	if d.Solution.Contains(c) {
		return Envelope
	}
	for seat, hand := range d.Hands {
		for _, card := range hand {
			if card == c {
				return Holder(seat)
			}
		}
	}
	return NoHolder
}

// Deal picks a uniform envelope card per category, shuffles the remaining 18
// cards and deals them round-robin. Deterministic for a given rng.
func Deal(numPlayers int, rng *rand.Rand) (Dealt, error) {
	sizes, err := HandSizes(numPlayers)
	if err != nil {
		return Dealt{}, err
	}

	solution := Guess{
		Person: pick(CardsInCategory(Person), rng),
		Weapon: pick(CardsInCategory(Weapon), rng),
		Room:   pick(CardsInCategory(Room), rng),
	}

	var toDeal []Card
	for _, card := range BuildDeck() {
		if !solution.Contains(card) {
			toDeal = append(toDeal, card)
		}
	}
	rng.Shuffle(len(toDeal), func(i, j int) { toDeal[i], toDeal[j] = toDeal[j], toDeal[i] })

	hands := make([][]Card, numPlayers)
	for i, card := range toDeal {
		seat := i % numPlayers
		hands[seat] = append(hands[seat], card)
	}
	for seat, hand := range hands {
		if len(hand) != sizes[seat] {
			return Dealt{}, errors.Errorf("seat %d dealt %d cards, want %d", seat, len(hand), sizes[seat])
		}
	}
	return Dealt{Solution: solution, Hands: hands}, nil
}

func pick(cards []Card, rng *rand.Rand) Card {
	return cards[rng.Intn(len(cards))]
}
