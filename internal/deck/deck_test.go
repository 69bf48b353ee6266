package deck

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
)

func TestCardCategories(t *testing.T) {
	// GIVEN the fixed 21-card universe
	// THEN every card maps to the right category, by construction
	cases := []struct {
		card Card
		want Category
	}{
		{ColonelMustard, Person},
		{MrsPeacock, Person},
		{Rope, Weapon},
		{Revolver, Weapon},
		{Kitchen, Room},
		{Ballroom, Room},
	}
	for _, tc := range cases {
		if got := tc.card.Category(); got != tc.want {
			t.Errorf("%s: category %s, want %s", tc.card, got, tc.want)
		}
	}

	t.Run("category sizes", func(t *testing.T) {
		if n := len(CardsInCategory(Person)); n != 6 {
			t.Errorf("expected 6 people, got %d", n)
		}
		if n := len(CardsInCategory(Weapon)); n != 6 {
			t.Errorf("expected 6 weapons, got %d", n)
		}
		if n := len(CardsInCategory(Room)); n != 9 {
			t.Errorf("expected 9 rooms, got %d", n)
		}
	})
}

func TestCardByName(t *testing.T) {
	c, ok := CardByName("Professor Plum")
	if !ok || c != ProfessorPlum {
		t.Errorf("expected Professor Plum, got %v (found=%v)", c, ok)
	}
	if _, ok := CardByName("Doctor Orchid"); ok {
		t.Error("expected lookup miss for a card outside the universe")
	}
}

func TestHandSizes(t *testing.T) {
	// GIVEN the 18 distributable cards
	cases := []struct {
		players int
		want    []int
	}{
		{2, []int{9, 9}},
		{3, []int{6, 6, 6}},
		{4, []int{5, 5, 4, 4}},
		{5, []int{4, 4, 4, 3, 3}},
		{6, []int{3, 3, 3, 3, 3, 3}},
	}
	for _, tc := range cases {
		sizes, err := HandSizes(tc.players)
		if err != nil {
			t.Fatalf("HandSizes(%d) failed: %v", tc.players, err)
		}
		total := 0
		for i, size := range sizes {
			total += size
			if size != tc.want[i] {
				t.Errorf("%d players: seat %d gets %d cards, want %d", tc.players, i, size, tc.want[i])
			}
		}
		if total != NumCards-NumCategories {
			t.Errorf("%d players: %d cards dealt, want %d", tc.players, total, NumCards-NumCategories)
		}
	}

	t.Run("player count bounds", func(t *testing.T) {
		for _, n := range []int{0, 1, 7} {
			if _, err := HandSizes(n); !errors.Is(err, ErrInvalidPlayerCount) {
				t.Errorf("HandSizes(%d): expected ErrInvalidPlayerCount, got %v", n, err)
			}
		}
	})
}

func TestGuessValidate(t *testing.T) {
	good := Guess{Person: MissScarlet, Weapon: Knife, Room: Lounge}
	if err := good.Validate(); err != nil {
		t.Errorf("valid guess rejected: %v", err)
	}

	bad := Guess{Person: Knife, Weapon: Knife, Room: Lounge}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidGuess) {
		t.Errorf("expected ErrInvalidGuess, got %v", err)
	}
}

func TestDeal(t *testing.T) {
	// GIVEN a seeded rng
	rng := rand.New(rand.NewSource(1))

	// WHEN a 4-player game is dealt
	dealt, err := Deal(4, rng)
	if err != nil {
		t.Fatalf("Deal failed: %v", err)
	}

	// THEN the deal partitions the deck exactly
	t.Run("solution has one card per category", func(t *testing.T) {
		if err := dealt.Solution.Validate(); err != nil {
			t.Errorf("invalid solution: %v", err)
		}
	})

	t.Run("every card is either dealt or in the envelope", func(t *testing.T) {
		for _, c := range BuildDeck() {
			holder := dealt.HolderOf(c)
			if holder == NoHolder {
				t.Errorf("%s was never dealt", c)
			}
			if dealt.Solution.Contains(c) != (holder == Envelope) {
				t.Errorf("%s: envelope membership mismatch (holder %d)", c, holder)
			}
		}
	})

	t.Run("hand sizes match the table", func(t *testing.T) {
		sizes, err := HandSizes(4)
		if err != nil {
			t.Fatal(err)
		}
		for seat, size := range sizes {
			if got := len(dealt.Hand(Holder(seat))); got != size {
				t.Errorf("seat %d dealt %d cards, want %d", seat, got, size)
			}
		}
	})

	t.Run("deterministic for a given seed", func(t *testing.T) {
		again, err := Deal(4, rand.New(rand.NewSource(1)))
		if err != nil {
			t.Fatal(err)
		}
		if again.Solution != dealt.Solution {
			t.Errorf("re-deal solution %s, want %s", again.Solution, dealt.Solution)
		}
	})

	t.Run("rejects bad player counts", func(t *testing.T) {
		if _, err := Deal(7, rng); !errors.Is(err, ErrInvalidPlayerCount) {
			t.Errorf("expected ErrInvalidPlayerCount, got %v", err)
		}
	})
}
