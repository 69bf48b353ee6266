package knowledge

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DominicAntonacci/clue-guessing/internal/deck"
)

// setupTestStore creates a clean three-player store so tests stay isolated.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := NewStore(3, deck.Holder(0), log)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestAssertPositive(t *testing.T) {
	// GIVEN a fresh store
	store := setupTestStore(t)

	// WHEN we learn a definitive fact (seat 1 has the Wrench)
	if err := store.AssertPositive(deck.Wrench, deck.Holder(1)); err != nil {
		t.Fatalf("AssertPositive failed: %v", err)
	}

	t.Run("it records the owner", func(t *testing.T) {
		h, ok := store.HolderOf(deck.Wrench)
		if !ok || h != deck.Holder(1) {
			t.Errorf("expected Wrench with seat 1, got %v (known=%v)", h, ok)
		}
	})

	t.Run("it marks every other holder negative", func(t *testing.T) {
		for _, h := range []deck.Holder{0, 2, deck.Envelope} {
			if !store.IsNegative(deck.Wrench, h) {
				t.Errorf("expected holder %d to be negative for Wrench", h)
			}
		}
	})
}

func TestAssertPositiveContradiction(t *testing.T) {
	// GIVEN a store that already places the Knife with seat 1
	store := setupTestStore(t)
	if err := store.AssertPositive(deck.Knife, deck.Holder(1)); err != nil {
		t.Fatalf("AssertPositive failed: %v", err)
	}

	// WHEN the same card is placed elsewhere
	err := store.AssertPositive(deck.Knife, deck.Holder(2))

	// THEN the store must refuse loudly rather than overwrite
	if !errors.Is(err, ErrContradiction) {
		t.Fatalf("expected ErrContradiction, got %v", err)
	}
	if h, _ := store.HolderOf(deck.Knife); h != deck.Holder(1) {
		t.Errorf("original fact was overwritten: holder is now %d", h)
	}
}

func TestAssertNegativeContradiction(t *testing.T) {
	// GIVEN a store with a positive fact
	store := setupTestStore(t)
	if err := store.AssertPositive(deck.Rope, deck.Holder(2)); err != nil {
		t.Fatalf("AssertPositive failed: %v", err)
	}

	// WHEN a conflicting negative is asserted
	err := store.AssertNegative(deck.Rope, deck.Holder(2))
	if !errors.Is(err, ErrContradiction) {
		t.Fatalf("expected ErrContradiction, got %v", err)
	}
}

func TestSetConstraintResolution(t *testing.T) {
	// GIVEN a constraint that seat 1 holds one of Rope, Knife, Wrench
	store := setupTestStore(t)
	cards := []deck.Card{deck.Rope, deck.Knife, deck.Wrench}
	if err := store.AssertSetConstraint(deck.Holder(1), cards); err != nil {
		t.Fatalf("AssertSetConstraint failed: %v", err)
	}

	// WHEN two of the three candidates are ruled out
	if err := store.AssertNegative(deck.Rope, deck.Holder(1)); err != nil {
		t.Fatalf("AssertNegative failed: %v", err)
	}
	if err := store.AssertNegative(deck.Knife, deck.Holder(1)); err != nil {
		t.Fatalf("AssertNegative failed: %v", err)
	}

	// THEN the survivor becomes a positive fact and the constraint is gone
	h, ok := store.HolderOf(deck.Wrench)
	if !ok || h != deck.Holder(1) {
		t.Errorf("expected Wrench pinned to seat 1, got %v (known=%v)", h, ok)
	}
	if n := len(store.Constraints()); n != 0 {
		t.Errorf("expected constraint removed, %d remain", n)
	}
}

func TestSetConstraintEmptyIsContradiction(t *testing.T) {
	// GIVEN a constraint whose candidates are all eliminated beforehand
	store := setupTestStore(t)
	if err := store.AssertNegative(deck.Rope, deck.Holder(1)); err != nil {
		t.Fatal(err)
	}
	if err := store.AssertNegative(deck.Knife, deck.Holder(1)); err != nil {
		t.Fatal(err)
	}

	// WHEN the constraint is asserted
	err := store.AssertSetConstraint(deck.Holder(1), []deck.Card{deck.Rope, deck.Knife})

	// THEN reduction empties it and the engine fails loudly
	if !errors.Is(err, ErrContradiction) {
		t.Fatalf("expected ErrContradiction, got %v", err)
	}
}

func TestExhaustiveNegativeInfersEnvelope(t *testing.T) {
	// GIVEN every seat is known not to hold the Candlestick
	store := setupTestStore(t)
	for seat := 0; seat < store.NumPlayers(); seat++ {
		if err := store.AssertNegative(deck.Candlestick, deck.Holder(seat)); err != nil {
			t.Fatalf("AssertNegative failed: %v", err)
		}
	}

	// THEN propagation places it in the envelope
	h, ok := store.HolderOf(deck.Candlestick)
	if !ok || h != deck.Envelope {
		t.Errorf("expected Candlestick in envelope, got %v (known=%v)", h, ok)
	}
}

func TestExhaustiveNegativeInfersLastSeat(t *testing.T) {
	// GIVEN a card absent from the envelope and all seats but seat 2
	store := setupTestStore(t)
	for _, h := range []deck.Holder{0, 1, deck.Envelope} {
		if err := store.AssertNegative(deck.Library, h); err != nil {
			t.Fatalf("AssertNegative failed: %v", err)
		}
	}

	// THEN propagation pins it to seat 2
	h, ok := store.HolderOf(deck.Library)
	if !ok || h != deck.Holder(2) {
		t.Errorf("expected Library with seat 2, got %v (known=%v)", h, ok)
	}
}

func TestEnvelopeCapacitySaturation(t *testing.T) {
	// GIVEN the envelope person is known
	store := setupTestStore(t)
	if err := store.AssertPositive(deck.MissScarlet, deck.Envelope); err != nil {
		t.Fatalf("AssertPositive failed: %v", err)
	}

	// THEN every other person is excluded from the envelope
	for _, c := range deck.CardsInCategory(deck.Person) {
		if c == deck.MissScarlet {
			continue
		}
		if !store.IsNegative(c, deck.Envelope) {
			t.Errorf("expected %s excluded from envelope", c)
		}
	}
}

func TestSeatCapacitySaturation(t *testing.T) {
	// GIVEN a seat whose whole hand is known (3 players -> 6 cards each)
	store := setupTestStore(t)
	hand := []deck.Card{deck.ColonelMustard, deck.Rope, deck.Knife, deck.Kitchen, deck.Study, deck.Hall}
	for _, c := range hand {
		if err := store.AssertPositive(c, deck.Holder(1)); err != nil {
			t.Fatalf("AssertPositive failed: %v", err)
		}
	}

	// THEN the seat is negative for every card outside that hand
	if !store.IsNegative(deck.Ballroom, deck.Holder(1)) {
		t.Error("expected full seat 1 to be negative for Ballroom")
	}

	// AND a further positive fact for that seat is a contradiction
	err := store.AssertPositive(deck.Ballroom, deck.Holder(1))
	if !errors.Is(err, ErrContradiction) {
		t.Fatalf("expected ErrContradiction, got %v", err)
	}
}

func TestPropagateIdempotent(t *testing.T) {
	// GIVEN a store with mixed facts and an open constraint
	store := setupTestStore(t)
	if err := store.AssertPositive(deck.Revolver, deck.Holder(0)); err != nil {
		t.Fatal(err)
	}
	if err := store.AssertSetConstraint(deck.Holder(2), []deck.Card{deck.Lounge, deck.Hall, deck.MrGreen}); err != nil {
		t.Fatal(err)
	}

	// WHEN propagation runs again on an already-stable state
	before := snapshot(store)
	if err := store.Propagate(); err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	// THEN nothing changes
	after := snapshot(store)
	if before != after {
		t.Errorf("expected no change, got\nbefore: %v\nafter:  %v", before, after)
	}
}

func TestFactsAreMonotonic(t *testing.T) {
	// GIVEN a store with an initial positive fact
	store := setupTestStore(t)
	if err := store.AssertPositive(deck.Lounge, deck.Holder(2)); err != nil {
		t.Fatal(err)
	}

	// WHEN more facts arrive
	if err := store.AssertNegative(deck.Hall, deck.Holder(0)); err != nil {
		t.Fatal(err)
	}
	if err := store.AssertSetConstraint(deck.Holder(1), []deck.Card{deck.Rope, deck.Knife}); err != nil {
		t.Fatal(err)
	}

	// THEN the original fact is still present
	if h, ok := store.HolderOf(deck.Lounge); !ok || h != deck.Holder(2) {
		t.Errorf("positive fact was retracted: %v (known=%v)", h, ok)
	}
}

func TestNoOneDisproved(t *testing.T) {
	// GIVEN a guess by seat 1 that no one could disprove
	store := setupTestStore(t)
	guess := deck.Guess{Person: deck.MrGreen, Weapon: deck.Revolver, Room: deck.Kitchen}

	// WHEN the no-one-disproved rule fires
	if err := store.NoOneDisproved(deck.Holder(1), guess); err != nil {
		t.Fatalf("NoOneDisproved failed: %v", err)
	}

	// THEN the guesser carries an open set constraint over the triple
	constraints := store.Constraints()
	if len(constraints) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(constraints))
	}
	sc := constraints[0]
	if sc.Holder != deck.Holder(1) {
		t.Errorf("constraint bound to holder %d, want seat 1", sc.Holder)
	}
	if len(sc.Cards) != 3 {
		t.Errorf("constraint has %d candidates, want 3", len(sc.Cards))
	}
}

func TestSeedHand(t *testing.T) {
	// GIVEN an observer's dealt hand
	store := setupTestStore(t)
	hand := []deck.Card{deck.MrsWhite, deck.LeadPipe, deck.Ballroom, deck.Study, deck.Hall, deck.Revolver}

	// WHEN the store is seeded
	if err := store.SeedHand(hand); err != nil {
		t.Fatalf("SeedHand failed: %v", err)
	}

	// THEN held cards are positive for the observer and nothing else is
	for _, c := range hand {
		if h, ok := store.HolderOf(c); !ok || h != store.Observer() {
			t.Errorf("expected %s with observer", c)
		}
	}
	if !store.IsNegative(deck.Kitchen, store.Observer()) {
		t.Error("expected observer negative for a card outside its hand")
	}
}

// snapshot reduces a store to a comparable summary of its fact counts.
func snapshot(s *Store) [3]int {
	positives := 0
	negatives := 0
	for _, c := range deck.BuildDeck() {
		if _, ok := s.HolderOf(c); ok {
			positives++
		}
		for _, h := range append(deck.Players(s.NumPlayers()), deck.Envelope) {
			if s.IsNegative(c, h) {
				negatives++
			}
		}
	}
	return [3]int{positives, negatives, len(s.Constraints())}
}
