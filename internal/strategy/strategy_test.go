package strategy

import (
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DominicAntonacci/clue-guessing/internal/config"
	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/knowledge"
	"github.com/DominicAntonacci/clue-guessing/internal/posterior"
)

func newView(t *testing.T) *knowledge.Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := knowledge.NewStore(3, deck.Holder(0), log)
	require.NoError(t, err)
	return store
}

func uniformPosterior(t *testing.T, v knowledge.View) posterior.Posterior {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	est := posterior.NewEstimator(100000, 1000, rand.New(rand.NewSource(3)), log)
	p, err := est.Posterior(v)
	require.NoError(t, err)
	return p
}

func TestByNameRegistry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, name := range Names() {
		s, err := ByName(name, rng)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())
	}
	_, err := ByName("psychic", rng)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestRandomGuessesAreValidAndNeverAccuse(t *testing.T) {
	// GIVEN a random strategy in an empty game
	store := newView(t)
	post := uniformPosterior(t, store)
	s := NewRandom(rand.New(rand.NewSource(2)))
	s.Setup(deck.Holder(0), nil, config.Default())

	// WHEN it plays many turns
	for i := 0; i < 50; i++ {
		g := s.ChooseGuess(store, post)
		require.NoError(t, g.Validate())
	}

	// THEN it never accuses, even on a settled store
	require.NoError(t, store.AssertPositive(deck.MissScarlet, deck.Envelope))
	require.NoError(t, store.AssertPositive(deck.Rope, deck.Envelope))
	require.NoError(t, store.AssertPositive(deck.Kitchen, deck.Envelope))
	_, ok := s.ChooseAccusation(store, uniformPosterior(t, store))
	assert.False(t, ok)
}

func TestEliminationAvoidsRuledOutCards(t *testing.T) {
	// GIVEN a store where every person but two is placed with a seat
	store := newView(t)
	require.NoError(t, store.AssertPositive(deck.ColonelMustard, deck.Holder(1)))
	require.NoError(t, store.AssertPositive(deck.ProfessorPlum, deck.Holder(1)))
	require.NoError(t, store.AssertPositive(deck.MrGreen, deck.Holder(2)))
	require.NoError(t, store.AssertPositive(deck.MrsWhite, deck.Holder(2)))
	post := uniformPosterior(t, store)

	s := NewElimination(rand.New(rand.NewSource(4)))
	s.Setup(deck.Holder(0), nil, config.Default())

	// WHEN it chooses guesses
	// THEN only the still-open people are probed
	for i := 0; i < 20; i++ {
		g := s.ChooseGuess(store, post)
		require.NoError(t, g.Validate())
		assert.Contains(t, []deck.Card{deck.MissScarlet, deck.MrsPeacock}, g.Person)
	}
}

func TestEliminationAccusesOnlyWhenPinned(t *testing.T) {
	// GIVEN a store with two of three categories settled
	store := newView(t)
	require.NoError(t, store.AssertPositive(deck.MissScarlet, deck.Envelope))
	require.NoError(t, store.AssertPositive(deck.Candlestick, deck.Envelope))
	s := NewElimination(rand.New(rand.NewSource(5)))
	s.Setup(deck.Holder(0), nil, config.Default())

	// WHEN only two categories are known THEN it holds back
	_, ok := s.ChooseAccusation(store, uniformPosterior(t, store))
	assert.False(t, ok)

	// WHEN the room settles as well THEN it accuses with the pinned triple
	require.NoError(t, store.AssertPositive(deck.Library, deck.Envelope))
	g, ok := s.ChooseAccusation(store, uniformPosterior(t, store))
	require.True(t, ok)
	assert.Equal(t, deck.Guess{Person: deck.MissScarlet, Weapon: deck.Candlestick, Room: deck.Library}, g)
}

func TestFocusedPadsRoomFromOwnHand(t *testing.T) {
	// GIVEN a focused strategy holding two rooms while people are still open
	store := newView(t)
	hand := []deck.Card{deck.Kitchen, deck.Study, deck.Rope}
	require.NoError(t, store.SeedHand(hand))
	post := uniformPosterior(t, store)

	s := NewFocused(rand.New(rand.NewSource(6)))
	s.Setup(deck.Holder(0), hand, config.Default())

	// WHEN it chooses guesses
	// THEN the room slot always comes from its own hand
	for i := 0; i < 20; i++ {
		g := s.ChooseGuess(store, post)
		require.NoError(t, g.Validate())
		assert.Contains(t, []deck.Card{deck.Kitchen, deck.Study}, g.Room)
	}
}

func TestFocusedHuntsRoomsOnceCategoriesSettle(t *testing.T) {
	// GIVEN the person and weapon categories fully settled
	store := newView(t)
	hand := []deck.Card{deck.Kitchen, deck.Study}
	require.NoError(t, store.SeedHand(hand))
	require.NoError(t, store.AssertPositive(deck.MissScarlet, deck.Envelope))
	require.NoError(t, store.AssertPositive(deck.Candlestick, deck.Envelope))
	for _, c := range deck.CardsInCategory(deck.Person) {
		if c != deck.MissScarlet {
			require.NoError(t, store.AssertPositive(c, deck.Holder(1)))
		}
	}
	post := uniformPosterior(t, store)

	s := NewFocused(rand.New(rand.NewSource(7)))
	s.Setup(deck.Holder(0), hand, config.Default())

	// WHEN it guesses THEN it probes open rooms instead of padding
	g := s.ChooseGuess(store, post)
	require.NoError(t, g.Validate())
	assert.False(t, g.Room == deck.Kitchen || g.Room == deck.Study,
		"expected an open-room probe, got %s", g.Room)
}

func TestMaxLikelihoodPrefersInformativeProbe(t *testing.T) {
	// GIVEN a posterior where Rope is near-certain for the envelope
	store := newView(t)
	post := posterior.Posterior{Prob: map[deck.Card]float64{}, Exact: true}
	for _, c := range deck.CardsInCategory(deck.Weapon) {
		post.Prob[c] = 0.02
	}
	post.Prob[deck.Rope] = 0.9
	for _, c := range deck.CardsInCategory(deck.Person) {
		post.Prob[c] = 1.0 / 6
	}
	for _, c := range deck.CardsInCategory(deck.Room) {
		post.Prob[c] = 1.0 / 9
	}

	s := NewMaxLikelihood()
	s.Setup(deck.Holder(0), nil, config.Default())

	// WHEN it chooses a guess
	g := s.ChooseGuess(store, post)

	// THEN it probes the dominant candidate: confirming or refuting Rope
	// collapses the weapon category harder than any other probe
	require.NoError(t, g.Validate())
	assert.Equal(t, deck.Rope, g.Weapon)
}

func TestMaxLikelihoodAccusationThreshold(t *testing.T) {
	store := newView(t)
	cfg := config.Default()
	cfg.AccusationThreshold = 0.9
	s := NewMaxLikelihood()
	s.Setup(deck.Holder(0), nil, cfg)

	post := posterior.Posterior{Prob: map[deck.Card]float64{}, Exact: true}
	for _, cat := range deck.Categories() {
		for _, c := range deck.CardsInCategory(cat) {
			post.Prob[c] = 0
		}
	}
	post.Prob[deck.MissScarlet] = 0.95
	post.Prob[deck.Candlestick] = 0.95
	post.Prob[deck.Library] = 0.85
	for _, c := range []deck.Card{deck.ColonelMustard, deck.Rope, deck.Kitchen} {
		post.Prob[c] = 0.05
	}

	t.Run("holds back while any category is under threshold", func(t *testing.T) {
		_, ok := s.ChooseAccusation(store, post)
		assert.False(t, ok)
	})

	t.Run("accuses once every category clears it", func(t *testing.T) {
		post.Prob[deck.Library] = 0.95
		g, ok := s.ChooseAccusation(store, post)
		require.True(t, ok)
		assert.Equal(t, deck.Guess{Person: deck.MissScarlet, Weapon: deck.Candlestick, Room: deck.Library}, g)
	})
}
