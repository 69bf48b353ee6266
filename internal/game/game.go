// Package game drives a single simulated match: seats with strategies and
// private knowledge stores, a hidden solution, and the turn loop that folds
// every table-visible outcome into every observer.
package game

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DominicAntonacci/clue-guessing/internal/config"
	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/events"
	"github.com/DominicAntonacci/clue-guessing/internal/knowledge"
	"github.com/DominicAntonacci/clue-guessing/internal/posterior"
	"github.com/DominicAntonacci/clue-guessing/internal/resolver"
	"github.com/DominicAntonacci/clue-guessing/internal/strategy"
)

// seat binds one player's strategy to its private knowledge store. The store
// only ever receives what this seat could actually observe.
type seat struct {
	id         deck.Holder
	strategy   strategy.Strategy
	store      *knowledge.Store
	eliminated bool
}

// Result is the outcome of one finished game.
type Result struct {
	// Winner is the seat whose accusation was correct, or deck.NoHolder
	// when the game ended without one.
	Winner   deck.Holder
	Turns    int
	Solution deck.Guess

	// Accuracy is each seat's mean final posterior probability on the
	// true solution triple, a calibration measure independent of winning.
	Accuracy []float64
}

// Game represents the state and logic of a single match.
type Game struct {
	cfg          *config.Config
	dealt        deck.Dealt
	seats        []*seat
	eventManager *events.Manager
	chooser      resolver.Chooser
	estimator    *posterior.Estimator
	turn         int
	log          *logrus.Logger
}

// Solution exposes the ground truth, for renderers and tests.
func (g *Game) Solution() deck.Guess { return g.dealt.Solution }

// Store returns one seat's knowledge store, read-only.
func (g *Game) Store(h deck.Holder) knowledge.View { return g.seats[h].store }

// Run executes the turn loop until an accusation is correct, every seat is
// eliminated, or the turn cap is reached. A contradiction in any store is a
// defect in the engine and aborts the game with an error.
func (g *Game) Run() (Result, error) {
	maxTurns := g.cfg.TurnCap * len(g.seats)
	for g.turn < maxTurns {
		current := g.seats[g.turn%len(g.seats)]
		g.turn++
		if current.eliminated {
			if g.allEliminated() {
				break
			}
			continue
		}
		g.eventManager.Publish(events.TurnStartEvent{TurnNumber: g.turn, Seat: current.id})

		post, err := g.estimator.Posterior(current.store)
		if err != nil {
			if !errors.Is(err, posterior.ErrEstimationTimeout) {
				return Result{}, errors.Wrapf(err, "seat %d posterior", current.id)
			}
			g.log.Warnf("seat %d posterior is best-effort: %v", current.id, err)
		}

		if accusation, ok := current.strategy.ChooseAccusation(current.store, post); ok {
			correct := accusation == g.dealt.Solution
			g.eventManager.Publish(events.AccusationMadeEvent{Seat: current.id, Accusation: accusation, IsCorrect: correct})
			if correct {
				return g.finish(current.id)
			}
			current.eliminated = true
			g.eventManager.Publish(events.PlayerEliminatedEvent{Seat: current.id})
			g.log.Infof("seat %d accused %s and is eliminated", current.id, accusation)
			if g.allEliminated() {
				break
			}
			continue
		}

		guess := current.strategy.ChooseGuess(current.store, post)
		if err := guess.Validate(); err != nil {
			return Result{}, errors.Wrapf(err, "seat %d guess", current.id)
		}
		g.eventManager.Publish(events.GuessMadeEvent{Seat: current.id, Guess: guess})

		outcome, err := resolver.Resolve(guess, current.id, g.dealt, g.chooser)
		if err != nil {
			return Result{}, errors.Wrapf(err, "resolve seat %d guess", current.id)
		}
		if outcome.Disproved() {
			g.eventManager.Publish(events.DisprovedEvent{
				Guesser:     current.id,
				DisprovedBy: outcome.DisprovedBy,
				Revealed:    outcome.Revealed,
			})
		} else {
			g.eventManager.Publish(events.NotDisprovedEvent{Guesser: current.id, Guess: guess})
		}

		// Fold the outcome into every observer. A correct guess that no
		// one disproved must not feed the guesser-holds-one rule.
		guessWasSolution := guess == g.dealt.Solution
		for _, s := range g.seats {
			if err := resolver.FoldForObserver(s.store, outcome, guessWasSolution); err != nil {
				return Result{}, errors.Wrapf(err, "fold outcome for seat %d", s.id)
			}
		}
	}

	g.log.Infof("game ended without a winner after %d turns", g.turn)
	return g.finish(deck.NoHolder)
}

func (g *Game) allEliminated() bool {
	for _, s := range g.seats {
		if !s.eliminated {
			return false
		}
	}
	return true
}

// finish publishes the game-over event and scores every seat's final
// posterior against the true solution.
func (g *Game) finish(winner deck.Holder) (Result, error) {
	result := Result{
		Winner:   winner,
		Turns:    g.turn,
		Solution: g.dealt.Solution,
		Accuracy: make([]float64, len(g.seats)),
	}
	for i, s := range g.seats {
		post, err := g.estimator.Posterior(s.store)
		if err != nil && !errors.Is(err, posterior.ErrEstimationTimeout) {
			return Result{}, errors.Wrapf(err, "seat %d final posterior", s.id)
		}
		sum := 0.0
		for _, c := range g.dealt.Solution.Cards() {
			sum += post.Prob[c]
		}
		result.Accuracy[i] = sum / 3
	}
	g.eventManager.Publish(events.GameOverEvent{Winner: winner, Solution: g.dealt.Solution, Turns: g.turn})
	return result, nil
}
