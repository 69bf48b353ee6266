package game

import (
	"math/rand"

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

// Builder provides a step-by-step API for constructing a Game object.
type Builder struct {
	cfg          *config.Config
	eventManager *events.Manager
	log          *logrus.Logger
	rand         *rand.Rand
	chooser      resolver.Chooser
	names        []string
	strategies   []strategy.Strategy
}

// NewBuilder creates a new Builder with its required dependencies.
func NewBuilder(cfg *config.Config, logger *logrus.Logger, rng *rand.Rand) *Builder {
	return &Builder{
		cfg:          cfg,
		log:          logger,
		rand:         rng,
		eventManager: events.NewManager(),
		chooser:      resolver.CategoryOrderChooser{},
	}
}

// EventManager is a public getter for the unexported field.
func (b *Builder) EventManager() *events.Manager {
	return b.eventManager
}

// WithStrategyNames seats one strategy per name, built from the registry.
// The number of names is the number of players.
func (b *Builder) WithStrategyNames(names ...string) *Builder {
	b.names = names
	return b
}

// WithStrategies seats pre-built strategies instead of registry names.
func (b *Builder) WithStrategies(strategies ...strategy.Strategy) *Builder {
	b.strategies = strategies
	return b
}

// WithChooser overrides how a disprover picks among multiple matching cards.
func (b *Builder) WithChooser(c resolver.Chooser) *Builder {
	b.chooser = c
	return b
}

// Build constructs the Game object after all options have been configured:
// it resolves strategies, deals the cards and seeds one knowledge store per
// seat with that seat's own hand.
func (b *Builder) Build() (*Game, error) {
	strategies := b.strategies
	if len(strategies) == 0 {
		for _, name := range b.names {
			// Each strategy gets its own random stream.
			s, err := strategy.ByName(name, rand.New(rand.NewSource(b.rand.Int63())))
			if err != nil {
				return nil, err
			}
			strategies = append(strategies, s)
		}
	}
	if len(strategies) != b.cfg.NumPlayers {
		return nil, errors.Errorf("%d strategies seated for %d players", len(strategies), b.cfg.NumPlayers)
	}

	dealt, err := deck.Deal(b.cfg.NumPlayers, b.rand)
	if err != nil {
		return nil, err
	}

	game := &Game{
		cfg:          b.cfg,
		dealt:        dealt,
		eventManager: b.eventManager,
		chooser:      b.chooser,
		log:          b.log,
		estimator: posterior.NewEstimator(
			b.cfg.ExactCaseBudget,
			b.cfg.SampleCount,
			rand.New(rand.NewSource(b.rand.Int63())),
			b.log,
		),
	}

	for i, s := range strategies {
		me := deck.Holder(i)
		store, err := knowledge.NewStore(b.cfg.NumPlayers, me, b.log)
		if err != nil {
			return nil, err
		}
		if err := store.SeedHand(dealt.Hand(me)); err != nil {
			return nil, errors.Wrapf(err, "seed seat %d", me)
		}
		s.Setup(me, dealt.Hand(me), b.cfg)
		game.seats = append(game.seats, &seat{
			id:       me,
			strategy: s,
			store:    store,
		})
		b.log.Debugf("seat %d plays %s, hand %v", me, s.Name(), dealt.Hand(me))
	}
	b.log.Debugf("ground truth initialized, solution: %s", dealt.Solution)

	sizes, err := deck.HandSizes(b.cfg.NumPlayers)
	if err != nil {
		return nil, err
	}
	b.eventManager.Publish(events.GameReadyEvent{NumPlayers: b.cfg.NumPlayers, HandSizes: sizes})

	return game, nil
}
