// Package sim runs batches of independent games in parallel and aggregates
// their outcomes. Games share nothing mutable: each gets its own rng stream,
// stores and strategies, so the only coordination point is result collection.
package sim

import (
	"context"
	"math/rand"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/DominicAntonacci/clue-guessing/internal/config"
	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/game"
	"github.com/DominicAntonacci/clue-guessing/internal/strategy"
)

// GameRecord is one finished game with its run identity.
type GameRecord struct {
	ID     uuid.UUID
	Index  int
	Result game.Result
}

// Summary aggregates a batch per strategy name.
type Summary struct {
	Games        int
	Draws        int
	Wins         map[string]int
	MeanTurns    float64
	MeanAccuracy map[string]float64
}

// Runner executes Games independent matches with the given seat strategies.
type Runner struct {
	Games      int
	Strategies []string

	cfg *config.Config
	log *logrus.Logger
}

// NewRunner creates a batch runner. The strategy names seat the table in
// order and fix the player count.
func NewRunner(cfg *config.Config, strategies []string, games int, log *logrus.Logger) *Runner {
	return &Runner{
		Games:      games,
		Strategies: strategies,
		cfg:        cfg,
		log:        log,
	}
}

// Run plays the whole batch, bounded by the configured worker count. Game i
// always receives the same seed stream for a given top-level seed, so runs
// are reproducible regardless of worker scheduling. The first engine error
// cancels the batch.
func (r *Runner) Run(ctx context.Context, seed int64) (*Summary, []GameRecord, error) {
	if len(r.Strategies) != r.cfg.NumPlayers {
		return nil, nil, errors.Errorf("%d strategies for %d players", len(r.Strategies), r.cfg.NumPlayers)
	}

	// Derive per-game seeds up front so workers never touch a shared rng.
	seeds := make([]int64, r.Games)
	seedRand := rand.New(rand.NewSource(seed))
	for i := range seeds {
		seeds[i] = seedRand.Int63()
	}

	records := make([]GameRecord, r.Games)
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i := 0; i < r.Games; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := r.playOne(i, seeds[i])
			if err != nil {
				return errors.Wrapf(err, "game %d", i)
			}
			mu.Lock()
			records[i] = rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return r.summarize(records), records, nil
}

func (r *Runner) playOne(index int, seed int64) (GameRecord, error) {
	id := uuid.New()
	rng := rand.New(rand.NewSource(seed))
	match, err := game.NewBuilder(r.cfg, r.log, rng).
		WithStrategyNames(r.Strategies...).
		Build()
	if err != nil {
		return GameRecord{}, err
	}
	result, err := match.Run()
	if err != nil {
		return GameRecord{}, err
	}
	r.log.Debugf("game %s finished: winner %d in %d turns", id, result.Winner, result.Turns)
	return GameRecord{ID: id, Index: index, Result: result}, nil
}

func (r *Runner) summarize(records []GameRecord) *Summary {
	s := &Summary{
		Games:        len(records),
		Wins:         make(map[string]int),
		MeanAccuracy: make(map[string]float64),
	}
	if len(records) == 0 {
		return s
	}
	totalTurns := 0
	accuracy := make([]float64, len(r.Strategies))
	for _, rec := range records {
		totalTurns += rec.Result.Turns
		if rec.Result.Winner == deck.NoHolder {
			s.Draws++
		} else {
			s.Wins[r.seatLabel(int(rec.Result.Winner))]++
		}
		for seat, acc := range rec.Result.Accuracy {
			accuracy[seat] += acc
		}
	}
	s.MeanTurns = float64(totalTurns) / float64(len(records))
	for seat := range r.Strategies {
		s.MeanAccuracy[r.seatLabel(seat)] = accuracy[seat] / float64(len(records))
	}
	return s
}

// seatLabel disambiguates tables that seat the same strategy twice.
func (r *Runner) seatLabel(seat int) string {
	return r.Strategies[seat] + "#" + strconv.Itoa(seat)
}

// Validate checks the runner's strategy names against the registry before
// any game starts.
func (r *Runner) Validate() error {
	for _, name := range r.Strategies {
		if _, err := strategy.ByName(name, rand.New(rand.NewSource(0))); err != nil {
			return err
		}
	}
	return nil
}
