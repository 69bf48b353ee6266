package commands

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/DominicAntonacci/clue-guessing/internal/cli"
	"github.com/DominicAntonacci/clue-guessing/internal/sim"
	"github.com/DominicAntonacci/clue-guessing/internal/strategy"
)

var (
	simGames      int
	simSeed       int64
	simWorkers    int
	simStrategies []string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a batch of games and compare strategies",
	Long: `Run many independent games between the seated strategies and print
an aggregate table: wins per seat, average game length and how much
probability each seat's final beliefs put on the true solution.

Available strategies: ` + strings.Join(strategy.Names(), ", ") + `.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simGames, "games", 100, "Number of games to play")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Seed for reproducible batches (0 seeds from the clock)")
	simulateCmd.Flags().IntVar(&simWorkers, "workers", 0, "Parallel games (0 uses the config value)")
	simulateCmd.Flags().StringSliceVar(&simStrategies, "strategies", []string{"mle", "elimination", "random"},
		"Strategy per seat, in turn order")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	log := buildLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.NumPlayers = len(simStrategies)
	if simWorkers > 0 {
		cfg.Workers = simWorkers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := simSeed
	if seed == 0 {
		seed = cfg.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runner := sim.NewRunner(cfg, simStrategies, simGames, log)
	if err := runner.Validate(); err != nil {
		return err
	}
	log.Infof("playing %d games of %v with seed %d", simGames, simStrategies, seed)

	summary, _, err := runner.Run(context.Background(), seed)
	if err != nil {
		return err
	}

	seats := make([]string, 0, len(summary.MeanAccuracy))
	for seat := range summary.MeanAccuracy {
		seats = append(seats, seat)
	}
	sort.Strings(seats)
	cli.RenderSummary(seats, summary.Wins, summary.Draws, summary.Games, summary.MeanTurns, summary.MeanAccuracy)
	return nil
}
