package commands

import (
	"github.com/spf13/cobra"

	"github.com/DominicAntonacci/clue-guessing/internal/cli"
)

var advisorCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Track a real-life game and get guess recommendations",
	Long: `Start an interactive co-pilot session for a game you are playing
in person. Log every guess and disproof at the table; the engine keeps your
detective notes, computes envelope probabilities and recommends what to
guess next and when to accuse.`,
	RunE: runAdvisor,
}

func init() {
	rootCmd.AddCommand(advisorCmd)
}

func runAdvisor(cmd *cobra.Command, args []string) error {
	log := buildLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return cli.NewAdvisor(log, cfg).Run()
}
