// Package commands wires the cluesim CLI: a simulate command for strategy
// batches and an advisor command for live co-piloting.
package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DominicAntonacci/clue-guessing/internal/config"
)

var (
	logLevel   string
	configPath string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cluesim",
	Short: "Cluesim - Clue deduction engine, strategy simulator and co-pilot",
	Long: `Cluesim simulates games of Clue between configurable guessing
strategies and reports which ones win, how fast, and how well calibrated
their beliefs are. The same deduction engine powers an interactive advisor
for real-life games.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.
func Execute() error {
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "Set logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON config file (defaults otherwise)")
}

// buildLogger creates the run's logger from the --loglevel flag.
func buildLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, ForceColors: true})
	return log
}

// loadConfig resolves the run configuration from --config or defaults.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}
