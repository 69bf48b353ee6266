package main

import (
	"os"

	"github.com/DominicAntonacci/clue-guessing/cmd/cluesim/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
