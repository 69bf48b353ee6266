package cli

import (
	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/events"
)

// SimulationRenderer implements the events.Listener interface to print game
// progress to the console.
type SimulationRenderer struct{}

// HandleEvent is the central dispatcher for rendering events.
func (r *SimulationRenderer) HandleEvent(e events.Event) {
	switch event := e.(type) {
	case events.GameReadyEvent:
		C.Header.Printf("--- Starting game: %d players, hands %v ---\n", event.NumPlayers, event.HandSizes)
	case events.TurnStartEvent:
		C.Header.Printf("\n--- Turn %d: seat %d ---\n", event.TurnNumber, event.Seat)
	case events.GuessMadeEvent:
		C.Info.Printf("Seat %d guesses: %s\n", event.Seat, colorizeGuess(event.Guess))
	case events.DisprovedEvent:
		C.Info.Printf("-> Seat %d shows a card to seat %d.\n", event.DisprovedBy, event.Guesser)
	case events.NotDisprovedEvent:
		C.Info.Println("-> No player could show a card.")
	case events.AccusationMadeEvent:
		C.Info.Printf("Seat %d ACCUSES: %s\n", event.Seat, colorizeGuess(event.Accusation))
		if event.IsCorrect {
			C.Yes.Printf("The accusation is CORRECT! Seat %d wins!\n", event.Seat)
		} else {
			C.No.Printf("The accusation is INCORRECT! Seat %d is out of the game.\n", event.Seat)
		}
	case events.GameOverEvent:
		r.renderGameResult(event)
	}
}

func (r *SimulationRenderer) renderGameResult(event events.GameOverEvent) {
	C.Header.Println("\n--- GAME OVER ---")
	C.Info.Printf("The correct solution was: %s\n", colorizeGuess(event.Solution))
	if event.Winner == deck.NoHolder {
		C.Warn.Printf("Game ended without a correct accusation after %d turns.\n", event.Turns)
	}
}

func colorizeGuess(g deck.Guess) string {
	return ColorizeCard(g.Person) + ", " + ColorizeCard(g.Weapon) + ", " + ColorizeCard(g.Room)
}
