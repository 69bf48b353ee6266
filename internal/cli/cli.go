// Package cli renders game state to the terminal and hosts the advisor, an
// interactive co-pilot that tracks a real-life game through the knowledge
// engine and recommends guesses.
package cli

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/DominicAntonacci/clue-guessing/internal/config"
	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/knowledge"
	"github.com/DominicAntonacci/clue-guessing/internal/posterior"
	"github.com/DominicAntonacci/clue-guessing/internal/resolver"
	"github.com/DominicAntonacci/clue-guessing/internal/strategy"
)

// Advisor is the interactive co-pilot for a real-life game. The user logs
// what happens at the table; the engine tracks everything and answers with
// deductions, posteriors and guess recommendations.
type Advisor struct {
	log  *logrus.Logger
	cfg  *config.Config
	line *liner.State

	numPlayers int
	names      []string
	me         deck.Holder
	hand       []deck.Card
	store      *knowledge.Store
	estimator  *posterior.Estimator
	brain      *strategy.MaxLikelihood
}

// NewAdvisor creates an advisor session.
func NewAdvisor(log *logrus.Logger, cfg *config.Config) *Advisor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &Advisor{
		log:  log,
		cfg:  cfg,
		line: line,
	}
}

// Run is the main entry point for the advisor session.
func (a *Advisor) Run() error {
	defer a.line.Close()

	C.Info.Println("\n--- Starting Advisor Co-Pilot ---")
	a.numPlayers = a.promptForInt(fmt.Sprintf("How many players are in the real game? (%d-%d): ", deck.MinPlayers, deck.MaxPlayers), deck.MinPlayers, deck.MaxPlayers)
	for i := 0; i < a.numPlayers; i++ {
		a.names = append(a.names, a.promptForString(fmt.Sprintf("Enter name for Player %d (in turn order): ", i+1)))
	}
	a.me = deck.Holder(a.promptForSelection("Which player are you?", a.names))

	sizes, err := deck.HandSizes(a.numPlayers)
	if err != nil {
		return err
	}
	C.Info.Printf("\nSelect the %d cards in your hand.\n", sizes[a.me])
	a.hand = a.promptForHand(sizes[a.me])

	a.store, err = knowledge.NewStore(a.numPlayers, a.me, a.log)
	if err != nil {
		return err
	}
	if err := a.store.SeedHand(a.hand); err != nil {
		return errors.Wrap(err, "seed hand")
	}
	a.estimator = posterior.NewEstimator(
		a.cfg.ExactCaseBudget, a.cfg.SampleCount,
		rand.New(rand.NewSource(1)), a.log,
	)
	a.brain = strategy.NewMaxLikelihood()
	a.brain.Setup(a.me, a.hand, a.cfg)

	C.Info.Println("\nAdvisor is active! Your co-pilot is ready.")
	RenderNotes(a.store, a.names)
	a.printHelp()

	for {
		input, err := a.line.Prompt("(advisor) ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				C.Info.Println("\nGoodbye!")
				return nil
			}
			return errors.Wrap(err, "read line")
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		a.line.AppendHistory(input)
		cmd := strings.ToLower(strings.Fields(input)[0])

		switch cmd {
		case "log", "l":
			a.handleLog()
		case "reveal", "r":
			a.handleReveal()
		case "suggest", "s":
			a.handleSuggest()
		case "posterior", "p":
			a.handlePosterior()
		case "notes", "n":
			RenderNotes(a.store, a.names)
		case "hand", "ha":
			a.handleHand()
		case "help", "h":
			a.printHelp()
		case "quit", "q":
			C.Info.Println("Exiting advisor mode.")
			return nil
		default:
			C.Warn.Printf("Unknown command '%s'. Type 'help' for a list of commands.\n", cmd)
		}
	}
}

// handleLog records a full table turn: the guess, who passed, who showed
// what. The outcome is folded from this user's point of view only.
func (a *Advisor) handleLog() {
	C.Info.Println("\n--- Log a Game Turn ---")
	guesser := deck.Holder(a.promptForSelection("Who made the guess?", a.names))
	guess := a.promptForGuess()

	options := make([]string, len(a.names))
	copy(options, a.names)
	options = append(options, "No One")
	disproverIdx := a.promptForSelection("Who disproved the guess?", options)

	outcome := resolver.Outcome{
		Guess:       guess,
		Guesser:     guesser,
		DisprovedBy: deck.NoHolder,
		Revealed:    deck.NoCard,
	}
	guessWasSolution := false
	if disproverIdx < len(a.names) {
		outcome.DisprovedBy = deck.Holder(disproverIdx)
		if outcome.DisprovedBy == guesser {
			C.Warn.Println("A guesser cannot disprove their own guess.")
			return
		}
		if a.me == guesser || a.me == outcome.DisprovedBy {
			outcome.Revealed = a.promptForShownCard(guess)
		}
	} else if a.promptYesNo("Did the guesser go on to win with this exact triple?") {
		// The guess was the solution; there is nothing more to infer
		// about the guesser's hand.
		guessWasSolution = true
	}

	// Everyone between the guesser and the disprover passed; with no
	// disprover, everyone but the guesser did.
	for step := 1; step < a.numPlayers; step++ {
		seat := deck.Holder((int(guesser) + step) % a.numPlayers)
		if seat == outcome.DisprovedBy {
			break
		}
		outcome.CouldNot = append(outcome.CouldNot, seat)
	}

	if err := resolver.FoldForObserver(a.store, outcome, guessWasSolution); err != nil {
		a.reportEngineError(err)
		return
	}
	C.Info.Println("Turn logged. Here are your updated notes:")
	RenderNotes(a.store, a.names)
}

// handleReveal records a card shown directly to this user outside a normal
// turn.
func (a *Advisor) handleReveal() {
	C.Info.Println("\n--- Log a Revealed Card ---")
	seat := deck.Holder(a.promptForSelection("Which player revealed a card?", a.names))
	printCardList()
	card := a.promptForCard("Which card did they reveal? ", deck.Person, true)
	if err := a.store.AssertPositive(card, seat); err != nil {
		a.reportEngineError(err)
		return
	}
	C.Info.Println("Revealed card logged.")
	RenderNotes(a.store, a.names)
}

func (a *Advisor) handleSuggest() {
	C.Header.Println("\n--- Co-Pilot Recommendation ---")
	post, err := a.estimator.Posterior(a.store)
	if err != nil {
		if !errors.Is(err, posterior.ErrEstimationTimeout) {
			a.reportEngineError(err)
			return
		}
		C.Warn.Println("The posterior is a rough estimate this turn.")
	}
	if accusation, ready := a.brain.ChooseAccusation(a.store, post); ready {
		C.Yes.Printf("ACCUSE: %s\n", colorizeGuess(accusation))
		return
	}
	guess := a.brain.ChooseGuess(a.store, post)
	C.Info.Printf("Recommended guess: %s\n", colorizeGuess(guess))
}

func (a *Advisor) handlePosterior() {
	post, err := a.estimator.Posterior(a.store)
	if err != nil {
		if !errors.Is(err, posterior.ErrEstimationTimeout) {
			a.reportEngineError(err)
			return
		}
		C.Warn.Println("Sample budget exhausted; showing a best-effort estimate.")
	}
	RenderPosterior(post)
}

func (a *Advisor) handleHand() {
	C.Header.Println("\n--- Your Hand ---")
	for _, c := range a.hand {
		C.Info.Println(" - " + ColorizeCard(c))
	}
}

// promptForShownCard reads which of the three guessed cards was revealed.
func (a *Advisor) promptForShownCard(g deck.Guess) deck.Card {
	cards := g.Cards()
	options := make([]string, len(cards))
	for i, c := range cards {
		options[i] = c.String()
	}
	return cards[a.promptForSelection("Which card was shown?", options)]
}

func (a *Advisor) promptYesNo(prompt string) bool {
	for {
		input := strings.ToLower(a.promptForString(prompt + " (y/n): "))
		switch input {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		C.Warn.Println("Please answer y or n.")
	}
}

// reportEngineError surfaces a contradiction without killing the session.
// The store may now be tainted, so the user is told to double-check.
func (a *Advisor) reportEngineError(err error) {
	if errors.Is(err, knowledge.ErrContradiction) {
		C.No.Printf("CONTRADICTION: %v\n", err)
		C.Warn.Println("Something logged so far must be wrong. Review your entries; deductions may be unreliable.")
		return
	}
	a.log.Errorf("engine error: %v", err)
}

func (a *Advisor) printHelp() {
	C.Header.Println("\n--- Advisor Help ---")
	fmt.Println("Log events from your real-life game, and the engine will track everything for you.")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Command", "Alias", "Description"})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"log", "l", "Log a full game turn (guess and outcome)."},
		{"reveal", "r", "Log a single card revealed by a player."},
		{"suggest", "s", "Ask the co-pilot for the next guess or accusation."},
		{"posterior", "p", "Display the envelope probability table."},
		{"notes", "n", "Display the current detective notes grid."},
		{"hand", "ha", "Display the cards in your hand."},
		{"help", "h", "Show this help message."},
		{"quit", "q", "Exit advisor mode."},
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	C.Prompt.Print("\nEnter a command: ")
}
