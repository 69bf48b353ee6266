package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/DominicAntonacci/clue-guessing/internal/deck"
	"github.com/DominicAntonacci/clue-guessing/internal/knowledge"
	"github.com/DominicAntonacci/clue-guessing/internal/posterior"
)

// C holds pre-configured color objects for printing to the console.
var C = struct {
	Yes, No, Maybe, Info, Warn, Header, Prompt *color.Color
}{
	Yes:    color.New(color.FgGreen),
	No:     color.New(color.FgRed),
	Maybe:  color.New(color.FgYellow),
	Info:   color.New(color.FgCyan),
	Warn:   color.New(color.FgHiYellow),
	Header: color.New(color.FgWhite, color.Bold),
	Prompt: color.New(color.FgHiWhite),
}

// SuspectColors maps person cards to their traditional token colors.
var SuspectColors = map[deck.Card]*color.Color{
	deck.MissScarlet:    color.New(color.FgRed),
	deck.ColonelMustard: color.New(color.FgYellow),
	deck.MrsWhite:       color.New(color.FgWhite),
	deck.MrGreen:        color.New(color.FgGreen),
	deck.MrsPeacock:     color.New(color.FgBlue),
	deck.ProfessorPlum:  color.New(color.FgMagenta),
}

// ColorizeCard returns a card's name as a colored string if it is a person.
func ColorizeCard(c deck.Card) string {
	if col, ok := SuspectColors[c]; ok {
		return col.Sprint(c.String())
	}
	return c.String()
}

// RenderNotes displays one observer's knowledge grid in a formatted table:
// one row per card, one column per seat plus the envelope.
func RenderNotes(v knowledge.View, names []string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Detective Notes")
	header := table.Row{"ID", "Card", "Type"}
	for _, name := range names {
		header = append(header, name)
	}
	header = append(header, "Envelope")
	t.AppendHeader(header)

	for i, c := range deck.BuildDeck() {
		if i > 0 && c.Category() != deck.Card(i-1).Category() {
			t.AppendSeparator()
		}
		row := table.Row{i + 1, ColorizeCard(c), c.Category().String()}
		for seat := range names {
			row = append(row, holderSymbol(v, c, deck.Holder(seat)))
		}
		row = append(row, holderSymbol(v, c, deck.Envelope))
		t.AppendRow(row)
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Options.SeparateRows = false
	t.Style().Title.Align = text.AlignCenter
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	t.Render()
}

func holderSymbol(v knowledge.View, c deck.Card, h deck.Holder) string {
	if holder, ok := v.HolderOf(c); ok {
		if holder == h {
			return C.Yes.Sprint("✔")
		}
		return C.No.Sprint("✖")
	}
	if v.IsNegative(c, h) {
		return C.No.Sprint("✖")
	}
	return C.Maybe.Sprint("?")
}

// RenderPosterior displays the envelope distribution, the most likely card
// per category marked.
func RenderPosterior(p posterior.Posterior) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	title := "Envelope Posterior"
	if !p.Exact {
		title += " (sampled)"
	}
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Card", "Type", "Probability", ""})

	for _, cat := range deck.Categories() {
		top, _ := p.TopCandidate(cat)
		for _, c := range deck.CardsInCategory(cat) {
			marker := ""
			if c == top {
				marker = C.Yes.Sprint("◀")
			}
			t.AppendRow(table.Row{ColorizeCard(c), cat.String(), fmt.Sprintf("%6.2f%%", p.Prob[c]*100), marker})
		}
		if cat != deck.Room {
			t.AppendSeparator()
		}
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.Render()
}

// RenderSummary displays an aggregated simulation batch.
func RenderSummary(seats []string, wins map[string]int, draws, games int, meanTurns float64, meanAccuracy map[string]float64) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%d games, %.1f turns on average, %d draws", games, meanTurns, draws))
	t.AppendHeader(table.Row{"Seat", "Wins", "Win %", "Mean Accuracy"})
	for _, seat := range seats {
		t.AppendRow(table.Row{
			seat,
			wins[seat],
			fmt.Sprintf("%5.1f%%", float64(wins[seat])/float64(games)*100),
			fmt.Sprintf("%.3f", meanAccuracy[seat]),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Title.Align = text.AlignCenter
	t.Render()
}

// --- Prompting ---

func (a *Advisor) promptForString(prompt string) string {
	for {
		C.Prompt.Print(prompt)
		input, err := a.line.Prompt("")
		if err != nil {
			C.Info.Println("\nGoodbye!")
			os.Exit(0)
		}
		trimmed := strings.TrimSpace(input)
		if trimmed != "" {
			a.line.AppendHistory(trimmed)
			return trimmed
		}
	}
}

func (a *Advisor) promptForInt(prompt string, min, max int) int {
	for {
		input := a.promptForString(prompt)
		num, err := strconv.Atoi(input)
		if err != nil || num < min || num > max {
			C.Warn.Printf("Invalid input. Please enter a number between %d and %d.\n", min, max)
			continue
		}
		return num
	}
}

func (a *Advisor) promptForSelection(prompt string, options []string) int {
	for {
		C.Header.Println("\n" + prompt)
		for i, opt := range options {
			fmt.Printf(" %2d: %s\n", i+1, opt)
		}
		input := a.promptForString("Enter number or name: ")
		if num, err := strconv.Atoi(input); err == nil && num >= 1 && num <= len(options) {
			return num - 1
		}
		for i, opt := range options {
			if strings.EqualFold(opt, input) {
				return i
			}
		}
		C.Warn.Println("Invalid selection.")
	}
}

// promptForCard reads one card, by number or name, optionally restricted to
// a category.
func (a *Advisor) promptForCard(prompt string, cat deck.Category, anyCategory bool) deck.Card {
	for {
		input := a.promptForString(prompt)
		c := deck.NoCard
		if num, err := strconv.Atoi(input); err == nil && num >= 1 && num <= deck.NumCards {
			c = deck.Card(num - 1)
		} else if byName, ok := deck.CardByName(input); ok {
			c = byName
		} else {
			for _, candidate := range deck.BuildDeck() {
				if strings.EqualFold(candidate.String(), input) {
					c = candidate
					break
				}
			}
		}
		if c == deck.NoCard {
			C.Warn.Printf("Error: Card '%s' not found.\n", input)
			continue
		}
		if !anyCategory && c.Category() != cat {
			C.Warn.Printf("%s is a %s, expected a %s.\n", c, c.Category(), cat)
			continue
		}
		return c
	}
}

// promptForHand reads exactly n distinct cards.
func (a *Advisor) promptForHand(n int) []deck.Card {
	printCardList()
	var cards []deck.Card
	seen := make(map[deck.Card]struct{})
	for len(cards) < n {
		c := a.promptForCard(fmt.Sprintf("Enter card %d of %d: ", len(cards)+1, n), 0, true)
		if _, dup := seen[c]; dup {
			C.Warn.Printf("You have already entered '%s'.\n", c)
			continue
		}
		seen[c] = struct{}{}
		cards = append(cards, c)
		C.Info.Printf(" -> Added: %s\n", ColorizeCard(c))
	}
	return cards
}

// promptForGuess reads a full person/weapon/room triple.
func (a *Advisor) promptForGuess() deck.Guess {
	printCardList()
	return deck.Guess{
		Person: a.promptForCard("Person: ", deck.Person, false),
		Weapon: a.promptForCard("Weapon: ", deck.Weapon, false),
		Room:   a.promptForCard("Room: ", deck.Room, false),
	}
}

func printCardList() {
	C.Header.Println("\n--- Card List ---")
	for i, c := range deck.BuildDeck() {
		fmt.Printf("%2d: %-18s", i+1, c.String())
		if (i+1)%3 == 0 {
			fmt.Println()
		}
	}
	fmt.Println()
}
