// Package events is a synchronous in-process event bus. The game loop
// publishes what happens at the table; renderers and aggregators subscribe.
package events

import (
	"github.com/DominicAntonacci/clue-guessing/internal/deck"
)

// Event is a marker interface for all event types.
type Event interface{}

// Listener defines an interface for any component that wants to react to events.
type Listener interface {
	HandleEvent(e Event)
}

// Manager (or Event Bus) manages listeners and dispatches events.
type Manager struct {
	listeners []Listener
}

func NewManager() *Manager {
	return &Manager{}
}
func (em *Manager) Subscribe(l Listener) {
	em.listeners = append(em.listeners, l)
}
func (em *Manager) Publish(e Event) {
	for _, l := range em.listeners {
		l.HandleEvent(e)
	}
}

// --- Event Types for Rendering ---

type GameReadyEvent struct {
	NumPlayers int
	HandSizes  []int
}

type TurnStartEvent struct {
	TurnNumber int
	Seat       deck.Holder
}

type GuessMadeEvent struct {
	Seat  deck.Holder
	Guess deck.Guess
}

type DisprovedEvent struct {
	Guesser     deck.Holder
	DisprovedBy deck.Holder
	Revealed    deck.Card // Ground truth, for logging
}

type NotDisprovedEvent struct {
	Guesser deck.Holder
	Guess   deck.Guess
}

type AccusationMadeEvent struct {
	Seat       deck.Holder
	Accusation deck.Guess
	IsCorrect  bool
}

// PlayerEliminatedEvent is published when a wrong accusation knocks a seat
// out of the turn rotation. The seat keeps answering guesses with its hand.
type PlayerEliminatedEvent struct {
	Seat deck.Holder
}

type GameOverEvent struct {
	Winner   deck.Holder // NoHolder when the turn cap was reached
	Solution deck.Guess
	Turns    int
}
