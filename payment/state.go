// Package payment drives one checkout attempt through the hosted payment
// flow: place the order, fetch the gateway URL, open the payment window, and
// reconcile whichever outcome arrives first (an explicit gateway result or a
// silently closed window) into durable checkout state.
package payment

import "errors"

// AttemptState is one state of a checkout attempt
type AttemptState string

const (
	StateIdle        AttemptState = "IDLE"
	StateOrderPlaced AttemptState = "ORDER_PLACED"
	StateAwaitingURL AttemptState = "AWAITING_GATEWAY_URL"
	StateWindowOpen  AttemptState = "WINDOW_OPEN"
	StateSucceeded   AttemptState = "SUCCEEDED"
	StateFailed      AttemptState = "FAILED"
	StateAbandoned   AttemptState = "ABANDONED_CLOSED"
)

// Transition defines a valid state change and what triggers it
type Transition struct {
	From    AttemptState
	To      AttemptState
	Trigger string
}

// validTransitions is the authoritative attempt state machine definition
var validTransitions = []Transition{
	// A fresh digital checkout places the order first
	{From: StateIdle, To: StateOrderPlaced, Trigger: "order placed"},
	// Retry and pay-now re-enter with an existing order, skipping placement
	{From: StateIdle, To: StateAwaitingURL, Trigger: "retry with existing order"},
	{From: StateOrderPlaced, To: StateAwaitingURL, Trigger: "pending order persisted"},
	{From: StateAwaitingURL, To: StateWindowOpen, Trigger: "gateway URL received, window opened"},
	{From: StateAwaitingURL, To: StateFailed, Trigger: "gateway URL fetch failed or window blocked"},
	{From: StateWindowOpen, To: StateSucceeded, Trigger: "gateway reported success"},
	{From: StateWindowOpen, To: StateFailed, Trigger: "gateway reported failure"},
	{From: StateWindowOpen, To: StateAbandoned, Trigger: "window closed without a gateway message"},
}

type transitionKey struct {
	From AttemptState
	To   AttemptState
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To}] = true
	}
	return m
}()

// CanTransition checks whether an attempt may move between the two states
func CanTransition(from, to AttemptState) error {
	if transitionMap[transitionKey{from, to}] {
		return nil
	}
	return errors.New("invalid attempt transition: " + string(from) + " -> " + string(to))
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(state AttemptState) []AttemptState {
	var nexts []AttemptState
	seen := map[AttemptState]bool{}
	for _, t := range validTransitions {
		if t.From == state && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether the state ends the attempt
func IsTerminal(state AttemptState) bool {
	return state == StateSucceeded || state == StateFailed || state == StateAbandoned
}

// AllTransitions returns the full state machine for documentation
func AllTransitions() []Transition {
	return validTransitions
}
