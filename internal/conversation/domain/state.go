// Package domain provides core business rules for the conversation bounded context.
package domain

import (
	"fmt"
	"sort"
	"strings"
)

// State is a conversation lifecycle state.
type State string

const (
	StateGreeting        State = "GREETING"
	StateIntentDetection State = "INTENT_DETECTION"
	StateQualification   State = "QUALIFICATION"
	StateScoring         State = "SCORING"
	StateProofDelivery   State = "PROOF_DELIVERY"
	StateCallPush        State = "CALL_PUSH"
	StateHumanHandover   State = "HUMAN_HANDOVER"
	StateFollowUp        State = "FOLLOW_UP"
	StateExit            State = "EXIT"
	StatePark            State = "PARK"
)

// InitialState is where every new conversation starts.
const InitialState = StateGreeting

// transitions is the static adjacency set of the conversation state machine.
// HUMAN_HANDOVER is additionally reachable from every state (escalation
// override, see CanTransition); EXIT is terminal.
var transitions = map[State]map[State]bool{
	StateGreeting:        {StateIntentDetection: true},
	StateIntentDetection: {StateQualification: true},
	StateQualification:   {StateScoring: true},
	StateScoring: {
		StateProofDelivery: true,
		StateCallPush:      true,
		StateFollowUp:      true,
	},
	StateProofDelivery: {StateCallPush: true},
	StateCallPush: {
		StateFollowUp: true,
		StateExit:     true,
	},
	StateHumanHandover: {
		StateFollowUp: true,
		StateExit:     true,
	},
	StateFollowUp: {
		StateQualification: true,
		StateExit:          true,
		StatePark:          true,
	},
	StatePark: {
		StateFollowUp: true,
		StateExit:     true,
	},
	StateExit: {},
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether the state has no outgoing transitions.
func (s State) IsTerminal() bool {
	return s == StateExit
}

// CanTransition reports whether the edge from -> to is allowed.
// Escalation to HUMAN_HANDOVER is permitted from any state, including
// states that otherwise have no outgoing edges.
func CanTransition(from, to State) bool {
	if to == StateHumanHandover {
		return true
	}
	return transitions[from][to]
}

// AllowedTransitions returns the sorted set of states reachable from s
// through the static table (the implicit handover edge is not included).
func AllowedTransitions(s State) []State {
	allowed := make([]State, 0, len(transitions[s]))
	for to := range transitions[s] {
		allowed = append(allowed, to)
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })
	return allowed
}

// InvalidTransitionError reports an attempted edge that is not in the
// transition graph. It signals a logic error in the caller, not a
// retryable condition.
type InvalidTransitionError struct {
	From    State
	To      State
	Allowed []State
}

func (e *InvalidTransitionError) Error() string {
	names := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("invalid state transition: %s -> %s (allowed: %s)",
		e.From, e.To, strings.Join(names, ", "))
}

// ValidateTransition returns an *InvalidTransitionError when the edge
// from -> to is disallowed.
func ValidateTransition(from, to State) error {
	if CanTransition(from, to) {
		return nil
	}
	return &InvalidTransitionError{
		From:    from,
		To:      to,
		Allowed: AllowedTransitions(from),
	}
}
