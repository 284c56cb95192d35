// Package followup holds the re-engagement policy: when each attempt
// fires and what it says. Persistence and delivery live elsewhere.
package followup

import (
	"fmt"
	"time"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/platform/apperr"
)

// intervals maps attempt number to the delay from the triggering event.
var intervals = map[int]time.Duration{
	1: 2 * time.Hour,
	2: 24 * time.Hour,
	3: 3 * 24 * time.Hour,
}

// inactivityThreshold is how long a lead must stay silent before the
// INACTIVE scenario applies.
const inactivityThreshold = 2 * time.Hour

// genericMessage is the fallback for an unknown scenario/attempt pair.
const genericMessage = "Following up on your inquiry."

var messages = map[domain.FollowUpScenario]map[int]string{
	domain.ScenarioInactive: {
		1: "Hi! Just checking in. Are you still interested in discussing your project?",
		2: "Hello! I wanted to follow up on your project inquiry. Let me know if you'd like to continue our conversation.",
		3: "This is my last follow-up. If you're still interested in your project, feel free to reach out anytime!",
	},
	domain.ScenarioCallNotBooked: {
		1: "Hi! I noticed you haven't booked a call yet. Would you like to schedule a time to discuss your project?",
		2: "Just following up on scheduling a call. Our team is ready to discuss your project whenever you're available.",
		3: "Last reminder about scheduling a call. Let us know if you'd like to connect with our team!",
	},
	domain.ScenarioCallMissed: {
		1: "Hi! We missed you on our scheduled call. Would you like to reschedule?",
		2: "Following up on our missed call. We're happy to find another time that works for you.",
		3: "Final follow-up about rescheduling. Let us know if you'd still like to connect!",
	},
	domain.ScenarioProposalSent: {
		1: "Hi! Just checking if you had a chance to review the proposal we sent?",
		2: "Following up on the proposal. Do you have any questions or need clarification on anything?",
		3: "Last follow-up on our proposal. We're here if you need any additional information!",
	},
}

// ScheduledTime returns when the given attempt should fire, relative to
// the triggering event. Attempts outside 1..3 are a policy violation,
// never clamped.
func ScheduledTime(base time.Time, attempt int) (time.Time, error) {
	interval, ok := intervals[attempt]
	if !ok {
		return time.Time{}, apperr.PolicyViolation(
			fmt.Sprintf("invalid follow-up attempt %d, must be 1-%d", attempt, domain.MaxFollowUpAttempts))
	}
	return base.Add(interval), nil
}

// Message returns the template for a scenario/attempt pair, falling back
// to a generic line for unknown combinations.
func Message(scenario domain.FollowUpScenario, attempt int) string {
	if msg, ok := messages[scenario][attempt]; ok {
		return msg
	}
	return genericMessage
}

// IsInactive reports whether a lead whose last message arrived at
// lastMessageAt counts as inactive at now.
func IsInactive(lastMessageAt, now time.Time) bool {
	return now.Sub(lastMessageAt) >= inactivityThreshold
}

// NextAttempt returns the attempt number that follows current, or false
// when the chain is exhausted.
func NextAttempt(current int) (int, bool) {
	if current >= domain.MaxFollowUpAttempts {
		return 0, false
	}
	return current + 1, true
}
