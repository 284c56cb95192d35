// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a first message from an unknown phone
// number creates a lead.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	PhoneNumber string    `json:"phoneNumber"`
	Country     string    `json:"country,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadQualified is published when all qualification fields are
// collected and the lead has been scored.
type LeadQualified struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	ConversationID uuid.UUID `json:"conversationId"`
	TotalScore     int       `json:"totalScore"`
	Category       string    `json:"category"`
}

func (e LeadQualified) EventName() string { return "leads.lead.qualified" }

// LeadErased is published when a data erasure request removes a lead.
type LeadErased struct {
	BaseEvent
	PhoneNumber string `json:"phoneNumber"`
}

func (e LeadErased) EventName() string { return "leads.lead.erased" }

// =============================================================================
// Conversation Domain Events
// =============================================================================

// HandoverTriggered is published when a conversation escalates to a
// human agent, either by a HIGH score or an explicit escalation.
type HandoverTriggered struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	ConversationID uuid.UUID  `json:"conversationId"`
	TotalScore     int        `json:"totalScore"`
	Reason         string     `json:"reason"`
	AgentID        *uuid.UUID `json:"agentId,omitempty"`
}

func (e HandoverTriggered) EventName() string { return "conversations.handover.triggered" }

// AgentTookOver is published when a human agent claims a conversation.
type AgentTookOver struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	AgentID        uuid.UUID `json:"agentId"`
}

func (e AgentTookOver) EventName() string { return "conversations.agent.took_over" }

// ProofAssetDelivered is published when a proof asset is injected into
// a conversation.
type ProofAssetDelivered struct {
	BaseEvent
	ConversationID uuid.UUID `json:"conversationId"`
	AssetID        uuid.UUID `json:"assetId"`
	AssetTitle     string    `json:"assetTitle"`
	ProjectType    string    `json:"projectType"`
}

func (e ProofAssetDelivered) EventName() string { return "conversations.proof_asset.delivered" }

// =============================================================================
// Follow-up Domain Events
// =============================================================================

// FollowUpScheduled is published when a re-engagement attempt is
// queued.
type FollowUpScheduled struct {
	BaseEvent
	FollowUpID  uuid.UUID `json:"followUpId"`
	LeadID      uuid.UUID `json:"leadId"`
	Scenario    string    `json:"scenario"`
	Attempt     int       `json:"attempt"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

func (e FollowUpScheduled) EventName() string { return "followups.followup.scheduled" }

// FollowUpSent is published after a due follow-up went out on the
// channel.
type FollowUpSent struct {
	BaseEvent
	FollowUpID uuid.UUID `json:"followUpId"`
	LeadID     uuid.UUID `json:"leadId"`
	Attempt    int       `json:"attempt"`
}

func (e FollowUpSent) EventName() string { return "followups.followup.sent" }
