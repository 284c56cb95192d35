package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/conversation/scoring"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/apperr"
)

// Assignment is the result of a handover: the conversation moved to
// human control and, when one was available, an agent was picked.
type Assignment struct {
	ConversationID uuid.UUID
	LeadID         uuid.UUID
	TotalScore     int
	AgentID        *uuid.UUID
}

// TriggerHandover escalates a conversation to a human: persists the
// score with the handover flag, transitions to HUMAN_HANDOVER and
// notifies agents. Escalation is valid from any state.
func (s *Service) TriggerHandover(ctx context.Context, conv *repository.Conversation, lead *repository.Lead, result scoring.Result, reason string) (Assignment, error) {
	if err := s.persistScore(ctx, lead.ID, result, true); err != nil {
		return Assignment{}, fmt.Errorf("persist handover score: %w", err)
	}

	if err := s.transition(ctx, conv, domain.StateHumanHandover, reason); err != nil {
		return Assignment{}, err
	}

	assignment := Assignment{
		ConversationID: conv.ID,
		LeadID:         lead.ID,
		TotalScore:     result.Total,
	}

	agents, err := s.store.ListAvailableAgents(ctx)
	if err != nil {
		s.log.Warn("agent lookup failed", "error", err)
	} else if len(agents) > 0 {
		assignment.AgentID = &agents[0].ID
	}

	s.publish(ctx, events.HandoverTriggered{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		ConversationID: conv.ID,
		TotalScore:     result.Total,
		Reason:         reason,
		AgentID:        assignment.AgentID,
	})

	s.log.Info("handover triggered",
		"conversation_id", conv.ID.String(),
		"lead_id", lead.ID.String(),
		"score", result.Total,
		"reason", reason,
	)

	return assignment, nil
}

// EscalateConversation is the explicit, out-of-band escalation path
// (an agent or operator forces a handover regardless of score).
func (s *Service) EscalateConversation(ctx context.Context, conversationID uuid.UUID, reason string) (Assignment, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return Assignment{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return Assignment{}, err
	}

	lead, err := s.store.GetLead(ctx, conv.LeadID)
	if err != nil {
		return Assignment{}, err
	}

	result := scoring.Score(scoring.Input{
		BudgetNumeric:        lead.BudgetNumeric,
		BudgetAvoidanceCount: lead.BudgetAvoidanceCount,
		Timeline:             strVal(lead.Timeline),
		ProjectType:          strVal(lead.ProjectType),
		CountryISO:           strVal(lead.Country),
		MessageCount:         conv.MessageCount,
		ResponsePattern:      "normal",
	})

	if reason == "" {
		reason = "manual_escalation"
	}
	return s.TriggerHandover(ctx, &conv, &lead, result, reason)
}

// AssignAgent puts a human agent in control of a conversation. The bot
// goes silent until the conversation is released.
func (s *Service) AssignAgent(ctx context.Context, conversationID, agentID uuid.UUID) (repository.Conversation, error) {
	if _, err := s.store.GetAgent(ctx, agentID); errors.Is(err, repository.ErrNotFound) {
		return repository.Conversation{}, apperr.NotFound("agent not found")
	} else if err != nil {
		return repository.Conversation{}, err
	}

	conv, err := s.store.SetBotActive(ctx, conversationID, false, &agentID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Conversation{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return repository.Conversation{}, err
	}

	s.publish(ctx, events.AgentTookOver{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conversationID,
		AgentID:        agentID,
	})

	return conv, nil
}

// ReleaseConversation hands control back to the bot after an agent is
// done.
func (s *Service) ReleaseConversation(ctx context.Context, conversationID uuid.UUID) (repository.Conversation, error) {
	conv, err := s.store.SetBotActive(ctx, conversationID, true, nil)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Conversation{}, apperr.NotFound("conversation not found")
	}
	return conv, err
}

// HandoverContext is everything an agent needs to pick up a
// conversation mid-flight.
type HandoverContext struct {
	Conversation repository.Conversation      `json:"conversation"`
	Lead         repository.Lead              `json:"lead"`
	Messages     []repository.Message         `json:"messages"`
	LatestScore  *repository.LeadScore        `json:"latest_score,omitempty"`
	Transitions  []repository.StateTransition `json:"transitions"`
}

// GetHandoverContext assembles the full context for a conversation:
// history, lead data, score breakdown and the state audit trail.
func (s *Service) GetHandoverContext(ctx context.Context, conversationID uuid.UUID) (HandoverContext, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return HandoverContext{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return HandoverContext{}, err
	}

	lead, err := s.store.GetLead(ctx, conv.LeadID)
	if err != nil {
		return HandoverContext{}, err
	}

	messages, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return HandoverContext{}, err
	}

	transitions, err := s.store.ListTransitions(ctx, conversationID)
	if err != nil {
		return HandoverContext{}, err
	}

	hc := HandoverContext{
		Conversation: conv,
		Lead:         lead,
		Messages:     messages,
		Transitions:  transitions,
	}

	if score, err := s.store.GetLatestScoreByLead(ctx, lead.ID); err == nil {
		hc.LatestScore = &score
	} else if !errors.Is(err, repository.ErrNotFound) {
		return HandoverContext{}, err
	}

	return hc, nil
}
