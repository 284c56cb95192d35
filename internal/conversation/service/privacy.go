package service

import (
	"context"
	"errors"

	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/phone"
)

// LeadExport bundles everything stored about one lead, for data access
// requests.
type LeadExport struct {
	Lead          repository.Lead        `json:"lead"`
	Conversations []ConversationExport   `json:"conversations"`
	Scores        []repository.LeadScore `json:"scores,omitempty"`
	FollowUps     []repository.FollowUp  `json:"follow_ups,omitempty"`
}

type ConversationExport struct {
	Conversation repository.Conversation      `json:"conversation"`
	Messages     []repository.Message         `json:"messages"`
	Transitions  []repository.StateTransition `json:"transitions"`
}

// ExportLead returns all persisted data for a phone number.
func (s *Service) ExportLead(ctx context.Context, phoneNumber string) (LeadExport, error) {
	normalized := phone.NormalizeE164(phoneNumber)

	lead, err := s.store.GetLeadByPhone(ctx, normalized)
	if errors.Is(err, repository.ErrNotFound) {
		return LeadExport{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return LeadExport{}, err
	}

	export := LeadExport{Lead: lead}

	if conv, err := s.store.GetActiveConversationByLead(ctx, lead.ID); err == nil {
		messages, err := s.store.ListMessagesByConversation(ctx, conv.ID)
		if err != nil {
			return LeadExport{}, err
		}
		transitions, err := s.store.ListTransitions(ctx, conv.ID)
		if err != nil {
			return LeadExport{}, err
		}
		export.Conversations = append(export.Conversations, ConversationExport{
			Conversation: conv,
			Messages:     messages,
			Transitions:  transitions,
		})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return LeadExport{}, err
	}

	if score, err := s.store.GetLatestScoreByLead(ctx, lead.ID); err == nil {
		export.Scores = append(export.Scores, score)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return LeadExport{}, err
	}

	return export, nil
}

// EraseLead removes a lead and all dependent data, plus the cached
// session. Used for data erasure requests.
func (s *Service) EraseLead(ctx context.Context, phoneNumber string) error {
	normalized := phone.NormalizeE164(phoneNumber)

	if err := s.store.DeleteLeadByPhone(ctx, normalized); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("lead not found")
		}
		return err
	}

	if s.sessions != nil {
		if err := s.sessions.Delete(ctx, normalized); err != nil {
			s.log.Warn("session delete failed", "error", err)
		}
	}

	s.publish(ctx, events.LeadErased{
		BaseEvent:   events.NewBaseEvent(),
		PhoneNumber: normalized,
	})

	return nil
}
