package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/content"
	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/followup"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/apperr"
)

// ScheduleFollowUp queues a re-engagement attempt for a lead. The
// scheduled time is derived from the policy intervals; attempts past
// the cap are rejected, never clamped.
func (s *Service) ScheduleFollowUp(ctx context.Context, leadID uuid.UUID, scenario domain.FollowUpScenario, attempt int) (repository.FollowUp, error) {
	scheduledAt, err := followup.ScheduledTime(s.now(), attempt)
	if err != nil {
		s.log.Warn("follow-up rejected", "lead_id", leadID.String(), "attempt", attempt)
		return repository.FollowUp{}, err
	}

	fu, err := s.store.CreateFollowUp(ctx, repository.CreateFollowUpParams{
		LeadID:         leadID,
		Scenario:       scenario,
		AttemptNumber:  attempt,
		ScheduledAt:    scheduledAt,
		MessageContent: followup.Message(scenario, attempt),
	})
	if err != nil {
		return repository.FollowUp{}, fmt.Errorf("create follow-up: %w", err)
	}

	s.publish(ctx, events.FollowUpScheduled{
		BaseEvent:   events.NewBaseEvent(),
		FollowUpID:  fu.ID,
		LeadID:      leadID,
		Scenario:    string(scenario),
		Attempt:     attempt,
		ScheduledAt: scheduledAt,
	})

	return fu, nil
}

// GetDueFollowUps returns follow-ups ready to be dispatched.
func (s *Service) GetDueFollowUps(ctx context.Context) ([]repository.FollowUp, error) {
	return s.store.ListDueFollowUps(ctx, s.now())
}

// SendFollowUp claims and delivers one due follow-up. The claim
// (flipping sent_at) is atomic, so overlapping dispatch runs cannot
// double-send; losing the claim is a silent no-op. A send failure after
// the claim is logged and tolerated as at-least-once territory.
func (s *Service) SendFollowUp(ctx context.Context, id uuid.UUID) error {
	fu, err := s.store.MarkFollowUpSent(ctx, id, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		// Already claimed by another run, or cancelled after the scan.
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim follow-up: %w", err)
	}

	lead, err := s.store.GetLead(ctx, fu.LeadID)
	if err != nil {
		return fmt.Errorf("load lead for follow-up: %w", err)
	}

	text := content.EnforceBrevity(fu.MessageContent, s.maxReplyLength)
	text = s.filter.Sanitize(text)

	if conv, err := s.store.GetActiveConversationByLead(ctx, lead.ID); err == nil {
		if _, err := s.store.CreateMessage(ctx, repository.CreateMessageParams{
			ConversationID: conv.ID,
			Sender:         domain.SenderBot,
			Content:        text,
		}); err != nil {
			s.log.Warn("store follow-up message failed", "error", err)
		}
	}

	if err := s.channel.SendMessage(ctx, lead.PhoneNumber, text); err != nil {
		s.log.ExternalCallFailed("whatsapp", "send_follow_up", err)
		return fmt.Errorf("send follow-up: %w", err)
	}

	s.publish(ctx, events.FollowUpSent{
		BaseEvent:  events.NewBaseEvent(),
		FollowUpID: fu.ID,
		LeadID:     fu.LeadID,
		Attempt:    fu.AttemptNumber,
	})

	return nil
}

// ScheduleNextAttempt is the progression hook: called when a sent
// follow-up's response window has elapsed without a reply. It queues
// the next attempt in the same scenario, or reports exhaustion via a
// policy violation once the chain is used up.
func (s *Service) ScheduleNextAttempt(ctx context.Context, followUpID uuid.UUID) (repository.FollowUp, error) {
	fu, err := s.store.GetFollowUp(ctx, followUpID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.FollowUp{}, apperr.NotFound("follow-up not found")
	}
	if err != nil {
		return repository.FollowUp{}, err
	}

	if fu.SentAt == nil {
		return repository.FollowUp{}, apperr.Validation("follow-up has not been sent yet")
	}
	if fu.RespondedAt != nil {
		return repository.FollowUp{}, apperr.Conflict("lead already responded to this follow-up")
	}

	next, ok := followup.NextAttempt(fu.AttemptNumber)
	if !ok {
		return repository.FollowUp{}, apperr.PolicyViolation("follow-up attempts exhausted")
	}

	return s.ScheduleFollowUp(ctx, fu.LeadID, fu.Scenario, next)
}
