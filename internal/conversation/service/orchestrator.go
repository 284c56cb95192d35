package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/content"
	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/followup"
	"leadflow_backend/internal/conversation/intent"
	"leadflow_backend/internal/conversation/proof"
	"leadflow_backend/internal/conversation/qualification"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/conversation/scoring"
	"leadflow_backend/internal/conversation/session"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/phone"
)

// Canned replies. Free-text generation is a collaborator concern; the
// core speaks in fixed templates so behavior stays deterministic.
const (
	greetingReply = "Hi! Thanks for reaching out. I'm here to help you with your project. What are you looking to build?"

	qualificationStartReply = "Great! Let me ask you a few quick questions to understand your needs better. What type of project are you looking to build?"

	pricingDeferralReply = "Pricing is customized based on your specific needs. Let me connect you with our team to discuss this in detail."

	scoredWaitReply = "Thank you for the information. Our team will be in touch shortly."

	callPushReply = "Would you like to schedule a call to discuss your project in detail?"

	highScoreReply = "Thank you! Based on your requirements, I'd like to connect you with one of our senior team members who can discuss this in detail. They'll reach out to you shortly."

	mediumScoreReply = "Great! Let me share some relevant examples of our work. We've helped similar businesses achieve their goals."

	lowScoreReply = "Thank you for your interest! We'll follow up with you soon with more information about how we can help."

	defaultReply = "Thank you for your message. How can I help you today?"

	// fallbackReply is what the lead sees when processing fails
	// internally. Never an error message.
	fallbackReply = "Thanks for your message. Can you tell me more about what you're looking for?"
)

// ProcessResult is the outcome of one inbound message.
type ProcessResult struct {
	Outcome domain.Outcome
	Reply   string
}

// ProcessInboundMessage runs the full per-message orchestration:
// throttle, dedup, lead/conversation resolution, intent detection,
// state-conditioned processing and the outbound reply. Processing is
// serialized per phone number; different leads run in parallel.
func (s *Service) ProcessInboundMessage(ctx context.Context, phoneNumber, text, externalMessageID string) (ProcessResult, error) {
	normalized := phone.NormalizeE164(phoneNumber)

	release := s.locks.acquire(normalized)
	defer release()

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, normalized)
		if err != nil {
			s.log.ExternalCallFailed("redis", "rate_limit", err)
		} else if !allowed {
			s.log.RateLimitExceeded(normalized, "inbound_message")
			return ProcessResult{Outcome: domain.OutcomeRateLimited}, nil
		}
	}

	if externalMessageID != "" {
		if _, err := s.store.GetMessageByExternalID(ctx, externalMessageID); err == nil {
			return ProcessResult{Outcome: domain.OutcomeDuplicate}, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return ProcessResult{Outcome: domain.OutcomeError}, err
		}
	}

	lead, conv, err := s.resolveLeadConversation(ctx, normalized)
	if err != nil {
		return ProcessResult{Outcome: domain.OutcomeError}, err
	}

	log := s.log.WithPhone(normalized)

	// Human agent owns the conversation: record the message, stay
	// silent.
	if !conv.IsBotActive {
		if _, err := s.storeInbound(ctx, conv.ID, text, nil, externalMessageID); err != nil {
			return ProcessResult{Outcome: domain.OutcomeError}, err
		}
		return ProcessResult{Outcome: domain.OutcomeHumanActive}, nil
	}

	detected, _ := s.detector.Detect(ctx, text)
	log.Debug("intent detected", "intent", detected.Intent, "confidence", detected.Confidence)

	if _, err := s.storeInbound(ctx, conv.ID, text, &detected, externalMessageID); err != nil {
		return ProcessResult{Outcome: domain.OutcomeError}, err
	}
	if conv.MessageCount, err = s.store.IncrementMessageCount(ctx, conv.ID); err != nil {
		return ProcessResult{Outcome: domain.OutcomeError}, err
	}

	// The lead responded, so any scheduled re-engagement is stale.
	cancelled, err := s.store.CancelPendingFollowUps(ctx, lead.ID)
	if err != nil {
		return ProcessResult{Outcome: domain.OutcomeError}, err
	}
	if cancelled > 0 {
		log.Debug("pending follow-ups cancelled", "count", cancelled)
	}
	if last, err := s.store.GetLatestSentFollowUp(ctx, lead.ID); err == nil && last.RespondedAt == nil {
		if _, err := s.store.MarkFollowUpResponded(ctx, last.ID, s.now()); err != nil {
			log.Warn("mark follow-up responded failed", "error", err)
		}
	}

	// Pricing questions always route to a human, independent of state.
	if intent.IsPricingInquiry(text) {
		if err := s.sendReply(ctx, &conv, lead.PhoneNumber, pricingDeferralReply); err != nil {
			return ProcessResult{Outcome: domain.OutcomeError}, err
		}
		return ProcessResult{Outcome: domain.OutcomeReplied, Reply: pricingDeferralReply}, nil
	}

	reply, err := s.processByState(ctx, &lead, &conv, text)
	if err != nil {
		log.Error("state processing failed", "error", err, "state", string(conv.CurrentState))
		// The lead still gets a brand-safe reply.
		_ = s.sendReply(ctx, &conv, lead.PhoneNumber, fallbackReply)
		return ProcessResult{Outcome: domain.OutcomeError}, err
	}

	if err := s.sendReply(ctx, &conv, lead.PhoneNumber, reply); err != nil {
		return ProcessResult{Outcome: domain.OutcomeError}, err
	}

	s.cacheSession(ctx, normalized, lead, conv)

	return ProcessResult{Outcome: domain.OutcomeReplied, Reply: reply}, nil
}

func (s *Service) resolveLeadConversation(ctx context.Context, normalizedPhone string) (repository.Lead, repository.Conversation, error) {
	lead, err := s.store.GetLeadByPhone(ctx, normalizedPhone)
	if errors.Is(err, repository.ErrNotFound) {
		var country *string
		if iso := phone.CountryISO(normalizedPhone); iso != "" {
			country = &iso
		}
		lead, err = s.store.CreateLead(ctx, normalizedPhone, country)
		if err == nil {
			s.publish(ctx, events.LeadCreated{
				BaseEvent:   events.NewBaseEvent(),
				LeadID:      lead.ID,
				PhoneNumber: lead.PhoneNumber,
				Country:     strVal(lead.Country),
			})
		}
	}
	if err != nil {
		return repository.Lead{}, repository.Conversation{}, fmt.Errorf("resolve lead: %w", err)
	}

	conv, err := s.store.GetActiveConversationByLead(ctx, lead.ID)
	if errors.Is(err, repository.ErrNotFound) {
		conv, err = s.store.CreateConversation(ctx, lead.ID)
	}
	if err != nil {
		return repository.Lead{}, repository.Conversation{}, fmt.Errorf("resolve conversation: %w", err)
	}

	return lead, conv, nil
}

func (s *Service) storeInbound(ctx context.Context, conversationID uuid.UUID, text string, detected *intent.Result, externalID string) (repository.Message, error) {
	params := repository.CreateMessageParams{
		ConversationID: conversationID,
		Sender:         domain.SenderLead,
		Content:        text,
	}
	if detected != nil {
		params.DetectedIntent = &detected.Intent
		params.IntentConfidence = &detected.Confidence
	}
	if externalID != "" {
		params.ExternalMessageID = &externalID
	}
	return s.store.CreateMessage(ctx, params)
}

// sendReply enforces brevity and brand safety, persists the bot
// message and hands the text to the channel.
func (s *Service) sendReply(ctx context.Context, conv *repository.Conversation, phoneNumber, text string) error {
	text = content.EnforceBrevity(text, s.maxReplyLength)
	text = s.filter.Sanitize(text)

	if _, err := s.store.CreateMessage(ctx, repository.CreateMessageParams{
		ConversationID: conv.ID,
		Sender:         domain.SenderBot,
		Content:        text,
	}); err != nil {
		return fmt.Errorf("store bot message: %w", err)
	}

	count, err := s.store.IncrementMessageCount(ctx, conv.ID)
	if err != nil {
		return err
	}
	conv.MessageCount = count

	if err := s.channel.SendMessage(ctx, phoneNumber, text); err != nil {
		s.log.ExternalCallFailed("whatsapp", "send_message", err)
		return fmt.Errorf("channel send: %w", err)
	}
	return nil
}

func (s *Service) processByState(ctx context.Context, lead *repository.Lead, conv *repository.Conversation, text string) (string, error) {
	switch conv.CurrentState {
	case domain.StateGreeting:
		if err := s.transition(ctx, conv, domain.StateIntentDetection, "greeting_received"); err != nil {
			return "", err
		}
		return greetingReply, nil

	case domain.StateIntentDetection:
		if err := s.transition(ctx, conv, domain.StateQualification, "intent_detected"); err != nil {
			return "", err
		}
		return qualificationStartReply, nil

	case domain.StateQualification:
		return s.processQualification(ctx, lead, conv, text)

	case domain.StateScoring:
		return scoredWaitReply, nil

	case domain.StateProofDelivery:
		assetMsg, err := s.tryInjectAsset(ctx, lead, conv)
		if err != nil {
			s.log.Warn("asset injection failed", "error", err)
			assetMsg = ""
		}
		trigger := "no_proof_available"
		if assetMsg != "" {
			trigger = "proof_delivered"
		}
		if err := s.transition(ctx, conv, domain.StateCallPush, trigger); err != nil {
			return "", err
		}
		if assetMsg != "" {
			return assetMsg + "\n\n" + callPushReply, nil
		}
		return callPushReply, nil

	default:
		return defaultReply, nil
	}
}

func (s *Service) processQualification(ctx context.Context, lead *repository.Lead, conv *repository.Conversation, text string) (string, error) {
	q := qualification.Lead{
		ProjectType:          strVal(lead.ProjectType),
		Budget:               strVal(lead.Budget),
		BudgetNumeric:        lead.BudgetNumeric,
		Timeline:             strVal(lead.Timeline),
		BusinessType:         strVal(lead.BusinessType),
		BudgetAvoidanceCount: lead.BudgetAvoidanceCount,
	}

	step := qualification.ProcessMessage(&q, text)

	if step.AvoidanceDetected {
		count, err := s.store.IncrementBudgetAvoidance(ctx, lead.ID)
		if err != nil {
			return "", err
		}
		lead.BudgetAvoidanceCount = count
	}
	if step.Extracted != "" {
		updated, err := s.store.UpdateLeadQualification(ctx, lead.ID,
			strPtr(q.ProjectType), strPtr(q.Budget), q.BudgetNumeric,
			strPtr(q.Timeline), strPtr(q.BusinessType))
		if err != nil {
			return "", err
		}
		*lead = updated
	}

	if qualification.IsComplete(&q) {
		if err := s.transition(ctx, conv, domain.StateScoring, "qualification_complete"); err != nil {
			return "", err
		}
		return s.scoreAndDispatch(ctx, lead, conv)
	}

	reply := qualification.QuestionText(step.NextQuestion)

	// Credibility content rides along with a qualification question
	// when something relevant is available. Best-effort only.
	if assetMsg, err := s.tryInjectAsset(ctx, lead, conv); err == nil && assetMsg != "" {
		reply = reply + "\n\n" + assetMsg
	}

	return reply, nil
}

// scoreAndDispatch scores the qualified lead and routes by category:
// HIGH escalates to a human, MEDIUM continues to proof delivery, LOW
// goes to the follow-up track.
func (s *Service) scoreAndDispatch(ctx context.Context, lead *repository.Lead, conv *repository.Conversation) (string, error) {
	result := scoring.Score(scoring.Input{
		BudgetNumeric:        lead.BudgetNumeric,
		BudgetAvoidanceCount: lead.BudgetAvoidanceCount,
		Timeline:             strVal(lead.Timeline),
		ProjectType:          strVal(lead.ProjectType),
		CountryISO:           strVal(lead.Country),
		MessageCount:         conv.MessageCount,
		ResponsePattern:      "normal",
	})

	s.log.Info("lead scored",
		"lead_id", lead.ID.String(),
		"total", result.Total,
		"category", string(result.Category),
		"reasoning", result.Reasoning,
	)

	s.publish(ctx, events.LeadQualified{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		ConversationID: conv.ID,
		TotalScore:     result.Total,
		Category:       string(result.Category),
	})

	switch result.Category {
	case domain.ScoreHigh:
		if _, err := s.TriggerHandover(ctx, conv, lead, result, "high_score"); err != nil {
			return "", err
		}
		return highScoreReply, nil

	case domain.ScoreMedium:
		if err := s.persistScore(ctx, lead.ID, result, false); err != nil {
			return "", err
		}
		if err := s.transition(ctx, conv, domain.StateProofDelivery, "medium_score"); err != nil {
			return "", err
		}
		return mediumScoreReply, nil

	default:
		if err := s.persistScore(ctx, lead.ID, result, false); err != nil {
			return "", err
		}
		if err := s.transition(ctx, conv, domain.StateFollowUp, "low_score"); err != nil {
			return "", err
		}
		if _, err := s.ScheduleFollowUp(ctx, lead.ID, domain.ScenarioInactive, 1); err != nil {
			return "", err
		}
		return lowScoreReply, nil
	}
}

func (s *Service) persistScore(ctx context.Context, leadID uuid.UUID, result scoring.Result, triggeredHandover bool) error {
	_, err := s.store.CreateScore(ctx, repository.CreateScoreParams{
		LeadID:            leadID,
		TotalScore:        result.Total,
		BudgetScore:       result.Breakdown.Budget,
		TimelineScore:     result.Breakdown.Timeline,
		ClarityScore:      result.Breakdown.Clarity,
		CountryScore:      result.Breakdown.Country,
		BehaviorScore:     result.Breakdown.Behavior,
		Category:          result.Category,
		Reasoning:         result.Reasoning,
		TriggeredHandover: triggeredHandover,
	})
	return err
}

// transition validates the edge, persists the state change with its
// audit entry atomically, and updates the in-memory conversation.
func (s *Service) transition(ctx context.Context, conv *repository.Conversation, to domain.State, trigger string) error {
	if err := domain.ValidateTransition(conv.CurrentState, to); err != nil {
		return err
	}

	updated, err := s.store.TransitionState(ctx, conv.ID, conv.CurrentState, to, trigger)
	if err != nil {
		return fmt.Errorf("transition %s -> %s: %w", conv.CurrentState, to, err)
	}

	s.log.StateTransition(conv.ID.String(), string(conv.CurrentState), string(to), trigger)
	*conv = updated
	return nil
}

// tryInjectAsset selects and records a proof asset for the
// conversation. Returns the formatted message, or empty when injection
// is not appropriate or nothing relevant exists.
func (s *Service) tryInjectAsset(ctx context.Context, lead *repository.Lead, conv *repository.Conversation) (string, error) {
	projectType := strVal(lead.ProjectType)
	if !s.selector.ShouldInject(conv.ProofAssetCount, projectType, conv.CurrentState) {
		return "", nil
	}

	stored, err := s.store.ListAssets(ctx, true)
	if err != nil {
		return "", err
	}
	if len(stored) == 0 {
		return "", nil
	}

	candidates := make([]proof.Asset, len(stored))
	for i, a := range stored {
		candidates[i] = proof.Asset{
			ID:          a.ID,
			Type:        a.AssetType,
			ProjectType: a.ProjectType,
			Title:       a.Title,
			Description: strVal(a.Description),
			ContentURL:  strVal(a.ContentURL),
			ContentText: strVal(a.ContentText),
			UsageCount:  a.UsageCount,
			LastUsedAt:  a.LastUsedAt,
			Active:      a.IsActive,
		}
	}

	selected, ok := s.selector.Select(projectType, candidates)
	if !ok {
		return "", nil
	}

	if err := s.store.RecordAssetInjection(ctx, selected.ID, conv.ID, s.now()); err != nil {
		return "", err
	}
	conv.ProofAssetCount++

	s.publish(ctx, events.ProofAssetDelivered{
		BaseEvent:      events.NewBaseEvent(),
		ConversationID: conv.ID,
		AssetID:        selected.ID,
		AssetTitle:     selected.Title,
		ProjectType:    projectType,
	})

	return proof.FormatMessage(selected), nil
}

func (s *Service) cacheSession(ctx context.Context, phoneNumber string, lead repository.Lead, conv repository.Conversation) {
	if s.sessions == nil {
		return
	}
	err := s.sessions.Set(ctx, phoneNumber, session.Session{
		LeadID:         lead.ID,
		ConversationID: conv.ID,
		CurrentState:   conv.CurrentState,
		ProjectType:    strVal(lead.ProjectType),
		Budget:         strVal(lead.Budget),
		Timeline:       strVal(lead.Timeline),
		BusinessType:   strVal(lead.BusinessType),
	})
	if err != nil {
		s.log.Warn("session cache write failed", "error", err)
	}
}

// IsLeadInactive reports whether the lead's last message is old enough
// to start the INACTIVE follow-up scenario.
func (s *Service) IsLeadInactive(lastMessageAt time.Time) bool {
	return followup.IsInactive(lastMessageAt, s.now())
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
