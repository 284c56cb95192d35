// Package service orchestrates the conversation lifecycle: inbound
// message processing, qualification, scoring, handover, proof delivery
// and follow-up scheduling.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/content"
	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/intent"
	"leadflow_backend/internal/conversation/proof"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/conversation/session"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/logger"
)

// Store is the persistence surface the service needs. Satisfied by
// *repository.Repository; tests substitute a fake.
type Store interface {
	GetLeadByPhone(ctx context.Context, phone string) (repository.Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	CreateLead(ctx context.Context, phone string, country *string) (repository.Lead, error)
	UpdateLeadQualification(ctx context.Context, id uuid.UUID, projectType, budget *string, budgetNumeric *int, timeline, businessType *string) (repository.Lead, error)
	IncrementBudgetAvoidance(ctx context.Context, id uuid.UUID) (int, error)
	DeleteLeadByPhone(ctx context.Context, phone string) error

	GetConversation(ctx context.Context, id uuid.UUID) (repository.Conversation, error)
	GetActiveConversationByLead(ctx context.Context, leadID uuid.UUID) (repository.Conversation, error)
	CreateConversation(ctx context.Context, leadID uuid.UUID) (repository.Conversation, error)
	TransitionState(ctx context.Context, conversationID uuid.UUID, from, to domain.State, trigger string) (repository.Conversation, error)
	IncrementMessageCount(ctx context.Context, id uuid.UUID) (int, error)
	SetBotActive(ctx context.Context, id uuid.UUID, botActive bool, agentID *uuid.UUID) (repository.Conversation, error)
	ListTransitions(ctx context.Context, conversationID uuid.UUID) ([]repository.StateTransition, error)

	CreateMessage(ctx context.Context, params repository.CreateMessageParams) (repository.Message, error)
	GetMessageByExternalID(ctx context.Context, externalID string) (repository.Message, error)
	ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]repository.Message, error)

	CreateScore(ctx context.Context, params repository.CreateScoreParams) (repository.LeadScore, error)
	GetLatestScoreByLead(ctx context.Context, leadID uuid.UUID) (repository.LeadScore, error)

	CreateFollowUp(ctx context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error)
	GetFollowUp(ctx context.Context, id uuid.UUID) (repository.FollowUp, error)
	CancelPendingFollowUps(ctx context.Context, leadID uuid.UUID) (int, error)
	ListDueFollowUps(ctx context.Context, now time.Time) ([]repository.FollowUp, error)
	MarkFollowUpSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (repository.FollowUp, error)
	MarkFollowUpResponded(ctx context.Context, id uuid.UUID, respondedAt time.Time) (repository.FollowUp, error)
	GetLatestSentFollowUp(ctx context.Context, leadID uuid.UUID) (repository.FollowUp, error)

	CreateAsset(ctx context.Context, params repository.CreateAssetParams) (repository.ProofAsset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (repository.ProofAsset, error)
	ListAssets(ctx context.Context, activeOnly bool) ([]repository.ProofAsset, error)
	SetAssetActive(ctx context.Context, id uuid.UUID, active bool) (repository.ProofAsset, error)
	RecordAssetInjection(ctx context.Context, assetID, conversationID uuid.UUID, usedAt time.Time) error

	ListAvailableAgents(ctx context.Context) ([]repository.Agent, error)
	GetAgent(ctx context.Context, id uuid.UUID) (repository.Agent, error)
}

// ChannelSender delivers outbound text to the messaging channel.
type ChannelSender interface {
	SendMessage(ctx context.Context, phoneNumber, text string) error
}

// SessionStore caches hot conversation context. Optional; nil disables
// caching.
type SessionStore interface {
	Get(ctx context.Context, phone string) (session.Session, bool, error)
	Set(ctx context.Context, phone string, sess session.Session) error
	Delete(ctx context.Context, phone string) error
}

// RateLimiter throttles inbound traffic per phone. Optional; nil
// disables throttling.
type RateLimiter interface {
	Allow(ctx context.Context, phone string) (bool, error)
}

// Service wires the conversation core together.
type Service struct {
	store    Store
	channel  ChannelSender
	detector intent.Detector
	selector *proof.Selector
	filter   *content.Filter
	sessions SessionStore
	limiter  RateLimiter
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time

	maxReplyLength int
	locks          keyedLocks
}

type Options struct {
	Store          Store
	Channel        ChannelSender
	Detector       intent.Detector
	Filter         *content.Filter
	Sessions       SessionStore
	Limiter        RateLimiter
	Bus            events.Bus
	Logger         *logger.Logger
	Clock          func() time.Time
	MaxReplyLength int
}

func New(opts Options) *Service {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	filter := opts.Filter
	if filter == nil {
		filter = content.NewFilter()
	}
	maxLen := opts.MaxReplyLength
	if maxLen <= 0 {
		maxLen = content.DefaultMaxLength
	}

	return &Service{
		store:          opts.Store,
		channel:        opts.Channel,
		detector:       intent.NewGatedDetector(opts.Detector),
		selector:       proof.NewSelector(now),
		filter:         filter,
		sessions:       opts.Sessions,
		limiter:        opts.Limiter,
		bus:            opts.Bus,
		log:            opts.Logger,
		now:            now,
		maxReplyLength: maxLen,
	}
}

// Filter exposes the content filter for the admin blacklist API.
func (s *Service) Filter() *content.Filter {
	return s.filter
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}
