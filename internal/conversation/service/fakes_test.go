package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/conversation/session"
)

// fakeStore is an in-memory Store for service tests. It mirrors the
// repository's semantics where they matter: the optimistic state check
// on transitions, the atomic follow-up claim and first-write-wins
// qualification updates.
type fakeStore struct {
	mu sync.Mutex

	leads         map[uuid.UUID]repository.Lead
	conversations map[uuid.UUID]repository.Conversation
	messages      []repository.Message
	scores        []repository.LeadScore
	followUps     []repository.FollowUp
	transitions   []repository.StateTransition
	assets        map[uuid.UUID]repository.ProofAsset
	agents        []repository.Agent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:         make(map[uuid.UUID]repository.Lead),
		conversations: make(map[uuid.UUID]repository.Conversation),
		assets:        make(map[uuid.UUID]repository.ProofAsset),
	}
}

func (f *fakeStore) GetLeadByPhone(_ context.Context, phone string) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.PhoneNumber == phone {
			return l, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (f *fakeStore) GetLead(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) CreateLead(_ context.Context, phone string, country *string) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l := repository.Lead{ID: uuid.New(), PhoneNumber: phone, Country: country, CreatedAt: time.Now()}
	f.leads[l.ID] = l
	return l, nil
}

func (f *fakeStore) UpdateLeadQualification(_ context.Context, id uuid.UUID, projectType, budget *string, budgetNumeric *int, timeline, businessType *string) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if l.ProjectType == nil {
		l.ProjectType = projectType
	}
	if l.Budget == nil {
		l.Budget = budget
		l.BudgetNumeric = budgetNumeric
	}
	if l.Timeline == nil {
		l.Timeline = timeline
	}
	if l.BusinessType == nil {
		l.BusinessType = businessType
	}
	f.leads[id] = l
	return l, nil
}

func (f *fakeStore) IncrementBudgetAvoidance(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.leads[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	l.BudgetAvoidanceCount++
	f.leads[id] = l
	return l.BudgetAvoidanceCount, nil
}

func (f *fakeStore) DeleteLeadByPhone(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, l := range f.leads {
		if l.PhoneNumber == phone {
			delete(f.leads, id)
			for cid, c := range f.conversations {
				if c.LeadID == id {
					delete(f.conversations, cid)
				}
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStore) GetConversation(_ context.Context, id uuid.UUID) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return repository.Conversation{}, repository.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetActiveConversationByLead(_ context.Context, leadID uuid.UUID) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conversations {
		if c.LeadID == leadID && c.EndedAt == nil && c.CurrentState != domain.StateExit {
			return c, nil
		}
	}
	return repository.Conversation{}, repository.ErrNotFound
}

func (f *fakeStore) CreateConversation(_ context.Context, leadID uuid.UUID) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := repository.Conversation{
		ID:           uuid.New(),
		LeadID:       leadID,
		CurrentState: domain.InitialState,
		IsBotActive:  true,
		StartedAt:    time.Now(),
	}
	f.conversations[c.ID] = c
	return c, nil
}

func (f *fakeStore) TransitionState(_ context.Context, conversationID uuid.UUID, from, to domain.State, trigger string) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[conversationID]
	if !ok || c.CurrentState != from {
		return repository.Conversation{}, repository.ErrNotFound
	}
	prev := c.CurrentState
	c.PreviousState = &prev
	c.CurrentState = to
	if to == domain.StateExit {
		now := time.Now()
		c.EndedAt = &now
	}
	f.conversations[conversationID] = c
	f.transitions = append(f.transitions, repository.StateTransition{
		ID:             uuid.New(),
		ConversationID: conversationID,
		FromState:      from,
		ToState:        to,
		Trigger:        trigger,
		CreatedAt:      time.Now(),
	})
	return c, nil
}

func (f *fakeStore) IncrementMessageCount(_ context.Context, id uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	c.MessageCount++
	f.conversations[id] = c
	return c.MessageCount, nil
}

func (f *fakeStore) SetBotActive(_ context.Context, id uuid.UUID, botActive bool, agentID *uuid.UUID) (repository.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return repository.Conversation{}, repository.ErrNotFound
	}
	c.IsBotActive = botActive
	if agentID != nil {
		c.AssignedAgentID = agentID
	}
	f.conversations[id] = c
	return c, nil
}

func (f *fakeStore) ListTransitions(_ context.Context, conversationID uuid.UUID) ([]repository.StateTransition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.StateTransition
	for _, tr := range f.transitions {
		if tr.ConversationID == conversationID {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMessage(_ context.Context, params repository.CreateMessageParams) (repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := repository.Message{
		ID:                uuid.New(),
		ConversationID:    params.ConversationID,
		Sender:            params.Sender,
		Content:           params.Content,
		DetectedIntent:    params.DetectedIntent,
		IntentConfidence:  params.IntentConfidence,
		ExternalMessageID: params.ExternalMessageID,
		CreatedAt:         time.Now(),
	}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeStore) GetMessageByExternalID(_ context.Context, externalID string) (repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ExternalMessageID != nil && *m.ExternalMessageID == externalID {
			return m, nil
		}
	}
	return repository.Message{}, repository.ErrNotFound
}

func (f *fakeStore) ListMessagesByConversation(_ context.Context, conversationID uuid.UUID) ([]repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateScore(_ context.Context, params repository.CreateScoreParams) (repository.LeadScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc := repository.LeadScore{
		ID:                uuid.New(),
		LeadID:            params.LeadID,
		TotalScore:        params.TotalScore,
		BudgetScore:       params.BudgetScore,
		TimelineScore:     params.TimelineScore,
		ClarityScore:      params.ClarityScore,
		CountryScore:      params.CountryScore,
		BehaviorScore:     params.BehaviorScore,
		Category:          params.Category,
		Reasoning:         params.Reasoning,
		TriggeredHandover: params.TriggeredHandover,
		CreatedAt:         time.Now(),
	}
	f.scores = append(f.scores, sc)
	return sc, nil
}

func (f *fakeStore) GetLatestScoreByLead(_ context.Context, leadID uuid.UUID) (repository.LeadScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.scores) - 1; i >= 0; i-- {
		if f.scores[i].LeadID == leadID {
			return f.scores[i], nil
		}
	}
	return repository.LeadScore{}, repository.ErrNotFound
}

func (f *fakeStore) CreateFollowUp(_ context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fu := repository.FollowUp{
		ID:             uuid.New(),
		LeadID:         params.LeadID,
		Scenario:       params.Scenario,
		AttemptNumber:  params.AttemptNumber,
		ScheduledAt:    params.ScheduledAt,
		MessageContent: params.MessageContent,
		CreatedAt:      time.Now(),
	}
	f.followUps = append(f.followUps, fu)
	return fu, nil
}

func (f *fakeStore) GetFollowUp(_ context.Context, id uuid.UUID) (repository.FollowUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fu := range f.followUps {
		if fu.ID == id {
			return fu, nil
		}
	}
	return repository.FollowUp{}, repository.ErrNotFound
}

func (f *fakeStore) CancelPendingFollowUps(_ context.Context, leadID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for i, fu := range f.followUps {
		if fu.LeadID == leadID && fu.SentAt == nil && !fu.Cancelled {
			f.followUps[i].Cancelled = true
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListDueFollowUps(_ context.Context, now time.Time) ([]repository.FollowUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.FollowUp
	for _, fu := range f.followUps {
		if fu.SentAt == nil && !fu.Cancelled && !fu.ScheduledAt.After(now) {
			out = append(out, fu)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkFollowUpSent(_ context.Context, id uuid.UUID, sentAt time.Time) (repository.FollowUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, fu := range f.followUps {
		if fu.ID == id && fu.SentAt == nil && !fu.Cancelled {
			f.followUps[i].SentAt = &sentAt
			return f.followUps[i], nil
		}
	}
	return repository.FollowUp{}, repository.ErrNotFound
}

func (f *fakeStore) MarkFollowUpResponded(_ context.Context, id uuid.UUID, respondedAt time.Time) (repository.FollowUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, fu := range f.followUps {
		if fu.ID == id {
			f.followUps[i].RespondedAt = &respondedAt
			return f.followUps[i], nil
		}
	}
	return repository.FollowUp{}, repository.ErrNotFound
}

func (f *fakeStore) GetLatestSentFollowUp(_ context.Context, leadID uuid.UUID) (repository.FollowUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.followUps) - 1; i >= 0; i-- {
		fu := f.followUps[i]
		if fu.LeadID == leadID && fu.SentAt != nil {
			return fu, nil
		}
	}
	return repository.FollowUp{}, repository.ErrNotFound
}

func (f *fakeStore) CreateAsset(_ context.Context, params repository.CreateAssetParams) (repository.ProofAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := repository.ProofAsset{
		ID:          uuid.New(),
		AssetType:   params.AssetType,
		ProjectType: params.ProjectType,
		Title:       params.Title,
		Description: params.Description,
		ContentURL:  params.ContentURL,
		ContentText: params.ContentText,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	f.assets[a.ID] = a
	return a, nil
}

func (f *fakeStore) GetAsset(_ context.Context, id uuid.UUID) (repository.ProofAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return repository.ProofAsset{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) ListAssets(_ context.Context, activeOnly bool) ([]repository.ProofAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ProofAsset
	for _, a := range f.assets {
		if !activeOnly || a.IsActive {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) SetAssetActive(_ context.Context, id uuid.UUID, active bool) (repository.ProofAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	if !ok {
		return repository.ProofAsset{}, repository.ErrNotFound
	}
	a.IsActive = active
	f.assets[id] = a
	return a, nil
}

func (f *fakeStore) RecordAssetInjection(_ context.Context, assetID, conversationID uuid.UUID, usedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[assetID]
	if !ok {
		return repository.ErrNotFound
	}
	a.UsageCount++
	a.LastUsedAt = &usedAt
	f.assets[assetID] = a
	c, ok := f.conversations[conversationID]
	if !ok {
		return repository.ErrNotFound
	}
	c.ProofAssetCount++
	f.conversations[conversationID] = c
	return nil
}

func (f *fakeStore) ListAvailableAgents(_ context.Context) ([]repository.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Agent
	for _, a := range f.agents {
		if a.IsAvailable {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) GetAgent(_ context.Context, id uuid.UUID) (repository.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return repository.Agent{}, repository.ErrNotFound
}

// fakeChannel records outbound sends.
type fakeChannel struct {
	mu    sync.Mutex
	sends []sentMessage
	err   error
}

type sentMessage struct {
	Phone string
	Text  string
}

func (f *fakeChannel) SendMessage(_ context.Context, phoneNumber, text string) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMessage{Phone: phoneNumber, Text: text})
	return nil
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func (f *fakeChannel) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sends[len(f.sends)-1]
}

// fakeLimiter denies after a configured number of calls. Zero value
// allows everything.
type fakeLimiter struct {
	mu      sync.Mutex
	allowed int
	calls   int
	strict  bool
}

func (f *fakeLimiter) Allow(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !f.strict {
		return true, nil
	}
	return f.calls <= f.allowed, nil
}

// fakeSessions is an in-memory SessionStore.
type fakeSessions struct {
	mu   sync.Mutex
	data map[string]session.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: make(map[string]session.Session)}
}

func (f *fakeSessions) Get(_ context.Context, phone string) (session.Session, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.data[phone]
	return s, ok, nil
}

func (f *fakeSessions) Set(_ context.Context, phone string, sess session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[phone] = sess
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, phone)
	return nil
}
