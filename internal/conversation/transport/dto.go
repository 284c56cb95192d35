// Package transport defines the request and response DTOs for the
// conversation module's HTTP surface, decoupling the wire format from
// repository rows.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/conversation/service"
)

// ---- WhatsApp Cloud API webhook payload ----

// WebhookPayload is the envelope Meta posts to the webhook endpoint.
// Only the fields the bot consumes are modeled.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []WebhookContact `json:"contacts"`
	Messages         []WebhookMessage `json:"messages"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// ---- Request DTOs ----

type TakeoverRequest struct {
	AgentID uuid.UUID `json:"agentId" validate:"required"`
}

type EscalateRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=200"`
}

type CreateAssetRequest struct {
	AssetType   string  `json:"assetType" validate:"required,oneof=PORTFOLIO CASE_STUDY TESTIMONIAL"`
	ProjectType string  `json:"projectType" validate:"required,min=1,max=50"`
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	ContentURL  *string `json:"contentUrl,omitempty" validate:"omitempty,url,max=500"`
	ContentText *string `json:"contentText,omitempty" validate:"omitempty,max=2000"`
}

type SetAssetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type BlacklistRequest struct {
	Phrase string `json:"phrase" validate:"required,min=1,max=100"`
}

// ---- Response DTOs ----

type LeadResponse struct {
	ID                   uuid.UUID `json:"id"`
	PhoneNumber          string    `json:"phoneNumber"`
	Country              *string   `json:"country,omitempty"`
	ProjectType          *string   `json:"projectType,omitempty"`
	Budget               *string   `json:"budget,omitempty"`
	BudgetNumeric        *int      `json:"budgetNumeric,omitempty"`
	Timeline             *string   `json:"timeline,omitempty"`
	BusinessType         *string   `json:"businessType,omitempty"`
	BudgetAvoidanceCount int       `json:"budgetAvoidanceCount"`
	CreatedAt            time.Time `json:"createdAt"`
}

type ConversationResponse struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          uuid.UUID  `json:"leadId"`
	CurrentState    string     `json:"currentState"`
	PreviousState   *string    `json:"previousState,omitempty"`
	IsBotActive     bool       `json:"isBotActive"`
	AssignedAgentID *uuid.UUID `json:"assignedAgentId,omitempty"`
	MessageCount    int        `json:"messageCount"`
	ProofAssetCount int        `json:"proofAssetCount"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

type MessageResponse struct {
	ID               uuid.UUID `json:"id"`
	Sender           string    `json:"sender"`
	Content          string    `json:"content"`
	DetectedIntent   *string   `json:"detectedIntent,omitempty"`
	IntentConfidence *float64  `json:"intentConfidence,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type ScoreResponse struct {
	TotalScore        int       `json:"totalScore"`
	BudgetScore       int       `json:"budgetScore"`
	TimelineScore     int       `json:"timelineScore"`
	ClarityScore      int       `json:"clarityScore"`
	CountryScore      int       `json:"countryScore"`
	BehaviorScore     int       `json:"behaviorScore"`
	Category          string    `json:"category"`
	Reasoning         string    `json:"reasoning"`
	TriggeredHandover bool      `json:"triggeredHandover"`
	CreatedAt         time.Time `json:"createdAt"`
}

type TransitionResponse struct {
	FromState string    `json:"fromState"`
	ToState   string    `json:"toState"`
	Trigger   string    `json:"trigger"`
	CreatedAt time.Time `json:"createdAt"`
}

type HandoverContextResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Lead         LeadResponse         `json:"lead"`
	Messages     []MessageResponse    `json:"messages"`
	LatestScore  *ScoreResponse       `json:"latestScore,omitempty"`
	Transitions  []TransitionResponse `json:"transitions"`
}

type AssignmentResponse struct {
	ConversationID uuid.UUID  `json:"conversationId"`
	LeadID         uuid.UUID  `json:"leadId"`
	TotalScore     int        `json:"totalScore"`
	AgentID        *uuid.UUID `json:"agentId,omitempty"`
}

type AssetResponse struct {
	ID          uuid.UUID  `json:"id"`
	AssetType   string     `json:"assetType"`
	ProjectType string     `json:"projectType"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	ContentURL  *string    `json:"contentUrl,omitempty"`
	ContentText *string    `json:"contentText,omitempty"`
	UsageCount  int        `json:"usageCount"`
	LastUsedAt  *time.Time `json:"lastUsedAt,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type FollowUpResponse struct {
	ID             uuid.UUID  `json:"id"`
	LeadID         uuid.UUID  `json:"leadId"`
	Scenario       string     `json:"scenario"`
	AttemptNumber  int        `json:"attemptNumber"`
	ScheduledAt    time.Time  `json:"scheduledAt"`
	MessageContent string     `json:"messageContent"`
	SentAt         *time.Time `json:"sentAt,omitempty"`
	Cancelled      bool       `json:"cancelled"`
	RespondedAt    *time.Time `json:"respondedAt,omitempty"`
}

type LeadExportResponse struct {
	Lead          LeadResponse                 `json:"lead"`
	Conversations []ConversationExportResponse `json:"conversations"`
	Scores        []ScoreResponse              `json:"scores,omitempty"`
	FollowUps     []FollowUpResponse           `json:"followUps,omitempty"`
}

type ConversationExportResponse struct {
	Conversation ConversationResponse `json:"conversation"`
	Messages     []MessageResponse    `json:"messages"`
	Transitions  []TransitionResponse `json:"transitions"`
}

// ---- Mappers ----

func ToLeadResponse(l repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                   l.ID,
		PhoneNumber:          l.PhoneNumber,
		Country:              l.Country,
		ProjectType:          l.ProjectType,
		Budget:               l.Budget,
		BudgetNumeric:        l.BudgetNumeric,
		Timeline:             l.Timeline,
		BusinessType:         l.BusinessType,
		BudgetAvoidanceCount: l.BudgetAvoidanceCount,
		CreatedAt:            l.CreatedAt,
	}
}

func ToConversationResponse(c repository.Conversation) ConversationResponse {
	resp := ConversationResponse{
		ID:              c.ID,
		LeadID:          c.LeadID,
		CurrentState:    string(c.CurrentState),
		IsBotActive:     c.IsBotActive,
		AssignedAgentID: c.AssignedAgentID,
		MessageCount:    c.MessageCount,
		ProofAssetCount: c.ProofAssetCount,
		StartedAt:       c.StartedAt,
		EndedAt:         c.EndedAt,
	}
	if c.PreviousState != nil {
		prev := string(*c.PreviousState)
		resp.PreviousState = &prev
	}
	return resp
}

func ToMessageResponses(messages []repository.Message) []MessageResponse {
	out := make([]MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = MessageResponse{
			ID:               m.ID,
			Sender:           string(m.Sender),
			Content:          m.Content,
			DetectedIntent:   m.DetectedIntent,
			IntentConfidence: m.IntentConfidence,
			CreatedAt:        m.CreatedAt,
		}
	}
	return out
}

func ToScoreResponse(s repository.LeadScore) ScoreResponse {
	return ScoreResponse{
		TotalScore:        s.TotalScore,
		BudgetScore:       s.BudgetScore,
		TimelineScore:     s.TimelineScore,
		ClarityScore:      s.ClarityScore,
		CountryScore:      s.CountryScore,
		BehaviorScore:     s.BehaviorScore,
		Category:          string(s.Category),
		Reasoning:         s.Reasoning,
		TriggeredHandover: s.TriggeredHandover,
		CreatedAt:         s.CreatedAt,
	}
}

func ToTransitionResponses(transitions []repository.StateTransition) []TransitionResponse {
	out := make([]TransitionResponse, len(transitions))
	for i, tr := range transitions {
		out[i] = TransitionResponse{
			FromState: string(tr.FromState),
			ToState:   string(tr.ToState),
			Trigger:   tr.Trigger,
			CreatedAt: tr.CreatedAt,
		}
	}
	return out
}

func ToHandoverContextResponse(hc service.HandoverContext) HandoverContextResponse {
	resp := HandoverContextResponse{
		Conversation: ToConversationResponse(hc.Conversation),
		Lead:         ToLeadResponse(hc.Lead),
		Messages:     ToMessageResponses(hc.Messages),
		Transitions:  ToTransitionResponses(hc.Transitions),
	}
	if hc.LatestScore != nil {
		score := ToScoreResponse(*hc.LatestScore)
		resp.LatestScore = &score
	}
	return resp
}

func ToAssignmentResponse(a service.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ConversationID: a.ConversationID,
		LeadID:         a.LeadID,
		TotalScore:     a.TotalScore,
		AgentID:        a.AgentID,
	}
}

func ToAssetResponse(a repository.ProofAsset) AssetResponse {
	return AssetResponse{
		ID:          a.ID,
		AssetType:   string(a.AssetType),
		ProjectType: a.ProjectType,
		Title:       a.Title,
		Description: a.Description,
		ContentURL:  a.ContentURL,
		ContentText: a.ContentText,
		UsageCount:  a.UsageCount,
		LastUsedAt:  a.LastUsedAt,
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt,
	}
}

func ToAssetResponses(assets []repository.ProofAsset) []AssetResponse {
	out := make([]AssetResponse, len(assets))
	for i, a := range assets {
		out[i] = ToAssetResponse(a)
	}
	return out
}

func ToFollowUpResponse(fu repository.FollowUp) FollowUpResponse {
	return FollowUpResponse{
		ID:             fu.ID,
		LeadID:         fu.LeadID,
		Scenario:       string(fu.Scenario),
		AttemptNumber:  fu.AttemptNumber,
		ScheduledAt:    fu.ScheduledAt,
		MessageContent: fu.MessageContent,
		SentAt:         fu.SentAt,
		Cancelled:      fu.Cancelled,
		RespondedAt:    fu.RespondedAt,
	}
}

func ToFollowUpResponses(followUps []repository.FollowUp) []FollowUpResponse {
	out := make([]FollowUpResponse, len(followUps))
	for i, fu := range followUps {
		out[i] = ToFollowUpResponse(fu)
	}
	return out
}

func ToLeadExportResponse(export service.LeadExport) LeadExportResponse {
	resp := LeadExportResponse{
		Lead:      ToLeadResponse(export.Lead),
		Scores:    make([]ScoreResponse, 0, len(export.Scores)),
		FollowUps: ToFollowUpResponses(export.FollowUps),
	}
	for _, s := range export.Scores {
		resp.Scores = append(resp.Scores, ToScoreResponse(s))
	}
	for _, conv := range export.Conversations {
		resp.Conversations = append(resp.Conversations, ConversationExportResponse{
			Conversation: ToConversationResponse(conv.Conversation),
			Messages:     ToMessageResponses(conv.Messages),
			Transitions:  ToTransitionResponses(conv.Transitions),
		})
	}
	return resp
}
