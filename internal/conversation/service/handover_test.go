package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/platform/apperr"
)

func TestEscalateConversation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, nil)
	conv := seedConversation(store, lead.ID, domain.StateGreeting, nil)
	agent := repository.Agent{ID: uuid.New(), Name: "Dana", Email: "dana@example.com", IsAvailable: true}
	store.agents = append(store.agents, agent)

	assignment, err := svc.EscalateConversation(ctx, conv.ID, "")
	if err != nil {
		t.Fatalf("EscalateConversation: %v", err)
	}
	if assignment.AgentID == nil || *assignment.AgentID != agent.ID {
		t.Fatalf("agent = %v, want %s", assignment.AgentID, agent.ID)
	}

	updated, _ := store.GetConversation(ctx, conv.ID)
	if updated.CurrentState != domain.StateHumanHandover {
		t.Fatalf("state = %s, want HUMAN_HANDOVER", updated.CurrentState)
	}

	score, err := store.GetLatestScoreByLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("no score persisted: %v", err)
	}
	if !score.TriggeredHandover {
		t.Fatalf("escalation score did not flag the handover")
	}

	if len(store.transitions) != 1 || store.transitions[0].Trigger != "manual_escalation" {
		t.Fatalf("transitions = %+v, want one manual_escalation", store.transitions)
	}
}

func TestEscalateUnknownConversation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	_, err := svc.EscalateConversation(context.Background(), uuid.New(), "agent_request")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestAssignAndReleaseAgent(t *testing.T) {
	store := newFakeStore()
	svc, ch := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, nil)
	conv := seedConversation(store, lead.ID, domain.StateHumanHandover, nil)
	agent := repository.Agent{ID: uuid.New(), Name: "Dana", Email: "dana@example.com", IsAvailable: true}
	store.agents = append(store.agents, agent)

	assigned, err := svc.AssignAgent(ctx, conv.ID, agent.ID)
	if err != nil {
		t.Fatalf("AssignAgent: %v", err)
	}
	if assigned.IsBotActive {
		t.Fatalf("bot still active after takeover")
	}
	if assigned.AssignedAgentID == nil || *assigned.AssignedAgentID != agent.ID {
		t.Fatalf("assigned agent = %v, want %s", assigned.AssignedAgentID, agent.ID)
	}

	// While the agent owns the conversation the bot stays silent.
	res, err := svc.ProcessInboundMessage(ctx, fakePhone, "hello?", "")
	if err != nil {
		t.Fatalf("ProcessInboundMessage: %v", err)
	}
	if res.Outcome != domain.OutcomeHumanActive {
		t.Fatalf("outcome = %s, want human_active", res.Outcome)
	}
	if ch.count() != 0 {
		t.Fatalf("bot replied during agent control")
	}

	released, err := svc.ReleaseConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("ReleaseConversation: %v", err)
	}
	if !released.IsBotActive {
		t.Fatalf("bot not active after release")
	}
	// The assignment survives the release for auditability.
	if released.AssignedAgentID == nil || *released.AssignedAgentID != agent.ID {
		t.Fatalf("released agent = %v, want %s retained", released.AssignedAgentID, agent.ID)
	}
}

func TestAssignUnknownAgent(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	lead := seedLead(store, fakePhone, nil)
	conv := seedConversation(store, lead.ID, domain.StateHumanHandover, nil)

	_, err := svc.AssignAgent(context.Background(), conv.ID, uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}

	stored, _ := store.GetConversation(context.Background(), conv.ID)
	if !stored.IsBotActive {
		t.Fatalf("failed assignment silenced the bot")
	}
}

func TestGetHandoverContext(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, func(l *repository.Lead) {
		l.ProjectType = ptr("e-commerce")
	})
	conv := seedConversation(store, lead.ID, domain.StateHumanHandover, nil)

	store.messages = append(store.messages,
		repository.Message{ID: uuid.New(), ConversationID: conv.ID, Sender: domain.SenderLead, Content: "hi"},
		repository.Message{ID: uuid.New(), ConversationID: conv.ID, Sender: domain.SenderBot, Content: greetingReply},
	)
	store.transitions = append(store.transitions, repository.StateTransition{
		ID: uuid.New(), ConversationID: conv.ID,
		FromState: domain.StateScoring, ToState: domain.StateHumanHandover, Trigger: "high_score",
	})
	store.scores = append(store.scores, repository.LeadScore{
		ID: uuid.New(), LeadID: lead.ID, TotalScore: 82, Category: domain.ScoreHigh, TriggeredHandover: true,
	})

	hc, err := svc.GetHandoverContext(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetHandoverContext: %v", err)
	}
	if hc.Lead.ID != lead.ID {
		t.Fatalf("lead = %s, want %s", hc.Lead.ID, lead.ID)
	}
	if len(hc.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(hc.Messages))
	}
	if len(hc.Transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(hc.Transitions))
	}
	if hc.LatestScore == nil || hc.LatestScore.TotalScore != 82 {
		t.Fatalf("latest score = %+v, want total 82", hc.LatestScore)
	}
}

func TestGetHandoverContextWithoutScore(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	lead := seedLead(store, fakePhone, nil)
	conv := seedConversation(store, lead.ID, domain.StateGreeting, nil)

	hc, err := svc.GetHandoverContext(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("GetHandoverContext: %v", err)
	}
	if hc.LatestScore != nil {
		t.Fatalf("latest score = %+v, want nil", hc.LatestScore)
	}
}
