package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/conversation/session"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"
)

func TestExportLead(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, func(l *repository.Lead) {
		l.ProjectType = ptr("website")
	})
	conv := seedConversation(store, lead.ID, domain.StateQualification, nil)
	store.messages = append(store.messages,
		repository.Message{ID: uuid.New(), ConversationID: conv.ID, Sender: domain.SenderLead, Content: "hi"},
	)
	store.scores = append(store.scores, repository.LeadScore{
		ID: uuid.New(), LeadID: lead.ID, TotalScore: 55, Category: domain.ScoreMedium,
	})

	export, err := svc.ExportLead(ctx, fakePhone)
	if err != nil {
		t.Fatalf("ExportLead: %v", err)
	}
	if export.Lead.ID != lead.ID {
		t.Fatalf("lead = %s, want %s", export.Lead.ID, lead.ID)
	}
	if len(export.Conversations) != 1 || len(export.Conversations[0].Messages) != 1 {
		t.Fatalf("export missing conversation history: %+v", export.Conversations)
	}
	if len(export.Scores) != 1 || export.Scores[0].TotalScore != 55 {
		t.Fatalf("export missing scores: %+v", export.Scores)
	}
}

func TestExportUnknownLead(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	_, err := svc.ExportLead(context.Background(), fakePhone)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestEraseLeadRemovesEverything(t *testing.T) {
	store := newFakeStore()
	sessions := newFakeSessions()
	svc := New(Options{
		Store:    store,
		Channel:  &fakeChannel{},
		Sessions: sessions,
		Logger:   logger.New("test"),
	})
	ctx := context.Background()

	lead := seedLead(store, fakePhone, nil)
	seedConversation(store, lead.ID, domain.StateQualification, nil)
	_ = sessions.Set(ctx, fakePhone, session.Session{LeadID: lead.ID})

	if err := svc.EraseLead(ctx, fakePhone); err != nil {
		t.Fatalf("EraseLead: %v", err)
	}

	if _, err := store.GetLeadByPhone(ctx, fakePhone); err == nil {
		t.Fatalf("lead still present after erasure")
	}
	if len(store.conversations) != 0 {
		t.Fatalf("conversations survived erasure")
	}
	if _, ok, _ := sessions.Get(ctx, fakePhone); ok {
		t.Fatalf("session survived erasure")
	}

	if err := svc.EraseLead(ctx, fakePhone); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("second erase: err = %v, want not found", err)
	}
}
