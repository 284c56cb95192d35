package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/platform/apperr"
)

func TestScheduleFollowUpDerivesTime(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	lead := seedLead(store, fakePhone, nil)

	fu, err := svc.ScheduleFollowUp(context.Background(), lead.ID, domain.ScenarioCallNotBooked, 2)
	if err != nil {
		t.Fatalf("ScheduleFollowUp: %v", err)
	}
	if want := testNow.Add(24 * time.Hour); !fu.ScheduledAt.Equal(want) {
		t.Fatalf("scheduled at %v, want %v", fu.ScheduledAt, want)
	}
	if fu.MessageContent == "" {
		t.Fatalf("follow-up has no message content")
	}
}

func TestScheduleFollowUpRejectsAttemptPastCap(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	lead := seedLead(store, fakePhone, nil)

	_, err := svc.ScheduleFollowUp(context.Background(), lead.ID, domain.ScenarioInactive, 4)
	if !apperr.Is(err, apperr.KindPolicyViolation) {
		t.Fatalf("err = %v, want policy violation", err)
	}
	if len(store.followUps) != 0 {
		t.Fatalf("rejected attempt was persisted")
	}
}

func TestSendFollowUpClaimsExactlyOnce(t *testing.T) {
	store := newFakeStore()
	svc, ch := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, nil)
	seedConversation(store, lead.ID, domain.StateFollowUp, nil)

	fu, err := svc.ScheduleFollowUp(ctx, lead.ID, domain.ScenarioInactive, 1)
	if err != nil {
		t.Fatalf("ScheduleFollowUp: %v", err)
	}

	if err := svc.SendFollowUp(ctx, fu.ID); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if ch.count() != 1 {
		t.Fatalf("sends = %d, want 1", ch.count())
	}

	// A second dispatch of the same follow-up loses the claim silently.
	if err := svc.SendFollowUp(ctx, fu.ID); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if ch.count() != 1 {
		t.Fatalf("sends = %d after replay, want 1", ch.count())
	}

	stored, _ := store.GetFollowUp(ctx, fu.ID)
	if stored.SentAt == nil {
		t.Fatalf("sent_at not set")
	}
}

func TestSendFollowUpSkipsCancelled(t *testing.T) {
	store := newFakeStore()
	svc, ch := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, nil)

	fu := repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, AttemptNumber: 1, Scenario: domain.ScenarioInactive, Cancelled: true}
	store.followUps = append(store.followUps, fu)

	if err := svc.SendFollowUp(ctx, fu.ID); err != nil {
		t.Fatalf("SendFollowUp: %v", err)
	}
	if ch.count() != 0 {
		t.Fatalf("cancelled follow-up was sent")
	}
}

func TestGetDueFollowUps(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, nil)

	sentAt := testNow.Add(-time.Hour)
	store.followUps = append(store.followUps,
		repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, ScheduledAt: testNow.Add(-time.Minute)},
		repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, ScheduledAt: testNow.Add(time.Hour)},
		repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, ScheduledAt: testNow.Add(-time.Hour), Cancelled: true},
		repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, ScheduledAt: testNow.Add(-2 * time.Hour), SentAt: &sentAt},
	)

	due, err := svc.GetDueFollowUps(ctx)
	if err != nil {
		t.Fatalf("GetDueFollowUps: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due = %d, want 1 (pending, scheduled in the past)", len(due))
	}
}

func TestScheduleNextAttemptProgressesChain(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, nil)

	sentAt := testNow.Add(-25 * time.Hour)
	first := repository.FollowUp{
		ID: uuid.New(), LeadID: lead.ID,
		Scenario: domain.ScenarioCallMissed, AttemptNumber: 1,
		SentAt: &sentAt,
	}
	store.followUps = append(store.followUps, first)

	next, err := svc.ScheduleNextAttempt(ctx, first.ID)
	if err != nil {
		t.Fatalf("ScheduleNextAttempt: %v", err)
	}
	if next.AttemptNumber != 2 || next.Scenario != domain.ScenarioCallMissed {
		t.Fatalf("next = attempt %d scenario %s, want attempt 2 CALL_MISSED", next.AttemptNumber, next.Scenario)
	}
	if want := testNow.Add(24 * time.Hour); !next.ScheduledAt.Equal(want) {
		t.Fatalf("scheduled at %v, want %v", next.ScheduledAt, want)
	}
}

func TestScheduleNextAttemptGuards(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	ctx := context.Background()
	lead := seedLead(store, fakePhone, nil)

	sentAt := testNow.Add(-time.Hour)
	respondedAt := testNow.Add(-30 * time.Minute)

	unsent := repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, AttemptNumber: 1}
	responded := repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, AttemptNumber: 1, SentAt: &sentAt, RespondedAt: &respondedAt}
	exhausted := repository.FollowUp{ID: uuid.New(), LeadID: lead.ID, AttemptNumber: 3, SentAt: &sentAt}
	store.followUps = append(store.followUps, unsent, responded, exhausted)

	if _, err := svc.ScheduleNextAttempt(ctx, unsent.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unsent: err = %v, want validation", err)
	}
	if _, err := svc.ScheduleNextAttempt(ctx, responded.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("responded: err = %v, want conflict", err)
	}
	if _, err := svc.ScheduleNextAttempt(ctx, exhausted.ID); !apperr.Is(err, apperr.KindPolicyViolation) {
		t.Fatalf("exhausted: err = %v, want policy violation", err)
	}
	if _, err := svc.ScheduleNextAttempt(ctx, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("missing: err = %v, want not found", err)
	}
}
