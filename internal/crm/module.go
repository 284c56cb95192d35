package crm

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/repository"
	"leadflow_backend/internal/events"
	"leadflow_backend/platform/logger"
)

// LeadReader loads lead rows for enrichment before a CRM push.
// Satisfied by the conversation repository.
type LeadReader interface {
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetLatestScoreByLead(ctx context.Context, leadID uuid.UUID) (repository.LeadScore, error)
}

// Module mirrors lead lifecycle events into the configured CRM.
type Module struct {
	provider Provider
	leads    LeadReader
	log      *logger.Logger
}

func NewModule(provider Provider, leads LeadReader, log *logger.Logger) *Module {
	return &Module{provider: provider, leads: leads, log: log}
}

// RegisterHandlers subscribes to the lead lifecycle events. A nil
// provider leaves the bus untouched.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	if m.provider == nil {
		m.log.Info("crm sync disabled, no provider configured")
		return
	}

	bus.Subscribe(events.LeadCreated{}.EventName(), m)
	bus.Subscribe(events.LeadQualified{}.EventName(), m)
	bus.Subscribe(events.HandoverTriggered{}.EventName(), m)

	m.log.Info("crm module registered event handlers", "provider", m.provider.Name())
}

// Handle routes events to the appropriate sync.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		return m.handleLeadCreated(ctx, e)
	case events.LeadQualified:
		return m.handleLeadQualified(ctx, e)
	case events.HandoverTriggered:
		return m.handleHandoverTriggered(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadCreated(ctx context.Context, e events.LeadCreated) error {
	contact := Contact{
		PhoneNumber: e.PhoneNumber,
		Country:     e.Country,
		Stage:       StageNew,
	}
	if err := m.provider.CreateContact(ctx, contact); err != nil {
		return fmt.Errorf("crm create contact: %w", err)
	}
	return nil
}

func (m *Module) handleLeadQualified(ctx context.Context, e events.LeadQualified) error {
	return m.sync(ctx, e.LeadID, e.TotalScore, e.Category, StageQualified)
}

func (m *Module) handleHandoverTriggered(ctx context.Context, e events.HandoverTriggered) error {
	return m.sync(ctx, e.LeadID, e.TotalScore, "", StageHandover)
}

func (m *Module) sync(ctx context.Context, leadID uuid.UUID, score int, category, stage string) error {
	lead, err := m.leads.GetLead(ctx, leadID)
	if err != nil {
		return fmt.Errorf("crm load lead: %w", err)
	}

	if category == "" {
		if latest, err := m.leads.GetLatestScoreByLead(ctx, leadID); err == nil {
			category = string(latest.Category)
		}
	}

	contact := Contact{
		PhoneNumber:  lead.PhoneNumber,
		Country:      deref(lead.Country),
		ProjectType:  deref(lead.ProjectType),
		Budget:       deref(lead.Budget),
		Timeline:     deref(lead.Timeline),
		BusinessType: deref(lead.BusinessType),
		Score:        score,
		Category:     category,
		Stage:        stage,
	}

	if err := m.provider.SyncLeadData(ctx, contact); err != nil {
		return fmt.Errorf("crm sync lead: %w", err)
	}
	return nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
