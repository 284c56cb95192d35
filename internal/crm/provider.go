// Package crm pushes lead data into an external CRM. The provider is
// chosen by configuration; without one the module is inert.
package crm

import (
	"context"
	"fmt"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// Contact is the provider-neutral view of a lead.
type Contact struct {
	PhoneNumber  string
	Country      string
	ProjectType  string
	Budget       string
	Timeline     string
	BusinessType string
	Score        int
	Category     string
	Stage        string
}

// Lifecycle stages pushed to the CRM.
const (
	StageNew       = "new"
	StageQualified = "qualified"
	StageHandover  = "handover"
)

// Provider is one CRM backend.
type Provider interface {
	Name() string
	// CreateContact registers a new lead with the CRM.
	CreateContact(ctx context.Context, contact Contact) error
	// SyncLeadData updates the CRM record with qualification and score
	// data. Providers create the record when it does not exist yet.
	SyncLeadData(ctx context.Context, contact Contact) error
}

// NewProvider builds the configured CRM provider, or nil when none is
// configured.
func NewProvider(cfg config.CRMConfig, log *logger.Logger) (Provider, error) {
	switch cfg.GetCRMProvider() {
	case "":
		return nil, nil
	case "hubspot":
		if cfg.GetHubSpotAPIKey() == "" {
			return nil, fmt.Errorf("crm: hubspot selected but HUBSPOT_API_KEY is empty")
		}
		return NewHubSpot(cfg.GetHubSpotAPIKey(), log), nil
	case "notion":
		if cfg.GetNotionAPIKey() == "" || cfg.GetNotionDatabaseID() == "" {
			return nil, fmt.Errorf("crm: notion selected but NOTION_API_KEY or NOTION_DATABASE_ID is empty")
		}
		return NewNotion(cfg.GetNotionAPIKey(), cfg.GetNotionDatabaseID(), log), nil
	default:
		return nil, fmt.Errorf("crm: unknown provider %q", cfg.GetCRMProvider())
	}
}
