package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leadflow_backend/platform/logger"
)

const hubspotBaseURL = "https://api.hubapi.com"

// HubSpot talks to the HubSpot CRM v3 contacts API.
type HubSpot struct {
	apiKey string
	client *http.Client
	log    *logger.Logger
}

func NewHubSpot(apiKey string, log *logger.Logger) *HubSpot {
	return &HubSpot{
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (h *HubSpot) Name() string { return "hubspot" }

type hubspotContact struct {
	Properties map[string]string `json:"properties"`
}

type hubspotSearchRequest struct {
	FilterGroups []hubspotFilterGroup `json:"filterGroups"`
	Limit        int                  `json:"limit"`
}

type hubspotFilterGroup struct {
	Filters []hubspotFilter `json:"filters"`
}

type hubspotFilter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

type hubspotSearchResponse struct {
	Total   int `json:"total"`
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// CreateContact registers the lead as a HubSpot contact.
func (h *HubSpot) CreateContact(ctx context.Context, contact Contact) error {
	body := hubspotContact{Properties: h.properties(contact)}
	return h.post(ctx, "/crm/v3/objects/contacts", body, nil)
}

// SyncLeadData updates the contact matched by phone number, creating it
// when the search comes up empty.
func (h *HubSpot) SyncLeadData(ctx context.Context, contact Contact) error {
	id, err := h.findByPhone(ctx, contact.PhoneNumber)
	if err != nil {
		return err
	}
	if id == "" {
		return h.CreateContact(ctx, contact)
	}

	body := hubspotContact{Properties: h.properties(contact)}
	return h.patch(ctx, "/crm/v3/objects/contacts/"+id, body)
}

func (h *HubSpot) properties(contact Contact) map[string]string {
	props := map[string]string{
		"phone":          contact.PhoneNumber,
		"lifecyclestage": "lead",
	}
	setIf := func(key, value string) {
		if value != "" {
			props[key] = value
		}
	}
	setIf("country", contact.Country)
	setIf("project_type", contact.ProjectType)
	setIf("budget", contact.Budget)
	setIf("timeline", contact.Timeline)
	setIf("business_type", contact.BusinessType)
	setIf("lead_stage", contact.Stage)
	setIf("lead_category", contact.Category)
	if contact.Score > 0 {
		props["lead_score"] = strconv.Itoa(contact.Score)
	}
	return props
}

func (h *HubSpot) findByPhone(ctx context.Context, phoneNumber string) (string, error) {
	search := hubspotSearchRequest{
		FilterGroups: []hubspotFilterGroup{{
			Filters: []hubspotFilter{{PropertyName: "phone", Operator: "EQ", Value: phoneNumber}},
		}},
		Limit: 1,
	}

	var result hubspotSearchResponse
	if err := h.post(ctx, "/crm/v3/objects/contacts/search", search, &result); err != nil {
		return "", err
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (h *HubSpot) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	return h.do(ctx, http.MethodPost, path, payload, out)
}

func (h *HubSpot) patch(ctx context.Context, path string, payload interface{}) error {
	return h.do(ctx, http.MethodPatch, path, payload, nil)
}

func (h *HubSpot) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal hubspot payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, hubspotBaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("hubspot returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode hubspot response: %w", err)
		}
	}
	return nil
}
