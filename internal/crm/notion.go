package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadflow_backend/platform/logger"
)

const (
	notionBaseURL = "https://api.notion.com/v1"
	notionVersion = "2022-06-28"
)

// Notion uses a Notion database as a lightweight CRM: one page per lead.
type Notion struct {
	apiKey     string
	databaseID string
	client     *http.Client
	log        *logger.Logger
}

func NewNotion(apiKey, databaseID string, log *logger.Logger) *Notion {
	return &Notion{
		apiKey:     apiKey,
		databaseID: databaseID,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (n *Notion) Name() string { return "notion" }

// CreateContact adds a page for the lead to the configured database.
func (n *Notion) CreateContact(ctx context.Context, contact Contact) error {
	payload := map[string]interface{}{
		"parent":     map[string]string{"database_id": n.databaseID},
		"properties": n.properties(contact),
	}
	return n.do(ctx, http.MethodPost, "/pages", payload, nil)
}

// SyncLeadData updates the page matched by phone number, creating one
// when the query comes up empty.
func (n *Notion) SyncLeadData(ctx context.Context, contact Contact) error {
	pageID, err := n.findByPhone(ctx, contact.PhoneNumber)
	if err != nil {
		return err
	}
	if pageID == "" {
		return n.CreateContact(ctx, contact)
	}

	payload := map[string]interface{}{"properties": n.properties(contact)}
	return n.do(ctx, http.MethodPatch, "/pages/"+pageID, payload, nil)
}

func (n *Notion) properties(contact Contact) map[string]interface{} {
	props := map[string]interface{}{
		"Name": map[string]interface{}{
			"title": []map[string]interface{}{
				{"text": map[string]string{"content": contact.PhoneNumber}},
			},
		},
		"Phone": map[string]interface{}{"phone_number": contact.PhoneNumber},
	}
	setSelect := func(key, value string) {
		if value != "" {
			props[key] = map[string]interface{}{"select": map[string]string{"name": value}}
		}
	}
	setText := func(key, value string) {
		if value != "" {
			props[key] = map[string]interface{}{
				"rich_text": []map[string]interface{}{
					{"text": map[string]string{"content": value}},
				},
			}
		}
	}
	setSelect("Stage", contact.Stage)
	setSelect("Category", contact.Category)
	setSelect("Project Type", contact.ProjectType)
	setSelect("Business Type", contact.BusinessType)
	setText("Budget", contact.Budget)
	setText("Timeline", contact.Timeline)
	setText("Country", contact.Country)
	if contact.Score > 0 {
		props["Score"] = map[string]interface{}{"number": contact.Score}
	}
	return props
}

type notionQueryResponse struct {
	Results []struct {
		ID string `json:"id"`
	} `json:"results"`
}

func (n *Notion) findByPhone(ctx context.Context, phoneNumber string) (string, error) {
	payload := map[string]interface{}{
		"filter": map[string]interface{}{
			"property":     "Phone",
			"phone_number": map[string]string{"equals": phoneNumber},
		},
		"page_size": 1,
	}

	var result notionQueryResponse
	if err := n.do(ctx, http.MethodPost, "/databases/"+n.databaseID+"/query", payload, &result); err != nil {
		return "", err
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (n *Notion) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, notionBaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notion returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode notion response: %w", err)
		}
	}
	return nil
}
