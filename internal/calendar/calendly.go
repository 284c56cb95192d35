package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadflow_backend/platform/logger"
)

const calendlyBaseURL = "https://api.calendly.com"

// Calendly produces single-use booking links; the lead picks the slot.
type Calendly struct {
	apiKey       string
	eventTypeURL string
	client       *http.Client
	log          *logger.Logger
}

func NewCalendly(apiKey, eventTypeURL string, log *logger.Logger) *Calendly {
	return &Calendly{
		apiKey:       apiKey,
		eventTypeURL: eventTypeURL,
		client:       &http.Client{Timeout: 10 * time.Second},
		log:          log,
	}
}

func (c *Calendly) Name() string { return "calendly" }

type calendlySchedulingLinkRequest struct {
	MaxEventCount int    `json:"max_event_count"`
	Owner         string `json:"owner"`
	OwnerType     string `json:"owner_type"`
}

type calendlySchedulingLinkResponse struct {
	Resource struct {
		BookingURL string `json:"booking_url"`
	} `json:"resource"`
}

// CreateEvent issues a single-use scheduling link for the configured
// event type. The requested start time is advisory only; Calendly lets
// the invitee choose.
func (c *Calendly) CreateEvent(ctx context.Context, _ Event) (Booking, error) {
	payload := calendlySchedulingLinkRequest{
		MaxEventCount: 1,
		Owner:         c.eventTypeURL,
		OwnerType:     "EventType",
	}

	var result calendlySchedulingLinkResponse
	if err := c.do(ctx, http.MethodPost, "/scheduling_links", payload, &result); err != nil {
		return Booking{}, err
	}

	return Booking{BookingURL: result.Resource.BookingURL}, nil
}

type calendlyAvailableTimesResponse struct {
	Collection []struct {
		StartTime time.Time `json:"start_time"`
	} `json:"collection"`
}

// GetAvailability lists the event type's open slots in the window.
func (c *Calendly) GetAvailability(ctx context.Context, from, to time.Time) ([]Slot, error) {
	params := url.Values{}
	params.Add("event_type", c.eventTypeURL)
	params.Add("start_time", from.Format(time.RFC3339))
	params.Add("end_time", to.Format(time.RFC3339))

	var result calendlyAvailableTimesResponse
	if err := c.do(ctx, http.MethodGet, "/event_type_available_times?"+params.Encode(), nil, &result); err != nil {
		return nil, err
	}

	slots := make([]Slot, len(result.Collection))
	for i, entry := range result.Collection {
		slots[i] = Slot{Start: entry.StartTime, End: entry.StartTime.Add(slotLength)}
	}
	return slots, nil
}

func (c *Calendly) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal calendly payload: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, calendlyBaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendly request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendly returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode calendly response: %w", err)
		}
	}
	return nil
}
