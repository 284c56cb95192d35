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

const googleBaseURL = "https://www.googleapis.com/calendar/v3"

// Slot granularity offered to agents.
const slotLength = 30 * time.Minute

// Google books calls directly on a Google Calendar.
type Google struct {
	apiKey     string
	calendarID string
	client     *http.Client
	log        *logger.Logger
}

func NewGoogle(apiKey, calendarID string, log *logger.Logger) *Google {
	return &Google{
		apiKey:     apiKey,
		calendarID: calendarID,
		client:     &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (g *Google) Name() string { return "google" }

type googleEventRequest struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description,omitempty"`
	Start       googleEventTime `json:"start"`
	End         googleEventTime `json:"end"`
}

type googleEventTime struct {
	DateTime string `json:"dateTime"`
}

type googleEventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// CreateEvent inserts the call on the calendar.
func (g *Google) CreateEvent(ctx context.Context, event Event) (Booking, error) {
	payload := googleEventRequest{
		Summary:     event.Title,
		Description: event.Description,
		Start:       googleEventTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         googleEventTime{DateTime: event.End.Format(time.RFC3339)},
	}

	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(g.calendarID))
	var result googleEventResponse
	if err := g.do(ctx, http.MethodPost, path, payload, &result); err != nil {
		return Booking{}, err
	}

	return Booking{EventID: result.ID, BookingURL: result.HTMLLink}, nil
}

type googleFreeBusyRequest struct {
	TimeMin string             `json:"timeMin"`
	TimeMax string             `json:"timeMax"`
	Items   []googleFreeBusyID `json:"items"`
}

type googleFreeBusyID struct {
	ID string `json:"id"`
}

type googleFreeBusyResponse struct {
	Calendars map[string]struct {
		Busy []struct {
			Start time.Time `json:"start"`
			End   time.Time `json:"end"`
		} `json:"busy"`
	} `json:"calendars"`
}

// GetAvailability walks the window in half-hour steps and keeps the
// slots that do not overlap a busy period.
func (g *Google) GetAvailability(ctx context.Context, from, to time.Time) ([]Slot, error) {
	payload := googleFreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []googleFreeBusyID{{ID: g.calendarID}},
	}

	var result googleFreeBusyResponse
	if err := g.do(ctx, http.MethodPost, "/freeBusy", payload, &result); err != nil {
		return nil, err
	}

	busy := result.Calendars[g.calendarID].Busy

	var slots []Slot
	for start := from.Truncate(slotLength); start.Add(slotLength).Before(to) || start.Add(slotLength).Equal(to); start = start.Add(slotLength) {
		end := start.Add(slotLength)
		overlaps := false
		for _, b := range busy {
			if start.Before(b.End) && b.Start.Before(end) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			slots = append(slots, Slot{Start: start, End: end})
		}
	}
	return slots, nil
}

func (g *Google) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal google calendar payload: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?key=%s", googleBaseURL, path, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("google calendar request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("google calendar returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode google calendar response: %w", err)
		}
	}
	return nil
}
