// Package calendar abstracts call scheduling behind a provider
// interface, with Google Calendar and Calendly backends.
package calendar

import (
	"context"
	"fmt"
	"time"

	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
)

// Event is a call to be booked with a lead.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// Booking is the provider's answer: either a confirmed event or a link
// the lead completes themselves.
type Booking struct {
	EventID    string
	BookingURL string
}

// Slot is one free window.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Provider is one scheduling backend.
type Provider interface {
	Name() string
	// CreateEvent books a call, or produces a booking link for
	// providers where the invitee picks the slot.
	CreateEvent(ctx context.Context, event Event) (Booking, error)
	// GetAvailability lists free slots in the window.
	GetAvailability(ctx context.Context, from, to time.Time) ([]Slot, error)
}

// NewProvider builds the configured calendar provider, or nil when none
// is configured.
func NewProvider(cfg config.CalendarConfig, log *logger.Logger) (Provider, error) {
	switch cfg.GetCalendarProvider() {
	case "":
		return nil, nil
	case "google":
		if cfg.GetGoogleAPIKey() == "" || cfg.GetGoogleCalendarID() == "" {
			return nil, fmt.Errorf("calendar: google selected but GOOGLE_API_KEY or GOOGLE_CALENDAR_ID is empty")
		}
		return NewGoogle(cfg.GetGoogleAPIKey(), cfg.GetGoogleCalendarID(), log), nil
	case "calendly":
		if cfg.GetCalendlyAPIKey() == "" || cfg.GetCalendlyEventTypeURL() == "" {
			return nil, fmt.Errorf("calendar: calendly selected but CALENDLY_API_KEY or CALENDLY_EVENT_TYPE_URL is empty")
		}
		return NewCalendly(cfg.GetCalendlyAPIKey(), cfg.GetCalendlyEventTypeURL(), log), nil
	default:
		return nil, fmt.Errorf("calendar: unknown provider %q", cfg.GetCalendarProvider())
	}
}
