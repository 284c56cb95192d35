package calendar

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadflow_backend/platform/httpkit"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

const defaultAvailabilityWindow = 7 * 24 * time.Hour

// Handler exposes call booking to the agent console.
type Handler struct {
	provider Provider
	val      *validator.Validator
	log      *logger.Logger
}

func NewHandler(provider Provider, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{provider: provider, val: val, log: log}
}

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,min=1,max=200"`
	Description string    `json:"description,omitempty" validate:"max=1000"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required,gtfield=Start"`
}

type bookingResponse struct {
	EventID    string `json:"eventId,omitempty"`
	BookingURL string `json:"bookingUrl,omitempty"`
}

type slotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// HandleGetAvailability lists free slots for the agent to offer.
// GET /api/v1/calendar/availability?from=...&to=...
func (h *Handler) HandleGetAvailability(c *gin.Context) {
	from := time.Now()
	to := from.Add(defaultAvailabilityWindow)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
		to = parsed
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be after from"})
		return
	}

	slots, err := h.provider.GetAvailability(c.Request.Context(), from, to)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]slotResponse, len(slots))
	for i, s := range slots {
		out[i] = slotResponse{Start: s.Start, End: s.End}
	}
	c.JSON(http.StatusOK, gin.H{"slots": out})
}

// HandleCreateEvent books a call, or issues a booking link for
// providers where the invitee picks the slot.
// POST /api/v1/calendar/events
func (h *Handler) HandleCreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.val.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation error", "details": err.Error()})
		return
	}

	booking, err := h.provider.CreateEvent(c.Request.Context(), Event{
		Title:       req.Title,
		Description: req.Description,
		Start:       req.Start,
		End:         req.End,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, bookingResponse{EventID: booking.EventID, BookingURL: booking.BookingURL})
}
