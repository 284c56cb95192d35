package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadflow_backend/internal/conversation/transport"
	"leadflow_backend/platform/httpkit"
)

// HandleGetContext returns the full handover context for a conversation.
// GET /api/v1/conversations/:conversationId/context
func (h *Handler) HandleGetContext(c *gin.Context) {
	conversationID, ok := h.parseUUIDParam(c, "conversationId", errInvalidConversationID)
	if !ok {
		return
	}

	hc, err := h.service.GetHandoverContext(c.Request.Context(), conversationID)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, transport.ToHandoverContextResponse(hc))
}

// HandleTakeover puts an agent in control of a conversation.
// POST /api/v1/conversations/:conversationId/takeover
func (h *Handler) HandleTakeover(c *gin.Context) {
	conversationID, ok := h.parseUUIDParam(c, "conversationId", errInvalidConversationID)
	if !ok {
		return
	}

	var req transport.TakeoverRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	conv, err := h.service.AssignAgent(c.Request.Context(), conversationID, req.AgentID)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, transport.ToConversationResponse(conv))
}

// HandleRelease hands a conversation back to the bot.
// POST /api/v1/conversations/:conversationId/release
func (h *Handler) HandleRelease(c *gin.Context) {
	conversationID, ok := h.parseUUIDParam(c, "conversationId", errInvalidConversationID)
	if !ok {
		return
	}

	conv, err := h.service.ReleaseConversation(c.Request.Context(), conversationID)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, transport.ToConversationResponse(conv))
}

// HandleEscalate forces a conversation to a human regardless of score.
// POST /api/v1/conversations/:conversationId/escalate
func (h *Handler) HandleEscalate(c *gin.Context) {
	conversationID, ok := h.parseUUIDParam(c, "conversationId", errInvalidConversationID)
	if !ok {
		return
	}

	var req transport.EscalateRequest
	if c.Request.ContentLength > 0 && !h.bindAndValidate(c, &req) {
		return
	}

	assignment, err := h.service.EscalateConversation(c.Request.Context(), conversationID, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, transport.ToAssignmentResponse(assignment))
}

// HandleScheduleNextFollowUp queues the next attempt after a sent
// follow-up went unanswered.
// POST /api/v1/followups/:followUpId/next
func (h *Handler) HandleScheduleNextFollowUp(c *gin.Context) {
	followUpID, ok := h.parseUUIDParam(c, "followUpId", errInvalidFollowUpID)
	if !ok {
		return
	}

	fu, err := h.service.ScheduleNextAttempt(c.Request.Context(), followUpID)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, transport.ToFollowUpResponse(fu))
}
