// Package handler exposes the conversation module over HTTP: the
// WhatsApp webhook, the agent console endpoints and the admin surface.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadflow_backend/internal/conversation/service"
	"leadflow_backend/platform/config"
	"leadflow_backend/platform/logger"
	"leadflow_backend/platform/validator"
)

const (
	errInvalidRequest        = "invalid request body"
	errValidation            = "validation error"
	errInvalidConversationID = "invalid conversation ID"
	errInvalidAssetID        = "invalid asset ID"
	errInvalidFollowUpID     = "invalid follow-up ID"
)

// Handler handles conversation HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
	cfg     config.WhatsAppConfig
	log     *logger.Logger
}

// NewHandler creates a new conversation handler.
func NewHandler(svc *service.Service, val *validator.Validator, cfg config.WhatsAppConfig, log *logger.Logger) *Handler {
	return &Handler{service: svc, val: val, cfg: cfg, log: log}
}

func (h *Handler) parseUUIDParam(c *gin.Context, name, errMsg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errMsg})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return false
	}
	if err := h.val.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errValidation, "details": err.Error()})
		return false
	}
	return true
}
