package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadflow_backend/internal/conversation/transport"
)

// HandleVerifyWebhook answers Meta's subscription handshake.
// GET /api/v1/webhook/whatsapp
func (h *Handler) HandleVerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token == "" || token != h.cfg.GetWhatsAppVerifyToken() {
		c.String(http.StatusForbidden, "verification failed")
		return
	}

	c.String(http.StatusOK, challenge)
}

// HandleInboundWebhook receives WhatsApp Cloud API message notifications.
// POST /api/v1/webhook/whatsapp
//
// The platform retries deliveries that do not get a 2xx quickly, so the
// handler always acknowledges; per-message failures are logged and
// absorbed (dedup by platform message ID makes retries safe).
func (h *Handler) HandleInboundWebhook(c *gin.Context) {
	var payload transport.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidRequest})
		return
	}

	if payload.Object != "whatsapp_business_account" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	processed := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.Text == nil {
					continue
				}
				result, err := h.service.ProcessInboundMessage(c.Request.Context(), msg.From, msg.Text.Body, msg.ID)
				if err != nil {
					h.log.Error("inbound message processing failed",
						"external_message_id", msg.ID,
						"outcome", string(result.Outcome),
						"error", err,
					)
					continue
				}
				processed++
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "processed": processed})
}
