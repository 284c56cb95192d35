package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadflow_backend/internal/conversation/transport"
	"leadflow_backend/platform/httpkit"
)

// HandleExportLead returns everything stored about a phone number.
// GET /api/v1/admin/leads/:phone/export
func (h *Handler) HandleExportLead(c *gin.Context) {
	export, err := h.service.ExportLead(c.Request.Context(), c.Param("phone"))
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, transport.ToLeadExportResponse(export))
}

// HandleEraseLead deletes a lead and all dependent data.
// DELETE /api/v1/admin/leads/:phone
func (h *Handler) HandleEraseLead(c *gin.Context) {
	if err := h.service.EraseLead(c.Request.Context(), c.Param("phone")); httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "erased"})
}
