package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadflow_backend/internal/conversation/domain"
	"leadflow_backend/internal/conversation/transport"
	"leadflow_backend/platform/httpkit"
)

// ---- Proof asset management ----

// HandleCreateAsset adds a proof asset to the catalog.
// POST /api/v1/admin/assets
func (h *Handler) HandleCreateAsset(c *gin.Context) {
	var req transport.CreateAssetRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	asset, err := h.service.CreateProofAsset(c.Request.Context(),
		domain.ProofAssetType(req.AssetType), req.ProjectType, req.Title,
		req.Description, req.ContentURL, req.ContentText)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusCreated, transport.ToAssetResponse(asset))
}

// HandleListAssets lists the catalog, optionally active assets only.
// GET /api/v1/admin/assets?active=true
func (h *Handler) HandleListAssets(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))

	assets, err := h.service.ListProofAssets(c.Request.Context(), activeOnly)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": transport.ToAssetResponses(assets)})
}

// HandleSetAssetActive activates or retires an asset.
// PATCH /api/v1/admin/assets/:assetId/active
func (h *Handler) HandleSetAssetActive(c *gin.Context) {
	assetID, ok := h.parseUUIDParam(c, "assetId", errInvalidAssetID)
	if !ok {
		return
	}

	var req transport.SetAssetActiveRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	asset, err := h.service.SetProofAssetActive(c.Request.Context(), assetID, *req.Active)
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, transport.ToAssetResponse(asset))
}

// ---- Brand safety blacklist ----

// HandleListBlacklist returns the current blocked phrases.
// GET /api/v1/admin/blacklist
func (h *Handler) HandleListBlacklist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"phrases": h.service.Filter().Blacklist()})
}

// HandleAddBlacklistPhrase blocks a phrase in outbound messages.
// POST /api/v1/admin/blacklist
func (h *Handler) HandleAddBlacklistPhrase(c *gin.Context) {
	var req transport.BlacklistRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.service.Filter().AddToBlacklist(req.Phrase)
	c.JSON(http.StatusOK, gin.H{"phrases": h.service.Filter().Blacklist()})
}

// HandleRemoveBlacklistPhrase unblocks a phrase.
// DELETE /api/v1/admin/blacklist
func (h *Handler) HandleRemoveBlacklistPhrase(c *gin.Context) {
	var req transport.BlacklistRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	h.service.Filter().RemoveFromBlacklist(req.Phrase)
	c.JSON(http.StatusOK, gin.H{"phrases": h.service.Filter().Blacklist()})
}

// ---- Follow-up visibility ----

// HandleListDueFollowUps shows what the dispatcher would pick up now.
// GET /api/v1/admin/followups/due
func (h *Handler) HandleListDueFollowUps(c *gin.Context) {
	due, err := h.service.GetDueFollowUps(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"followUps": transport.ToFollowUpResponses(due)})
}
