package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"matchpush/internal/services"
	"matchpush/internal/transport/httpdto"
)

type WebhookHandler struct {
	correlator *services.CorrelatorService
}

func NewWebhookHandler(correlator *services.CorrelatorService) *WebhookHandler {
	return &WebhookHandler{correlator: correlator}
}

// Confirm receives one delivery confirmation per call. The platform
// retries on non-2xx, so correlation failures still answer 200: the
// confirmation was recorded, just without an attribution.
func (h *WebhookHandler) Confirm(c *gin.Context) {
	var req httpdto.WebhookConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	in := services.InboundConfirmation{
		RecipientID:      req.RecipientID,
		ConfirmationType: req.ConfirmationType,
		DispatchID:       req.DispatchID,
		ConfirmationID:   req.ConfirmationID,
		HomeName:         req.HomeName,
		AwayName:         req.AwayName,
		Category:         req.Category,
	}
	if req.Timestamp > 0 {
		in.Timestamp = time.UnixMilli(req.Timestamp).UTC()
	}

	match, err := h.correlator.HandleConfirmation(c.Request.Context(), in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse(err.Error(), "REQUEST_FAILED"))
		return
	}

	resp := httpdto.WebhookConfirmationResponse{
		Matched:    match.FixtureID != nil,
		Method:     string(match.Method),
		Confidence: string(match.Confidence),
		Ambiguous:  match.Ambiguous,
	}
	if match.FixtureID != nil {
		resp.FixtureID = match.FixtureID.String()
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}
