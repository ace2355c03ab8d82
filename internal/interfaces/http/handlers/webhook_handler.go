package handlers

import (
	"context"
	"io"
	"net/http"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// WebhookSignatureHeader carries the provider's HMAC signature.
const WebhookSignatureHeader = "X-Webhook-Signature"

type WebhookService interface {
	Process(ctx context.Context, rail entities.Rail, signatureHeader string, body []byte) (*entities.WebhookAck, error)
}

// WebhookHandler ingests provider payment notifications
type WebhookHandler struct {
	webhooks WebhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhooks WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// Receive verifies and applies one provider delivery
// POST /api/v1/webhooks/:rail
func (h *WebhookHandler) Receive(c *gin.Context) {
	rail := entities.Rail(c.Param("rail"))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeInvalidRequest, "failed to read webhook body"))
		return
	}

	ack, err := h.webhooks.Process(c.Request.Context(), rail, c.GetHeader(WebhookSignatureHeader), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, ack)
}
