package handlers

import (
	"context"
	"net/http"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/interfaces/http/middleware"
	"agent-gate.backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentService interface {
	Execute(ctx context.Context, agentID uuid.UUID, input *entities.ExecutePaymentInput) (*entities.ExecutePaymentResponse, error)
	Get(ctx context.Context, agentID, paymentID uuid.UUID) (*entities.Payment, error)
}

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	payments PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Execute runs a settlement attempt against an active mandate
// POST /api/v1/payments/execute
func (h *PaymentHandler) Execute(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	var input entities.ExecutePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, err.Error()))
		return
	}

	result, err := h.payments.Execute(c.Request.Context(), agentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Get returns one payment owned by the caller
// GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, "invalid payment id"))
		return
	}

	payment, err := h.payments.Get(c.Request.Context(), agentID, paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, payment)
}
