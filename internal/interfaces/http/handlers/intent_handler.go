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

type IntentService interface {
	Create(ctx context.Context, agentID uuid.UUID, input *entities.CreateIntentInput) (*entities.PurchaseIntent, error)
	Get(ctx context.Context, agentID, intentID uuid.UUID) (*entities.PurchaseIntent, error)
}

// IntentHandler handles purchase intent endpoints
type IntentHandler struct {
	intents IntentService
}

// NewIntentHandler creates a new intent handler
func NewIntentHandler(intents IntentService) *IntentHandler {
	return &IntentHandler{intents: intents}
}

// Create records a proposed spend
// POST /api/v1/purchase-intents
func (h *IntentHandler) Create(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	var input entities.CreateIntentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, err.Error()))
		return
	}

	intent, err := h.intents.Create(c.Request.Context(), agentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, intent)
}

// Get returns one intent owned by the caller
// GET /api/v1/purchase-intents/:id
func (h *IntentHandler) Get(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	intentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, "invalid intent id"))
		return
	}

	intent, err := h.intents.Get(c.Request.Context(), agentID, intentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, intent)
}
