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

type PolicyService interface {
	Create(ctx context.Context, agentID uuid.UUID, input *entities.CreatePolicyInput) (*entities.Policy, error)
	GetActive(ctx context.Context, agentID uuid.UUID) (*entities.Policy, error)
}

// PolicyHandler handles policy endpoints
type PolicyHandler struct {
	policies PolicyService
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policies PolicyService) *PolicyHandler {
	return &PolicyHandler{policies: policies}
}

// Create inserts the next policy version for the caller
// POST /api/v1/policies
func (h *PolicyHandler) Create(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	var input entities.CreatePolicyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, err.Error()))
		return
	}

	policy, err := h.policies.Create(c.Request.Context(), agentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, policy)
}

// GetActive returns the policy currently consulted for the caller
// GET /api/v1/policies/active
func (h *PolicyHandler) GetActive(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	policy, err := h.policies.GetActive(c.Request.Context(), agentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, policy)
}
