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

type MandateService interface {
	Issue(ctx context.Context, agentID uuid.UUID, input *entities.CreateMandateInput) (*entities.Mandate, error)
	Get(ctx context.Context, agentID, mandateID uuid.UUID) (*entities.Mandate, error)
}

// MandateHandler handles mandate endpoints
type MandateHandler struct {
	mandates MandateService
}

// NewMandateHandler creates a new mandate handler
func NewMandateHandler(mandates MandateService) *MandateHandler {
	return &MandateHandler{mandates: mandates}
}

// Issue converts a pending intent into a signed mandate
// POST /api/v1/mandates
func (h *MandateHandler) Issue(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	var input entities.CreateMandateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, err.Error()))
		return
	}

	mandate, err := h.mandates.Issue(c.Request.Context(), agentID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, mandate)
}

// Get returns one mandate owned by the caller
// GET /api/v1/mandates/:id
func (h *MandateHandler) Get(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	mandateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, "invalid mandate id"))
		return
	}

	mandate, err := h.mandates.Get(c.Request.Context(), agentID, mandateID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, mandate)
}
