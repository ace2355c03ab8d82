package handlers

import (
	"context"
	"net/http"
	"strconv"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/interfaces/http/middleware"
	"agent-gate.backend/internal/interfaces/http/response"
	"agent-gate.backend/internal/usecases"
	"agent-gate.backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReceiptService interface {
	GetRow(ctx context.Context, agentID, receiptID uuid.UUID) (*entities.ReceiptRow, error)
	List(ctx context.Context, agentID uuid.UUID, params utils.PaginationParams) ([]*entities.Receipt, int64, error)
	Verify(ctx context.Context, agentID uuid.UUID) (*entities.ChainVerification, error)
}

// ReceiptHandler handles receipt chain endpoints
type ReceiptHandler struct {
	receipts ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receipts ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// List pages the caller's receipts in descending chain order
// GET /api/v1/receipts
func (h *ReceiptHandler) List(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	params := utils.GetPaginationParams(limit, offset)

	receipts, total, err := h.receipts.List(c.Request.Context(), agentID, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"receipts": receipts,
		"pagination": gin.H{
			"limit":  params.Limit,
			"offset": params.Offset,
			"total":  total,
		},
	})
}

// Verify walks the caller's receipt chain
// GET /api/v1/receipts/verify
func (h *ReceiptHandler) Verify(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	result, err := h.receipts.Verify(c.Request.Context(), agentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Get returns one joined receipt row, JSON by default or CSV on demand
// GET /api/v1/receipts/:id?format=json|csv
func (h *ReceiptHandler) Get(c *gin.Context) {
	agentID, ok := middleware.GetAgentID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "agent not authenticated"))
		return
	}

	receiptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, "invalid receipt id"))
		return
	}

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		response.Error(c, domainerrors.BadRequest(domainerrors.CodeValidationError, "format must be json or csv"))
		return
	}

	row, err := h.receipts.GetRow(c.Request.Context(), agentID, receiptID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if format == "csv" {
		out, err := usecases.RowCSV(row)
		if err != nil {
			response.Error(c, domainerrors.InternalError(err))
			return
		}
		c.Header("Content-Disposition", `attachment; filename="receipt-`+receiptID.String()+`.csv"`)
		c.Data(http.StatusOK, "text/csv", []byte(out))
		return
	}
	response.Success(c, http.StatusOK, row)
}
