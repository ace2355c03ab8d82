package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agent-gate.backend/internal/domain/entities"
	domainerrors "agent-gate.backend/internal/domain/errors"
	"agent-gate.backend/internal/domain/repositories"
	"agent-gate.backend/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IntentUsecase handles purchase intent business logic
type IntentUsecase struct {
	intentRepo repositories.IntentRepository
	agentRepo  repositories.AgentRepository
}

// NewIntentUsecase creates a new intent usecase
func NewIntentUsecase(intentRepo repositories.IntentRepository, agentRepo repositories.AgentRepository) *IntentUsecase {
	return &IntentUsecase{intentRepo: intentRepo, agentRepo: agentRepo}
}

// Create records a proposed spend. Metadata is preserved as an opaque blob
// for audit, never consulted for logic.
func (u *IntentUsecase) Create(ctx context.Context, agentID uuid.UUID, input *entities.CreateIntentInput) (*entities.PurchaseIntent, error) {
	agent, err := u.agentRepo.GetByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.Unauthorized(domainerrors.CodeUnauthorized, "unknown agent")
		}
		return nil, domainerrors.DatabaseError(err)
	}
	if !agent.IsActive() {
		return nil, domainerrors.PolicyViolation(domainerrors.CodeAgentInactive, "agent is not active")
	}

	metadata := "{}"
	if len(input.Metadata) > 0 {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, domainerrors.BadRequest(domainerrors.CodeValidationError, "metadata is not serializable")
		}
		metadata = string(raw)
	}

	now := time.Now()
	intent := &entities.PurchaseIntent{
		ID:          uuid.New(),
		AgentID:     agentID,
		Vendor:      input.Vendor,
		Amount:      input.Amount,
		Currency:    input.Currency,
		Description: input.Description,
		Metadata:    metadata,
		Status:      entities.IntentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.intentRepo.Create(ctx, intent); err != nil {
		return nil, domainerrors.DatabaseError(err)
	}

	logger.Info(ctx, "intent created",
		zap.String("intent_id", intent.ID.String()),
		zap.String("agent_id", agentID.String()),
		zap.String("vendor", intent.Vendor),
		zap.Int64("amount", intent.Amount))
	return intent, nil
}

// Get returns an intent owned by the calling agent.
func (u *IntentUsecase) Get(ctx context.Context, agentID, intentID uuid.UUID) (*entities.PurchaseIntent, error) {
	intent, err := u.intentRepo.GetByID(ctx, intentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound(domainerrors.CodeIntentNotFound, "intent not found")
		}
		return nil, domainerrors.DatabaseError(err)
	}
	if intent.AgentID != agentID {
		return nil, domainerrors.Forbidden("intent belongs to another agent")
	}
	return intent, nil
}
