package repositories

import (
	"context"

	"agent-gate.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// IntentRepository defines purchase intent data operations
type IntentRepository interface {
	Create(ctx context.Context, intent *entities.PurchaseIntent) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.PurchaseIntent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.IntentStatus) error
}
