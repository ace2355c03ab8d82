package repositories

import (
	"context"

	"agent-gate.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// AgentRepository defines agent data operations. Agent CRUD itself lives in
// the surrounding platform; the gateway only reads and provisions keys.
type AgentRepository interface {
	Create(ctx context.Context, agent *entities.Agent) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Agent, error)
	UpdateAPIKeyHash(ctx context.Context, id uuid.UUID, hash string) error
}
