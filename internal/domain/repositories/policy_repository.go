package repositories

import (
	"context"
	"time"

	"agent-gate.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// PolicyRepository defines policy data operations
type PolicyRepository interface {
	Create(ctx context.Context, policy *entities.Policy) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Policy, error)
	// GetActive returns the greatest-version policy for the agent with
	// expires_at after now, or ErrNotFound.
	GetActive(ctx context.Context, agentID uuid.UUID, now time.Time) (*entities.Policy, error)
	// GetActiveForUpdate is GetActive plus a row-level lock, used to
	// linearize daily-cap arithmetic with the mandate write.
	GetActiveForUpdate(ctx context.Context, agentID uuid.UUID, now time.Time) (*entities.Policy, error)
	// GetGreatestVersion returns the highest version ever created for the
	// agent, expired or not. Zero when the agent has no policies.
	GetGreatestVersion(ctx context.Context, agentID uuid.UUID) (int, error)
}
