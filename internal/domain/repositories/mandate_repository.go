package repositories

import (
	"context"
	"time"

	"agent-gate.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// MandateRepository defines mandate data operations
type MandateRepository interface {
	Create(ctx context.Context, mandate *entities.Mandate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Mandate, error)
	GetByIntentID(ctx context.Context, intentID uuid.UUID) (*entities.Mandate, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MandateStatus) error
	// ExpireDue flips ACTIVE mandates past their expiry to EXPIRED and
	// returns how many rows changed.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	// SumOutstandingByPolicy sums ACTIVE mandates of the policy issued at or
	// after from that no live payment has consumed yet. Issued-but-unspent
	// authority counts against the daily cap just like in-flight payments.
	SumOutstandingByPolicy(ctx context.Context, policyID uuid.UUID, from time.Time) (int64, error)
}
