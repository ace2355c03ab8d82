package repositories

import (
	"context"
	"time"

	"agent-gate.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// PaymentRepository defines payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entities.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Payment, error)
	GetByProviderRef(ctx context.Context, rail entities.Rail, providerRef string) (*entities.Payment, error)
	// ListByMandate returns all payments for a mandate, newest first.
	ListByMandate(ctx context.Context, mandateID uuid.UUID) ([]*entities.Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.PaymentStatus) error
	// MarkSettled sets SETTLED and settled_at in one update.
	MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time) error
	SetProviderRef(ctx context.Context, id uuid.UUID, providerRef string) error
	// SumDailySpendByPolicy sums amounts of SETTLED, PENDING and PROCESSING
	// payments under mandates of the policy created at or after from.
	SumDailySpendByPolicy(ctx context.Context, policyID uuid.UUID, from time.Time) (int64, error)
}
