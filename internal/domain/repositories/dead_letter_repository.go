package repositories

import (
	"context"

	"agent-gate.backend/internal/domain/entities"
)

// DeadLetterRepository records webhook events whose processing failed after
// signature verification. Rows are consumed by out-of-band reconciliation.
type DeadLetterRepository interface {
	Create(ctx context.Context, letter *entities.WebhookDeadLetter) error
	List(ctx context.Context, limit, offset int) ([]*entities.WebhookDeadLetter, int64, error)
}
